package scaffold

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ConfigFileFlag names the optional configuration file.
const ConfigFileFlag = "config"

// LoadConfig decodes the process configuration into out, a pointer to a struct with
// mapstructure tags named after the flags.
//
// Values are resolved with the following precedence: explicitly set flag, environment
// variable (envPrefix + flag name in upper case, dashes replaced by underscores),
// configuration file, flag default.
func LoadConfig(flags *pflag.FlagSet, envPrefix string, out any) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return fmt.Errorf("could not bind flags: %w", err)
	}

	if file := v.GetString(ConfigFileFlag); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("could not read config file %s: %w", file, err)
		}
	}

	err := v.Unmarshal(out, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		trimSliceHookFunc(),
	)))
	if err != nil {
		return fmt.Errorf("could not decode config: %w", err)
	}

	return nil
}

// trimSliceHookFunc trims the elements of string slices and drops empty ones, so
// "a, b," decodes to [a b].
func trimSliceHookFunc() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, _ reflect.Type, data any) (any, error) {
		raw, ok := data.([]string)
		if !ok {
			return data, nil
		}
		trimmed := make([]string, 0, len(raw))
		for _, s := range raw {
			if s = strings.TrimSpace(s); s != "" {
				trimmed = append(trimmed, s)
			}
		}
		return trimmed, nil
	}
}
