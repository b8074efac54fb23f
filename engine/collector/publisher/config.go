package publisher

import (
	"time"
)

// Config configures the fan-out publisher.
type Config struct {
	// Targets are the hubs every record is sent to, as accepted by channel.ParseTarget.
	Targets []string

	// Token is the shared credential presented to every hub. Empty sends none.
	Token string

	// MaxConnectAttempts is the number of consecutive failed dials after which a
	// target is considered permanently unreachable, which is fatal to the process.
	// Zero retries forever.
	MaxConnectAttempts uint64

	// RetryBase is the initial reconnect delay; it doubles up to RetryMax.
	RetryBase time.Duration
	RetryMax  time.Duration

	// RetryJitterPercent randomizes reconnect delays by up to this percentage.
	RetryJitterPercent uint64
}

func DefaultConfig() Config {
	return Config{
		Targets:            []string{"localhost:3000"},
		RetryBase:          time.Second,
		RetryMax:           30 * time.Second,
		RetryJitterPercent: 10,
	}
}
