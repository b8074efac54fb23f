package scaffold

import (
	"io"

	"github.com/rs/zerolog"

	"github.com/onflow/node-dashboard/cmd/build"
	"github.com/onflow/node-dashboard/utils/logging"
)

// NewLogger builds the process logger of binary, tagged with the build it runs.
func NewLogger(w io.Writer, config logging.Config, binary string) (zerolog.Logger, error) {
	log, err := logging.NewWithWriter(w, config, binary, build.Semver())
	if err != nil {
		return log, err
	}
	log = log.With().Str(logging.KeyCommit, build.Commit()).Logger()

	if !build.IsDefined(build.Semver()) {
		log.Warn().Msg("build version is undefined, set it with -ldflags")
	}
	return log, nil
}
