package common

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/onflow/node-dashboard/admin"
	"github.com/onflow/node-dashboard/admin/commands"
)

var _ commands.AdminCommand = (*SetLogLevelCommand)(nil)

// SetLogLevelCommand changes the global log level of the process.
type SetLogLevelCommand struct{}

func (s *SetLogLevelCommand) Handler(_ context.Context, req *admin.CommandRequest) (interface{}, error) {
	level := req.ValidatorData.(zerolog.Level)
	previous := zerolog.GlobalLevel()
	zerolog.SetGlobalLevel(level)

	return fmt.Sprintf("log level changed from %s to %s", previous, level), nil
}

// Validator validates the request.
// Returns admin.InvalidAdminReqError for invalid/malformed requests.
func (s *SetLogLevelCommand) Validator(req *admin.CommandRequest) error {
	raw, ok := req.Data.(string)
	if !ok {
		return admin.NewInvalidAdminReqFormatError("the data field must be a string, e.g. \"debug\"")
	}

	level, err := zerolog.ParseLevel(raw)
	if err != nil {
		return admin.NewInvalidAdminReqParameterError("data", "unknown log level", raw)
	}
	if level == zerolog.NoLevel {
		return admin.NewInvalidAdminReqParameterError("data", "log level must not be empty", raw)
	}

	req.ValidatorData = level
	return nil
}
