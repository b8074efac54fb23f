package hub

import (
	"context"

	"github.com/onflow/node-dashboard/admin"
	"github.com/onflow/node-dashboard/admin/commands"
)

var _ commands.AdminCommand = (*ResetSnapshotCommand)(nil)

// SnapshotResetter empties the snapshot cache of a hub.
type SnapshotResetter interface {
	// ResetSnapshot removes every cached record and returns how many were removed.
	ResetSnapshot() int
}

// ResetSnapshotCommand empties the snapshot cache. Collectors repopulate it with
// their next record.
type ResetSnapshotCommand struct {
	resetter SnapshotResetter
}

func NewResetSnapshotCommand(resetter SnapshotResetter) *ResetSnapshotCommand {
	return &ResetSnapshotCommand{resetter: resetter}
}

func (r *ResetSnapshotCommand) Handler(_ context.Context, _ *admin.CommandRequest) (interface{}, error) {
	removed := r.resetter.ResetSnapshot()
	return map[string]interface{}{
		"removed": removed,
	}, nil
}

// Validator accepts any request. The data field is ignored.
func (r *ResetSnapshotCommand) Validator(_ *admin.CommandRequest) error {
	return nil
}
