package hub

import (
	"context"
	"time"

	"github.com/onflow/node-dashboard/admin"
	"github.com/onflow/node-dashboard/admin/commands"
	"github.com/onflow/node-dashboard/module/snapshot"
)

var _ commands.AdminCommand = (*ListNodesCommand)(nil)

// NodeLister returns every cached entry.
type NodeLister interface {
	All() []snapshot.Entry
}

type listNodesReq struct {
	staleAfter time.Duration
}

// ListNodesCommand lists the cached nodes with their freshness.
//
// The optional data field is an object {"stale_after": "1m"}; when set, only
// nodes not heard from within that duration are listed.
type ListNodesCommand struct {
	lister NodeLister
	now    func() time.Time
}

func NewListNodesCommand(lister NodeLister) *ListNodesCommand {
	return &ListNodesCommand{
		lister: lister,
		now:    time.Now,
	}
}

func (l *ListNodesCommand) Handler(_ context.Context, req *admin.CommandRequest) (interface{}, error) {
	data := req.ValidatorData.(*listNodesReq)
	now := l.now()

	nodes := make([]map[string]interface{}, 0)
	for _, entry := range l.lister.All() {
		lastSeen := time.UnixMilli(entry.LastSeen)
		age := now.Sub(lastSeen)
		if data.staleAfter > 0 && age < data.staleAfter {
			continue
		}
		nodes = append(nodes, map[string]interface{}{
			"nodeName": entry.NodeName,
			"client":   entry.Client,
			"lastSeen": lastSeen.UTC().Format(time.RFC3339),
			"age":      age.Round(time.Millisecond).String(),
		})
	}

	return nodes, nil
}

// Validator validates the request.
// Returns admin.InvalidAdminReqError for invalid/malformed requests.
func (l *ListNodesCommand) Validator(req *admin.CommandRequest) error {
	data := &listNodesReq{}
	req.ValidatorData = data

	if req.Data == nil {
		return nil
	}

	input, ok := req.Data.(map[string]interface{})
	if !ok {
		return admin.NewInvalidAdminReqFormatError("expected map[string]any")
	}

	if raw, ok := input["stale_after"]; ok {
		s, ok := raw.(string)
		if !ok {
			return admin.NewInvalidAdminReqParameterError("stale_after", "must be a duration string", raw)
		}
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return admin.NewInvalidAdminReqParameterError("stale_after", "must be a positive duration", raw)
		}
		data.staleAfter = d
	}

	return nil
}
