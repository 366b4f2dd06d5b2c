package httpd

import (
	"encoding/json"
	"fmt"

	"github.com/pulse-ui/pulse/pkg/action"
	"github.com/pulse-ui/pulse/pkg/dispatch"
)

// wireRequest is the JSON body of one inbound update request.
type wireRequest struct {
	ID          string         `json:"id"`
	Data        map[string]any `json:"data"`
	ActionQueue []action.Wire  `json:"actionQueue"`
	Epoch       int64          `json:"epoch"`
}

// decodeRequest builds the dispatch request for one component from a
// JSON body.
func decodeRequest(componentName string, body []byte) (*dispatch.Request, error) {
	var wire wireRequest
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("httpd: decode request body: %w", err)
	}

	queue, err := action.DecodeQueue(wire.ActionQueue)
	if err != nil {
		return nil, err
	}
	data := wire.Data
	if data == nil {
		data = make(map[string]any)
	}

	return &dispatch.Request{
		ComponentName: componentName,
		ID:            wire.ID,
		Data:          data,
		Queue:         queue,
		Epoch:         wire.Epoch,
	}, nil
}
