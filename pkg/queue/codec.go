package queue

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/pulse-ui/pulse/pkg/dispatch"
)

// encodeRequest serializes one pending request for the shared store.
func encodeRequest(req *dispatch.Request) ([]byte, error) {
	raw, err := msgpack.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("queue: encode request %s: %w", req.Key(), err)
	}
	return raw, nil
}

func decodeRequest(raw []byte) (*dispatch.Request, error) {
	var req dispatch.Request
	if err := msgpack.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("queue: decode pending request: %w", err)
	}
	return &req, nil
}

func decodeRequests(items [][]byte) ([]*dispatch.Request, error) {
	reqs := make([]*dispatch.Request, 0, len(items))
	for _, item := range items {
		req, err := decodeRequest(item)
		if err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}
