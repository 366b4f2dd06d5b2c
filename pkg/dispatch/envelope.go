package dispatch

import "github.com/pulse-ui/pulse/pkg/component"

// Poll tells the client to re-poll the component.
type Poll struct {
	Timing  int    `json:"timing,omitempty"`
	Method  string `json:"method,omitempty"`
	Disable bool   `json:"disable,omitempty"`
}

// ParentEnvelope is the sub-envelope describing a re-rendered parent
// component.
type ParentEnvelope struct {
	ID       string                     `json:"id"`
	DOM      string                     `json:"dom"`
	Checksum string                     `json:"checksum,omitempty"`
	Data     map[string]any             `json:"data"`
	Errors   component.ValidationErrors `json:"errors"`
}

// Envelope is the result built for one processed request. Return is
// the raw method return payload; when drains cascade over merged
// requests it nests as [first, merged] pairs, one level per merge.
type Envelope struct {
	ID       string                     `json:"id"`
	DOM      string                     `json:"dom"`
	Data     map[string]any             `json:"data"`
	Errors   component.ValidationErrors `json:"errors"`
	Return   any                        `json:"return,omitempty"`
	Redirect string                     `json:"redirect,omitempty"`
	Poll     *Poll                      `json:"poll,omitempty"`
	Parent   *ParentEnvelope            `json:"parent,omitempty"`
}
