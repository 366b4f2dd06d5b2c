package dispatch

// Redirector is implemented by method return values that redirect the
// client.
type Redirector interface {
	RedirectURL() string
}

// Poller is implemented by method return values that start or adjust
// client polling.
type Poller interface {
	PollSpec() *Poll
}

// Return captures the outcome of the last method-call action in a
// request: the method identity, its arguments, and its return value.
type Return struct {
	Method string
	Args   []any

	value    any
	redirect string
	poll     *Poll
}

func newReturn(method string, args []any) *Return {
	return &Return{Method: method, Args: args}
}

// SetValue records the method's return value, lifting redirect and
// poll instructions out of it when present.
func (r *Return) SetValue(v any) {
	r.value = v

	switch rv := v.(type) {
	case Redirector:
		r.redirect = rv.RedirectURL()
	case Poller:
		r.poll = rv.PollSpec()
	case map[string]any:
		if url, ok := rv["redirect"].(string); ok {
			r.redirect = url
		}
	}
}

// Data is the envelope payload for this return.
func (r *Return) Data() map[string]any {
	args := r.Args
	if args == nil {
		args = []any{}
	}
	return map[string]any{
		"method": r.Method,
		"args":   args,
		"value":  r.value,
	}
}
