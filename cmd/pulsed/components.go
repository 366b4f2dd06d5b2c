package main

import (
	"fmt"

	"github.com/pulse-ui/pulse/pkg/component"
)

// Counter is the built-in smoke-test component: a counter with an
// adjustable step, served under the name "counter".
type Counter struct {
	component.Base

	Count int `json:"count"`
	Step  int `json:"step"`
}

// NewCounter constructs a counter instance.
func NewCounter(id string) component.Instance {
	c := &Counter{Step: 1}
	c.Bind(c, id, "counter")
	return c
}

// Increment adds the current step to the count.
func (c *Counter) Increment() int {
	c.Count += c.Step
	return c.Count
}

// Decrement subtracts the current step from the count.
func (c *Counter) Decrement() int {
	c.Count -= c.Step
	return c.Count
}

// Render returns the counter markup.
func (c *Counter) Render() (string, error) {
	return fmt.Sprintf(`<div pulse-id=%q><span>%d</span></div>`, c.ID(), c.Count), nil
}

func registerBuiltins(registry *component.Registry) {
	registry.Register("counter", NewCounter)
}
