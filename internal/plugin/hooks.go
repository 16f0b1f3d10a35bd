package plugin

import (
	"context"
	"log"
)

// Result is the outcome of one plugin run for an event.
type Result struct {
	Plugin   string
	Response *Response
	Err      error
}

// OK reports whether the plugin ran and reported success.
func (r Result) OK() bool {
	return r.Err == nil && r.Response != nil && r.Response.Success
}

// Message returns the error text of a failed run.
func (r Result) Message() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.Response != nil:
		return r.Response.Error
	}
	return ""
}

// Dispatcher delivers events to every subscribed plugin.
type Dispatcher struct {
	manager  *Manager
	executor *Executor
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(manager *Manager, executor *Executor) *Dispatcher {
	return &Dispatcher{manager: manager, executor: executor}
}

// Dispatch runs the subscribers of req.Event one after another, in name
// order. A failing plugin does not stop the others.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) []Result {
	subs := d.manager.Subscribers(req.Event)
	results := make([]Result, 0, len(subs))

	for _, p := range subs {
		if ctx.Err() != nil {
			results = append(results, Result{Plugin: p.Manifest.Name, Err: ctx.Err()})
			continue
		}

		resp, err := d.executor.Execute(ctx, p, req)
		res := Result{Plugin: p.Manifest.Name, Response: resp, Err: err}
		if !res.OK() {
			log.Printf("Plugin %s failed on %s: %s", p.Manifest.Name, req.Event, res.Message())
		}
		results = append(results, res)
	}

	return results
}
