// Package dispatch maps incoming tool invocations onto handlers: look up the
// tool, validate the argument shape, run the handler, and fold any failure
// into the stable taxonomy. No raw underlying error ever escapes to the
// transport.
package dispatch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/spance/android-operator/operator"
	"github.com/spance/android-operator/operator/faults"
	"github.com/spance/android-operator/operator/session"
)

// Args is the validated, type-coerced argument map a handler receives.
type Args map[string]any

type Handler func(ctx context.Context, args Args) (any, error)

type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Result is the response envelope: exactly one of Data or Failure is set.
type Result struct {
	Success bool            `json:"success"`
	Data    any             `json:"data,omitempty"`
	Failure *faults.Failure `json:"error,omitempty"`
}

type Dispatcher struct {
	tools map[string]*Tool
	order []string
}

// NewDispatcher builds the full tool catalog over the given session manager
// and driver. adbPath is only used by check_adb to report toolchain
// availability.
func NewDispatcher(sessions *session.Manager, driver operator.Driver, adbPath string) *Dispatcher {
	svc := &service{sessions: sessions, driver: driver, adbPath: adbPath}

	d := &Dispatcher{tools: make(map[string]*Tool)}
	for _, group := range [][]*Tool{
		svc.deviceTools(),
		svc.appTools(),
		svc.screenTools(),
		svc.inputTools(),
		svc.inspectionTools(),
		svc.advancedTools(),
	} {
		for _, t := range group {
			d.register(t)
		}
	}
	return d
}

func (d *Dispatcher) register(t *Tool) {
	if _, dup := d.tools[t.Name]; dup {
		panic("duplicate tool name: " + t.Name)
	}
	d.tools[t.Name] = t
	d.order = append(d.order, t.Name)
}

// Tools returns the catalog in registration order.
func (d *Dispatcher) Tools() []*Tool {
	out := make([]*Tool, 0, len(d.order))
	for _, name := range d.order {
		out = append(out, d.tools[name])
	}
	return out
}

// Dispatch runs one tool invocation end to end. Unknown names and invalid
// arguments fail before any device interaction.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, raw map[string]any) Result {
	tool, ok := d.tools[name]
	if !ok {
		return failure(faults.New(faults.UnknownTool, "unknown tool: %s", name))
	}

	args, err := validateArgs(tool.Params, raw)
	if err != nil {
		return failure(err)
	}

	log.Debug().Str("tool", name).Msg("dispatching")
	payload, err := tool.Handler(ctx, args)
	if err != nil {
		log.Debug().Str("tool", name).Err(err).Msg("tool failed")
		return failure(err)
	}
	return Result{Success: true, Data: payload}
}

func failure(err error) Result {
	f := faults.Normalize(err)
	return Result{Success: false, Failure: &f}
}

// service carries the shared collaborators every tool handler needs.
type service struct {
	sessions *session.Manager
	driver   operator.Driver
	adbPath  string
}
