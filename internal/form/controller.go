package form

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"catalog/internal/logger"
	"catalog/internal/models"
)

// State of a Controller.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateInvalid
	StateValid
	StateSubmitting
	StateSuccess
	StateFailure
)

var stateNames = [...]string{"idle", "validating", "invalid", "valid", "submitting", "success", "failure"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// SubmitFunc persists validated values. Navigation after success is up to the caller.
type SubmitFunc func(ctx context.Context, in models.ProductInput) error

// Outcome of one Submit call.
type Outcome struct {
	Values     models.ProductInput
	Violations []Violation
	Err        error
}

// Submitted reports whether the submit callback ran and succeeded.
func (o Outcome) Submitted() bool { return len(o.Violations) == 0 && o.Err == nil }

// Controller drives one create or edit form:
//
//	Idle -> Validating -> Invalid -> Idle
//	                   -> Valid -> Submitting -> Success
//	                                          -> Failure -> Idle
type Controller struct {
	schema Schema
	log    *zap.Logger

	mu             sync.Mutex
	state          State
	draft          Draft
	violations     []Violation
	lockedCategory *string
	onState        func(State)
}

func NewController(schema Schema, initial Draft, log *zap.Logger) *Controller {
	return &Controller{schema: schema, draft: initial, log: logger.OrNop(log)}
}

// LockCategory makes the category read-only. Submitted drafts keep category
// whatever they carry in that field.
func (c *Controller) LockCategory(category string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lockedCategory = &category
	c.draft.Category = category
}

// CategoryLocked reports whether the category input is rendered disabled.
func (c *Controller) CategoryLocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lockedCategory != nil
}

// OnState registers a hook called on every transition, mostly for tests and tracing.
func (c *Controller) OnState(fn func(State)) {
	c.mu.Lock()
	c.onState = fn
	c.mu.Unlock()
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Loading is true while the submit callback runs.
func (c *Controller) Loading() bool {
	return c.State() == StateSubmitting
}

// Draft returns the values currently held by the form.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Errors returns the messages of the last validation.
func (c *Controller) Errors() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.violations))
	for i, v := range c.violations {
		out[i] = v.Message
	}
	return out
}

// Submit validates d and, when valid, calls fn exactly once with the coerced values.
// Violations are all collected; fn is not called when there is any.
func (c *Controller) Submit(ctx context.Context, d Draft, fn SubmitFunc) Outcome {
	c.mu.Lock()
	if c.lockedCategory != nil {
		d.Category = *c.lockedCategory
	}
	c.draft = d
	c.violations = nil
	c.mu.Unlock()

	c.transition(StateValidating)
	in, violations := c.schema.Check(d)
	if len(violations) > 0 {
		c.mu.Lock()
		c.violations = violations
		c.mu.Unlock()
		c.transition(StateInvalid)
		c.transition(StateIdle)
		return Outcome{Values: in, Violations: violations}
	}

	c.transition(StateValid)
	c.transition(StateSubmitting)
	if err := fn(ctx, in); err != nil {
		c.log.Error("submit failed", zap.String("title", in.Title), zap.Error(err))
		c.transition(StateFailure)
		c.transition(StateIdle)
		return Outcome{Values: in, Err: err}
	}
	c.transition(StateSuccess)
	return Outcome{Values: in}
}

func (c *Controller) transition(s State) {
	c.mu.Lock()
	c.state = s
	hook := c.onState
	c.mu.Unlock()
	if hook != nil {
		hook(s)
	}
}
