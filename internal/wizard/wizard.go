// Package wizard implements the generic step machine behind every
// multi-step form flow: booking, customer, driver, vehicle and the admin
// decline sub-flow. A Definition lists the steps; a Controller walks one
// session through them, skipping steps whose skip predicate holds.
package wizard

import (
	"errors"

	"karenta/internal/models"
)

// Step is one screen of a wizard. Validate defaults to checking Fields;
// a custom Validate overrides that for cross-field rules. SkipIf, when it
// returns true, removes the step from both forward and backward paths.
type Step struct {
	Name     string
	Message  string
	Fields   []Field
	Validate func(*models.WizardSession) bool
	SkipIf   func(*models.WizardSession) bool
}

// Definition is the full step list for one wizard kind.
type Definition struct {
	Kind  string
	Steps []Step
}

// ErrUnknownKind is returned when no definition exists for a wizard kind.
var ErrUnknownKind = errors.New("unknown wizard kind")

// Controller advances a single session through a definition. Steps are
// numbered 1..TotalSteps and the session's CurrentStep never leaves that
// range.
type Controller struct {
	def     Definition
	session *models.WizardSession
}

func NewController(def Definition, session *models.WizardSession) *Controller {
	if session.CurrentStep < 1 {
		session.CurrentStep = 1
	}
	session.TotalSteps = len(def.Steps)
	if session.CurrentStep > session.TotalSteps {
		session.CurrentStep = session.TotalSteps
	}
	c := &Controller{def: def, session: session}
	// Land on the first non-skipped step so a skipped opener (auth already
	// satisfied) is never shown.
	for session.CurrentStep < session.TotalSteps && c.skipped(session.CurrentStep) {
		session.CurrentStep++
	}
	return c
}

// Step returns the definition of the session's current step.
func (c *Controller) Step() Step {
	return c.def.Steps[c.session.CurrentStep-1]
}

func (c *Controller) stepValid(idx int) bool {
	step := c.def.Steps[idx-1]
	if step.SkipIf != nil && step.SkipIf(c.session) {
		return true
	}
	if step.Validate != nil {
		return step.Validate(c.session)
	}
	for _, f := range step.Fields {
		if !f.Valid(c.session) {
			return false
		}
	}
	return true
}

func (c *Controller) skipped(idx int) bool {
	step := c.def.Steps[idx-1]
	return step.SkipIf != nil && step.SkipIf(c.session)
}

// Next validates the current step and advances past it and any skipped
// steps. On validation failure it records the step's message on the
// session and stays put.
func (c *Controller) Next() bool {
	if !c.stepValid(c.session.CurrentStep) {
		c.session.Error = c.Step().Message
		return false
	}
	c.session.Error = ""

	next := c.session.CurrentStep + 1
	for next <= c.session.TotalSteps && c.skipped(next) {
		next++
	}
	// Every remaining step is skipped (or none remain): the session is on
	// its last reachable step and stays there.
	if next > c.session.TotalSteps {
		return true
	}
	c.session.CurrentStep = next
	return true
}

// Back steps backward, mirroring any skip applied on the way forward.
func (c *Controller) Back() {
	c.session.Error = ""
	prev := c.session.CurrentStep - 1
	for prev >= 1 && c.skipped(prev) {
		prev--
	}
	if prev < 1 {
		prev = 1
	}
	c.session.CurrentStep = prev
}

// JumpTo moves directly to step n, clamped to the valid range. No
// validation runs; callers use it to reopen a previously completed step.
func (c *Controller) JumpTo(n int) {
	if n < 1 {
		n = 1
	}
	if n > c.session.TotalSteps {
		n = c.session.TotalSteps
	}
	c.session.Error = ""
	c.session.CurrentStep = n
}

// OnFinalStep reports whether the session sits on the last non-skipped
// step.
func (c *Controller) OnFinalStep() bool {
	for idx := c.session.CurrentStep + 1; idx <= c.session.TotalSteps; idx++ {
		if !c.skipped(idx) {
			return false
		}
	}
	return true
}

// ValidateAll runs every non-skipped step's validation, for full-form
// validation at submit time. It returns the first failing step's index and
// message.
func (c *Controller) ValidateAll() (int, string, bool) {
	for idx := 1; idx <= c.session.TotalSteps; idx++ {
		if c.skipped(idx) {
			continue
		}
		if !c.stepValid(idx) {
			return idx, c.def.Steps[idx-1].Message, false
		}
	}
	return 0, "", true
}
