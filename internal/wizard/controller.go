package wizard

// Controller walks the fixed step list. Moving forward is gated by the
// step validator; moving back never is.
type Controller struct {
	index int
}

// NewController starts at the first step.
func NewController() *Controller {
	return &Controller{}
}

// Current returns the current step.
func (c *Controller) Current() Step {
	return Steps[c.index]
}

// Index returns the zero-based position of the current step.
func (c *Controller) Index() int {
	return c.index
}

// IsFirst reports whether there is no previous step.
func (c *Controller) IsFirst() bool {
	return c.index == 0
}

// IsLast reports whether the current step submits instead of advancing.
func (c *Controller) IsLast() bool {
	return c.index == len(Steps)-1
}

// Next validates the current step against the form. On errors they replace the
// form's errors and the step does not change. Otherwise the controller advances
// (unless already on the last step) and the errors are cleared.
// Returns true if the step changed.
func (c *Controller) Next(f *Form) bool {
	errs := ValidateStep(c.Current(), f.values, f.variant)
	if len(errs) > 0 {
		f.errors = errs
		return false
	}
	f.errors = Errors{}
	if c.IsLast() {
		return false
	}
	c.index++
	return true
}

// Previous moves back one step and clears the form's errors.
// Returns true if the step changed.
func (c *Controller) Previous(f *Form) bool {
	if c.IsFirst() {
		return false
	}
	c.index--
	f.errors = Errors{}
	return true
}

// GoTo jumps to step without validating. Used to surface backend field errors
// on the page that owns them. Unknown steps are ignored.
func (c *Controller) GoTo(step Step) {
	for i, s := range Steps {
		if s == step {
			c.index = i
			return
		}
	}
}

// Reset returns to the first step.
func (c *Controller) Reset() {
	c.index = 0
}
