package pricing

import "fmt"

// Step is a stage of the pricing workflow.
type Step int

const (
	StepUpload Step = 1
	StepPrice  Step = 2
	StepExport Step = 3
)

func (s Step) String() string {
	switch s {
	case StepUpload:
		return "upload"
	case StepPrice:
		return "price"
	case StepExport:
		return "export"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// InitialStep derives the first step from the order a session is opened for.
// Orders in progress resume at pricing, completed orders open at export.
func InitialStep(order *Order) Step {
	if order == nil {
		return StepUpload
	}
	switch order.Status {
	case OrderStatusInProgress:
		return StepPrice
	case OrderStatusCompleted:
		return StepExport
	}
	return StepUpload
}

// Workflow is the forward-only Upload -> Price -> Export stepper.
// It is not safe for concurrent use; Session serializes access.
type Workflow struct {
	step Step
}

func NewWorkflow(order *Order) *Workflow {
	return &Workflow{step: InitialStep(order)}
}

func (w *Workflow) Step() Step { return w.step }

// CompleteUpload moves from Upload to Price.
func (w *Workflow) CompleteUpload() error {
	return w.advance(StepUpload, StepPrice)
}

// Proceed moves from Price to Export.
func (w *Workflow) Proceed() error {
	return w.advance(StepPrice, StepExport)
}

func (w *Workflow) advance(from, to Step) error {
	if w.step != from {
		return fmt.Errorf("%w: %s -> %s while at %s", ErrInvalidTransition, from, to, w.step)
	}
	w.step = to
	return nil
}
