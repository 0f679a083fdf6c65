package fulfillment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropship/backend/internal/domain/fulfillment"
	"github.com/dropship/backend/internal/infrastructure/telemetry"
)

// Step is one action of a saga
type Step struct {
	Name string
	Run  func(ctx context.Context) error
}

// StepError reports which step aborted a saga
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ErrStepPanicked wraps a panic raised inside a step
var ErrStepPanicked = errors.New("step panicked")

// StepObserver is told how each executed step went
type StepObserver func(step string, elapsed time.Duration, err error)

// Saga runs steps strictly in order, each under its own timeout. The first
// failing step aborts the saga; steps already run are not undone.
type Saga struct {
	steps       []Step
	stepTimeout time.Duration
	observer    StepObserver
}

// NewSaga creates a saga. A zero stepTimeout leaves steps bounded only by ctx.
func NewSaga(stepTimeout time.Duration, steps ...Step) *Saga {
	return &Saga{steps: steps, stepTimeout: stepTimeout}
}

// Observe registers a step observer
func (s *Saga) Observe(o StepObserver) *Saga {
	s.observer = o
	return s
}

// Steps returns the step names in execution order
func (s *Saga) Steps() []string {
	names := make([]string, 0, len(s.steps))
	for _, st := range s.steps {
		names = append(names, st.Name)
	}
	return names
}

// Run executes the saga
func (s *Saga) Run(ctx context.Context) error {
	for _, step := range s.steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Step: step.Name, Err: err}
		}

		start := time.Now()
		err := s.runStep(ctx, step)
		if s.observer != nil {
			s.observer(step.Name, time.Since(start), err)
		}
		if err != nil {
			return &StepError{Step: step.Name, Err: err}
		}
	}
	return nil
}

func (s *Saga) runStep(ctx context.Context, step Step) (err error) {
	if s.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stepTimeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
	}()
	telemetry.WithProfilingLabels(ctx, map[string]string{telemetry.ProfilingLabelStep: stepKind(step.Name)}, func(ctx context.Context) {
		err = step.Run(ctx)
	})
	return err
}

// stepKind drops the item index, so every add_item step shares one label
func stepKind(name string) string {
	kind, _, _ := strings.Cut(name, "[")
	return kind
}

// NewOrderPlacementSaga builds the steps that replicate payload on site.
// The confirmation read by the final step is written into conf.
func NewOrderPlacementSaga(site SourceSite, payload fulfillment.Payload, stepTimeout time.Duration, conf *fulfillment.Confirmation) *Saga {
	steps := make([]Step, 0, len(payload.Items)+4)
	steps = append(steps, Step{Name: "clear_cart", Run: site.ClearCart})

	for i, item := range payload.Items {
		item := item
		steps = append(steps, Step{
			Name: fmt.Sprintf("add_item[%d]", i),
			Run: func(ctx context.Context) error {
				return site.AddToCart(ctx, item)
			},
		})
	}

	steps = append(steps,
		Step{Name: "open_cart", Run: site.OpenCartAndCheckout},
		Step{Name: "fill_address", Run: func(ctx context.Context) error {
			return site.FillShippingAddress(ctx, payload.ShippingAddress)
		}},
		Step{Name: "place_order", Run: func(ctx context.Context) error {
			c, err := site.PlaceOrder(ctx)
			if err != nil {
				return err
			}
			if c == nil || c.SourceOrderNumber == "" {
				return errors.New("order number not found on confirmation page")
			}
			*conf = *c
			return nil
		}},
	)

	return NewSaga(stepTimeout, steps...)
}
