package controller

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lcsecurity/scamcheck/internal/predict"
	"go.uber.org/zap"
)

// DefaultTimeout bounds a single prediction request.
const DefaultTimeout = 10 * time.Second

// ErrEmptyMessage is reported when a submission has nothing but whitespace.
var ErrEmptyMessage = errors.New("Message cannot be empty")

// Controller owns the input, the selected backend and the state of the one
// current submission. It is not safe for concurrent use: all methods must be
// called from the goroutine that owns the UI loop. Only Task.Run may execute
// elsewhere.
type Controller struct {
	predictor predict.Predictor
	logger    *zap.Logger
	timeout   time.Duration

	input      string
	variant    predict.Variant
	status     Status
	result     *predict.Result
	errMsg     string
	generation uint64

	submitted        string
	submittedVariant predict.Variant

	observers    map[int]Observer
	nextObserver int
}

// Option configures a Controller.
type Option func(*Controller)

// WithTimeout sets the per-request timeout. Non-positive values keep the default.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithVariant sets the initially selected backend.
func WithVariant(variant predict.Variant) Option {
	return func(c *Controller) {
		c.variant = variant
	}
}

func New(predictor predict.Predictor, logger *zap.Logger, opts ...Option) *Controller {
	c := &Controller{
		predictor: predictor,
		logger:    logger,
		timeout:   DefaultTimeout,
		status:    Idle,
		observers: make(map[int]Observer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	return State{
		Input:      c.input,
		Variant:    c.variant,
		Status:     c.status,
		Result:     c.result,
		Error:      c.errMsg,
		Generation: c.generation,
		Submitted:  c.submitted,

		SubmittedVariant: c.submittedVariant,
	}
}

// Subscribe registers an observer and returns a function that removes it.
func (c *Controller) Subscribe(observer Observer) func() {
	id := c.nextObserver
	c.nextObserver++
	c.observers[id] = observer
	return func() {
		delete(c.observers, id)
	}
}

func (c *Controller) notify() {
	state := c.State()
	for _, observer := range c.observers {
		observer.StateChanged(state)
	}
}

// UpdateInput replaces the input text verbatim.
func (c *Controller) UpdateInput(text string) {
	if text == c.input {
		return
	}
	c.input = text
	c.notify()
}

// SelectVariant chooses the backend for the next submission.
func (c *Controller) SelectVariant(variant predict.Variant) {
	if variant == c.variant {
		return
	}
	c.variant = variant
	c.logger.Debug("model variant selected", zap.Stringer("variant", variant))
	c.notify()
}

// Submit checks the current input. It returns nil when the input is blank.
func (c *Controller) Submit() *Task {
	return c.submit(c.input)
}

// SubmitPreset checks text instead of the live input and copies it into the
// input so the user can see what was checked.
func (c *Controller) SubmitPreset(text string) *Task {
	return c.submit(text)
}

func (c *Controller) submit(text string) *Task {
	// Any submission, valid or not, supersedes whatever is outstanding.
	c.generation++
	c.submitted = text
	c.submittedVariant = c.variant

	if strings.TrimSpace(text) == "" {
		c.status = Failed
		c.result = nil
		c.errMsg = ErrEmptyMessage.Error()
		c.logger.Debug("rejected empty submission", zap.Uint64("generation", c.generation))
		c.notify()
		return nil
	}

	c.input = text
	c.result = nil
	c.errMsg = ""
	c.status = InFlight
	c.notify()

	c.logger.Debug("submission in flight",
		zap.Uint64("generation", c.generation),
		zap.Stringer("variant", c.variant),
	)

	return &Task{
		generation: c.generation,
		request:    predict.NewRequest(text, c.variant),
		predictor:  c.predictor,
		timeout:    c.timeout,
		logger:     c.logger,
	}
}

// Settle applies the outcome of a task. It returns false, leaving the state
// untouched, when the outcome belongs to a superseded submission.
func (c *Controller) Settle(outcome Outcome) bool {
	if outcome.Generation != c.generation || c.status != InFlight {
		c.logger.Debug("discarding stale prediction",
			zap.Uint64("startGeneration", outcome.Generation),
			zap.Uint64("currentGeneration", c.generation),
			zap.Stringer("status", c.status),
		)
		return false
	}

	if outcome.Err != nil {
		c.status = Failed
		c.result = nil
		c.errMsg = "Error: " + outcome.Err.Error()
	} else {
		c.status = Succeeded
		c.result = outcome.Result
		c.errMsg = ""
	}
	c.notify()
	return true
}

// Check submits text (or the live input when text is empty), waits for the
// request and settles it. It is meant for non-interactive callers.
func (c *Controller) Check(ctx context.Context, text string) State {
	var task *Task
	if text == "" {
		task = c.Submit()
	} else {
		task = c.SubmitPreset(text)
	}
	if task != nil {
		c.Settle(task.Run(ctx))
	}
	return c.State()
}

// Task is one outstanding prediction request.
type Task struct {
	generation uint64
	request    predict.Request
	predictor  predict.Predictor
	timeout    time.Duration
	logger     *zap.Logger
}

// Outcome is what a Task produced, tagged with the submission it belongs to.
type Outcome struct {
	Generation uint64
	Result     *predict.Result
	Err        error
}

func (t *Task) Generation() uint64 {
	return t.generation
}

func (t *Task) Request() predict.Request {
	return t.request
}

// Run performs the request. It only reads values captured at submit time, so
// it may run on any goroutine.
func (t *Task) Run(ctx context.Context) Outcome {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	started := time.Now()
	result, err := t.predictor.Predict(ctx, t.request)
	if err == nil && result == nil {
		err = errors.New("prediction service returned no result")
	}
	if err != nil {
		t.logger.Error("prediction failed",
			zap.Uint64("generation", t.generation),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err),
		)
		return Outcome{Generation: t.generation, Err: err}
	}

	t.logger.Debug("prediction received",
		zap.Uint64("generation", t.generation),
		zap.Stringer("label", result.Label),
		zap.Duration("elapsed", time.Since(started)),
	)
	return Outcome{Generation: t.generation, Result: result}
}
