package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/lcsecurity/scamcheck/internal/predict"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePredictor records every request and answers from respond.
type fakePredictor struct {
	mu       sync.Mutex
	requests []predict.Request
	respond  func(req predict.Request) (*predict.Result, error)
}

func (f *fakePredictor) Predict(ctx context.Context, req predict.Request) (*predict.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.respond == nil {
		return &predict.Result{Label: predict.Benign}, nil
	}
	return f.respond(req)
}

func (f *fakePredictor) calls() []predict.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]predict.Request(nil), f.requests...)
}

func newTestController(p predict.Predictor, opts ...Option) *Controller {
	return New(p, zap.NewNop(), opts...)
}

func TestSubmit_BlankInputNeverCallsService(t *testing.T) {
	for _, input := range []string{"", " ", "\t\n", "   \r\n  "} {
		t.Run("input="+input, func(t *testing.T) {
			p := &fakePredictor{}
			c := newTestController(p)
			c.UpdateInput(input)

			task := c.Submit()

			assert.Nil(t, task)
			state := c.State()
			assert.Equal(t, Failed, state.Status)
			assert.Equal(t, "Message cannot be empty", state.Error)
			assert.Nil(t, state.Result)
			assert.Empty(t, p.calls())
		})
	}
}

func TestSubmit_EmptyScenario(t *testing.T) {
	p := &fakePredictor{}
	c := newTestController(p)

	state := c.Check(context.Background(), "")

	assert.Equal(t, Failed, state.Status)
	assert.Equal(t, "Message cannot be empty", state.Error)
	assert.Empty(t, p.calls())
}

func TestSubmit_TransitionsToInFlightBeforeAnyIO(t *testing.T) {
	p := &fakePredictor{}
	c := newTestController(p)
	c.UpdateInput("hello")

	task := c.Submit()

	require.NotNil(t, task)
	assert.Equal(t, InFlight, c.State().Status)
	assert.True(t, c.State().Busy())
	assert.Empty(t, p.calls(), "no request may be issued until the task runs")
}

func TestCheck_LunchScenario(t *testing.T) {
	p := &fakePredictor{respond: func(req predict.Request) (*predict.Result, error) {
		return &predict.Result{Label: predict.Benign}, nil
	}}
	c := newTestController(p)
	c.UpdateInput("Do you want to have lunch tomorrow?")

	state := c.Check(context.Background(), "")

	assert.Equal(t, Succeeded, state.Status)
	require.NotNil(t, state.Result)
	assert.Equal(t, predict.Benign, state.Result.Label)
	assert.False(t, state.Result.HasConfidence())
	assert.Empty(t, state.Error)
	require.Len(t, p.calls(), 1)
	assert.Equal(t, "Do you want to have lunch tomorrow?", p.calls()[0].Message)
}

func TestCheck_AgainstHTTPService(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantState Status
		wantError string
		wantLabel predict.Label
		wantConf  *float64
	}{
		{
			name:      "benign string",
			status:    http.StatusOK,
			body:      `{"prediction": "Benign"}`,
			wantState: Succeeded,
			wantLabel: predict.Benign,
		},
		{
			name:      "integer flag with confidence",
			status:    http.StatusOK,
			body:      `{"prediction": 1, "Confidence": 97.3}`,
			wantState: Succeeded,
			wantLabel: predict.Malicious,
			wantConf:  func() *float64 { f := 97.3; return &f }(),
		},
		{
			name:      "service error with detail",
			status:    http.StatusInternalServerError,
			body:      `{"detail": "model unavailable"}`,
			wantState: Failed,
			wantError: "Error: Failed to fetch prediction: model unavailable",
		},
		{
			name:      "service error without detail",
			status:    http.StatusNotFound,
			body:      `{}`,
			wantState: Failed,
			wantError: "Error: Failed to fetch prediction: Not Found",
		},
		{
			name:      "proxy error page is not json",
			status:    http.StatusBadGateway,
			body:      "<html><body>502 Bad Gateway</body></html>",
			wantState: Failed,
			wantError: "Error: Failed to fetch prediction: Bad Gateway",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestController(predict.NewClient(server.URL, "test", zap.NewNop()))
			state := c.Check(context.Background(), "claim your prize now")

			assert.Equal(t, tt.wantState, state.Status)
			assert.Equal(t, tt.wantError, state.Error)
			if tt.wantState == Succeeded {
				require.NotNil(t, state.Result)
				assert.Equal(t, tt.wantLabel, state.Result.Label)
				assert.Equal(t, tt.wantConf, state.Result.Confidence)
			} else {
				assert.Nil(t, state.Result)
			}
		})
	}
}

func TestCheck_TransportErrorIsPrefixed(t *testing.T) {
	p := &fakePredictor{respond: func(req predict.Request) (*predict.Result, error) {
		return nil, &predict.TransportError{Err: errors.New("connection refused")}
	}}
	c := newTestController(p)

	state := c.Check(context.Background(), "hi")

	assert.Equal(t, Failed, state.Status)
	assert.Equal(t, "Error: connection refused", state.Error)
}

func TestCheck_TimeoutSettlesAsFailure(t *testing.T) {
	blocking := predictorFunc(func(ctx context.Context, req predict.Request) (*predict.Result, error) {
		<-ctx.Done()
		return nil, &predict.TransportError{Err: ctx.Err()}
	})
	c := newTestController(blocking, WithTimeout(20*time.Millisecond))

	state := c.Check(context.Background(), "hi")

	assert.Equal(t, Failed, state.Status)
	assert.Equal(t, "Error: context deadline exceeded", state.Error)
	assert.False(t, state.Busy())
}

func TestSelectVariant_ChangesPayloadOnly(t *testing.T) {
	p := &fakePredictor{respond: func(req predict.Request) (*predict.Result, error) {
		if req.UseBERT {
			return &predict.Result{Label: predict.Malicious}, nil
		}
		return &predict.Result{Label: predict.Benign}, nil
	}}
	c := newTestController(p)
	c.UpdateInput("same message")

	c.SelectVariant(predict.LegacyStatistical)
	legacy := c.Check(context.Background(), "")
	assert.Equal(t, "same message", c.State().Input)

	c.SelectVariant(predict.NeuralEmbedding)
	assert.Equal(t, "same message", c.State().Input)
	assert.Equal(t, Succeeded, c.State().Status, "selecting a variant must not touch request state")
	assert.Equal(t, predict.LegacyStatistical, c.State().SubmittedVariant)
	neural := c.Check(context.Background(), "")

	calls := p.calls()
	require.Len(t, calls, 2)
	assert.False(t, calls[0].UseBERT)
	assert.True(t, calls[1].UseBERT)
	assert.Equal(t, calls[0].Message, calls[1].Message)
	assert.Equal(t, predict.Benign, legacy.Result.Label)
	assert.Equal(t, predict.Malicious, neural.Result.Label)
	assert.Equal(t, predict.NeuralEmbedding, neural.SubmittedVariant)
}

func TestUpdateInput_DoesNotTouchRequestState(t *testing.T) {
	c := newTestController(&fakePredictor{})
	c.UpdateInput("first")
	task := c.Submit()
	require.NotNil(t, task)

	c.UpdateInput("typing while waiting")

	state := c.State()
	assert.Equal(t, InFlight, state.Status)
	assert.Equal(t, "typing while waiting", state.Input)
	assert.Equal(t, "first", state.Submitted)
	assert.Equal(t, "first", task.Request().Message)
}

func TestSubmitPreset_CopiesTextIntoInput(t *testing.T) {
	p := &fakePredictor{}
	c := newTestController(p)
	c.UpdateInput("something else")

	task := c.SubmitPreset("URGENT: verify your account")

	require.NotNil(t, task)
	assert.Equal(t, "URGENT: verify your account", c.State().Input)
	assert.Equal(t, "URGENT: verify your account", task.Request().Message)
}

func TestOrdering_LaterSubmissionWins(t *testing.T) {
	tests := []struct {
		name         string
		settleAFirst bool
	}{
		{"slow earlier request resolves last", false},
		{"earlier request resolves before later one", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePredictor{respond: func(req predict.Request) (*predict.Result, error) {
				if req.Message == "A" {
					return &predict.Result{Label: predict.Malicious}, nil
				}
				return &predict.Result{Label: predict.Benign}, nil
			}}
			c := newTestController(p)

			taskA := c.SubmitPreset("A")
			taskB := c.SubmitPreset("B")
			require.NotNil(t, taskA)
			require.NotNil(t, taskB)
			assert.Equal(t, InFlight, c.State().Status)

			if tt.settleAFirst {
				assert.False(t, c.Settle(taskA.Run(context.Background())))
				assert.Equal(t, InFlight, c.State().Status)
				assert.True(t, c.Settle(taskB.Run(context.Background())))
			} else {
				assert.True(t, c.Settle(taskB.Run(context.Background())))
				assert.False(t, c.Settle(taskA.Run(context.Background())))
			}

			state := c.State()
			assert.Equal(t, Succeeded, state.Status)
			assert.Equal(t, predict.Benign, state.Result.Label)
			assert.Equal(t, "B", state.Input)
		})
	}
}

func TestOrdering_StaleFailureCannotClobberResult(t *testing.T) {
	p := &fakePredictor{respond: func(req predict.Request) (*predict.Result, error) {
		if req.Message == "A" {
			return nil, &predict.ServiceError{StatusCode: 500, Detail: "boom"}
		}
		return &predict.Result{Label: predict.Benign}, nil
	}}
	c := newTestController(p)

	taskA := c.SubmitPreset("A")
	taskB := c.SubmitPreset("B")
	c.Settle(taskB.Run(context.Background()))
	c.Settle(taskA.Run(context.Background()))

	assert.Equal(t, Succeeded, c.State().Status)
	assert.Empty(t, c.State().Error)
}

func TestOrdering_EmptySubmissionSupersedesInFlight(t *testing.T) {
	c := newTestController(&fakePredictor{})

	taskA := c.SubmitPreset("A")
	require.NotNil(t, taskA)
	assert.Nil(t, c.SubmitPreset("   "))

	assert.False(t, c.Settle(taskA.Run(context.Background())))
	assert.Equal(t, Failed, c.State().Status)
	assert.Equal(t, "Message cannot be empty", c.State().Error)
}

func TestSettle_AppliesOnlyOnce(t *testing.T) {
	c := newTestController(&fakePredictor{})
	task := c.SubmitPreset("once")
	outcome := task.Run(context.Background())

	assert.True(t, c.Settle(outcome))
	assert.False(t, c.Settle(outcome))
	assert.Equal(t, Succeeded, c.State().Status)
}

func TestOrdering_ConcurrentTasksWithRealLatency(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Message == "slow" {
			time.Sleep(150 * time.Millisecond)
			_, _ = w.Write([]byte(`{"prediction": "spam"}`))
			return
		}
		_, _ = w.Write([]byte(`{"prediction": "ham", "Confidence": 88}`))
	}))
	defer server.Close()

	c := newTestController(predict.NewClient(server.URL, "test", zap.NewNop()))
	outcomes := make(chan Outcome, 2)

	for _, task := range []*Task{c.SubmitPreset("slow"), c.SubmitPreset("fast")} {
		go func(task *Task) {
			outcomes <- task.Run(context.Background())
		}(task)
	}

	// Outcomes are applied on this goroutine, standing in for the UI loop.
	for i := 0; i < 2; i++ {
		c.Settle(<-outcomes)
	}

	state := c.State()
	assert.Equal(t, Succeeded, state.Status)
	assert.Equal(t, predict.Benign, state.Result.Label)
	require.True(t, state.Result.HasConfidence())
	assert.InDelta(t, 88.0, *state.Result.Confidence, 0.001)
}

func TestResubmit_ClearsPreviousResultBeforeInFlight(t *testing.T) {
	c := newTestController(&fakePredictor{})
	c.UpdateInput("same")
	c.Check(context.Background(), "")
	require.Equal(t, Succeeded, c.State().Status)

	var seen []State
	unsubscribe := c.Subscribe(ObserverFunc(func(s State) {
		seen = append(seen, s)
	}))
	defer unsubscribe()

	c.Check(context.Background(), "")

	require.Len(t, seen, 2)
	assert.Equal(t, InFlight, seen[0].Status)
	assert.Nil(t, seen[0].Result, "stale result must not be visible while in flight")
	assert.Empty(t, seen[0].Error)
	assert.Equal(t, Succeeded, seen[1].Status)
	assert.NotNil(t, seen[1].Result)
}

func TestFailedStateAcceptsNewSubmission(t *testing.T) {
	fail := true
	p := &fakePredictor{respond: func(req predict.Request) (*predict.Result, error) {
		if fail {
			return nil, &predict.ServiceError{StatusCode: 503, Detail: "Service Unavailable"}
		}
		return &predict.Result{Label: predict.Benign}, nil
	}}
	c := newTestController(p)

	assert.Equal(t, Failed, c.Check(context.Background(), "hi").Status)
	fail = false
	assert.Equal(t, Succeeded, c.Check(context.Background(), "hi").Status)
}

func TestSubscribe_Unsubscribe(t *testing.T) {
	c := newTestController(&fakePredictor{})
	count := 0
	unsubscribe := c.Subscribe(ObserverFunc(func(State) { count++ }))

	c.UpdateInput("a")
	unsubscribe()
	c.UpdateInput("b")

	assert.Equal(t, 1, count)
}

func TestNew_Options(t *testing.T) {
	c := newTestController(&fakePredictor{}, WithVariant(predict.NeuralEmbedding), WithTimeout(-1))

	assert.Equal(t, predict.NeuralEmbedding, c.State().Variant)
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, Idle, c.State().Status)
}

type predictorFunc func(ctx context.Context, req predict.Request) (*predict.Result, error)

func (f predictorFunc) Predict(ctx context.Context, req predict.Request) (*predict.Result, error) {
	return f(ctx, req)
}
