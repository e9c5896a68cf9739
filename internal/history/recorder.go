package history

import (
	"database/sql"
	"strings"

	"github.com/lcsecurity/scamcheck/internal/controller"
	"go.uber.org/zap"
)

// Recorder journals every settled submission it observes.
type Recorder struct {
	historyManager *HistoryManager
	sessionID      string
	logger         *zap.Logger

	lastGeneration uint64
}

func NewRecorder(historyManager *HistoryManager, sessionID string, logger *zap.Logger) *Recorder {
	return &Recorder{
		historyManager: historyManager,
		sessionID:      sessionID,
		logger:         logger,
	}
}

func (r *Recorder) StateChanged(state controller.State) {
	if state.Status != controller.Succeeded && state.Status != controller.Failed {
		return
	}
	// Blank submissions never reached the service.
	if strings.TrimSpace(state.Submitted) == "" {
		return
	}
	if state.Generation == r.lastGeneration {
		return
	}
	r.lastGeneration = state.Generation

	entry := &HistoryEntry{
		Message:   state.Submitted,
		Variant:   state.SubmittedVariant.String(),
		Error:     state.Error,
		SessionID: r.sessionID,
	}
	if state.Result != nil {
		entry.Label = state.Result.Label.String()
		if state.Result.HasConfidence() {
			entry.Confidence = sql.NullFloat64{Float64: *state.Result.Confidence, Valid: true}
		}
	}

	if err := r.historyManager.AddEntry(entry); err != nil {
		r.logger.Warn("failed to record check", zap.Error(err))
	}
}
