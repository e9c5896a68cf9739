package predict

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Variant selects which classifier backend the prediction service should use.
type Variant int

const (
	// LegacyStatistical is the bag-of-words Naive-Bayes backend.
	LegacyStatistical Variant = iota
	// NeuralEmbedding is the fine-tuned BERT backend.
	NeuralEmbedding
)

func (v Variant) String() string {
	switch v {
	case NeuralEmbedding:
		return "bert"
	default:
		return "naive-bayes"
	}
}

// DisplayName is the label shown in the UI.
func (v Variant) DisplayName() string {
	switch v {
	case NeuralEmbedding:
		return "BERT"
	default:
		return "Naive-Bayes"
	}
}

// Toggle returns the other backend.
func (v Variant) Toggle() Variant {
	if v == NeuralEmbedding {
		return LegacyStatistical
	}
	return NeuralEmbedding
}

// ParseVariant accepts the config/flag spellings of a backend.
func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "naive-bayes", "naivebayes", "nb", "legacy":
		return LegacyStatistical, nil
	case "bert", "neural":
		return NeuralEmbedding, nil
	}
	return LegacyStatistical, fmt.Errorf("unknown model variant %q", s)
}

// Label is the binary classification outcome.
type Label int

const (
	Benign Label = iota
	Malicious
)

func (l Label) String() string {
	if l == Malicious {
		return "Malicious"
	}
	return "Benign"
}

// UnmarshalJSON decodes the service's "prediction" field. Backends have shipped
// both string tokens and integer flags, so every known encoding is accepted and
// anything else is rejected rather than guessed.
func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var token string
		if err := json.Unmarshal(data, &token); err != nil {
			return err
		}
		return l.parseToken(token)
	}

	var flag json.Number
	if err := json.Unmarshal(data, &flag); err != nil {
		return fmt.Errorf("prediction must be a string or integer, got %s", string(data))
	}
	return l.parseToken(flag.String())
}

func (l *Label) parseToken(token string) error {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "benign", "ham", "safe", "not scam", "0", "false":
		*l = Benign
	case "malicious", "spam", "scam", "1", "true":
		*l = Malicious
	default:
		return fmt.Errorf("unrecognized prediction %q", token)
	}
	return nil
}

// Request is the body sent to POST /predict.
type Request struct {
	Message string `json:"message"`
	UseBERT bool   `json:"use_bert"`
}

// NewRequest builds the wire request for a message and backend.
func NewRequest(message string, variant Variant) Request {
	return Request{
		Message: message,
		UseBERT: variant == NeuralEmbedding,
	}
}

// Result is a successful classification. Confidence is nil when the service
// omits it.
type Result struct {
	Label      Label
	Confidence *float64
}

// HasConfidence reports whether the service supplied a confidence score.
func (r Result) HasConfidence() bool {
	return r.Confidence != nil
}

func (r Result) String() string {
	if !r.HasConfidence() {
		return r.Label.String()
	}
	return r.Label.String() + " (" + strconv.FormatFloat(*r.Confidence, 'f', 1, 64) + "%)"
}

type predictResponse struct {
	Prediction *Label   `json:"prediction"`
	Confidence *float64 `json:"Confidence"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}
