// Package diag implements NEPL's structured diagnostics: accumulated,
// never-fatal-by-themselves reports with severities, codes, spans, and
// secondary labels, organized by a stable error-code taxonomy.
package diag

import (
	"encoding/json"

	"github.com/neknaj/NEPLg2-sub000/internal/source"
)

// Severity classifies a diagnostic. Only Error blocks the pipeline from
// advancing to the next stage; Warning never does.
type Severity int

const (
	Warning Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "warning"
}

// Label is a secondary annotation attached to a Report: an additional span
// with an explanatory note, rendered as one note line per label.
type Label struct {
	Span    source.Span
	Message string
}

// Report is the canonical diagnostic value produced by every pipeline
// stage. It is JSON-serializable so tooling can consume it without parsing
// rendered text.
type Report struct {
	Severity Severity       `json:"severity"`
	Code     string         `json:"code"`
	Phase    string         `json:"phase"`
	Message  string         `json:"message"`
	Span     source.Span    `json:"span"`
	Labels   []Label        `json:"labels,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// jsonReport mirrors Report with a stringly-typed severity for output.
type jsonReport struct {
	Severity string         `json:"severity"`
	Code     string         `json:"code"`
	Phase    string         `json:"phase"`
	Message  string         `json:"message"`
	Span     source.Span    `json:"span"`
	Labels   []Label        `json:"labels,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// ToJSON renders the report as deterministic JSON for AI/tooling consumers.
func (r *Report) ToJSON() (string, error) {
	jr := jsonReport{
		Severity: r.Severity.String(),
		Code:     r.Code,
		Phase:    r.Phase,
		Message:  r.Message,
		Span:     r.Span,
		Labels:   r.Labels,
		Data:     r.Data,
	}
	b, err := json.Marshal(jr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// New builds a bare report; WithLabel and WithData augment it fluently.
func New(sev Severity, code, phase string, span source.Span, message string) *Report {
	return &Report{Severity: sev, Code: code, Phase: phase, Span: span, Message: message}
}

// WithLabel appends a secondary label and returns the same report for
// chaining at the call site.
func (r *Report) WithLabel(span source.Span, message string) *Report {
	r.Labels = append(r.Labels, Label{Span: span, Message: message})
	return r
}

// WithData attaches a machine-readable key/value pair.
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = make(map[string]any)
	}
	r.Data[key] = value
	return r
}
