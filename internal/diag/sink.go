package diag

// Sink accumulates reports for one pipeline stage. Stages never abort on
// their own report; the caller inspects HasErrors() at the stage boundary
// and decides whether to continue.
type Sink struct {
	reports []*Report
}

// NewSink returns an empty accumulator.
func NewSink() *Sink { return &Sink{} }

// Add records a report.
func (s *Sink) Add(r *Report) { s.reports = append(s.reports, r) }

// Reports returns every accumulated report in insertion order, which is
// source order by construction (each stage walks its input left to right).
func (s *Sink) Reports() []*Report { return append([]*Report(nil), s.reports...) }

// HasErrors reports whether any accumulated report is Error severity.
func (s *Sink) HasErrors() bool {
	for _, r := range s.reports {
		if r.Severity == Error {
			return true
		}
	}
	return false
}

// Merge appends another sink's reports into this one, preserving order.
func (s *Sink) Merge(other *Sink) {
	if other == nil {
		return
	}
	s.reports = append(s.reports, other.reports...)
}
