package jobs

import (
	"fmt"
	"log/slog"

	"github.com/europeana/metis-tools/internal/metrics"
)

const (
	JobReport      = "report"
	JobDepublish   = "depublish"
	JobCopy        = "copy"
	JobDereference = "dereference"
)

// Failure is one item a job gave up on.
type Failure struct {
	Key string `json:"key"`
	Err string `json:"error"`
}

// Summary counts what a job did with its items.
type Summary struct {
	Job       string    `json:"job"`
	Processed int       `json:"processed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	Records   int64     `json:"records,omitempty"`
	Failures  []Failure `json:"failures,omitempty"`
}

func (s *Summary) processed() {
	s.Processed++
	metrics.JobItems.WithLabelValues(s.Job, "processed").Inc()
}

func (s *Summary) skipped() {
	s.Skipped++
	metrics.JobItems.WithLabelValues(s.Job, "skipped").Inc()
}

func (s *Summary) failed(key string, err error) {
	s.Failed++
	s.Failures = append(s.Failures, Failure{Key: key, Err: err.Error()})
	metrics.JobItems.WithLabelValues(s.Job, "failed").Inc()
}

func (s Summary) String() string {
	return fmt.Sprintf("%s: processed=%d skipped=%d failed=%d", s.Job, s.Processed, s.Skipped, s.Failed)
}

// LogValue renders the summary as structured log attributes.
func (s Summary) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("job", s.Job),
		slog.Int("processed", s.Processed),
		slog.Int("skipped", s.Skipped),
		slog.Int("failed", s.Failed),
	}
	if s.Records > 0 {
		attrs = append(attrs, slog.Int64("records", s.Records))
	}
	return slog.GroupValue(attrs...)
}
