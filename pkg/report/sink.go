package report

import (
	"context"
	"sync"
	"time"
)

// FileStampLayout is the timestamp suffix of per-run report names.
const FileStampLayout = "2006-01-02_15-04"

// Sink persists a delta of both tables under a report name, merging it
// with whatever was persisted under that name before.
type Sink interface {
	Persist(ctx context.Context, name string, general, detail *Table) error
}

// RunName stamps a report name with the run's start time, such as
// PROD_report_2024-03-01_12-30.
func RunName(reportName string, start time.Time) string {
	return reportName + "_" + start.Format(FileStampLayout)
}

// MemorySink keeps reports in memory. It is used by dry runs and tests.
type MemorySink struct {
	sync.Mutex
	reports map[string][2]*Table
}

var _ Sink = (*MemorySink)(nil)

func NewMemorySink() *MemorySink {
	return &MemorySink{reports: map[string][2]*Table{}}
}

func (s *MemorySink) Persist(ctx context.Context, name string, general, detail *Table) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	prior := s.reports[name]
	s.reports[name] = [2]*Table{Merge(prior[0], general), Merge(prior[1], detail)}
	return nil
}

// Report returns copies of the tables persisted under name.
func (s *MemorySink) Report(name string) (general, detail *Table, ok bool) {
	s.Lock()
	defer s.Unlock()
	r, ok := s.reports[name]
	return r[0].Clone(), r[1].Clone(), ok
}
