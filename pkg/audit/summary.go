package audit

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/block/qualitychecker/pkg/metadata"
)

// TableFailure is a table whose pass was aborted.
type TableFailure struct {
	Target metadata.TableTarget
	Err    error
}

// Summary lists the outcome of every table in a run. Audited tables
// produced report rows, possibly with best-effort warnings; empty tables
// were skipped; failed tables lost their results.
type Summary struct {
	RunID      string
	ReportName string

	Audited []metadata.TableTarget
	Empty   []metadata.TableTarget
	Failed  []TableFailure
	Warned  []metadata.TableTarget

	lock sync.Mutex
}

func (s *Summary) addAudited(t metadata.TableTarget, warned bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Audited = append(s.Audited, t)
	if warned {
		s.Warned = append(s.Warned, t)
	}
}

func (s *Summary) addEmpty(t metadata.TableTarget) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Empty = append(s.Empty, t)
}

func (s *Summary) addFailed(t metadata.TableTarget, err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.Failed = append(s.Failed, TableFailure{Target: t, Err: err})
}

// sort orders every list by target name so concurrent runs are stable.
func (s *Summary) sort() {
	s.lock.Lock()
	defer s.lock.Unlock()
	byName := func(a, b metadata.TableTarget) int { return strings.Compare(a.String(), b.String()) }
	slices.SortFunc(s.Audited, byName)
	slices.SortFunc(s.Empty, byName)
	slices.SortFunc(s.Warned, byName)
	slices.SortFunc(s.Failed, func(a, b TableFailure) int { return byName(a.Target, b.Target) })
}

func (s *Summary) HasFailures() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return len(s.Failed) > 0
}

// Err joins the errors of the failed tables, or returns nil.
func (s *Summary) Err() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	errs := make([]error, 0, len(s.Failed))
	for _, f := range s.Failed {
		errs = append(errs, fmt.Errorf("%s: %w", f.Target, f.Err))
	}
	return errors.Join(errs...)
}

func (s *Summary) String() string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return fmt.Sprintf("audited=%d empty=%d failed=%d warned=%d",
		len(s.Audited), len(s.Empty), len(s.Failed), len(s.Warned))
}
