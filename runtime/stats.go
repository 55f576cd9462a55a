package runtime

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TransactionStatistics records timing marks and named interval durations
// for one transaction, kept on the Transaction (Transaction.Stats) for
// diagnostics; no metrics backend is wired to it.
type TransactionStatistics struct {
	mu      sync.Mutex
	id      uuid.UUID
	marks   map[string]time.Time
	started map[string]time.Time
	elapsed map[string]time.Duration
	order   []string
}

// NewTransactionStatistics creates an empty stats record for id.
func NewTransactionStatistics(id uuid.UUID) *TransactionStatistics {
	return &TransactionStatistics{
		id:      id,
		marks:   map[string]time.Time{},
		started: map[string]time.Time{},
		elapsed: map[string]time.Duration{},
	}
}

// Mark records the current time under name.
func (s *TransactionStatistics) Mark(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.marks[name]; !exists {
		s.order = append(s.order, name)
	}
	s.marks[name] = time.Now()
}

// Start begins a named interval.
func (s *TransactionStatistics) Start(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started[name] = time.Now()
}

// End closes a named interval opened with Start and records its duration.
func (s *TransactionStatistics) End(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if start, ok := s.started[name]; ok {
		s.elapsed[name] = time.Since(start)
	}
}

// Elapsed returns the recorded duration for a named interval, if closed.
func (s *TransactionStatistics) Elapsed(name string) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.elapsed[name]
	return d, ok
}

// Summary renders marks ordered by their recorded time (a name marked again
// sorts by its latest time; ties keep first-recorded order), for logging.
func (s *TransactionStatistics) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := append([]string{}, s.order...)
	sort.SliceStable(names, func(i, j int) bool {
		return s.marks[names[i]].Before(s.marks[names[j]])
	})
	out := fmt.Sprintf("tx %s:", s.id)
	for _, n := range names {
		out += fmt.Sprintf(" %s=%s", n, s.marks[n].Format(time.RFC3339Nano))
	}
	return out
}
