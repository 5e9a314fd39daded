package ledger

import (
	"fmt"
	"log"
	"math/rand"
	"path/filepath"
	"time"
)

// SaveState tracks where a save attempt is in the retry pipeline.
type SaveState string

const (
	SaveIdle            SaveState = "idle"
	SaveRetrying        SaveState = "retrying"
	SaveSucceeded       SaveState = "succeeded"
	SaveFallbackWritten SaveState = "fallback_written"
)

// Saver persists the ledger with bounded retry. The table file may be held
// open by a spreadsheet on the support desk; a blocked write is retried with
// a short jittered pause, and after MaxAttempts the table is written to a
// timestamped fallback file next to the primary path instead. The clock,
// sleep, and jitter sources are injectable so backoff is deterministic in
// tests.
type Saver struct {
	Path        string
	MaxAttempts int

	Now    func() time.Time
	Sleep  func(time.Duration)
	Jitter func() time.Duration
	Write  func(l *Ledger, path string) error

	state SaveState
}

func NewSaver(path string, maxAttempts int) *Saver {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Saver{
		Path:        path,
		MaxAttempts: maxAttempts,
		Now:         time.Now,
		Sleep:       time.Sleep,
		Jitter: func() time.Duration {
			return time.Second + time.Duration(rand.Int63n(int64(2*time.Second)))
		},
		Write: func(l *Ledger, path string) error { return l.Save(path) },
		state: SaveIdle,
	}
}

func (s *Saver) State() SaveState { return s.state }

// Save writes the ledger, retrying on failure and redirecting to the
// fallback path when retries are exhausted. It returns the path actually
// written.
func (s *Saver) Save(l *Ledger) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		if err := s.Write(l, s.Path); err != nil {
			lastErr = err
			s.state = SaveRetrying
			if attempt < s.MaxAttempts {
				log.Printf("Unable to save ledger, retrying in a moment... (attempt %d/%d): %v",
					attempt, s.MaxAttempts, err)
				s.Sleep(s.Jitter())
			}
			continue
		}
		s.state = SaveSucceeded
		return s.Path, nil
	}

	fallback := s.fallbackPath()
	log.Printf("Unable to save ledger to %s after %d attempts, saving to %s instead",
		s.Path, s.MaxAttempts, fallback)
	if err := s.Write(l, fallback); err != nil {
		s.state = SaveRetrying
		return "", fmt.Errorf("fallback save failed: %w (primary: %v)", err, lastErr)
	}
	s.state = SaveFallbackWritten
	return fallback, nil
}

func (s *Saver) fallbackPath() string {
	dir := filepath.Dir(s.Path)
	return filepath.Join(dir, fmt.Sprintf("customer_data_backup_%d.csv", s.Now().Unix()))
}
