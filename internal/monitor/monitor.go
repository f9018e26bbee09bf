package monitor

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bannercarrier/extension/internal/influx"
	"github.com/bannercarrier/extension/internal/mission"
)

// DefaultInterval is used when Dependencies.Interval is not positive.
const DefaultInterval = time.Second

// JournalStats is the part of the journal recorder the monitor reads.
type JournalStats interface {
	Pending() int
	Written() int64
	Dropped() int64
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Logger         *slog.Logger
	MissionContext *mission.Context
	Journal        JournalStats
	// StatusPath is rewritten with the latest status every interval. Empty
	// disables the file.
	StatusPath string
	Interval   time.Duration
	// Influx receives a status point per interval when set.
	Influx *influx.Manager
}

// Status is one snapshot of the running battle and its journal.
type Status struct {
	Time    time.Time `json:"time"`
	Battle  string    `json:"battle,omitempty"`
	Errored bool      `json:"errored"`
	Pending int       `json:"pending"`
	Written int64     `json:"written"`
	Dropped int64     `json:"dropped"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetStatus returns the current status
func (s *Service) GetStatus() Status {
	st := Status{Time: time.Now()}
	if mc := s.deps.MissionContext; mc != nil {
		if b := mc.GetBattle(); b != nil {
			st.Battle = b.ID
		}
		st.Errored = mc.Errored()
	}
	if j := s.deps.Journal; j != nil {
		st.Pending = j.Pending()
		st.Written = j.Written()
		st.Dropped = j.Dropped()
	}
	return st
}

// WriteStatus writes st as indented JSON.
func WriteStatus(w io.Writer, st Status) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	defer s.mu.Unlock()

	var statusFile *os.File
	if s.deps.StatusPath != "" {
		var err error
		statusFile, err = os.Create(s.deps.StatusPath)
		if err != nil {
			return err
		}
	}

	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(statusFile, s.stopChan, s.done)
	return nil
}

func (s *Service) loop(statusFile *os.File, stop, done chan struct{}) {
	defer func() {
		if statusFile != nil {
			statusFile.Close()
		}
		close(done)
	}()

	logger := s.deps.Logger
	logger.Debug("Starting status monitor goroutine", "interval", s.deps.Interval)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			st := s.GetStatus()
			if st.Battle == "" {
				continue
			}

			if statusFile != nil {
				_ = statusFile.Truncate(0)
				_, _ = statusFile.Seek(0, 0)
				if err := WriteStatus(statusFile, st); err != nil {
					logger.Error("Error writing status file", "error", err)
				}
			}

			if m := s.deps.Influx; m != nil {
				p := influx.StatusPoint(st.Battle, st.Errored, st.Pending, st.Written, st.Dropped, st.Time)
				if err := m.WritePoint(m.PerformanceBucket(), p); err != nil {
					logger.Error("Error writing status point", "error", err)
				}
			}
		}
	}
}

// Stop stops the status monitor and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	close(s.stopChan)
	done := s.done
	s.mu.Unlock()
	<-done
}
