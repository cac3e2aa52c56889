package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Report is the status written to status.txt.
type Report struct {
	Time          time.Time `json:"time"`
	Link          string    `json:"link"`
	Port          string    `json:"port,omitempty"`
	Mode          string    `json:"mode"`
	Drawing       string    `json:"drawing"`
	FilledRegions int       `json:"filledRegions"`
	Complete      bool      `json:"complete"`
	Recording     bool      `json:"recording"`
	RecordingMs   int64     `json:"recordingMs,omitempty"`
	LastSession   uint      `json:"lastSession,omitempty"`
	Replaying     bool      `json:"replaying"`
	Paused        bool      `json:"paused,omitempty"`
	ReplayPercent float64   `json:"replayPercent,omitempty"`
	RoundActive   bool      `json:"roundActive"`
	RoundLeftMs   int64     `json:"roundLeftMs,omitempty"`
	Message       string    `json:"message"`
}

// Dependencies holds all dependencies for the monitor service
type Dependencies struct {
	Status    func(ctx context.Context) (Report, error)
	StatusDir string
	Interval  time.Duration
	Logger    zerolog.Logger
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
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	return &Service{
		deps:     deps,
		stopChan: make(chan struct{}),
	}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetProgramStatus returns the current status as indented JSON lines
func (s *Service) GetProgramStatus(ctx context.Context) (output []string, report Report, err error) {
	report, err = s.deps.Status(ctx)
	if err != nil {
		return nil, report, err
	}
	if report.Time.IsZero() {
		report.Time = time.Now()
	}

	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		raw = []byte(fmt.Sprintf(`{"error": "%s"}`, err))
	}
	output = append(output, string(raw))
	return output, report, nil
}

// Start starts the status monitor goroutine
func (s *Service) Start() error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	path := filepath.Join(s.deps.StatusDir, "status.txt")
	statusFile, err := os.Create(path)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("create status file: %w", err)
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	logger := s.deps.Logger.With().Str("component", "monitor").Logger()
	logger.Debug().Str("path", path).Msg("Starting status monitor")

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()
		defer statusFile.Close()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() {
			select {
			case <-stop:
				cancel()
			case <-ctx.Done():
			}
		}()

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				lines, _, err := s.GetProgramStatus(ctx)
				if err != nil {
					if ctx.Err() == nil {
						logger.Warn().Err(err).Msg("Error reading status")
					}
					continue
				}
				if err := writeStatus(statusFile, lines); err != nil {
					logger.Error().Err(err).Msg("Error writing status file")
				}
			}
		}
	}()

	return nil
}

func writeStatus(f *os.File, lines []string) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if _, err := f.Seek(0, 0); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := f.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops the status monitor and waits for it to exit
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	s.isRunning = false
	done := s.done
	s.mu.Unlock()
	<-done
}
