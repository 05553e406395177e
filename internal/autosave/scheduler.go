package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrDisabled is returned by New for an empty schedule.
var ErrDisabled = errors.New("autosave: disabled")

// defaultRunTimeout bounds one scheduled flush.
const defaultRunTimeout = 2 * time.Minute

// Saver flushes every cached capability. *capability.Registries satisfies it.
type Saver interface {
	SaveAll(ctx context.Context) (int, error)
}

// Logger defines the logging interface used by the scheduler.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Result describes one flush.
type Result struct {
	At       time.Time     `json:"at"`
	Written  int           `json:"written"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Scheduler runs Saver.SaveAll on a cron schedule.
type Scheduler struct {
	cron  *cron.Cron
	entry cron.EntryID
	saver Saver
	spec  string

	logger  Logger
	timeout time.Duration

	mu       sync.RWMutex
	last     Result
	onResult func(Result)
}

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New parses spec and prepares a scheduler. Call Start to begin.
func New(spec string, saver Saver) (*Scheduler, error) {
	if spec == "" {
		return nil, ErrDisabled
	}
	if saver == nil {
		return nil, fmt.Errorf("autosave: saver is required")
	}
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("autosave: parsing schedule %q: %w", spec, err)
	}

	s := &Scheduler{
		saver:   saver,
		spec:    spec,
		logger:  noopLogger{},
		timeout: defaultRunTimeout,
	}
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	id, err := s.cron.AddFunc(spec, s.scheduled)
	if err != nil {
		return nil, fmt.Errorf("autosave: scheduling %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.logger = logger
}

// OnResult registers fn to receive the result of every flush.
func (s *Scheduler) OnResult(fn func(Result)) {
	s.mu.Lock()
	s.onResult = fn
	s.mu.Unlock()
}

// Start begins running the schedule in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("autosave scheduled", "schedule", s.spec, "next", s.Next())
}

// Stop halts the schedule and waits for a running flush, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("autosave: waiting for running flush: %w", ctx.Err())
	}
}

// Next returns the next scheduled run, or the zero time before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// Last returns the most recent flush result.
func (s *Scheduler) Last() Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// RunNow flushes immediately, outside the schedule.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.saver.SaveAll(ctx)

	res := Result{At: start.UTC(), Written: n, Duration: time.Since(start)}
	if err != nil {
		res.Error = err.Error()
		s.logger.Error("autosave failed", "written", n, "error", err)
	} else {
		s.logger.Info("autosave complete", "written", n, "duration", res.Duration)
	}

	s.mu.Lock()
	s.last = res
	fn := s.onResult
	s.mu.Unlock()
	if fn != nil {
		fn(res)
	}
	return n, err
}

func (s *Scheduler) scheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.RunNow(ctx) //nolint:errcheck // logged and recorded in Last
}
