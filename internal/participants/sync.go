package participants

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/auburnhacks/sponsor-portal/internal/models"
)

// DefaultSchedule is used when no sync schedule is configured
const DefaultSchedule = "@every 15m"

// Source produces the current participant list
type Source interface {
	Fetch(ctx context.Context) ([]models.Participant, error)
}

// Syncer replaces the participant table with what the source reports
type Syncer struct {
	db      *gorm.DB
	source  Source
	timeout time.Duration
	logger  zerolog.Logger

	// runs serializes Sync
	runs sync.Mutex

	mu       sync.Mutex
	lastRun  time.Time
	lastErr  error
	lastSize int
}

// NewSyncer creates a Syncer. timeout bounds a single run.
func NewSyncer(db *gorm.DB, source Source, timeout time.Duration, logger zerolog.Logger) *Syncer {
	return &Syncer{
		db:      db,
		source:  source,
		timeout: timeout,
		logger:  logger,
	}
}

// Sync fetches the participants and swaps them in. When the fetch fails
// the table is left as it was.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	s.runs.Lock()
	defer s.runs.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	list, err := s.source.Fetch(ctx)
	if err == nil {
		err = s.replace(list)
	}

	s.mu.Lock()
	s.lastRun = start
	s.lastErr = err
	if err == nil {
		s.lastSize = len(list)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error().Err(err).Msg("Participant sync failed")
		return 0, err
	}

	s.logger.Info().
		Int("participants", len(list)).
		Dur("duration", time.Since(start)).
		Msg("Participants synced")
	return len(list), nil
}

func (s *Syncer) replace(list []models.Participant) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Participant{}).Error; err != nil {
			return fmt.Errorf("failed to clear participants: %w", err)
		}
		if len(list) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&list, 100).Error; err != nil {
			return fmt.Errorf("failed to save participants: %w", err)
		}
		return nil
	})
}

// Status reports the outcome of the most recent run
type Status struct {
	LastRun      time.Time `json:"last_run"`
	LastError    string    `json:"last_error,omitempty"`
	Participants int       `json:"participants"`
}

// Status returns the outcome of the most recent run
func (s *Syncer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{LastRun: s.lastRun, Participants: s.lastSize}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// ParseSchedule accepts a standard 5-field cron expression or a descriptor
// such as "@every 10m" or "@hourly"
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid sync schedule %q: %w", expr, err)
	}
	return schedule, nil
}

// Scheduler runs a Syncer on a cron schedule
type Scheduler struct {
	cron   *cron.Cron
	syncer *Syncer
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewScheduler prepares a scheduler for expr. Overlapping runs are skipped.
func NewScheduler(syncer *Syncer, expr string, logger zerolog.Logger) (*Scheduler, error) {
	schedule, err := ParseSchedule(expr)
	if err != nil {
		return nil, err
	}

	cl := cronLogger{logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	c.Schedule(schedule, cron.FuncJob(func() {
		_, _ = syncer.Sync(context.Background())
	}))

	return &Scheduler{cron: c, syncer: syncer, logger: logger}, nil
}

// Start runs one sync right away, then hands over to the schedule
func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.syncer.Sync(context.Background())
	}()
	s.cron.Start()
	s.logger.Info().Msg("Participant sync scheduler started")
}

// Stop stops scheduling and waits for a running sync to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info().Msg("Participant sync scheduler stopped")
}

// cronLogger routes cron's own logging into zerolog
type cronLogger struct {
	log zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
