// Package scheduler runs the booking sweeper on a process-wide gocron
// scheduler, optionally coordinated across replicas through Redis.
package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrNotInitialized = errors.New("scheduler not initialized")
	ErrEmptyJobName   = errors.New("job name is required")
	ErrBadInterval    = errors.New("job interval must be positive")
	ErrDuplicateJob   = errors.New("job already registered")
)

var (
	instance     *Service
	instanceErr  error
	instanceOnce sync.Once
)

// Service owns the gocron scheduler and the jobs registered on it.
type Service struct {
	cron gocron.Scheduler

	mu   sync.Mutex
	jobs map[string]gocron.Job

	stopOnce sync.Once
	stopErr  error
}

func newService(locker gocron.Locker) (*Service, error) {
	opts := []gocron.SchedulerOption{
		gocron.WithGlobalJobOptions(gocron.WithEventListeners(
			gocron.AfterJobRunsWithPanic(func(id uuid.UUID, name string, recovered any) {
				log.Error().
					Str("job_id", id.String()).
					Str("job_name", name).
					Interface("panic", recovered).
					Msg("Scheduler job panicked")
			}),
		)),
	}
	if locker != nil {
		opts = append(opts, gocron.WithDistributedLocker(locker))
	}
	cron, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Service{cron: cron, jobs: make(map[string]gocron.Job)}, nil
}

// Init creates the process scheduler once. With a locker each tick runs on
// at most one replica.
func Init(locker gocron.Locker) error {
	instanceOnce.Do(func() {
		instance, instanceErr = newService(locker)
		if instanceErr == nil {
			log.Info().Bool("distributed", locker != nil).Msg("Scheduler initialized")
		}
	})
	return instanceErr
}

func Instance() (*Service, error) {
	if instance == nil && instanceErr == nil {
		return nil, ErrNotInitialized
	}
	return instance, instanceErr
}

func AddIntervalJob(name string, every time.Duration, task func()) (gocron.Job, error) {
	svc, err := Instance()
	if err != nil {
		return nil, err
	}
	return svc.AddIntervalJob(name, every, task)
}

func Start() error {
	svc, err := Instance()
	if err != nil {
		return err
	}
	svc.Start()
	return nil
}

func Stop() error {
	svc, err := Instance()
	if err != nil {
		return err
	}
	return svc.Stop()
}

func (s *Service) Start() {
	if s == nil {
		log.Error().Msg("Scheduler start requested before initialization")
		return
	}
	s.mu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.mu.Unlock()
	log.Info().Strs("jobs", names).Msg("Scheduler starting")
	s.cron.Start()
}

// Stop shuts the scheduler down. Later calls return the first result.
func (s *Service) Stop() error {
	if s == nil {
		return ErrNotInitialized
	}
	s.stopOnce.Do(func() {
		log.Info().Msg("Scheduler stopping")
		s.stopErr = s.cron.Shutdown()
	})
	return s.stopErr
}

// AddIntervalJob runs task every interval. A tick that arrives while the
// previous run is still going is dropped.
func (s *Service) AddIntervalJob(name string, every time.Duration, task func()) (gocron.Job, error) {
	if s == nil {
		return nil, ErrNotInitialized
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyJobName
	}
	if every <= 0 {
		return nil, ErrBadInterval
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}

	logger := log.With().Str("job_name", name).Dur("interval", every).Logger()
	run := func() {
		started := time.Now()
		task()
		logger.Debug().Dur("took", time.Since(started)).Msg("Scheduler job finished")
	}
	job, err := s.cron.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(run),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to register scheduler job")
		return nil, fmt.Errorf("register job %s: %w", name, err)
	}
	s.jobs[name] = job
	logger.Info().Msg("Scheduler job registered")
	return job, nil
}
