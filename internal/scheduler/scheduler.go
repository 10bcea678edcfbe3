package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"model-trainer-service/internal/core/domain"
	"model-trainer-service/internal/core/services"
)

// Options are the periodic run intervals. A zero interval disables that loop.
type Options struct {
	IngestEvery time.Duration
	TrainEvery  time.Duration
	// RunTimeout bounds one timer-driven run.
	RunTimeout time.Duration
}

// Scheduler drives the periodic ingestion and training runs. Each loop owns
// one ticker; runs use a background context so they survive any HTTP client,
// and "already running" rejections are tolerated because a manual trigger
// may hold the slot when a tick fires.
type Scheduler struct {
	ingestion *services.IngestionService
	training  *services.TrainingService
	opts      Options

	stop chan struct{}
	wg   sync.WaitGroup
}

func New(ingestion *services.IngestionService, training *services.TrainingService, opts Options) *Scheduler {
	if opts.RunTimeout <= 0 {
		opts.RunTimeout = 30 * time.Minute
	}
	return &Scheduler{
		ingestion: ingestion,
		training:  training,
		opts:      opts,
		stop:      make(chan struct{}),
	}
}

func (s *Scheduler) Start() {
	if s.opts.IngestEvery > 0 {
		s.wg.Add(1)
		go s.loop(s.opts.IngestEvery, s.runIngestion)
		log.WithField("every", s.opts.IngestEvery).Info("ingestion schedule started")
	}
	if s.opts.TrainEvery > 0 {
		s.wg.Add(1)
		go s.loop(s.opts.TrainEvery, s.runTraining)
		log.WithField("every", s.opts.TrainEvery).Info("training schedule started")
	}
}

// Stop halts the tickers and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	s.wg.Wait()
}

func (s *Scheduler) loop(every time.Duration, run func(ctx context.Context)) {
	defer s.wg.Done()
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.opts.RunTimeout)
			run(ctx)
			cancel()
		}
	}
}

func (s *Scheduler) runIngestion(ctx context.Context) {
	report, err := s.ingestion.Run(ctx, nil)
	switch {
	case errors.Is(err, domain.ErrIngestionInProgress):
		log.Info("scheduled ingestion skipped, a run is already in flight")
	case err != nil:
		log.WithError(err).Error("scheduled ingestion failed")
	default:
		log.WithFields(log.Fields{
			"accepted": report.TotalAccepted,
			"duration": report.Duration.Round(time.Millisecond),
		}).Info("scheduled ingestion finished")
	}
}

func (s *Scheduler) runTraining(ctx context.Context) {
	version, err := s.training.RunCycle(ctx, "")
	switch {
	case errors.Is(err, domain.ErrTrainingInProgress):
		log.Info("scheduled training skipped, a cycle is already in flight")
	case errors.Is(err, domain.ErrInsufficientData):
		log.WithError(err).Info("scheduled training skipped, dataset below threshold")
	case err != nil:
		log.WithError(err).Error("scheduled training failed")
	default:
		log.WithFields(log.Fields{
			"model":   version.ModelName,
			"version": version.Version,
		}).Info("scheduled training finished")
	}
}
