package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-trainer-service/internal/core/domain"
	ports "model-trainer-service/internal/core/ports/output"
)

// IngestionOptions are the tunables of an ingestion run.
type IngestionOptions struct {
	// LimitPerSource is the configured batch size before adaptive rebalancing.
	LimitPerSource int
	// FetchTimeout bounds one source's listing plus downloads.
	FetchTimeout time.Duration
	// ReservationLease bounds how long an uncommitted claim blocks a hash.
	ReservationLease time.Duration
	// ModelName is the model whose latest metrics drive allocation.
	ModelName string
	// AccuracyTarget is the validation accuracy at which collection shifts
	// from synthetic toward real sources.
	AccuracyTarget float64
}

// IngestionService coordinates one acquisition run: it fans out to the
// enabled fetchers, deduplicates their items against the index and persists
// accepted artifacts with their metadata side-cars. Runs are serialized
// through the shared RunTracker.
type IngestionService struct {
	store    ports.ArtifactStore
	index    ports.DeduplicationIndex
	registry ports.RegistryRepository
	detector ports.DetectorClient
	fetchers []ports.Fetcher
	tracker  *RunTracker
	opts     IngestionOptions
}

func NewIngestionService(
	store ports.ArtifactStore,
	index ports.DeduplicationIndex,
	registry ports.RegistryRepository,
	detector ports.DetectorClient,
	fetchers []ports.Fetcher,
	tracker *RunTracker,
	opts IngestionOptions,
) *IngestionService {
	if opts.LimitPerSource <= 0 {
		opts.LimitPerSource = 20
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Minute
	}
	if opts.ReservationLease <= 0 {
		opts.ReservationLease = 15 * time.Minute
	}
	if opts.AccuracyTarget <= 0 {
		opts.AccuracyTarget = 0.8
	}
	return &IngestionService{
		store:    store,
		index:    index,
		registry: registry,
		detector: detector,
		fetchers: fetchers,
		tracker:  tracker,
		opts:     opts,
	}
}

// Run executes one ingestion pass over the requested sources (all enabled
// sources when the list is empty). Per-source and per-artifact failures are
// folded into the report; only an unreachable store aborts the run.
func (s *IngestionService) Run(ctx context.Context, sources []string) (*domain.IngestionReport, error) {
	if !s.tracker.TryBeginIngestion() {
		return nil, fmt.Errorf("start ingestion: %w", domain.ErrIngestionInProgress)
	}
	report, err := s.run(ctx, sources)
	s.tracker.EndIngestion(report, err)
	return report, err
}

func (s *IngestionService) run(ctx context.Context, sources []string) (*domain.IngestionReport, error) {
	started := time.Now().UTC()

	if err := s.store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("storage ping: %v: %w", err, domain.ErrStoreUnavailable)
	}

	if n, err := s.index.ReleaseExpired(ctx); err != nil {
		log.WithError(err).Warn("failed to reclaim expired reservations")
	} else if n > 0 {
		log.WithField("count", n).Info("reclaimed expired reservations")
	}

	active := s.selectFetchers(sources)
	if len(active) == 0 {
		return nil, fmt.Errorf("run matched no sources: %w", domain.ErrNoSourcesEnabled)
	}
	limits := s.planLimits(ctx, active)

	type sourceResult struct {
		name   string
		report *domain.SourceReport
	}
	results := make(chan sourceResult, len(active))

	var wg sync.WaitGroup
	for _, f := range active {
		wg.Add(1)
		go func(f ports.Fetcher) {
			defer wg.Done()
			name := f.SourceName()
			results <- sourceResult{name: name, report: s.ingestSource(ctx, f, limits[name])}
		}(f)
	}
	wg.Wait()
	close(results)

	report := domain.NewIngestionReport(started)
	for res := range results {
		report.Merge(res.name, res.report)
	}
	report.Duration = time.Since(started)

	log.WithFields(log.Fields{
		"sources":  len(active),
		"accepted": report.TotalAccepted,
		"duration": report.Duration.Round(time.Millisecond),
	}).Info("ingestion run finished")
	return report, nil
}

func (s *IngestionService) selectFetchers(sources []string) []ports.Fetcher {
	if len(sources) == 0 {
		return s.fetchers
	}
	wanted := make(map[string]bool, len(sources))
	for _, name := range sources {
		wanted[name] = true
	}
	var active []ports.Fetcher
	for _, f := range s.fetchers {
		if wanted[f.SourceName()] {
			active = append(active, f)
		}
	}
	return active
}

// planLimits assigns each source its batch limit. A model already past the
// accuracy target needs breadth on the real side, so real sources are
// trimmed to 3/4 of the configured limit; below target, synthetic sources
// are doubled to feed the detector more of what it keeps missing.
func (s *IngestionService) planLimits(ctx context.Context, active []ports.Fetcher) map[string]int {
	limits := make(map[string]int, len(active))
	for _, f := range active {
		limits[f.SourceName()] = s.opts.LimitPerSource
	}

	latest, err := s.registry.Latest(ctx, s.opts.ModelName)
	if err != nil {
		if !errors.Is(err, domain.ErrModelNotFound) {
			log.WithError(err).Warn("could not read latest model metrics for allocation")
		}
		return limits
	}
	acc, ok := latest.ValAccuracy()
	if !ok {
		return limits
	}

	if acc >= s.opts.AccuracyTarget {
		for name := range limits {
			if domain.SourceYields[name] == domain.LabelReal {
				limits[name] = s.opts.LimitPerSource * 3 / 4
			}
		}
	} else {
		for name := range limits {
			if domain.SourceYields[name].Synthetic() {
				limits[name] = s.opts.LimitPerSource * 2
			}
		}
	}
	return limits
}

func (s *IngestionService) ingestSource(ctx context.Context, f ports.Fetcher, limit int) *domain.SourceReport {
	sr := &domain.SourceReport{}
	source := f.SourceName()

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	items, err := f.FetchBatch(fetchCtx, limit)
	if err != nil {
		if errors.Is(err, domain.ErrSourceRateLimited) {
			sr.Failure = domain.SourceFailureRateLimited
		} else {
			sr.Failure = domain.SourceFailureUnavailable
		}
		sr.Error = err.Error()
		log.WithError(err).WithField("source", source).Warn("fetch failed")
	}

	for i := range items {
		if ctx.Err() != nil {
			break
		}
		sr.Attempted++
		switch err := s.ingestOne(ctx, source, &items[i]); {
		case err == nil:
			sr.Accepted++
		case errors.Is(err, domain.ErrDuplicateArtifact):
			sr.Duplicates++
		default:
			sr.Failed++
			log.WithError(err).WithField("source", source).Warn("artifact rejected")
		}
	}
	return sr
}

// ingestOne persists a single item: reserve the content hash, write the
// binary then its side-car, commit. Every failed write path releases the
// reservation so the hash stays retryable.
func (s *IngestionService) ingestOne(ctx context.Context, source string, item *domain.SourceItem) error {
	if domain.AttributionRequired[source] && item.Attribution == nil {
		return fmt.Errorf("%s item: %w", source, domain.ErrMissingAttribution)
	}

	hash := domain.HashContent(item.Payload)
	res, err := s.index.CheckAndReserve(ctx, hash, s.opts.ReservationLease)
	if err != nil {
		return fmt.Errorf("reserve %s: %w", hash[:12], err)
	}
	if !res.Accepted {
		return fmt.Errorf("content already stored at %q: %w", res.ExistingLocation, domain.ErrDuplicateArtifact)
	}

	art := &domain.Artifact{
		ID:             uuid.New(),
		ContentHash:    hash,
		Source:         source,
		Label:          item.Label,
		CreatedAt:      time.Now().UTC(),
		Attribution:    item.Attribution,
		SourceMetadata: item.SourceMetadata,
	}
	if art.Label == domain.LabelNone && s.detector != nil {
		s.autoLabel(ctx, art, item.Payload)
	}

	key := art.StorageKey()
	location, err := s.store.Put(ctx, key, item.Payload)
	if err != nil {
		s.release(hash)
		return fmt.Errorf("store binary: %w", err)
	}
	art.Location = location

	doc, err := json.Marshal(art)
	if err != nil {
		s.release(hash)
		return fmt.Errorf("encode metadata: %w", err)
	}
	// An orphaned binary is reclaimable; a side-car without its binary is
	// not, hence the write order.
	if _, err := s.store.PutMetadata(ctx, key, doc); err != nil {
		s.release(hash)
		return fmt.Errorf("store metadata: %w", err)
	}

	if err := s.index.Commit(ctx, art); err != nil {
		// Binary and side-car are durable but the index row is not.
		// Nothing can be rolled back safely here; flag it for repair.
		log.WithError(err).WithFields(log.Fields{
			"hash":        hash,
			"artifact_id": art.ID,
		}).Error("index commit failed after metadata write, index row needs repair")
		return fmt.Errorf("commit %s: %w", hash[:12], err)
	}
	return nil
}

// autoLabel asks the detector to classify an unlabeled payload. Best
// effort: a failed classification leaves the artifact unlabeled.
func (s *IngestionService) autoLabel(ctx context.Context, art *domain.Artifact, payload []byte) {
	det, err := s.detector.Classify(ctx, payload)
	if err != nil {
		log.WithError(err).WithField("artifact_id", art.ID).Debug("auto-label classification failed")
		return
	}
	confidence := det.AIProbability
	if det.AIProbability > 0.5 {
		art.Label = domain.LabelAIGenerated
	} else {
		art.Label = domain.LabelReal
		confidence = 1 - det.AIProbability
	}
	art.LabelConfidence = &confidence
}

// release drops a reservation outside the run context, so cleanup still
// happens when the caller was cancelled mid-item.
func (s *IngestionService) release(hash string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.index.Release(ctx, hash); err != nil {
		log.WithError(err).WithField("hash", hash).Warn("failed to release reservation")
	}
}
