package app

import (
	"context"
	"fmt"
	"time"

	"anniversary_notifier/internal/apperrors"
	"anniversary_notifier/internal/domain/anniversary"
	"anniversary_notifier/internal/domain/contact"
	"anniversary_notifier/internal/domain/notify"
	"anniversary_notifier/internal/domain/settings"
	"anniversary_notifier/internal/domain/tracking"
	"anniversary_notifier/internal/infra/metrics"

	"github.com/sirupsen/logrus"
)

// DefaultChunkSize bounds how many tracking records one Execute call handles.
const DefaultChunkSize = 200

// RunState accumulates the counters of one batch run across its phases.
type RunState struct {
	RunID     string
	StartedAt time.Time
	Config    *settings.Configuration
	CycleYear int

	CreatedCount   int
	ProcessedCount int
	SentCount      int
	ErrorCount     int
}

func NewRunState(runID string, startedAt time.Time) *RunState {
	return &RunState{RunID: runID, StartedAt: startedAt, CycleYear: startedAt.Year()}
}

func (s *RunState) Summary() notify.Summary {
	return notify.Summary{
		RunID:          s.RunID,
		CreatedCount:   s.CreatedCount,
		ProcessedCount: s.ProcessedCount,
		SentCount:      s.SentCount,
		ErrorCount:     s.ErrorCount,
	}
}

// BatchDeps groups the collaborators of a BatchJob.
type BatchDeps struct {
	Settings   settings.Store
	Contacts   contact.Directory
	Tracking   tracking.Repository
	Finder     *CandidateFinder
	Dedup      *DedupFilter
	Dispatcher *Dispatcher
	Summary    notify.SummarySender // optional
	Metrics    *metrics.Metrics     // optional
	Logger     *logrus.Entry
	ChunkSize  int
	Now        func() time.Time
	Location   *time.Location // run clock; defaults to time.Local
}

// BatchJob drives one run: Start creates tracking records and yields the
// unsent queue, Execute dispatches one chunk, Finish reports.
// At most one run is expected to be active per deployment.
type BatchJob struct {
	settings   settings.Store
	contacts   contact.Directory
	tracking   tracking.Repository
	finder     *CandidateFinder
	dedup      *DedupFilter
	dispatcher *Dispatcher
	summary    notify.SummarySender
	metrics    *metrics.Metrics
	logger     *logrus.Entry
	chunkSize  int
	now        func() time.Time
	location   *time.Location
}

func NewBatchJob(deps BatchDeps) *BatchJob {
	chunkSize := deps.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	location := deps.Location
	if location == nil {
		location = time.Local
	}
	return &BatchJob{
		settings:   deps.Settings,
		contacts:   deps.Contacts,
		tracking:   deps.Tracking,
		finder:     deps.Finder,
		dedup:      deps.Dedup,
		dispatcher: deps.Dispatcher,
		summary:    deps.Summary,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		chunkSize:  chunkSize,
		now:        now,
		location:   location,
	}
}

// Run executes all three phases and returns the final state. It never fails;
// problems are logged and counted in ErrorCount.
//
// Cancelling ctx stops the run between chunks only. The phases run on a
// detached context so a chunk whose channels already sent still gets marked.
func (j *BatchJob) Run(ctx context.Context, runID string) *RunState {
	state := NewRunState(runID, j.now().In(j.location))
	runLogger := j.logger.WithField("run_id", runID)
	runLogger.Info("Batch run started")

	work := context.WithoutCancel(ctx)
	ids, err := j.Start(work, state)
	if err != nil {
		state.ErrorCount++
		runLogger.WithError(err).Error("Batch start failed, skipping execution")
	}

	chunks := Chunk(ids, j.chunkSize)
	for i, chunk := range chunks {
		if ctx.Err() != nil {
			runLogger.WithError(ctx.Err()).WithField("remaining_chunks", len(chunks)-i).
				Warn("Run cancelled between chunks")
			state.ErrorCount++
			break
		}
		j.Execute(work, state, chunk)
	}

	j.Finish(work, state)
	return state
}

// Start fetches the configuration once, creates tracking records for fresh
// candidates, and returns the ids of every unsent record as the work queue.
func (j *BatchJob) Start(ctx context.Context, state *RunState) ([]int64, error) {
	cfg, err := j.settings.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	state.Config = cfg

	today := anniversary.DateOnly(state.StartedAt)
	ranges := anniversary.Window(today, cfg.WindowDays)
	startLogger := j.logger.WithFields(logrus.Fields{"run_id": state.RunID, "ranges": fmt.Sprint(ranges)})

	candidates, err := j.finder.Find(ctx, ranges)
	if err != nil {
		return nil, err
	}
	fresh, err := j.dedup.Filter(ctx, candidates, state.CycleYear)
	if err != nil {
		return nil, err
	}
	startLogger.WithFields(logrus.Fields{"candidates": len(candidates), "new": len(fresh)}).Info("Candidates resolved")

	records := make([]*tracking.Record, 0, len(fresh))
	for _, c := range fresh {
		occurrence, err := anniversary.NextOccurrence(c.Birthdate.Time, today)
		if err != nil {
			state.ErrorCount++
			startLogger.WithError(err).WithField("contact_id", c.ID).Warn("Cannot resolve next occurrence, skipping contact")
			continue
		}
		records = append(records, &tracking.Record{ContactID: c.ID, OccurrenceDate: occurrence})
	}

	if len(records) > 0 {
		if err := j.tracking.BulkCreate(ctx, records); err != nil {
			state.ErrorCount++
			startLogger.WithError(apperrors.NewPersistence("createTrackingRecords", err)).
				Error("Failed to create tracking records, continuing with existing unsent records")
		} else {
			state.CreatedCount += len(records)
		}
	}

	ids, err := j.tracking.ListUnsentIDs(ctx)
	if err != nil {
		return nil, apperrors.NewPersistence("listUnsent", err)
	}
	startLogger.WithField("unsent", len(ids)).Info("Work queue ready")
	return ids, nil
}

// Execute dispatches one chunk of tracking record ids. Errors are logged and
// counted; later chunks are unaffected.
func (j *BatchJob) Execute(ctx context.Context, state *RunState, ids []int64) {
	chunkLogger := j.logger.WithFields(logrus.Fields{"run_id": state.RunID, "chunk_size": len(ids)})
	state.ProcessedCount += len(ids)

	if state.Config == nil {
		state.ErrorCount++
		chunkLogger.Error("No configuration loaded for run, skipping chunk")
		return
	}

	records, err := j.tracking.GetByIDs(ctx, ids)
	if err != nil {
		state.ErrorCount++
		chunkLogger.WithError(apperrors.NewPersistence("loadTrackingRecords", err)).Error("Failed to load chunk")
		return
	}

	contactIDs := make([]int64, 0, len(records))
	for _, rec := range records {
		contactIDs = append(contactIDs, rec.ContactID)
	}
	contacts, err := j.contacts.GetByIDs(ctx, contactIDs)
	if err != nil {
		state.ErrorCount++
		chunkLogger.WithError(err).Error("Failed to resolve contacts for chunk")
		return
	}
	byID := make(map[int64]*contact.Contact, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}

	deliveries := make([]notify.Delivery, 0, len(records))
	for _, rec := range records {
		if rec.Sent {
			continue
		}
		deliveries = append(deliveries, notify.Delivery{Record: rec, Contact: byID[rec.ContactID]})
	}

	attempted, err := j.dispatcher.Dispatch(ctx, state.Config, deliveries)
	if err != nil {
		state.ErrorCount++
		chunkLogger.WithError(err).Error("Failed to mark chunk sent")
		return
	}
	state.SentCount += attempted
	chunkLogger.WithField("sent", attempted).Debug("Chunk dispatched")
}

// Finish logs the summary, records metrics and mails the summary when the
// message channel is usable. It never fails.
func (j *BatchJob) Finish(ctx context.Context, state *RunState) {
	summary := state.Summary()
	finishLogger := j.logger.WithFields(logrus.Fields{
		"run_id":          summary.RunID,
		"created_count":   summary.CreatedCount,
		"processed_count": summary.ProcessedCount,
		"sent_count":      summary.SentCount,
		"error_count":     summary.ErrorCount,
	})
	finishLogger.Info("Batch run finished")
	j.metrics.ObserveRun(summary.CreatedCount, summary.ProcessedCount, summary.SentCount, summary.ErrorCount, j.now())

	cfg := state.Config
	if j.summary == nil || cfg == nil || !cfg.EmailEnabled || len(cfg.ActiveRecipients()) == 0 {
		return
	}
	if err := j.summary.SendSummary(ctx, cfg, summary); err != nil {
		finishLogger.WithError(err).Warn("Failed to send run summary")
	}
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
