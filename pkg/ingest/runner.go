package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge/internal/logger"
	"github.com/caseforge/caseforge/internal/telemetry"
	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/ingest/normalize"
	"github.com/caseforge/caseforge/pkg/ingest/parser"
	"github.com/caseforge/caseforge/pkg/metrics"
	"github.com/caseforge/caseforge/pkg/models"
	"github.com/caseforge/caseforge/pkg/store"
)

const (
	// DefaultPollInterval is how often the runner looks for queued jobs.
	DefaultPollInterval = 2 * time.Second

	// DefaultStaleGrace is how long a running job may go without a
	// heartbeat before it is reclaimed back to queued.
	DefaultStaleGrace = 5 * time.Minute

	// topSignatures is how many unknown signatures are persisted per job.
	topSignatures = 50

	// heartbeatEvery is the line interval between progress writes.
	heartbeatEvery = 5000

	// maxLineBytes bounds a single source line. Transcript lines are short;
	// anything beyond this is capture garbage, not data we want to parse.
	maxLineBytes = 1 << 20
)

// RunnerConfig tunes the job runner.
type RunnerConfig struct {
	// PollInterval is the queue polling cadence. Zero means the default.
	PollInterval time.Duration

	// BlockSize is the raw block line count. Zero means the default.
	BlockSize int

	// StaleGrace is the heartbeat grace before reclaiming running jobs.
	// Zero means the default; negative disables reclaiming.
	StaleGrace time.Duration

	// DateOrder disambiguates ambiguous absolute dates in transcripts.
	DateOrder normalize.DateOrder

	// Timezone is the IANA zone transcript clock times are resolved in.
	// Empty means normalize.DefaultTimezone.
	Timezone string
}

// Runner drains the ingest job queue. One Runner drives one job at a time;
// multiple runners are safe because the queued->running transition is the
// lease primitive.
type Runner struct {
	store   store.Store
	blobs   *blobstore.Store
	metrics *metrics.IngestMetrics
	cfg     RunnerConfig
	loc     *time.Location
	parsers []parser.Parser

	// Dictionary and partition memos live for the Runner's lifetime. The
	// dictionaries are append-only, so a cached id never goes stale.
	eventTypes map[string]int64
	players    map[string]int64
	items      map[string]int64
	containers map[string]int64
	aliases    map[string]struct{}
	partitions map[string]struct{}
}

// NewRunner creates a Runner. The metrics argument may be nil.
func NewRunner(st store.Store, blobs *blobstore.Store, m *metrics.IngestMetrics, cfg RunnerConfig) (*Runner, error) {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.StaleGrace == 0 {
		cfg.StaleGrace = DefaultStaleGrace
	}
	tz := cfg.Timezone
	if tz == "" {
		tz = normalize.DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return &Runner{
		store:      st,
		blobs:      blobs,
		metrics:    m,
		cfg:        cfg,
		loc:        loc,
		parsers:    parser.Registry(),
		eventTypes: make(map[string]int64),
		players:    make(map[string]int64),
		items:      make(map[string]int64),
		containers: make(map[string]int64),
		aliases:    make(map[string]struct{}),
		partitions: make(map[string]struct{}),
	}, nil
}

// Run polls the queue until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	logger.InfoCtx(ctx, "job runner started",
		"poll_interval", r.cfg.PollInterval.String(),
		"timezone", r.loc.String())

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		// Drain the queue before going back to sleep.
		for {
			worked, err := r.RunOnce(ctx)
			if err != nil {
				logger.ErrorCtx(ctx, "job iteration failed", logger.Err(err))
			}
			if !worked || ctx.Err() != nil {
				break
			}
		}

		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "job runner stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce leases and processes at most one queued job. Returns whether a job
// was processed. Job failures are recorded on the job and not returned as an
// error; only infrastructure errors (lease, reclaim) propagate.
func (r *Runner) RunOnce(ctx context.Context) (bool, error) {
	if r.cfg.StaleGrace > 0 {
		reclaimed, err := r.store.ReclaimStaleJobs(ctx, r.cfg.StaleGrace)
		if err != nil {
			return false, fmt.Errorf("reclaim stale jobs: %w", err)
		}
		if reclaimed > 0 {
			logger.WarnCtx(ctx, "reclaimed stale jobs", "count", reclaimed)
		}
	}

	job, err := r.store.LeaseQueuedJob(ctx)
	if errors.Is(err, models.ErrNoQueuedJob) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lease queued job: %w", err)
	}

	ctx = logger.WithContext(ctx, logger.NewLogContext("").WithJob(job.ID))
	ctx, span := telemetry.StartJobSpan(ctx, job.ID, job.SourceFileID)
	defer span.End()

	start := time.Now()
	stats, err := r.processJob(ctx, job)
	if err != nil {
		telemetry.RecordError(ctx, err)
		r.metrics.RecordJob("failed", time.Since(start))
		logger.ErrorCtx(ctx, "ingest job failed", logger.Err(err))
		if failErr := r.store.FailJob(ctx, job.ID, err.Error()); failErr != nil {
			logger.ErrorCtx(ctx, "could not record job failure", logger.Err(failErr))
		}
		return true, nil
	}

	stats["duration_ms"] = time.Since(start).Milliseconds()
	if err := r.store.CompleteJob(ctx, job.ID, stats); err != nil {
		telemetry.RecordError(ctx, err)
		logger.ErrorCtx(ctx, "could not record job completion", logger.Err(err))
		return true, nil
	}
	r.metrics.RecordJob("completed", time.Since(start))
	logger.InfoCtx(ctx, "ingest job completed",
		"lines", stats["lines_read"],
		"events", stats["events_inserted"],
		"duration_ms", stats["duration_ms"])
	return true, nil
}

// jobCounters accumulates the per-job statistics written on completion.
type jobCounters struct {
	linesRead      int64
	eventsEmitted  int64
	eventsInserted int64
	dedupeHits     int64
	droppedEvents  int64
	unknownLines   int64

	eventTypes map[string]int64
	parsers    map[string]int64
	quality    map[string]int64
	unknown    map[string]int64
}

func newJobCounters() *jobCounters {
	return &jobCounters{
		eventTypes: make(map[string]int64),
		parsers:    make(map[string]int64),
		quality:    make(map[string]int64),
		unknown:    make(map[string]int64),
	}
}

func (c *jobCounters) stats(rawBlocks int) models.JSONMap {
	return models.JSONMap{
		"lines_read":        c.linesRead,
		"events_emitted":    c.eventsEmitted,
		"events_inserted":   c.eventsInserted,
		"dedupe_hits":       c.dedupeHits,
		"dropped_events":    c.droppedEvents,
		"unknown_lines":     c.unknownLines,
		"raw_blocks":        rawBlocks,
		"event_types":       c.eventTypes,
		"parsers":           c.parsers,
		"timestamp_quality": c.quality,
	}
}

// processJob drives the full pipeline over one leased job: raw block capture,
// normalization, parsing and event persistence, in source-line order.
func (r *Runner) processJob(ctx context.Context, job *models.IngestJob) (models.JSONMap, error) {
	source, err := r.store.GetSourceFile(ctx, job.SourceFileID)
	if err != nil {
		return nil, fmt.Errorf("load source file: %w", err)
	}
	telemetry.SetAttributes(ctx, telemetry.SourceSHA256(source.SHA256))

	f, err := r.blobs.Open(source.URI)
	if err != nil {
		return nil, fmt.Errorf("open source blob: %w", err)
	}
	defer f.Close()

	logger.InfoCtx(ctx, "ingest job started",
		logger.SourceFileID(source.ID),
		"name", source.Name,
		"size", source.Size)

	counters := newJobCounters()
	raw := NewRawBlockWriter(r.blobs, r.store, source.ID, r.cfg.BlockSize)
	norm := normalize.New(job.CreatedAt.In(r.loc), r.cfg.DateOrder, r.loc)

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var globalLineNo int64
	lastFlushed := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := strings.ToValidUTF8(scanner.Text(), "�")
		globalLineNo++
		counters.linesRead++

		blockID, lineIndex, err := raw.Append(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("append raw line %d: %w", globalLineNo, err)
		}
		for raw.Flushed() > lastFlushed {
			lastFlushed++
			r.metrics.RecordRawBlockFlush()
		}

		block := norm.Feed(normalize.Line{
			Text:         text,
			RawBlockID:   blockID,
			RawLineIndex: lineIndex,
			GlobalLineNo: globalLineNo,
		})
		if block != nil {
			if err := r.handleBlock(ctx, job, source, block, counters); err != nil {
				return nil, err
			}
		}

		if globalLineNo%heartbeatEvery == 0 {
			progress := models.JSONMap{
				"lines_read":      counters.linesRead,
				"events_inserted": counters.eventsInserted,
			}
			if err := r.store.UpdateJobProgress(ctx, job.ID, progress); err != nil {
				return nil, fmt.Errorf("update job progress: %w", err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read source blob: %w", err)
	}

	if block := norm.Flush(); block != nil {
		if err := r.handleBlock(ctx, job, source, block, counters); err != nil {
			return nil, err
		}
	}
	if err := raw.Flush(ctx); err != nil {
		return nil, fmt.Errorf("flush final raw block: %w", err)
	}
	for raw.Flushed() > lastFlushed {
		lastFlushed++
		r.metrics.RecordRawBlockFlush()
	}

	if err := r.store.ReplaceUnknownSignatures(ctx, job.ID, counters.unknown, topSignatures); err != nil {
		return nil, fmt.Errorf("persist unknown signatures: %w", err)
	}

	r.metrics.RecordLines(int(counters.linesRead))
	telemetry.SetAttributes(ctx,
		telemetry.LinesRead(counters.linesRead),
		telemetry.EventCount(counters.eventsInserted),
		telemetry.DedupeHits(counters.dedupeHits),
		telemetry.UnknownLines(counters.unknownLines))

	return counters.stats(raw.Flushed()), nil
}

// handleBlock dispatches one normalized block through the parser registry. A
// block no parser produced events for contributes its payload lines to the
// unknown-signature aggregation.
func (r *Runner) handleBlock(ctx context.Context, job *models.IngestJob, source *models.SourceFile, block *normalize.Block, counters *jobCounters) error {
	if len(block.Payload) > 0 {
		counters.quality[string(block.Quality)]++
	}

	produced := false
	for _, p := range r.parsers {
		if !p.Match(block) {
			continue
		}
		events := p.Parse(block)
		if len(events) > 0 {
			produced = true
			counters.parsers[p.ID()] += int64(len(events))
		}
		for i := range events {
			if err := r.persistEvent(ctx, job, source, p, block, &events[i], counters); err != nil {
				return err
			}
		}
	}

	if !produced {
		for _, payload := range block.Payload {
			counters.unknown[Signature(payload.Text)]++
			counters.unknownLines++
			r.metrics.RecordUnknownLine()
		}
	}
	return nil
}

// persistEvent resolves dictionary ids, provisions the covering partition and
// inserts one event. A dedupe conflict counts as success.
func (r *Runner) persistEvent(ctx context.Context, job *models.IngestJob, source *models.SourceFile, p parser.Parser, block *normalize.Block, data *parser.EventData, counters *jobCounters) error {
	if data.GlobalLineNo == 0 {
		counters.droppedEvents++
		logger.WarnCtx(ctx, "dropping event without line number",
			"parser_id", p.ID(),
			"event_type", data.EventType)
		return nil
	}
	counters.eventsEmitted++
	counters.eventTypes[data.EventType]++

	eventTypeID, err := r.eventTypeID(ctx, data.EventType)
	if err != nil {
		return err
	}

	srcID, err := r.playerID(ctx, data.SrcPlayerID, data.SrcName)
	if err != nil {
		return err
	}
	dstID, err := r.playerID(ctx, data.DstPlayerID, data.DstName)
	if err != nil {
		return err
	}

	var itemID *int64
	if data.Item != "" {
		id, err := r.itemID(ctx, data.Item)
		if err != nil {
			return err
		}
		itemID = &id
	}
	var containerID *int64
	if data.Container != "" {
		id, err := r.containerID(ctx, data.Container)
		if err != nil {
			return err
		}
		containerID = &id
	}

	if err := r.ensurePartition(ctx, block.OccurredAt); err != nil {
		return err
	}

	event := &models.Event{
		ID:            uuid.New().String(),
		SourceFileID:  source.ID,
		IngestJobID:   job.ID,
		ParserID:      p.ID(),
		ParserVersion: p.Version(),
		OccurredAt:    block.OccurredAt,
		Quality:       block.Quality,
		EventTypeID:   eventTypeID,
		SrcPlayerID:   srcID,
		DstPlayerID:   dstID,
		ItemID:        itemID,
		ContainerID:   containerID,
		Money:         data.Money,
		Qty:           data.Qty,
		Metadata:      data.Metadata,
		RawBlockID:    data.RawBlockID,
		RawLineIndex:  data.RawLineIndex,
		GlobalLineNo:  data.GlobalLineNo,
		DedupeKey:     DedupeKey(source.SHA256, data.GlobalLineNo, eventTypeID, data.EventType),
	}

	inserted, err := r.store.InsertEvent(ctx, event)
	if err != nil {
		return fmt.Errorf("insert event at line %d: %w", data.GlobalLineNo, err)
	}
	if inserted {
		counters.eventsInserted++
		r.metrics.RecordEvent(data.EventType)
	} else {
		counters.dedupeHits++
		r.metrics.RecordDedupeConflict()
	}
	return nil
}

func (r *Runner) eventTypeID(ctx context.Context, key string) (int64, error) {
	if id, ok := r.eventTypes[key]; ok {
		return id, nil
	}
	id, err := r.store.GetOrCreateEventType(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("intern event type %q: %w", key, err)
	}
	r.eventTypes[key] = id
	return id, nil
}

// playerID interns a natural player id and, when a display name was observed
// next to it, records the alias. An empty natural id yields nil.
func (r *Runner) playerID(ctx context.Context, naturalID, name string) (*int64, error) {
	if naturalID == "" {
		return nil, nil
	}
	id, ok := r.players[naturalID]
	if !ok {
		var err error
		id, err = r.store.GetOrCreatePlayer(ctx, naturalID)
		if err != nil {
			return nil, fmt.Errorf("intern player %q: %w", naturalID, err)
		}
		r.players[naturalID] = id
	}

	if name != "" {
		memo := naturalID + "\x00" + name
		if _, seen := r.aliases[memo]; !seen {
			if err := r.store.EnsureAlias(ctx, id, name); err != nil {
				return nil, fmt.Errorf("record alias %q: %w", name, err)
			}
			r.aliases[memo] = struct{}{}
		}
	}
	return &id, nil
}

func (r *Runner) itemID(ctx context.Context, name string) (int64, error) {
	if id, ok := r.items[name]; ok {
		return id, nil
	}
	id, err := r.store.GetOrCreateItem(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("intern item %q: %w", name, err)
	}
	r.items[name] = id
	return id, nil
}

func (r *Runner) containerID(ctx context.Context, key string) (int64, error) {
	if id, ok := r.containers[key]; ok {
		return id, nil
	}
	id, err := r.store.GetOrCreateContainer(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("intern container %q: %w", key, err)
	}
	r.containers[key] = id
	return id, nil
}

// ensurePartition provisions the monthly partition covering t at most once
// per runner lifetime per month.
func (r *Runner) ensurePartition(ctx context.Context, t *time.Time) error {
	key := "default"
	if t != nil {
		key = t.UTC().Format("2006_01")
	}
	if _, ok := r.partitions[key]; ok {
		return nil
	}
	if err := r.store.EnsureEventPartition(ctx, t); err != nil {
		return fmt.Errorf("ensure event partition %s: %w", key, err)
	}
	r.partitions[key] = struct{}{}
	return nil
}
