// Package reportpack exports filtered event sets as ZIP bundles containing a
// manifest, a CSV event table and the raw-line evidence for every event.
package reportpack

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/caseforge/caseforge/internal/logger"
	"github.com/caseforge/caseforge/internal/telemetry"
	"github.com/caseforge/caseforge/pkg/blobstore"
	"github.com/caseforge/caseforge/pkg/ingest"
	"github.com/caseforge/caseforge/pkg/models"
	"github.com/caseforge/caseforge/pkg/store"
)

// evidenceContext is how many raw lines around the event line are included.
const evidenceContext = 2

// maxEvents bounds a single pack; generation is synchronous.
const maxEvents = 10000

var nameSafeRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Builder assembles report packs from the event store and the raw-block
// evidence blobs.
type Builder struct {
	store store.Store
	blobs *blobstore.Store
}

// NewBuilder creates a Builder.
func NewBuilder(st store.Store, blobs *blobstore.Store) *Builder {
	return &Builder{store: st, blobs: blobs}
}

// Build writes a ZIP bundle for the events matching the filter and records a
// ReportPack row. The bundle holds manifest.json, events.csv and
// evidence.txt. Failures leave event state untouched.
func (b *Builder) Build(ctx context.Context, name string, filter store.EventFilter) (*models.ReportPack, error) {
	if name == "" {
		return nil, fmt.Errorf("reportpack: name is required")
	}
	if filter.Limit <= 0 || filter.Limit > maxEvents {
		filter.Limit = maxEvents
	}

	packID := uuid.New().String()
	ctx, span := telemetry.StartReportSpan(ctx, packID)
	defer span.End()

	events, err := b.store.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("reportpack: list events: %w", err)
	}
	telemetry.SetAttributes(ctx, telemetry.ResultCount(len(events)))

	eventTypes, err := b.eventTypeNames(ctx)
	if err != nil {
		return nil, err
	}

	safe := nameSafeRe.ReplaceAllString(name, "-")
	path, err := b.blobs.ReportPackPath(fmt.Sprintf("%s-%s.zip", safe, packID))
	if err != nil {
		return nil, err
	}

	if err := b.writeZip(ctx, path, name, filter, events, eventTypes); err != nil {
		os.Remove(path)
		telemetry.RecordError(ctx, err)
		return nil, err
	}

	pack := &models.ReportPack{
		ID:      packID,
		Name:    name,
		Filters: filterMap(filter),
		URI:     path,
	}
	if _, err := b.store.CreateReportPack(ctx, pack); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("reportpack: record pack: %w", err)
	}

	logger.InfoCtx(ctx, "report pack built",
		"report_pack_id", packID,
		"name", name,
		"events", len(events))
	return pack, nil
}

func (b *Builder) eventTypeNames(ctx context.Context) (map[int64]string, error) {
	types, err := b.store.ListEventTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("reportpack: list event types: %w", err)
	}
	names := make(map[int64]string, len(types))
	for _, t := range types {
		names[t.ID] = t.Key
	}
	return names, nil
}

func (b *Builder) writeZip(ctx context.Context, path, name string, filter store.EventFilter, events []*models.Event, eventTypes map[int64]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("reportpack: create bundle: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	if err := b.writeManifest(zw, name, filter, len(events)); err != nil {
		return err
	}
	if err := b.writeEventsCSV(zw, events, eventTypes); err != nil {
		return err
	}
	if err := b.writeEvidence(ctx, zw, events, eventTypes); err != nil {
		return err
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("reportpack: close bundle: %w", err)
	}
	return f.Close()
}

func (b *Builder) writeManifest(zw *zip.Writer, name string, filter store.EventFilter, count int) error {
	w, err := zw.Create("manifest.json")
	if err != nil {
		return fmt.Errorf("reportpack: create manifest: %w", err)
	}
	manifest := map[string]any{
		"name":        name,
		"generated":   time.Now().UTC().Format(time.RFC3339),
		"filters":     filterMap(filter),
		"event_count": count,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(manifest); err != nil {
		return fmt.Errorf("reportpack: write manifest: %w", err)
	}
	return nil
}

var csvHeader = []string{
	"id", "occurred_at", "quality", "event_type",
	"src_player_dict_id", "dst_player_dict_id", "item_dict_id", "container_dict_id",
	"money", "qty", "parser", "global_line_no", "raw_block_id", "raw_line_index",
}

func (b *Builder) writeEventsCSV(zw *zip.Writer, events []*models.Event, eventTypes map[int64]string) error {
	w, err := zw.Create("events.csv")
	if err != nil {
		return fmt.Errorf("reportpack: create events.csv: %w", err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("reportpack: write csv header: %w", err)
	}
	for _, e := range events {
		occurred := ""
		if e.OccurredAt != nil {
			occurred = e.OccurredAt.Format(time.RFC3339)
		}
		row := []string{
			e.ID,
			occurred,
			string(e.Quality),
			eventTypes[e.EventTypeID],
			optInt(e.SrcPlayerID),
			optInt(e.DstPlayerID),
			optInt(e.ItemID),
			optInt(e.ContainerID),
			optInt(e.Money),
			optInt(e.Qty),
			e.ParserID + "/" + e.ParserVersion,
			strconv.FormatInt(e.GlobalLineNo, 10),
			e.RawBlockID,
			strconv.Itoa(e.RawLineIndex),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("reportpack: write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("reportpack: flush csv: %w", err)
	}
	return nil
}

// writeEvidence emits, for each event, its source line with surrounding
// context. Raw blocks are decompressed once and cached for the pack's
// lifetime.
func (b *Builder) writeEvidence(ctx context.Context, zw *zip.Writer, events []*models.Event, eventTypes map[int64]string) error {
	w, err := zw.Create("evidence.txt")
	if err != nil {
		return fmt.Errorf("reportpack: create evidence.txt: %w", err)
	}

	blocks := make(map[string][]string)
	for _, e := range events {
		if err := ctx.Err(); err != nil {
			return err
		}
		lines, ok := blocks[e.RawBlockID]
		if !ok {
			block, err := b.store.GetRawBlock(ctx, e.RawBlockID)
			if err != nil {
				return fmt.Errorf("reportpack: load raw block %s: %w", e.RawBlockID, err)
			}
			lines, err = ingest.ReadRawBlock(b.blobs, block.URI)
			if err != nil {
				return fmt.Errorf("reportpack: read raw block %s: %w", e.RawBlockID, err)
			}
			blocks[e.RawBlockID] = lines
		}

		fmt.Fprintf(w, "== event %s  type=%s  line=%d ==\n", e.ID, eventTypes[e.EventTypeID], e.GlobalLineNo)
		lo := e.RawLineIndex - evidenceContext
		if lo < 0 {
			lo = 0
		}
		hi := e.RawLineIndex + evidenceContext
		if hi > len(lines)-1 {
			hi = len(lines) - 1
		}
		for i := lo; i <= hi; i++ {
			marker := "  "
			if i == e.RawLineIndex {
				marker = "> "
			}
			fmt.Fprintf(w, "%s%s\n", marker, lines[i])
		}
		fmt.Fprintln(w)
	}
	return nil
}

func filterMap(filter store.EventFilter) models.JSONMap {
	m := models.JSONMap{}
	if filter.EventTypeKey != "" {
		m["event_type"] = filter.EventTypeKey
	}
	if filter.PlayerID != "" {
		m["player_id"] = filter.PlayerID
	}
	if filter.Start != nil {
		m["start"] = filter.Start.Format(time.RFC3339)
	}
	if filter.End != nil {
		m["end"] = filter.End.Format(time.RFC3339)
	}
	if filter.Limit > 0 {
		m["limit"] = filter.Limit
	}
	if filter.Offset > 0 {
		m["offset"] = filter.Offset
	}
	return m
}

func optInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
