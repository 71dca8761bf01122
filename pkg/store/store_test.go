package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caseforge/caseforge/pkg/models"
)

func newTestStore(t *testing.T) *GORMStore {
	t.Helper()
	s, err := New(context.Background(), &Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: filepath.Join(t.TempDir(), "test.db")},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedSourceFile(t *testing.T, s *GORMStore, digest string) *models.SourceFile {
	t.Helper()
	file, err := s.CreateSourceFile(context.Background(), &models.SourceFile{
		SHA256: digest,
		Name:   "logs.txt",
		Size:   128,
		URI:    "/objects/source-files/" + digest,
	})
	require.NoError(t, err)
	return file
}

func TestCreateSourceFileDedupe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := seedSourceFile(t, s, "aa11")

	second, err := s.CreateSourceFile(ctx, &models.SourceFile{
		SHA256: "aa11",
		Name:   "other-name.txt",
		Size:   128,
		URI:    "/elsewhere",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "logs.txt", second.Name)

	files, err := s.ListSourceFiles(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestGetSourceFileNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSourceFile(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrSourceFileNotFound)

	_, err = s.GetSourceFileBySHA256(context.Background(), "ffff")
	assert.ErrorIs(t, err, models.ErrSourceFileNotFound)
}

func TestUploadSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUploadSession(ctx, &models.UploadSession{
		Filename:   "logs.txt",
		Size:       1024,
		ChunkSize:  512,
		TempPrefix: "/tmp/uploads/x",
	})
	require.NoError(t, err)

	session, err := s.GetUploadSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.UploadStatusOpen, session.Status)

	session.ReceivedChunks = session.ReceivedChunks.Add(0)
	session.ReceivedChunks = session.ReceivedChunks.Add(1)
	require.NoError(t, s.SaveUploadSession(ctx, session))

	reloaded, err := s.GetUploadSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ChunkSet{0, 1}, reloaded.ReceivedChunks)

	require.NoError(t, s.FinalizeUploadSession(ctx, id, "aa11", "/objects/source-files/aa11"))

	final, err := s.GetUploadSession(ctx, id)
	require.NoError(t, err)
	assert.True(t, final.Finalized())
	require.NotNil(t, final.FinalSHA256)
	assert.Equal(t, "aa11", *final.FinalSHA256)

	// Second finalize is a no-op, not an error.
	require.NoError(t, s.FinalizeUploadSession(ctx, id, "aa11", "/objects/source-files/aa11"))
}

func TestLeaseQueuedJob(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	file := seedSourceFile(t, s, "bb22")

	_, err := s.LeaseQueuedJob(ctx)
	assert.ErrorIs(t, err, models.ErrNoQueuedJob)

	firstID, err := s.CreateIngestJob(ctx, &models.IngestJob{SourceFileID: file.ID})
	require.NoError(t, err)
	_, err = s.CreateIngestJob(ctx, &models.IngestJob{SourceFileID: file.ID})
	require.NoError(t, err)

	leased, err := s.LeaseQueuedJob(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstID, leased.ID)
	assert.Equal(t, models.JobStatusRunning, leased.Status)

	// The leased job is no longer visible to the queue.
	second, err := s.LeaseQueuedJob(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, firstID, second.ID)

	_, err = s.LeaseQueuedJob(ctx)
	assert.ErrorIs(t, err, models.ErrNoQueuedJob)
}

func TestJobCompletionAndFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	file := seedSourceFile(t, s, "cc33")

	okID, err := s.CreateIngestJob(ctx, &models.IngestJob{SourceFileID: file.ID})
	require.NoError(t, err)
	badID, err := s.CreateIngestJob(ctx, &models.IngestJob{SourceFileID: file.ID})
	require.NoError(t, err)

	require.NoError(t, s.CompleteJob(ctx, okID, models.JSONMap{"events_inserted": 10}))
	ok, err := s.GetIngestJob(ctx, okID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, ok.Status)
	assert.EqualValues(t, 10, ok.Stats["events_inserted"])

	long := make([]byte, maxJobErrorLen+100)
	for i := range long {
		long[i] = 'x'
	}
	require.NoError(t, s.FailJob(ctx, badID, string(long)))
	bad, err := s.GetIngestJob(ctx, badID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, bad.Status)
	assert.Len(t, bad.ErrorText, maxJobErrorLen)
}

func TestReclaimStaleJobs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	file := seedSourceFile(t, s, "dd44")

	id, err := s.CreateIngestJob(ctx, &models.IngestJob{SourceFileID: file.ID})
	require.NoError(t, err)
	_, err = s.LeaseQueuedJob(ctx)
	require.NoError(t, err)

	// Fresh heartbeat: nothing to reclaim.
	n, err := s.ReclaimStaleJobs(ctx, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, n)

	// Age the heartbeat past the grace period.
	err = s.DB().Model(&models.IngestJob{}).Where("id = ?", id).
		Update("updated_at", time.Now().Add(-2*time.Hour)).Error
	require.NoError(t, err)

	n, err = s.ReclaimStaleJobs(ctx, time.Hour)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	job, err := s.GetIngestJob(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)
}

func TestDictionariesIntern(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id1, err := s.GetOrCreateEventType(ctx, "BANK_WITHDRAW")
	require.NoError(t, err)
	id2, err := s.GetOrCreateEventType(ctx, "BANK_WITHDRAW")
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	other, err := s.GetOrCreateEventType(ctx, "BANK_DEPOSIT")
	require.NoError(t, err)
	assert.NotEqual(t, id1, other)

	itemID, err := s.GetOrCreateItem(ctx, "pistol")
	require.NoError(t, err)
	itemAgain, err := s.GetOrCreateItem(ctx, "pistol")
	require.NoError(t, err)
	assert.Equal(t, itemID, itemAgain)
}

func TestContainerOwnerExtraction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.GetOrCreateContainer(ctx, "portbagaj_42_abc")
	require.NoError(t, err)

	var row models.DictContainer
	require.NoError(t, s.DB().First(&row, id).Error)
	require.NotNil(t, row.OwnerPlayerID)
	assert.Equal(t, "42", *row.OwnerPlayerID)

	plainID, err := s.GetOrCreateContainer(ctx, "ground")
	require.NoError(t, err)
	var plain models.DictContainer
	require.NoError(t, s.DB().First(&plain, plainID).Error)
	assert.Nil(t, plain.OwnerPlayerID)
}

func TestEnsureAliasDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	playerID, err := s.GetOrCreatePlayer(ctx, "42")
	require.NoError(t, err)

	require.NoError(t, s.EnsureAlias(ctx, playerID, "John"))
	require.NoError(t, s.EnsureAlias(ctx, playerID, "John"))
	require.NoError(t, s.EnsureAlias(ctx, playerID, "Johnny"))

	var count int64
	require.NoError(t, s.DB().Model(&models.DictAlias{}).Where("player_id = ?", playerID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func testEvent(t *testing.T, s *GORMStore, jobID int64, fileID, dedupeKey string, line int64) *models.Event {
	t.Helper()
	typeID, err := s.GetOrCreateEventType(context.Background(), "BANK_WITHDRAW")
	require.NoError(t, err)
	return &models.Event{
		SourceFileID:  fileID,
		IngestJobID:   jobID,
		ParserID:      "bank",
		ParserVersion: "v1",
		Quality:       models.QualityAbsolute,
		EventTypeID:   typeID,
		RawBlockID:    "blk-1",
		RawLineIndex:  0,
		GlobalLineNo:  line,
		DedupeKey:     dedupeKey,
	}
}

func TestInsertEventDedupe(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	file := seedSourceFile(t, s, "ee55")
	jobID, err := s.CreateIngestJob(ctx, &models.IngestJob{SourceFileID: file.ID})
	require.NoError(t, err)

	inserted, err := s.InsertEvent(ctx, testEvent(t, s, jobID, file.ID, "k1", 1))
	require.NoError(t, err)
	assert.True(t, inserted)

	// Replay with the same dedupe key is silently swallowed.
	inserted, err = s.InsertEvent(ctx, testEvent(t, s, jobID, file.ID, "k1", 1))
	require.NoError(t, err)
	assert.False(t, inserted)

	count, err := s.CountEvents(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestListEventsFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	file := seedSourceFile(t, s, "ff66")
	jobID, err := s.CreateIngestJob(ctx, &models.IngestJob{SourceFileID: file.ID})
	require.NoError(t, err)

	playerID, err := s.GetOrCreatePlayer(ctx, "42")
	require.NoError(t, err)

	at := time.Date(2024, 3, 12, 14, 5, 0, 0, time.UTC)
	e := testEvent(t, s, jobID, file.ID, "k1", 1)
	e.OccurredAt = &at
	e.SrcPlayerID = &playerID
	_, err = s.InsertEvent(ctx, e)
	require.NoError(t, err)

	e2 := testEvent(t, s, jobID, file.ID, "k2", 2)
	_, err = s.InsertEvent(ctx, e2)
	require.NoError(t, err)

	byType, err := s.ListEvents(ctx, EventFilter{EventTypeKey: "BANK_WITHDRAW"})
	require.NoError(t, err)
	assert.Len(t, byType, 2)

	byPlayer, err := s.ListEvents(ctx, EventFilter{PlayerID: "42"})
	require.NoError(t, err)
	assert.Len(t, byPlayer, 1)

	none, err := s.ListEvents(ctx, EventFilter{EventTypeKey: "NEVER_SEEN"})
	require.NoError(t, err)
	assert.Empty(t, none)

	start := at.Add(-time.Hour)
	end := at.Add(time.Hour)
	inWindow, err := s.ListEvents(ctx, EventFilter{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Len(t, inWindow, 1)
}

func TestReplaceUnknownSignaturesTopN(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	file := seedSourceFile(t, s, "0077")
	jobID, err := s.CreateIngestJob(ctx, &models.IngestJob{SourceFileID: file.ID})
	require.NoError(t, err)

	counts := map[string]int64{
		"valoare <#> aici": 5,
		"alt mesaj":        3,
		"rar":              1,
	}
	require.NoError(t, s.ReplaceUnknownSignatures(ctx, jobID, counts, 2))

	sigs, err := s.ListUnknownSignatures(ctx, jobID)
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, "valoare <#> aici", sigs[0].Signature)
	assert.EqualValues(t, 5, sigs[0].Count)
	assert.Equal(t, "alt mesaj", sigs[1].Signature)

	// Re-running replaces rather than appends.
	require.NoError(t, s.ReplaceUnknownSignatures(ctx, jobID, counts, 2))
	sigs, err = s.ListUnknownSignatures(ctx, jobID)
	require.NoError(t, err)
	assert.Len(t, sigs, 2)
}

func TestSearchPlayers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	playerID, err := s.GetOrCreatePlayer(ctx, "4217")
	require.NoError(t, err)
	require.NoError(t, s.EnsureAlias(ctx, playerID, "John Doe"))

	byID, err := s.SearchPlayers(ctx, "421")
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "4217", byID[0].NaturalID)

	byAlias, err := s.SearchPlayers(ctx, "John")
	require.NoError(t, err)
	require.Len(t, byAlias, 1)
	assert.Contains(t, byAlias[0].Aliases, "John Doe")
}

func TestReportPackRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateReportPack(ctx, &models.ReportPack{
		Name:    "march-bank",
		Filters: models.JSONMap{"event_type": "BANK_WITHDRAW"},
		URI:     "/objects/report-packs/march-bank.zip",
	})
	require.NoError(t, err)

	pack, err := s.GetReportPack(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "march-bank", pack.Name)

	_, err = s.GetReportPack(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrReportPackNotFound)

	packs, err := s.ListReportPacks(ctx)
	require.NoError(t, err)
	assert.Len(t, packs, 1)
}
