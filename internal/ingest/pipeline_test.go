package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yodhcn/kikoeru-express/internal/database/catalog"
	"github.com/yodhcn/kikoeru-express/internal/entities"
)

type mockStore struct {
	stored    []catalog.WorkMetadata
	failFor   uint
	returnErr error
}

func (m *mockStore) UpsertWork(_ context.Context, md catalog.WorkMetadata) error {
	if md.Work.ID == m.failFor {
		return m.returnErr
	}
	m.stored = append(m.stored, md)
	return nil
}

type ingestCall struct {
	batch string
	work  uint
	err   error
}

type mockRecorder struct {
	calls []ingestCall
}

func (m *mockRecorder) LogIngest(batchID string, workID uint, _ string, err error) {
	m.calls = append(m.calls, ingestCall{batch: batchID, work: workID, err: err})
}

type mockArchiver struct {
	saved any
	err   error
}

func (m *mockArchiver) SaveJSON(data any) (string, error) {
	m.saved = data
	if m.err != nil {
		return "", m.err
	}
	return "batch.json", nil
}

const sampleBatch = `[
  {
    "id": 100001,
    "title": " Night Walk ",
    "circle": {"id": 7, "name": "Moonlit"},
    "series": {"id": 3, "name": "Walks"},
    "tags": [{"id": 1, "name": "ASMR", "category": "genre"}, {"id": 2, "name": "Binaural"}],
    "vas": [{"id": 11, "name": "Aoi"}, {"name": "Rin"}],
    "age_ratings": "R18",
    "release": "2024-05-01",
    "rootFolderName": "main",
    "dir": "RJ100001",
    "tracks": [{"title": "01.mp3"}],
    "dl_count": 120,
    "price": 880,
    "rate_average_2dp": 4.51,
    "rank": []
  },
  {
    "id": 100002,
    "title": "Rain",
    "circle": {"id": 7, "name": "Moonlit"},
    "nsfw": false
  }
]`

func TestPipeline_Ingest(t *testing.T) {
	store := &mockStore{}
	recorder := &mockRecorder{}
	archiver := &mockArchiver{}
	pipeline := NewPipeline(store, WithRecorder(recorder), WithArchiver(archiver))

	works, err := DecodeWorks(strings.NewReader(sampleBatch))
	require.NoError(t, err)

	result, err := pipeline.Ingest(context.Background(), works)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Received)
	assert.Equal(t, 2, result.Stored)
	assert.Empty(t, result.Failed)
	assert.Equal(t, "batch.json", result.Archive)
	assert.NotEmpty(t, result.BatchID)
	assert.NotNil(t, archiver.saved)

	require.Len(t, store.stored, 2)
	first := store.stored[0]
	assert.Equal(t, "Night Walk", first.Work.Title)
	assert.Equal(t, entities.AgeRatingR18, first.Work.AgeRating)
	assert.Equal(t, "main", first.Work.RootFolder)
	assert.Equal(t, 120, first.Work.DLCount)
	assert.Nil(t, first.Work.Rank)
	assert.JSONEq(t, `[{"title": "01.mp3"}]`, string(first.Work.Tracks))
	require.NotNil(t, first.Series)
	assert.Equal(t, uint(3), first.Series.ID)
	assert.Len(t, first.Tags, 2)
	require.Len(t, first.VoiceActors, 2)
	assert.Equal(t, uint(11), first.VoiceActors[0].ID)
	assert.Equal(t, VoiceActorID("Rin"), first.VoiceActors[1].ID)

	assert.Equal(t, entities.AgeRatingGeneral, store.stored[1].Work.AgeRating)
	assert.Nil(t, store.stored[1].Series)

	require.Len(t, recorder.calls, 2)
	for _, call := range recorder.calls {
		assert.Equal(t, result.BatchID, call.batch)
		assert.NoError(t, call.err)
	}
}

func TestPipeline_Ingest_PartialFailure(t *testing.T) {
	store := &mockStore{failFor: 100002, returnErr: errors.New("boom")}
	recorder := &mockRecorder{}
	pipeline := NewPipeline(store, WithRecorder(recorder))

	result, err := pipeline.Ingest(context.Background(), []RawWork{
		{ID: 100001, Title: "ok", Circle: RawNamed{ID: 1, Name: "c"}},
		{ID: 100002, Title: "store fails", Circle: RawNamed{ID: 1, Name: "c"}},
		{ID: 100003, Title: "no circle"},
		{ID: 100004, Title: "bad rating", Circle: RawNamed{ID: 1}, AgeRatings: "PG"},
		{ID: 100005, Title: "bad release", Circle: RawNamed{ID: 1}, Release: "05/01/2024"},
	})

	require.NoError(t, err)
	assert.Equal(t, 5, result.Received)
	assert.Equal(t, 1, result.Stored)
	require.Len(t, result.Failed, 4)
	assert.Equal(t, uint(100002), result.Failed[0].WorkID)
	assert.Equal(t, "boom", result.Failed[0].Error)

	require.Len(t, recorder.calls, 5)
	assert.NoError(t, recorder.calls[0].err)
	assert.Error(t, recorder.calls[1].err)
}

func TestPipeline_Ingest_ArchiveFailureIsNotFatal(t *testing.T) {
	store := &mockStore{}
	pipeline := NewPipeline(store, WithArchiver(&mockArchiver{err: errors.New("disk full")}))

	result, err := pipeline.Ingest(context.Background(), []RawWork{
		{ID: 100001, Circle: RawNamed{ID: 1, Name: "c"}},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)
	assert.Empty(t, result.Archive)
}

func TestPipeline_Ingest_Empty(t *testing.T) {
	store := &mockStore{}
	archiver := &mockArchiver{}
	pipeline := NewPipeline(store, WithArchiver(archiver))

	result, err := pipeline.Ingest(context.Background(), nil)

	require.NoError(t, err)
	assert.Zero(t, result.Received)
	assert.Nil(t, archiver.saved)
	assert.Nil(t, store.stored)
}

func TestPipeline_Ingest_Canceled(t *testing.T) {
	store := &mockStore{}
	pipeline := NewPipeline(store)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.Ingest(ctx, []RawWork{{ID: 100001, Circle: RawNamed{ID: 1}}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, store.stored)
}

func TestPipeline_IngestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "works.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"id": 100001, "title": "solo", "circle": {"id": 1, "name": "c"}}`), 0o644))

	store := &mockStore{}
	result, err := NewPipeline(store).IngestFile(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, 1, result.Stored)

	_, err = NewPipeline(store).IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestDecodeWorks_Invalid(t *testing.T) {
	_, err := DecodeWorks(strings.NewReader(`not json`))
	assert.Error(t, err)
}

func TestDecodeTagDefinitions(t *testing.T) {
	defs, err := DecodeTagDefinitions(strings.NewReader(`[{"id": 1, "name": "ASMR", "category": "genre"}]`))
	require.NoError(t, err)
	tags := GlobalTags(defs)
	require.Len(t, tags, 1)
	assert.Equal(t, entities.DlsiteTag{ID: 1, Name: "ASMR", Category: "genre"}, tags[0])

	_, err = DecodeTagDefinitions(strings.NewReader(`[{"name": "no id"}]`))
	assert.Error(t, err)
}

func TestVoiceActorID(t *testing.T) {
	assert.Equal(t, VoiceActorID("Aoi"), VoiceActorID(" Aoi "))
	assert.NotEqual(t, VoiceActorID("Aoi"), VoiceActorID("Rin"))
	assert.NotZero(t, VoiceActorID(""))
	assert.LessOrEqual(t, VoiceActorID("Aoi"), uint(0x7fffffff))
}

func TestRawMetrics_Metrics(t *testing.T) {
	m := RawMetrics{DLCount: 5, RateCountDetail: []byte(`[1,2,3]`), Rank: []byte(`null`)}.Metrics()
	assert.Equal(t, 5, m.DLCount)
	assert.JSONEq(t, `[1,2,3]`, string(m.RateCountDetail))
	assert.Nil(t, m.Rank)
}
