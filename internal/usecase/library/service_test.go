package library

import (
	"context"
	"errors"
	"testing"

	"github.com/staycurrentmd/videolib/internal/catalog/matcher"
	"github.com/staycurrentmd/videolib/internal/catalog/snapshot"
	"github.com/staycurrentmd/videolib/internal/domain"
	"github.com/staycurrentmd/videolib/internal/domain/video"
)

type mockOrigin struct {
	vids []video.Record
	err  error
}

func (m *mockOrigin) LoadVideos(_ context.Context) ([]video.Record, error) {
	return m.vids, m.err
}

type mockChannel struct {
	vids []video.Record
	err  error
}

func (m *mockChannel) FetchVideos(_ context.Context) ([]video.Record, error) {
	return m.vids, m.err
}

type mockWriter struct {
	written []video.Record
	err     error
}

func (m *mockWriter) ReplaceVideos(_ context.Context, vids []video.Record) error {
	m.written = vids
	return m.err
}

type mockIndexer struct {
	ensured   bool
	ensureErr error
	indexed   []video.Record
	indexErr  error
}

func (m *mockIndexer) EnsureIndex(_ context.Context) error {
	m.ensured = true
	return m.ensureErr
}

func (m *mockIndexer) BulkIndex(_ context.Context, vids []video.Record) error {
	m.indexed = vids
	return m.indexErr
}

func newService(origin PrimaryOrigin, channel ChannelOrigin, writer CollectionWriter, indexer Indexer) (*Service, *snapshot.Store) {
	snaps := snapshot.NewStore(24, 100)
	svc := New(origin, channel, writer, indexer, snaps, matcher.DefaultThreshold, 24, 100)
	return svc, snaps
}

func TestLoad_MergesOrigins(t *testing.T) {
	origin := &mockOrigin{vids: []video.Record{
		{ID: "p1", Title: "Asthma Care - staycurrentmd", Space: "Pulmonology"},
		{ID: "p2", Title: "Renal Physiology", Space: "Nephrology"},
	}}
	channel := &mockChannel{vids: []video.Record{
		{ID: "yt1", Title: "Asthma Care", Source: video.SourceYouTube},
	}}
	svc, snaps := newService(origin, channel, nil, nil)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	snap := snaps.Current()
	if snap.Len() != 2 {
		t.Fatalf("snapshot len = %d, want 2 (matched pair collapsed)", snap.Len())
	}

	got, err := snap.VideoByID("yt1")
	if err != nil {
		t.Fatalf("VideoByID yt1: %v", err)
	}
	if got.Space != "Pulmonology" {
		t.Errorf("matched channel video space = %q, want inherited Pulmonology", got.Space)
	}
	if _, err := snap.VideoByID("p2"); err != nil {
		t.Errorf("unmatched primary video missing: %v", err)
	}
	if _, err := snap.VideoByID("p1"); err == nil {
		t.Error("matched primary video must be superseded by the channel record")
	}
}

func TestLoad_PrimaryOnlyWhenChannelFails(t *testing.T) {
	origin := &mockOrigin{vids: []video.Record{{ID: "p1", Title: "Asthma Care"}}}
	channel := &mockChannel{err: errors.New("quota exceeded")}
	svc, snaps := newService(origin, channel, nil, nil)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snaps.Current().Len() != 1 {
		t.Errorf("snapshot len = %d, want 1", snaps.Current().Len())
	}
}

func TestLoad_ChannelOnlyWhenPrimaryFails(t *testing.T) {
	origin := &mockOrigin{err: errors.New("db gone")}
	channel := &mockChannel{vids: []video.Record{{ID: "yt1", Title: "Asthma Care"}}}
	svc, snaps := newService(origin, channel, nil, nil)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snaps.Current().Len() != 1 {
		t.Errorf("snapshot len = %d, want 1", snaps.Current().Len())
	}
}

func TestLoad_BothOriginsFail(t *testing.T) {
	origin := &mockOrigin{err: errors.New("db gone")}
	channel := &mockChannel{err: errors.New("quota exceeded")}
	svc, snaps := newService(origin, channel, nil, nil)

	err := svc.Load(context.Background())
	if !errors.Is(err, domain.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if snaps.Current().Len() != 0 {
		t.Errorf("snapshot len = %d, want empty", snaps.Current().Len())
	}
}

func TestLoad_NoChannelConfigured(t *testing.T) {
	origin := &mockOrigin{err: errors.New("db gone")}
	svc, _ := newService(origin, nil, nil, nil)

	if err := svc.Load(context.Background()); !errors.Is(err, domain.ErrNoData) {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestLoad_WriteBackAndReindex(t *testing.T) {
	origin := &mockOrigin{vids: []video.Record{{ID: "p1", Title: "Asthma Care"}}}
	writer := &mockWriter{}
	indexer := &mockIndexer{}
	svc, _ := newService(origin, nil, writer, indexer)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(writer.written) != 1 {
		t.Errorf("write-back got %d videos, want 1", len(writer.written))
	}
	if !indexer.ensured || len(indexer.indexed) != 1 {
		t.Errorf("ensured=%v indexed=%d, want true/1", indexer.ensured, len(indexer.indexed))
	}
}

func TestLoad_ReindexFailureNonFatal(t *testing.T) {
	origin := &mockOrigin{vids: []video.Record{{ID: "p1", Title: "Asthma Care"}}}
	indexer := &mockIndexer{ensureErr: errors.New("cluster down")}
	svc, snaps := newService(origin, nil, nil, indexer)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snaps.Current().Len() != 1 {
		t.Errorf("snapshot len = %d, want 1", snaps.Current().Len())
	}
	if indexer.indexed != nil {
		t.Error("bulk index must be skipped when ensure fails")
	}
}

func TestLoad_WriteBackFailureNonFatal(t *testing.T) {
	origin := &mockOrigin{vids: []video.Record{{ID: "p1", Title: "Asthma Care"}}}
	writer := &mockWriter{err: errors.New("disk full")}
	svc, snaps := newService(origin, nil, writer, nil)

	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if snaps.Current().Len() != 1 {
		t.Errorf("snapshot len = %d, want 1", snaps.Current().Len())
	}
}
