package storage

import (
	"path/filepath"
	"testing"

	"github.com/dkeye/SantaCall/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "data", "santa.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAudioSettings_MissingRowYieldsDefaults(t *testing.T) {
	db := openTestDB(t)
	if got := db.LoadAudioSettings("nobody"); got != domain.DefaultAudioSettings() {
		t.Fatalf("got %+v", got)
	}
}

func TestAudioSettings_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	want := domain.AudioSettings{EchoCancellation: true, NoiseSuppression: false, AutoGainControl: false}

	if err := db.SaveAudioSettings("c1", want); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := db.LoadAudioSettings("c1"); got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if got := db.For("c2").AudioSettings(); got != domain.DefaultAudioSettings() {
		t.Fatalf("settings leaked across clients: %+v", got)
	}

	want.NoiseSuppression = true
	if err := db.SaveAudioSettings("c1", want); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if got := db.For("c1").AudioSettings(); got != want {
		t.Fatalf("overwrite not applied: %+v", got)
	}
}

func TestAudioSettings_CorruptValueYieldsDefaults(t *testing.T) {
	db := openTestDB(t)
	if err := db.PutRaw("c1", domain.AudioSettingsKey, "{not json"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if got := db.LoadAudioSettings("c1"); got != domain.DefaultAudioSettings() {
		t.Fatalf("got %+v", got)
	}
}

func TestAudioSettings_StoredUnderFixedKey(t *testing.T) {
	db := openTestDB(t)
	if err := db.SaveAudioSettings("c1", domain.AudioSettings{}); err != nil {
		t.Fatalf("save: %v", err)
	}
	raw, ok, err := db.GetRaw("c1", "santa.audioSettings")
	if err != nil || !ok {
		t.Fatalf("raw lookup: ok=%v err=%v", ok, err)
	}
	if raw != `{"echoCancellation":false,"noiseSuppression":false,"autoGainControl":false}` {
		t.Fatalf("raw = %s", raw)
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "santa.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.SaveAudioSettings("c1", domain.AudioSettings{AutoGainControl: true}); err != nil {
		t.Fatalf("save: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if got := db.LoadAudioSettings("c1"); got != (domain.AudioSettings{AutoGainControl: true}) {
		t.Fatalf("got %+v", got)
	}
}
