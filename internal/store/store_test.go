package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"

	"ctboard/internal/model"
	"ctboard/internal/view"
)

func TestSettings_SetLoadOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	t.Setenv(EnvAPIURL, "")
	t.Setenv(EnvAPIToken, "")
	ctx := context.Background()

	s, err := OpenSettings(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if s.Endpoint().Configured() {
		t.Fatalf("fresh settings should not be configured")
	}
	if err := s.Set(ctx, KeyAPIURL, "  https://example.test/exec "); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, KeyAPIToken, "tok"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := OpenSettings(ctx)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	ep := reopened.Endpoint()
	if ep.URL != "https://example.test/exec" || ep.Token != "tok" {
		t.Fatalf("unexpected endpoint %+v", ep)
	}

	reopened.Override(KeyAPIURL, "http://other")
	if got := reopened.Endpoint().URL; got != "http://other" {
		t.Fatalf("override ignored: %s", got)
	}
	if !reopened.Overridden(KeyAPIURL) || reopened.Overridden(KeyAPIToken) {
		t.Fatalf("override flags wrong")
	}

	if err := reopened.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := s.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Get(KeyAPIURL) != "" || s.Get(KeyAPIToken) != "" {
		t.Fatalf("clear did not persist")
	}
}

func TestSettings_EnvOverride(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	t.Setenv(EnvAPIURL, "http://env")
	t.Setenv(EnvAPIToken, "")

	s, err := OpenSettings(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.OverrideFromEnv()
	if got := s.Endpoint(); got.URL != "http://env" || got.Token != "" {
		t.Fatalf("unexpected %+v", got)
	}
}

func TestProfile_DefaultsWhenMissing(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	p, err := LoadProfile()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.NoteLimit() != view.NoteWidth {
		t.Fatalf("note limit = %d", p.NoteLimit())
	}
	if p.Vocabulary().Label(model.StatusInProgress) != "Делаем" {
		t.Fatalf("default label lost")
	}
}

func TestProfile_Roundtrip(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	p := &Profile{
		Locale:    "en",
		NoteWidth: 80,
		Statuses: []StatusProfile{
			{Status: "Blocked", Label: "On hold", Wire: "blocked", Aliases: []string{"stuck"}},
		},
	}
	if err := SaveProfile(p); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadProfile()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	v := got.Vocabulary()
	if st, ok := v.Parse("stuck"); !ok || st != model.StatusBlocked {
		t.Fatalf("alias not loaded")
	}
	if v.Wire(model.StatusBlocked) != "blocked" || v.Label(model.StatusQueue) != "Очередь" {
		t.Fatalf("unexpected vocabulary %+v", v.Defs())
	}
	if got.LanguageTag().String() != "en" {
		t.Fatalf("locale = %s", got.LanguageTag())
	}
}

func TestProfile_RejectsUnknownStatus(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "board.yaml")
	if err := os.WriteFile(path, []byte("statuses:\n  - status: Later\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadProfileFrom(path); err == nil {
		t.Fatalf("expected error for unknown status")
	}
}

func TestBoard_ReplaceFindRestore(t *testing.T) {
	b := NewBoard()
	b.ReplaceTasks([]model.Task{
		{TaskID: "1", Status: model.StatusQueue},
		{TaskID: "1", Status: model.StatusDone},
		{TaskID: "", OrderID: "draft"},
		{TaskID: "2"},
	})
	if len(b.Tasks) != 3 {
		t.Fatalf("duplicate id kept: %+v", b.Tasks)
	}
	task := b.FindTask("1")
	snap := *task
	task.Status = model.StatusInProgress
	if !b.RestoreTask(snap) || b.FindTask("1").Status != model.StatusQueue {
		t.Fatalf("restore failed")
	}
	if b.RestoreTask(model.Task{TaskID: "missing"}) {
		t.Fatalf("restore of missing task should report false")
	}
	if b.FindTask("") != nil {
		t.Fatalf("empty id must not match unsaved rows")
	}
}

func TestTUIState_Roundtrip(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	st, err := LoadTUIState()
	if err != nil || st.Mode != model.ModeBoard {
		t.Fatalf("default state: %+v %v", st, err)
	}
	st.Mode = model.ModeArchive
	st.Criteria = view.Criteria{Text: "abc", Workcenter: "WC1"}
	if err := SaveTUIState(st); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadTUIState()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Mode != model.ModeArchive || got.Criteria != st.Criteria {
		t.Fatalf("got %+v", got)
	}
}

func TestWatchConfig_NotifiesOnSettingsWrite(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := WatchConfig(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	s, err := OpenSettings(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, KeyAPIURL, "http://x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("no change notification")
	}
}

func TestWatchConfig_ReadsStayQuiet(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := OpenSettings(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Set(ctx, KeyAPIURL, "http://x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	ch, err := WatchConfig(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Reads open the WAL-mode db and create and remove its sidecar files.
	for i := 0; i < 3; i++ {
		if err := s.Load(ctx); err != nil {
			t.Fatalf("load: %v", err)
		}
	}
	select {
	case <-ch:
		t.Fatalf("reading settings produced a change notification")
	case <-time.After(3 * watchDebounce):
	}

	// A real write is still seen.
	if err := s.Set(ctx, KeyAPIURL, "http://y"); err != nil {
		t.Fatalf("set: %v", err)
	}
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("no change notification after write")
	}
}

func TestWatchConfig_IgnoresSidecarFiles(t *testing.T) {
	for _, name := range []string{"settings.sqlite-wal", "settings.sqlite-shm", "settings.sqlite-journal", "tui_state.json"} {
		if relevant(fsnotify.Event{Name: filepath.Join("cfg", name), Op: fsnotify.Create}) {
			t.Fatalf("%s should not count as a settings change", name)
		}
	}
	for _, name := range []string{settingsFileName, profileFileName} {
		if !relevant(fsnotify.Event{Name: filepath.Join("cfg", name), Op: fsnotify.Write}) {
			t.Fatalf("%s should count as a settings change", name)
		}
	}
}

func TestSettings_RefreshReportsChanges(t *testing.T) {
	t.Setenv(EnvConfigDir, t.TempDir())
	ctx := context.Background()
	s, err := OpenSettings(ctx)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if changed, err := s.Refresh(ctx); err != nil || changed {
		t.Fatalf("refresh without writes: changed=%v err=%v", changed, err)
	}

	other, err := OpenSettings(ctx)
	if err != nil {
		t.Fatalf("open other: %v", err)
	}
	if err := other.Set(ctx, KeyAPIURL, "http://x"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if changed, err := s.Refresh(ctx); err != nil || !changed {
		t.Fatalf("refresh after write: changed=%v err=%v", changed, err)
	}
	if got := s.Get(KeyAPIURL); got != "http://x" {
		t.Fatalf("api_url = %q", got)
	}
	if changed, _ := s.Refresh(ctx); changed {
		t.Fatalf("second refresh reported a change")
	}
}
