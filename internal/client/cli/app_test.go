package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/client"
	"github.com/dmitrijs2005/labkeeper/internal/client/config"
	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct{ err error }

func (p *fakePinger) Ping(ctx context.Context) error { return p.err }

func TestSetMode_ChangesAndLogsOnce(t *testing.T) {
	var buf bytes.Buffer
	app := &App{logger: logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil)))}

	app.setMode(ModeOnline)
	assert.Equal(t, ModeOnline, app.mode())
	assert.Contains(t, buf.String(), "mode=online")

	buf.Reset()
	app.setMode(ModeOnline)
	assert.Empty(t, buf.String(), "no log output when mode doesn't change")

	app.setMode(ModeOffline)
	assert.Equal(t, ModeOffline, app.mode())
	assert.Contains(t, buf.String(), "mode=offline")
}

func TestCheckOnline(t *testing.T) {
	p := &fakePinger{}
	app := &App{logger: logging.Discard(), conn: &client.Connectivity{}, pinger: p}
	ctx := context.Background()

	app.checkOnline(ctx)
	assert.Equal(t, ModeOnline, app.mode())
	assert.False(t, app.conn.Offline())

	p.err = errors.New("unreachable")
	app.checkOnline(ctx)
	assert.Equal(t, ModeOffline, app.mode())
	assert.True(t, app.conn.Offline())

	p.err = nil
	app.conn.Force(true)
	app.checkOnline(ctx)
	assert.Equal(t, ModeDisabled, app.mode())
	assert.True(t, app.conn.Offline())
}

func TestStartOnlineStatusWatcher_StopsOnCancel(t *testing.T) {
	app := &App{logger: logging.Discard(), conn: &client.Connectivity{}, pinger: &fakePinger{err: errors.New("down")}}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		app.StartOnlineStatusWatcher(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool { return app.mode() == ModeOffline }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func newTestApp(t *testing.T, input string) (*App, *bytes.Buffer) {
	t.Helper()

	var c config.Config
	c.LoadDefaults()
	c.DataDir = filepath.Join(t.TempDir(), "data")
	c.SimulatorLatency = time.Millisecond
	c.DisableScriptedFailures = true
	c.DrainDelay = time.Hour

	app, err := NewApp(context.Background(), &c, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close(context.Background()) })

	var out bytes.Buffer
	app.out = &out
	app.scanner = bufio.NewScanner(strings.NewReader(input))
	return app, &out
}

func onlyEntry(t *testing.T, app *App) models.Entry {
	t.Helper()
	entries := app.store.Entries(false)
	require.Len(t, entries, 1)
	return entries[0]
}

func TestApp_WriteSyncAndExport(t *testing.T) {
	app, out := newTestApp(t, "first line\nsecond line\n\n")
	ctx := context.Background()

	require.NoError(t, app.NewEntry(ctx, []string{"Bench", "notes"}))
	e := onlyEntry(t, app)
	assert.Equal(t, "Bench notes", e.Title)

	require.NoError(t, app.Write(ctx, []string{e.ID}))
	assert.Contains(t, out.String(), "Saved, 1 block(s) changed")

	out.Reset()
	require.NoError(t, app.Show(ctx, []string{e.ID}))
	assert.Contains(t, out.String(), "first line\nsecond line")
	assert.Contains(t, out.String(), "latest pending")

	out.Reset()
	require.NoError(t, app.Sync(ctx, nil))
	assert.Contains(t, out.String(), "synced=1 pending=0 failed=0")

	out.Reset()
	require.NoError(t, app.Clear(ctx, nil))
	assert.Contains(t, out.String(), "Removed 1 synced change(s)")

	out.Reset()
	require.NoError(t, app.Export(ctx, []string{e.ID, "md"}))
	assert.Contains(t, out.String(), "first line")

	path := filepath.Join(t.TempDir(), "entry.html")
	require.NoError(t, app.Export(ctx, []string{e.ID, "html", path}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<h1>Bench notes</h1>")
}

func TestApp_NewEntryFromTemplateAndPrompt(t *testing.T) {
	app, out := newTestApp(t, "Prompted title\n")
	ctx := context.Background()

	require.NoError(t, app.NewEntry(ctx, nil))
	assert.Contains(t, out.String(), "Entry title")
	assert.Equal(t, "Prompted title", onlyEntry(t, app).Title)

	require.NoError(t, app.NewEntry(ctx, []string{"experiment"}))
	var tpl models.Entry
	for _, e := range app.store.Entries(false) {
		if e.TemplateID == "experiment" {
			tpl = e
		}
	}
	require.NotEmpty(t, tpl.ID)
	assert.NotEmpty(t, tpl.PinnedRegions)
}

func TestApp_FailNextAndRetry(t *testing.T) {
	app, out := newTestApp(t, "text\n\n")
	ctx := context.Background()

	require.NoError(t, app.NewEntry(ctx, []string{"Run"}))
	e := onlyEntry(t, app)
	require.NoError(t, app.Write(ctx, []string{e.ID}))

	require.NoError(t, app.FailNext(ctx, nil))
	require.NoError(t, app.Sync(ctx, nil))
	assert.Contains(t, out.String(), "synced=0 pending=0 failed=1")

	items := app.engine.Items()
	require.Len(t, items, 1)
	assert.Equal(t, models.StatusFailed, items[0].Status)

	out.Reset()
	require.NoError(t, app.Retry(ctx, []string{items[0].ID}))
	assert.Contains(t, out.String(), items[0].ID+": synced after 2 attempt(s)")
	assert.Contains(t, out.String(), "synced=1 pending=0 failed=0")

	out.Reset()
	require.NoError(t, app.Retry(ctx, []string{items[0].ID}))
	assert.Contains(t, out.String(), "Nothing to retry")
}

func TestApp_OfflineForcesFailures(t *testing.T) {
	app, out := newTestApp(t, "text\n\n")
	ctx := context.Background()

	require.NoError(t, app.Offline(ctx, []string{"on"}))
	assert.Equal(t, ModeDisabled, app.mode())

	require.NoError(t, app.NewEntry(ctx, []string{"Run"}))
	require.NoError(t, app.Write(ctx, []string{onlyEntry(t, app).ID}))
	require.NoError(t, app.Sync(ctx, nil))
	assert.Contains(t, out.String(), "failed=1")

	require.NoError(t, app.Offline(ctx, []string{"off"}))
	assert.Equal(t, ModeOnline, app.mode())

	out.Reset()
	require.NoError(t, app.Sync(ctx, []string{"all"}))
	assert.Contains(t, out.String(), "synced=1 pending=0 failed=0")

	assert.EqualError(t, app.Offline(ctx, []string{"maybe"}), "usage: offline on|off")
}

func TestApp_ProjectsAndCalendar(t *testing.T) {
	app, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, app.AddProject(ctx, []string{"Enzymes"}))
	projects := app.store.Projects()
	var pid string
	for _, p := range projects {
		if p.Title == "Enzymes" {
			pid = p.ID
		}
	}
	require.NotEmpty(t, pid)
	require.NoError(t, app.AddExperiment(ctx, []string{pid, "Kinetics"}))

	out.Reset()
	require.NoError(t, app.Projects(ctx, nil))
	assert.Contains(t, out.String(), "Enzymes")
	assert.Contains(t, out.String(), "Kinetics")

	require.NoError(t, app.NewEntry(ctx, []string{"Today"}))
	out.Reset()
	require.NoError(t, app.Calendar(ctx, []string{"today"}))
	assert.Contains(t, out.String(), ": 1 entries")
	assert.Contains(t, out.String(), "Today")

	assert.Error(t, app.AddExperiment(ctx, []string{"Kinetics"}))
}

func TestApp_CloseTwice(t *testing.T) {
	app, _ := newTestApp(t, "")
	require.NoError(t, app.Close(context.Background()))
	require.NoError(t, app.Close(context.Background()))
}

func TestApp_AttachTagArchive(t *testing.T) {
	app, out := newTestApp(t, "")
	ctx := context.Background()

	require.NoError(t, app.NewEntry(ctx, []string{"Gel"}))
	e := onlyEntry(t, app)

	path := filepath.Join(t.TempDir(), "gel.png")
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0o600))
	require.NoError(t, app.Attach(ctx, []string{e.ID, path, "lane", "3"}))
	assert.Contains(t, out.String(), "Attached gel.png (16 B) as idb://")

	atts := app.store.AttachmentsForEntry(e.ID)
	require.Len(t, atts, 1)
	require.NoError(t, app.Pin(ctx, []string{atts[0].ID, "on"}))

	out.Reset()
	require.NoError(t, app.Attachments(ctx, []string{e.ID}))
	assert.Contains(t, out.String(), "gel.png")
	assert.Contains(t, out.String(), "pinned")

	require.NoError(t, app.Rename(ctx, []string{e.ID, "Gel", "run", "2"}))
	require.NoError(t, app.Tag(ctx, []string{e.ID, "electrophoresis"}))
	got, _ := app.store.Entry(e.ID)
	assert.Equal(t, "Gel run 2", got.Title)
	assert.Equal(t, []string{"electrophoresis"}, got.Tags)

	out.Reset()
	require.NoError(t, app.Search(ctx, []string{"electrophoresis"}))
	assert.Contains(t, out.String(), e.ID)

	require.NoError(t, app.Archive(ctx, []string{e.ID}))
	out.Reset()
	require.NoError(t, app.ListEntries(ctx, nil))
	assert.Contains(t, out.String(), "No entries")
}
