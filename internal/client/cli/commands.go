package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/labkeeper/internal/client/export"
	"github.com/dmitrijs2005/labkeeper/internal/client/models"
	"github.com/dmitrijs2005/labkeeper/internal/client/services"
	"github.com/dmitrijs2005/labkeeper/internal/client/store"
	"github.com/dmitrijs2005/labkeeper/internal/client/syncqueue"
	"github.com/dmitrijs2005/labkeeper/internal/common"
)

// Root prints the welcome line and runs the REPL on the app's input.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Welcome to LabKeeper (type 'help' for commands)")
	runREPL(ctx, a, a.getStatus, a.scanner)
}

func (a *App) getStatus() string {
	return statusLine(a.mode(), a.engine.Summary(), a.styled)
}

func (a *App) Projects(ctx context.Context, args []string) error {
	for _, p := range a.store.Projects() {
		fmt.Fprintf(a.out, "%s  %s\n", p.ID, p.Title)
		for _, e := range a.store.Experiments(p.ID) {
			fmt.Fprintf(a.out, "    %s  %s\n", e.ID, e.Title)
		}
	}
	return nil
}

func (a *App) AddProject(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("project <title>")
	}
	id, err := a.store.CreateProject(strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Project", id)
	return nil
}

func (a *App) AddExperiment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("experiment <projectId> <title>")
	}
	id, err := a.store.CreateExperiment(store.ExperimentInput{ProjectID: args[0], Title: strings.Join(args[1:], " ")})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Experiment", id)
	return nil
}

// NewEntry creates an entry. The first argument is taken as a template id
// when one with that name exists; without any argument the title is asked
// for.
func (a *App) NewEntry(ctx context.Context, args []string) error {
	in := store.EntryInput{}
	if len(args) > 0 {
		if _, ok := a.store.Templates()[args[0]]; ok {
			in.TemplateID, args = args[0], args[1:]
		}
	}
	in.Title = strings.Join(args, " ")
	if in.Title == "" && in.TemplateID == "" {
		title, err := GetSimpleText(a.scanner, "Entry title", a.out)
		if err != nil {
			return err
		}
		in.Title = title
	}

	e, err := a.notebook.CreateEntry(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Entry %s  %s\n", e.ID, e.Title)
	return nil
}

func (a *App) ListEntries(ctx context.Context, args []string) error {
	entries := a.store.Entries(false)
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %s  %s  (%d blocks)\n", e.ID, e.DateBucket, e.Title, len(e.Content))
	}
	return nil
}

// Show prints an entry with the id of every block, then its pinned
// regions. Region ids pointing at removed blocks are skipped.
func (a *App) Show(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("show <entry>")
	}
	e, ok := a.store.Entry(args[0])
	if !ok {
		fmt.Fprintln(a.out, "No such entry")
		return nil
	}

	atts := a.store.AttachmentsByID()
	fmt.Fprintf(a.out, "# %s  [%s]\n", e.Title, e.DateBucket)
	for _, b := range e.Content {
		md := export.ToMarkdown([]models.Block{b}, atts, nil)
		lock := ""
		if b.Locked {
			lock = " locked"
		}
		fmt.Fprintf(a.out, "\n[%s %s%s]\n%s\n", b.ID, b.Type(), lock, md)
		if cl, ok := b.Payload.(models.Checklist); ok {
			for _, it := range cl.Items {
				fmt.Fprintf(a.out, "    item %s\n", it.ID)
			}
		}
	}

	for _, r := range e.PinnedRegions {
		var present []string
		for _, id := range r.BlockIDs {
			if _, ok := e.Block(id); ok {
				present = append(present, id)
			}
		}
		fmt.Fprintf(a.out, "\npinned %q: %s\n", r.Label, strings.Join(present, ", "))
	}

	items := a.engine.ItemsForEntry(e.ID)
	if len(items) > 0 {
		fmt.Fprintf(a.out, "\n%d change(s), latest %s\n", len(items), items[0].Status)
	}
	return nil
}

// Write reads a multi-line paragraph and appends it to an entry.
func (a *App) Write(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("write <entry>")
	}
	e, ok := a.store.Entry(args[0])
	if !ok {
		fmt.Fprintln(a.out, "No such entry")
		return nil
	}

	text, err := GetMultiline(a.scanner, "Paragraph text", a.out)
	if err != nil {
		return err
	}
	if text == "" {
		return nil
	}

	content := append(e.Content, models.Block{ID: common.NewID(), Payload: models.Paragraph{Text: text}})
	changed, err := a.notebook.SaveContent(ctx, e.ID, content)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved, %d block(s) changed\n", len(changed))
	return nil
}

func (a *App) Edit(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usageError("edit <entry> <block> <text>")
	}
	return a.notebook.SetBlockText(ctx, args[0], args[1], strings.Join(args[2:], " "))
}

func (a *App) Toggle(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return usageError("toggle <entry> <block> <item>")
	}
	return a.notebook.ToggleChecklistItem(ctx, args[0], args[1], args[2])
}

func (a *App) Attach(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("attach <entry> <path> [caption]")
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		return err
	}
	att, err := a.notebook.AttachFile(ctx, services.AttachInput{
		EntryID:  args[0],
		Filename: filepath.Base(args[1]),
		Data:     data,
		Caption:  strings.Join(args[2:], " "),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Attached %s (%s) as %s\n", att.Filename, att.Filesize, att.CachedPath)
	return nil
}

func (a *App) Attachments(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("files <entry>")
	}
	atts := a.store.AttachmentsForEntry(args[0])
	if len(atts) == 0 {
		fmt.Fprintln(a.out, "No attachments")
		return nil
	}
	for _, att := range atts {
		pinned := ""
		if att.PinnedOffline {
			pinned = "  pinned"
		}
		fmt.Fprintf(a.out, "%s  %-5s %-9s %s  %s%s\n", att.ID, att.Type, att.Filesize, att.Filename, att.CachedPath, pinned)
	}
	return nil
}

// Pin marks an attachment to be kept available offline.
func (a *App) Pin(ctx context.Context, args []string) error {
	if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
		return usageError("pin <attachment> on|off")
	}
	if _, ok := a.store.Attachment(args[0]); !ok {
		fmt.Fprintln(a.out, "No such attachment")
		return nil
	}
	a.store.SetAttachmentPinnedOffline(args[0], args[1] == "on")
	return nil
}

func (a *App) Rename(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("rename <entry> <title>")
	}
	title := strings.Join(args[1:], " ")
	a.store.PatchEntryMetadata(args[0], store.EntryPatch{Title: &title})
	return nil
}

// Tag replaces the tags of an entry. "tag <entry> -" clears them.
func (a *App) Tag(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usageError("tag <entry> <tags...>")
	}
	tags := args[1:]
	if len(tags) == 1 && tags[0] == "-" {
		tags = []string{}
	}
	a.store.PatchEntryMetadata(args[0], store.EntryPatch{Tags: tags})
	return a.notebook.Reindex(ctx)
}

func (a *App) Archive(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("archive <entry>")
	}
	a.store.ArchiveEntry(args[0])
	return nil
}

func (a *App) Queue(ctx context.Context, args []string) error {
	var items []models.ChangeQueueItem
	if len(args) > 0 {
		items = a.engine.ItemsForEntry(args[0])
	} else {
		items = a.engine.Items()
	}
	fmt.Fprintln(a.out, formatQueue(items, time.Now(), a.styled))
	return nil
}

// Sync runs the queue now. "all" includes failed items; any other argument
// limits the run to one entry.
func (a *App) Sync(ctx context.Context, args []string) error {
	var opts syncqueue.SyncOptions
	for _, arg := range args {
		if arg == "all" {
			opts.IncludeFailed = true
		} else {
			opts.EntryID = arg
		}
	}
	if !a.engine.SyncNow(ctx, opts) {
		fmt.Fprintln(a.out, "A sync run is already in progress")
		return nil
	}
	a.printSummary()
	return nil
}

func (a *App) Retry(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("retry <change>")
	}
	if !a.engine.RetryChange(ctx, args[0]) {
		fmt.Fprintln(a.out, "Nothing to retry")
		return nil
	}
	if it, ok := a.engine.Item(args[0]); ok {
		line := fmt.Sprintf("%s: %s after %d attempt(s)", it.ID, it.Status, it.Attempts)
		if it.LastError != "" {
			line += " (" + it.LastError + ")"
		}
		fmt.Fprintln(a.out, line)
	}
	a.printSummary()
	return nil
}

func (a *App) Clear(ctx context.Context, args []string) error {
	entryID := ""
	if len(args) > 0 {
		entryID = args[0]
	}
	fmt.Fprintf(a.out, "Removed %d synced change(s)\n", a.engine.ClearSynced(entryID))
	return nil
}

// Offline forces the offline signal on or off. Without an argument it
// prints the current state.
func (a *App) Offline(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(a.out, "offline=%t forced=%t\n", a.conn.Offline(), a.conn.Forced())
		return nil
	}
	switch args[0] {
	case "on":
		a.conn.Force(true)
		a.setMode(ModeDisabled)
	case "off":
		a.conn.Force(false)
		a.checkOnline(ctx)
	default:
		return usageError("offline on|off")
	}
	return nil
}

// FailNext arms a one-shot failure in the simulated remote.
func (a *App) FailNext(ctx context.Context, args []string) error {
	if a.simulator == nil {
		fmt.Fprintln(a.out, "Forced failures need the simulated remote")
		return nil
	}
	a.simulator.FailNext()
	fmt.Fprintln(a.out, "Next sync attempt will fail")
	return nil
}

func (a *App) Search(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("search <query>")
	}
	found, err := a.notebook.Search(ctx, strings.Join(args, " "), 20)
	if err != nil {
		return err
	}
	if len(found) == 0 {
		fmt.Fprintln(a.out, "No matches")
	}
	for _, e := range found {
		fmt.Fprintf(a.out, "%s  %s  %s\n", e.ID, e.DateBucket, e.Title)
	}
	return nil
}

// Export writes an entry as md, html or zip. Without a path Markdown and
// HTML go to the output and zip files are named after the entry.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("export <entry> [md|html|zip] [path]")
	}
	entryID, format, path := args[0], "md", ""
	if len(args) > 1 {
		format = args[1]
	}
	if len(args) > 2 {
		path = args[2]
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case "md":
		var s string
		s, err = a.notebook.ExportMarkdown(ctx, entryID)
		data = []byte(s)
	case "html":
		var s string
		s, err = a.notebook.ExportHTML(ctx, []string{entryID})
		data = []byte(s)
	case "zip":
		var buf bytes.Buffer
		var skipped []string
		skipped, err = a.notebook.ExportBundle(ctx, entryID, &buf)
		if len(skipped) > 0 {
			fmt.Fprintf(a.out, "Skipped unreadable attachments: %s\n", strings.Join(skipped, ", "))
		}
		data = buf.Bytes()
		if path == "" {
			path = entryID + ".zip"
		}
	default:
		return usageError("export <entry> [md|html|zip] [path]")
	}
	if err != nil {
		return err
	}

	if path == "" {
		fmt.Fprintln(a.out, string(data))
		return nil
	}
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Wrote", path)
	return nil
}

// Calendar lists the entries of a day given in natural language.
func (a *App) Calendar(ctx context.Context, args []string) error {
	day, err := resolveDay(strings.Join(args, " "), time.Now())
	if err != nil {
		return err
	}
	entries := a.store.EntriesByDateBucket(day)
	fmt.Fprintf(a.out, "%s: %d entries\n", day, len(entries))
	for _, e := range entries {
		fmt.Fprintf(a.out, "  %s  %s\n", e.ID, e.Title)
	}
	return nil
}

func (a *App) printSummary() {
	s := a.engine.Summary()
	fmt.Fprintf(a.out, "synced=%d pending=%d failed=%d (%s)\n", s.Synced, s.Pending, s.Failed, badge(string(s.Indicator), a.styled))
}
