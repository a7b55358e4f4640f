package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface is the command surface the REPL drives. Every handler receives
// the tokens after the command name.
type execIface interface {
	Projects(ctx context.Context, args []string) error
	AddProject(ctx context.Context, args []string) error
	AddExperiment(ctx context.Context, args []string) error
	NewEntry(ctx context.Context, args []string) error
	ListEntries(ctx context.Context, args []string) error
	Show(ctx context.Context, args []string) error
	Write(ctx context.Context, args []string) error
	Edit(ctx context.Context, args []string) error
	Toggle(ctx context.Context, args []string) error
	Attach(ctx context.Context, args []string) error
	Attachments(ctx context.Context, args []string) error
	Pin(ctx context.Context, args []string) error
	Rename(ctx context.Context, args []string) error
	Tag(ctx context.Context, args []string) error
	Archive(ctx context.Context, args []string) error
	Queue(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Retry(ctx context.Context, args []string) error
	Clear(ctx context.Context, args []string) error
	Offline(ctx context.Context, args []string) error
	FailNext(ctx context.Context, args []string) error
	Search(ctx context.Context, args []string) error
	Export(ctx context.Context, args []string) error
	Calendar(ctx context.Context, args []string) error
}

const helpText = `Notebook:  projects, project <title>, experiment <projectId> <title>,
           new [template] [title], ls, show <entry>, write <entry>,
           edit <entry> <block> <text>, toggle <entry> <block> <item>,
           attach <entry> <path> [caption], files <entry>,
           pin <attachment> on|off, rename <entry> <title>,
           tag <entry> <tags...>, archive <entry>, search <query>,
           export <entry> [md|html|zip] [path], calendar [when]
Sync:      queue [entry], sync [all] [entry], retry <change>, clear [entry],
           offline on|off, fail
Other:     help, exit`

// runREPL reads commands from scanner until EOF, "exit" or "quit". Handler
// errors are printed and never stop the loop.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("lk %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)
		case "projects":
			err = a.Projects(ctx, args)
		case "project":
			err = a.AddProject(ctx, args)
		case "experiment":
			err = a.AddExperiment(ctx, args)
		case "new":
			err = a.NewEntry(ctx, args)
		case "ls", "entries":
			err = a.ListEntries(ctx, args)
		case "show":
			err = a.Show(ctx, args)
		case "write":
			err = a.Write(ctx, args)
		case "edit":
			err = a.Edit(ctx, args)
		case "toggle":
			err = a.Toggle(ctx, args)
		case "attach":
			err = a.Attach(ctx, args)
		case "files":
			err = a.Attachments(ctx, args)
		case "pin":
			err = a.Pin(ctx, args)
		case "rename":
			err = a.Rename(ctx, args)
		case "tag":
			err = a.Tag(ctx, args)
		case "archive":
			err = a.Archive(ctx, args)
		case "queue", "q":
			err = a.Queue(ctx, args)
		case "sync":
			err = a.Sync(ctx, args)
		case "retry":
			err = a.Retry(ctx, args)
		case "clear":
			err = a.Clear(ctx, args)
		case "offline":
			err = a.Offline(ctx, args)
		case "fail":
			err = a.FailNext(ctx, args)
		case "search":
			err = a.Search(ctx, args)
		case "export":
			err = a.Export(ctx, args)
		case "calendar", "cal":
			err = a.Calendar(ctx, args)
		case "exit", "quit":
			printlnFn("Bye!")
			return
		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

// usageError is returned by handlers called with missing arguments.
type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }
