package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"todoqueue/internal/config"
	"todoqueue/internal/report"
	"todoqueue/internal/storage"
	"todoqueue/internal/ui"
)

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
// The interactive TUI is the default when no subcommand is given; this router
// exists for scripting.
func Run(store *storage.Store, cfg config.Config, args []string) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "add":
		return doAdd(store, a)

	case "ls":
		return doList(store, a)

	case "done":
		id, ok := parseID(a, "done")
		if !ok {
			return 2
		}
		return doDone(store, id)

	case "rm":
		id, ok := parseID(a, "rm")
		if !ok {
			return 2
		}
		return doRemove(store, id)

	case "export":
		return doExport(store, cfg, a)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`todoqueue - a terminal to-do list

Usage:
  todoqueue                 Launch the interactive list
  todoqueue <subcommand> [args]

Subcommands:
  add [-c category] [-t tags] <text...>   Add a new todo
  ls [-a] [-done] [-c category] [-t tag]  List todos (pending by default)
  done <id>                               Mark a todo completed
  rm <id>                                 Delete a todo
  export [-o path] <json|csv|pdf>         Write a snapshot of the list
  help                                    Show this message
`)
}

func parseID(args []string, cmd string) (int, bool) {
	if len(args) != 1 {
		ui.Fail("usage: todoqueue " + cmd + " <id>")
		return 0, false
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		ui.Fail(cmd + ": not a number: " + args[0])
		return 0, false
	}
	return id, true
}

func doAdd(store *storage.Store, args []string) int {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	category := fs.String("c", "", "category")
	tags := fs.String("t", "", "comma-separated tags")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	text := strings.Join(fs.Args(), " ")
	if strings.TrimSpace(text) == "" {
		ui.Fail("usage: todoqueue add [-c category] [-t tags] <text...>")
		return 2
	}
	id, err := store.Add(text, *category, *tags)
	if err != nil {
		ui.Fail("add: " + err.Error())
		return 1
	}
	ui.Ok(fmt.Sprintf("added #%d %s", id, strings.TrimSpace(text)))
	return 0
}

func doList(store *storage.Store, args []string) int {
	fs := flag.NewFlagSet("ls", flag.ContinueOnError)
	all := fs.Bool("a", false, "include completed")
	doneOnly := fs.Bool("done", false, "completed only")
	category := fs.String("c", "", "filter by category")
	tag := fs.String("t", "", "filter by tag")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var items []storage.Item
	if !*doneOnly {
		pending, err := store.Pending()
		if err != nil {
			ui.Fail("ls: " + err.Error())
			return 1
		}
		items = append(items, pending...)
	}
	if *all || *doneOnly {
		completed, err := store.Completed()
		if err != nil {
			ui.Fail("ls: " + err.Error())
			return 1
		}
		items = append(items, completed...)
	}
	if *category != "" {
		items = storage.FilterCategory(items, *category)
	}
	if *tag != "" {
		items = storage.FilterTag(items, *tag)
	}

	if len(items) == 0 {
		fmt.Println("no todos")
		return 0
	}
	for _, it := range items {
		fmt.Println(FormatItem(it))
	}
	return 0
}

// FormatItem renders one line of ls output.
func FormatItem(it storage.Item) string {
	box := "[ ]"
	if it.Status == storage.StatusCompleted {
		box = "[x]"
	}
	line := fmt.Sprintf("%4d %s %s", it.ID, box, it.Text)
	if it.Category != "" {
		line += " [" + it.Category + "]"
	}
	for _, t := range storage.SplitTags(it.Tags) {
		line += " #" + t
	}
	if it.CompletedAt.Valid {
		line += " (done " + it.CompletedAt.Time.Format("2006-01-02") + ")"
	}
	return line
}

func doDone(store *storage.Store, id int) int {
	if err := store.Complete(id); err != nil {
		ui.Fail("done: " + err.Error())
		return 1
	}
	ui.Ok(fmt.Sprintf("completed #%d", id))
	return 0
}

func doRemove(store *storage.Store, id int) int {
	if err := store.Delete(id); err != nil {
		ui.Fail("rm: " + err.Error())
		return 1
	}
	ui.Ok(fmt.Sprintf("deleted #%d", id))
	return 0
}

func doExport(store *storage.Store, cfg config.Config, args []string) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	out := fs.String("o", "", "output path")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		ui.Fail("usage: todoqueue export [-o path] <json|csv|pdf>")
		return 2
	}
	format := strings.ToLower(fs.Arg(0))

	data, err := report.NewExporter(store).Export(format)
	if err != nil {
		ui.Fail("export: " + err.Error())
		return 1
	}

	path := *out
	if path == "" {
		name := fmt.Sprintf("todoqueue-%s.%s", time.Now().Format("20060102-150405"), format)
		path = filepath.Join(cfg.ExportDir, name)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		ui.Fail("export: " + err.Error())
		return 1
	}
	ui.Ok("wrote " + path)
	return 0
}
