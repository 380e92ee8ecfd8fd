package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nomis52/procsim/buildinfo"
	"github.com/nomis52/procsim/clients/procsimclient"
	"github.com/nomis52/procsim/server/handlers"
)

const defaultServer = "http://localhost:8000"

type Args struct {
	Server      string
	Timeout     time.Duration
	ShowVersion bool
	Command     string
	CommandArgs []string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	args := parseArgs()

	if args.ShowVersion {
		fmt.Printf("procsim %s\n", buildinfo.Get())
		return nil
	}
	if args.Command == "" {
		flag.Usage()
		return fmt.Errorf("a command is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), args.Timeout)
	defer cancel()

	client := procsimclient.New(args.Server)

	switch args.Command {
	case "process":
		return printResult(client.Process(ctx))
	case "logs":
		return runLogs(ctx, client, args.CommandArgs)
	case "assign":
		return runAssign(ctx, client, args.CommandArgs)
	case "action":
		return runAction(ctx, client, args.CommandArgs)
	case "upload":
		return runUpload(ctx, client, args.CommandArgs)
	case "seed":
		return printResult(client.Seed(ctx))
	case "health":
		return printResult(client.Health(ctx))
	case "stats":
		return printResult(client.Stats(ctx))
	default:
		return fmt.Errorf("unknown command %q", args.Command)
	}
}

func runLogs(ctx context.Context, client *procsimclient.Client, argv []string) error {
	fs := flag.NewFlagSet("logs", flag.ExitOnError)
	stageKey := fs.String("stage", "", "Only show events for this stage")
	itemKey := fs.String("item", "", "Only show events for this item")
	fs.Parse(argv)

	events, err := client.Logs(ctx, *stageKey, *itemKey)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Printf("%s  %-10s %-12s %-14s %s\n",
			e.CreatedAt.Local().Format(time.DateTime), e.Type, e.StageKey, e.ItemKey, e.Message)
	}
	return nil
}

func runAssign(ctx context.Context, client *procsimclient.Client, argv []string) error {
	fs := flag.NewFlagSet("assign", flag.ExitOnError)
	stageKey := fs.String("stage", "", "Stage key (required)")
	itemKey := fs.String("item", "", "Item key (required)")
	assignee := fs.String("assignee", "", "Assignee (required)")
	actor := fs.String("actor", "", "Actor recorded for the event")
	fs.Parse(argv)

	if *stageKey == "" || *itemKey == "" || *assignee == "" {
		return fmt.Errorf("assign requires -stage, -item and -assignee")
	}
	if err := client.Assign(ctx, handlers.AssignRequest{
		StageKey: *stageKey,
		ItemKey:  *itemKey,
		Assignee: *assignee,
		Actor:    visited(fs, "actor", actor),
	}); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func runAction(ctx context.Context, client *procsimclient.Client, argv []string) error {
	fs := flag.NewFlagSet("action", flag.ExitOnError)
	stageKey := fs.String("stage", "", "Stage key (required)")
	itemKey := fs.String("item", "", "Item key (required)")
	action := fs.String("action", "", "One of download, review, decision or note (required)")
	note := fs.String("note", "", "Optional note")
	actor := fs.String("actor", "", "Actor recorded for the event")
	fs.Parse(argv)

	if *stageKey == "" || *itemKey == "" || *action == "" {
		return fmt.Errorf("action requires -stage, -item and -action")
	}
	req := handlers.ActionRequest{
		StageKey: *stageKey,
		ItemKey:  *itemKey,
		Action:   *action,
		Actor:    visited(fs, "actor", actor),
	}
	if *note != "" {
		req.Note = note
	}
	if err := client.Action(ctx, req); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func runUpload(ctx context.Context, client *procsimclient.Client, argv []string) error {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	stageKey := fs.String("stage", "", "Stage key (required)")
	itemKey := fs.String("item", "", "Item key (required)")
	actor := fs.String("actor", "", "Actor recorded for the event")
	fs.Parse(argv)

	if *stageKey == "" || *itemKey == "" || fs.NArg() != 1 {
		return fmt.Errorf("usage: upload -stage <stage> -item <item> [-actor <actor>] <file>")
	}
	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return printResult(client.Upload(ctx, *stageKey, *itemKey, visited(fs, "actor", actor), filepath.Base(path), f))
}

// visited returns v if the named flag was set on the command line, nil otherwise.
func visited(fs *flag.FlagSet, name string, v *string) *string {
	var out *string
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			out = v
		}
	})
	return out
}

func printResult(v any, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseArgs() Args {
	server := flag.String("server", envOr("PROCSIM_SERVER", defaultServer), "Base URL of the procsim server")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	showVersion := flag.Bool("version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <command> [command options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nCommands:\n")
		fmt.Fprintf(os.Stderr, "  process   Show the default process definition\n")
		fmt.Fprintf(os.Stderr, "  logs      List activity, newest first\n")
		fmt.Fprintf(os.Stderr, "  assign    Record an assignment\n")
		fmt.Fprintf(os.Stderr, "  action    Record a download, review, decision or note\n")
		fmt.Fprintf(os.Stderr, "  upload    Upload a file against an item\n")
		fmt.Fprintf(os.Stderr, "  seed      Seed the default process and sample activity\n")
		fmt.Fprintf(os.Stderr, "  health    Show store diagnostics\n")
		fmt.Fprintf(os.Stderr, "  stats     Show per-stage event counts\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s seed\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s logs -stage review\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s action -stage review -item doc_review -action note -note \"please clarify scope\"\n", os.Args[0])
	}

	flag.Parse()

	args := Args{
		Server:      *server,
		Timeout:     *timeout,
		ShowVersion: *showVersion,
	}
	if flag.NArg() > 0 {
		args.Command = flag.Arg(0)
		args.CommandArgs = flag.Args()[1:]
	}
	return args
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
