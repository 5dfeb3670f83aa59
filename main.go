package main

import (
	"flag"
	"fmt"
	"os"

	"todoqueue/internal/cli"
	"todoqueue/internal/config"
	"todoqueue/internal/storage"
	"todoqueue/internal/ui"
)

func main() {
	flag.Parse()

	cfg, err := config.LoadOrCreate(config.ResolveConfigPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	// Subcommands are for scripting; no args launches the interactive list.
	if args := flag.Args(); len(args) > 0 {
		code := cli.Run(store, cfg, args)
		store.Close()
		os.Exit(code)
	}

	if err := ui.Run(store, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error running program: %v\n", err)
		os.Exit(1)
	}
}
