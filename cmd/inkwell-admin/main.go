// ABOUTME: Admin CLI for the inkwell journal store
// ABOUTME: init, seed, stats, export and reset against a local database

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/inkwell-app/inkwell/internal/config"
	"github.com/inkwell-app/inkwell/internal/repo"
	"github.com/inkwell-app/inkwell/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := loadConfig()
	setupLogger(cfg.Logging)

	backend, err := store.NewSQLiteBackend(cfg.Database.Path)
	if err != nil {
		fatal("opening store: %v", err)
	}
	engine := store.NewEngine(backend)
	defer engine.Close()

	ctx := context.Background()
	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "init":
		err = cmdInit(ctx, engine, args)
	case "seed":
		err = cmdSeed(ctx, engine, args)
	case "stats":
		err = cmdStats(ctx, engine)
	case "export":
		err = cmdExport(ctx, engine)
	case "reset":
		err = cmdReset(ctx, engine, args)
	default:
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fatal("%v", err)
	}
}

func loadConfig() *config.Config {
	path := os.Getenv("INKWELL_CONFIG")
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fatal("loading config: %v", err)
	}
	return cfg
}

func setupLogger(cfg config.LoggingConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func cmdInit(ctx context.Context, engine *store.Engine, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: inkwell-admin init <name>")
	}
	identities := repo.NewIdentityRepository(engine)

	exists, err := identities.HasIdentity(ctx)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("an identity already exists; this is a single-identity store")
	}

	identity, err := identities.CreateInitial(ctx, args[0], nil, nil)
	if err != nil {
		return err
	}
	green := color.New(color.FgGreen)
	green.Printf("created identity %s (%s)\n", identity.Name, identity.ID)
	return nil
}

func cmdStats(ctx context.Context, engine *store.Engine) error {
	identities := repo.NewIdentityRepository(engine)
	personas := repo.NewPersonaRepository(engine)
	posts := repo.NewPostRepository(engine)

	identity, err := identities.FetchCurrent(ctx)
	if err != nil {
		return err
	}
	if identity == nil {
		return fmt.Errorf("no identity; run init first")
	}

	cyan := color.New(color.FgCyan)
	cyan.Printf("journal of %s\n\n", identity.Name)

	total, err := posts.CountAll(ctx)
	if err != nil {
		return err
	}
	avg, ok, err := posts.AverageMood(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "posts\t%d\n", total)
	if ok {
		fmt.Fprintf(w, "average mood\t%.1f\n", avg)
	}

	dist, err := posts.MoodDistribution(ctx)
	if err != nil {
		return err
	}
	for mood := 1; mood <= 10; mood++ {
		if n := dist[mood]; n > 0 {
			fmt.Fprintf(w, "mood %d\t%d\n", mood, n)
		}
	}

	counts, err := personas.FetchPostCounts(ctx, identity.ID)
	if err != nil {
		return err
	}
	all, err := personas.FetchForIdentity(ctx, identity.ID)
	if err != nil {
		return err
	}
	for _, p := range all {
		fmt.Fprintf(w, "persona %s\t%d\n", p.Name, counts[p.ID])
	}

	top, err := posts.TopTags(ctx, 5)
	if err != nil {
		return err
	}
	for _, t := range top {
		fmt.Fprintf(w, "tag #%s\t%d\n", t.Tag, t.Count)
	}
	return w.Flush()
}

func cmdExport(ctx context.Context, engine *store.Engine) error {
	identities := repo.NewIdentityRepository(engine)

	identity, err := identities.FetchCurrent(ctx)
	if err != nil {
		return err
	}
	if identity == nil {
		return fmt.Errorf("no identity; run init first")
	}
	data, err := identities.ExportIdentityData(ctx, identity.ID)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func cmdReset(ctx context.Context, engine *store.Engine, args []string) error {
	if len(args) < 1 || args[0] != "--confirm" {
		return fmt.Errorf("reset destroys all data; pass --confirm to proceed")
	}
	if err := engine.Reset(ctx); err != nil {
		return err
	}
	yellow := color.New(color.FgYellow)
	yellow.Println("store reset")
	return nil
}

func fatal(format string, args ...any) {
	red := color.New(color.FgRed)
	red.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println(`inkwell-admin - manage a local inkwell journal store

usage:
  inkwell-admin init <name>          create the account identity
  inkwell-admin seed <fixtures.yaml> populate sample data
  inkwell-admin stats                show journal statistics
  inkwell-admin export               export identity data as JSON
  inkwell-admin reset --confirm      destroy and recreate the store

environment:
  INKWELL_CONFIG  path to a TOML config file (optional)`)
}
