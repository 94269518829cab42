package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/Strob0t/Principal/internal/adapter/postgres"
	"github.com/Strob0t/Principal/internal/config"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/port/recorder"
)

// runAdmin dispatches admin subcommands.
func runAdmin(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" {
		printAdminHelp()
		return nil
	}

	switch args[0] {
	case "migrate":
		return runMigrate(args[1:])
	case "rollback":
		return runRollback(args[1:])
	case "version":
		return runVersion(args[1:])
	case "responses":
		return runResponses(args[1:])
	case "stats":
		return runStats(args[1:])
	case "hash-key":
		return runHashKey(args[1:])
	default:
		printAdminHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printAdminHelp() {
	fmt.Fprintf(os.Stderr, `Usage: principal [command] [options]

Commands:
  serve            Run the server (default)
  migrate          Apply pending database migrations
  rollback         Roll back database migrations
  version          Print build and migration versions
  responses        List recently recorded responses
  stats            Per-domain approval statistics
  hash-key         Hash an admin key for admin.key_hash
  help             Show this help message

Examples:
  principal migrate
  principal rollback --steps 2
  principal responses --limit 20
  principal stats --since 24h
  principal hash-key
`)
}

func requireDSN() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cfg.Postgres.DSN == "" {
		return nil, errors.New("postgres.dsn is not configured")
	}
	return cfg, nil
}

func runMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := requireDSN()
	if err != nil {
		return err
	}
	if err := postgres.RunMigrations(context.Background(), cfg.Postgres.DSN); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Migrations applied.")
	return nil
}

func runRollback(args []string) error {
	fs := flag.NewFlagSet("rollback", flag.ContinueOnError)
	steps := fs.Int("steps", 1, "number of migrations to roll back")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *steps < 1 {
		return errors.New("--steps must be at least 1")
	}
	cfg, err := requireDSN()
	if err != nil {
		return err
	}
	if err := postgres.RollbackMigrations(context.Background(), cfg.Postgres.DSN, *steps); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Rolled back %d migration(s).\n", *steps)
	return nil
}

func runVersion(args []string) error {
	fs := flag.NewFlagSet("version", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	fmt.Println("principal", version)

	cfg, err := config.Load()
	if err != nil || cfg.Postgres.DSN == "" {
		return nil //nolint:nilerr // schema version is optional output
	}
	v, err := postgres.MigrationVersion(context.Background(), cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	fmt.Println("schema", v)
	return nil
}

func openStore(ctx context.Context) (*postgres.ResponseStore, func(), error) {
	cfg, err := requireDSN()
	if err != nil {
		return nil, nil, err
	}
	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return postgres.NewResponseStore(pool), pool.Close, nil
}

func runResponses(args []string) error {
	fs := flag.NewFlagSet("responses", flag.ContinueOnError)
	limit := fs.Int("limit", recorder.DefaultLimit, "maximum number of responses")
	asJSON := fs.Bool("json", false, "print JSON even on a terminal")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	list, err := store.Recent(ctx, recorder.ClampLimit(*limit))
	if err != nil {
		return err
	}
	if *asJSON || !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int
		return printJSON(os.Stdout, list)
	}
	sums := make([]response.Summary, 0, len(list))
	for _, r := range list {
		sums = append(sums, r.Summarize())
	}
	return printSummaries(os.Stdout, sums)
}

func printSummaries(out io.Writer, list []response.Summary) error {
	if len(list) == 0 {
		_, err := fmt.Fprintln(out, "No responses recorded.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "REQUEST\tTYPE\tSTATUS\tSCORE\tDISPATCHED\tFAILED\tDURATION\tCREATED")
	for i := range list {
		s := &list[i]
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\t%d\t%s\t%s\n",
			s.RequestID, s.RequestType, s.PublicationStatus, s.FinalScore,
			s.Dispatched, s.Failed, s.ProcessingTime.Round(time.Millisecond), s.CreatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func runStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	since := fs.Duration("since", 24*time.Hour, "look-back window")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	store, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	stats, err := store.DomainStats(ctx, time.Now().Add(-*since))
	if err != nil {
		return err
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int
		return printJSON(os.Stdout, stats)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "DOMAIN\tDISPATCHED\tAPPROVED\tFAILED\tAVG_SCORE")
	for _, st := range stats {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.2f\n", st.Domain, st.Dispatched, st.Approved, st.Failed, st.AverageScore)
	}
	return w.Flush()
}

func runHashKey(args []string) error {
	fs := flag.NewFlagSet("hash-key", flag.ContinueOnError)
	cost := fs.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	if err := fs.Parse(args); err != nil {
		return err
	}

	key, err := promptSecret("Admin key: ")
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	confirm, err := promptSecret("Confirm key: ")
	if err != nil {
		return fmt.Errorf("read key: %w", err)
	}
	if key != confirm {
		return errors.New("keys do not match")
	}

	hash, err := hashKey(key, *cost)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

// hashKey returns the bcrypt hash of key for admin.key_hash.
func hashKey(key string, cost int) (string, error) {
	if len(key) < 12 {
		return "", errors.New("admin key must be at least 12 characters")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(b), nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// promptSecret reads a secret from the terminal without echoing.
func promptSecret(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(syscall.Stdin)) //nolint:unconvert // int conversion needed on some platforms
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
