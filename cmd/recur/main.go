// Command recur answers recurrence questions about schedules stored as YAML files.
//
//	recur next -id plants -entity alice
//	recur list -id meds -entity bob -days 14
//	recur rrule -id rent
//	recur ics -o schedules.ics
//	recur import -tz Europe/Berlin calendar.ics
//	recur complete -id plants -entity alice
//	recur due
//	recur watch
//
// Settings come from RECUR_* environment variables or a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rezkam/recur/internal/application/schedule"
	"github.com/rezkam/recur/internal/config"
	"github.com/rezkam/recur/internal/recurring"
	"github.com/rezkam/recur/internal/storage/fs"
	"github.com/rezkam/recur/pkg/observability"
)

const usage = `usage: recur <command> [flags]

commands:
  next      print the next occurrence after a time
  list      print occurrences in a window
  rrule     print the RFC 5545 RRULE of a schedule
  ics       export schedules as an iCalendar file
  import    create schedules from an iCalendar file
  complete  record a completion
  due       print what is due now
  watch     report newly due schedules on a cron cadence
`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "recur: %v\n", err)
		os.Exit(1)
	}
}

// app carries what every subcommand needs.
type app struct {
	cfg *config.Config
	svc *schedule.Service
	loc *time.Location
	out io.Writer
	now func() time.Time
}

func run(ctx context.Context, args []string, stdout io.Writer) (err error) {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return flag.ErrHelp
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shutdown, err := observability.Setup(ctx, observability.Config{
		Enabled:     cfg.Observability.OTelEnabled,
		ServiceName: cfg.Observability.ServiceName,
		LogLevel:    slog.LevelWarn,
	})
	if err != nil {
		return err
	}
	defer func() {
		// Use a timeout to prevent hanging if collector is unreachable
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = errors.Join(err, shutdown(shutdownCtx))
	}()

	loc := cfg.CLI.Location()
	store, err := fs.NewStore(cfg.CLI.SchedulesDir, loc)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}

	engine := recurring.NewEngine(recurring.Config{
		MaxIterations:  cfg.Engine.MaxIterations,
		MaxOccurrences: cfg.Engine.MaxOccurrences,
	})

	a := &app{
		cfg: cfg,
		svc: schedule.NewService(store, engine, schedule.Config{UpcomingLimit: cfg.Engine.MaxOccurrences}),
		loc: loc,
		out: stdout,
		now: time.Now,
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "next":
		return a.next(ctx, rest)
	case "list":
		return a.list(ctx, rest)
	case "rrule":
		return a.rrule(ctx, rest)
	case "ics":
		return a.exportICS(ctx, rest)
	case "import":
		return a.importICS(ctx, rest)
	case "complete":
		return a.complete(ctx, rest)
	case "due":
		return a.due(ctx, rest)
	case "watch":
		return a.watch(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}
