package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"
)

// timeLayouts are accepted for -from, -to and -at. Values without an offset
// are read in RECUR_TIMEZONE.
var timeLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"}

func (a *app) parseTime(s string) (time.Time, error) {
	if s == "" || s == "now" {
		return a.now().In(a.loc), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, a.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339, 2006-01-02T15:04 or 2006-01-02", s)
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func requireID(id string) error {
	if id == "" {
		return errors.New("-id is required")
	}
	return nil
}

func (a *app) next(ctx context.Context, args []string) error {
	fs := newFlagSet("next")
	id := fs.String("id", "", "schedule id (required)")
	entity := fs.String("entity", "", "entity whose override and completions apply")
	from := fs.String("from", "now", "reference time; the result is strictly after it")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID(*id); err != nil {
		return err
	}

	ref, err := a.parseTime(*from)
	if err != nil {
		return err
	}

	next, err := a.svc.NextDue(ctx, *id, *entity, ref)
	if err != nil {
		return err
	}
	if at, ok := next.Get(); ok {
		fmt.Fprintln(a.out, formatTime(at))
	} else {
		fmt.Fprintln(a.out, "none")
	}
	return nil
}

func (a *app) list(ctx context.Context, args []string) error {
	fs := newFlagSet("list")
	id := fs.String("id", "", "schedule id (required)")
	entity := fs.String("entity", "", "entity whose override and completions apply")
	from := fs.String("from", "now", "window start (exclusive)")
	to := fs.String("to", "", "window end (inclusive); defaults to -days after -from")
	days := fs.Int("days", 30, "window length when -to is not given")
	limit := fs.Int("limit", 0, "maximum occurrences (0 uses RECUR_MAX_OCCURRENCES)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID(*id); err != nil {
		return err
	}

	start, err := a.parseTime(*from)
	if err != nil {
		return err
	}
	end := start.AddDate(0, 0, *days)
	if *to != "" {
		if end, err = a.parseTime(*to); err != nil {
			return err
		}
	}

	occurrences, err := a.svc.Upcoming(ctx, *id, *entity, start, end, *limit)
	if err != nil {
		return err
	}
	for _, occ := range occurrences {
		fmt.Fprintln(a.out, formatTime(occ))
	}
	return nil
}

func (a *app) rrule(ctx context.Context, args []string) error {
	fs := newFlagSet("rrule")
	id := fs.String("id", "", "schedule id (required)")
	entity := fs.String("entity", "", "entity whose override applies")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID(*id); err != nil {
		return err
	}

	rule, err := a.svc.RRule(ctx, *id, *entity)
	if err != nil {
		return err
	}
	if rule == "" {
		return fmt.Errorf("schedule %s has no RRULE form", *id)
	}
	fmt.Fprintln(a.out, rule)
	return nil
}

func (a *app) exportICS(ctx context.Context, args []string) (err error) {
	fs := newFlagSet("ics")
	output := fs.String("o", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	w := a.out
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", *output, err)
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		w = f
	}

	return a.svc.Export(ctx, w, a.now().UTC(), fs.Args()...)
}

func (a *app) importICS(ctx context.Context, args []string) error {
	fs := newFlagSet("import")
	tz := fs.String("tz", "", "zone for floating times (default RECUR_TIMEZONE)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("import takes exactly one .ics file")
	}

	loc := a.loc
	if *tz != "" {
		l, err := time.LoadLocation(*tz)
		if err != nil {
			return fmt.Errorf("invalid -tz %q: %w", *tz, err)
		}
		loc = l
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", fs.Arg(0), err)
	}
	defer f.Close()

	report, err := a.svc.Import(ctx, f, loc)
	if err != nil {
		return err
	}
	for _, def := range report.Created {
		fmt.Fprintf(a.out, "created %s\t%s\t%s\n", def.ID, def.Frequency, def.Name)
	}
	for _, sk := range report.Skipped {
		fmt.Fprintf(a.out, "skipped %s\t%v\n", sk.UID, sk.Err)
	}
	return nil
}

func (a *app) complete(ctx context.Context, args []string) error {
	fs := newFlagSet("complete")
	id := fs.String("id", "", "schedule id (required)")
	entity := fs.String("entity", "", "entity that completed it (required)")
	at := fs.String("at", "now", "completion time")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := requireID(*id); err != nil {
		return err
	}
	if *entity == "" {
		return errors.New("-entity is required")
	}

	when, err := a.parseTime(*at)
	if err != nil {
		return err
	}
	if _, err := a.svc.Complete(ctx, *id, *entity, when); err != nil {
		return err
	}

	next, err := a.svc.NextDue(ctx, *id, *entity, when)
	if err != nil {
		return err
	}
	if n, ok := next.Get(); ok {
		fmt.Fprintf(a.out, "completed; next %s\n", formatTime(n))
	} else {
		fmt.Fprintln(a.out, "completed")
	}
	return nil
}

func (a *app) due(ctx context.Context, args []string) error {
	fs := newFlagSet("due")
	at := fs.String("at", "now", "evaluation time")
	if err := fs.Parse(args); err != nil {
		return err
	}

	now, err := a.parseTime(*at)
	if err != nil {
		return err
	}
	due, err := a.svc.DueNow(ctx, now)
	if err != nil {
		return err
	}
	for _, d := range due {
		fmt.Fprintln(a.out, formatDue(d.ScheduleID, d.EntityID, d.Name, d.At))
	}
	return nil
}

func formatDue(id, entity, name string, at time.Time) string {
	who := entity
	if who == "" {
		who = "-"
	}
	return strings.Join([]string{formatTime(at), id, who, name}, "\t")
}
