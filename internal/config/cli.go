package config

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// watchParser accepts standard 5-field cron expressions and descriptors like @every 1m.
var watchParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// CLIConfig holds settings for the recur command.
type CLIConfig struct {
	// SchedulesDir holds one YAML file per schedule definition.
	SchedulesDir string `env:"RECUR_SCHEDULES_DIR" default:"./schedules"`
	// Timezone is used for times given without an offset. "Local" is the system zone.
	Timezone string `env:"RECUR_TIMEZONE" default:"Local"`
	// WatchSchedule is the cron cadence of the watch subcommand.
	WatchSchedule string `env:"RECUR_WATCH_SCHEDULE" default:"@every 1m"`
}

// Validate checks the directory, zone name and cron expression.
func (c CLIConfig) Validate() error {
	if c.SchedulesDir == "" {
		return fmt.Errorf("RECUR_SCHEDULES_DIR is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid RECUR_TIMEZONE %q: %w", c.Timezone, err)
	}
	if _, err := watchParser.Parse(c.WatchSchedule); err != nil {
		return fmt.Errorf("invalid RECUR_WATCH_SCHEDULE %q: %w", c.WatchSchedule, err)
	}
	return nil
}

// Location resolves Timezone. Call after Validate.
func (c CLIConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// WatchCron parses WatchSchedule with the parser used by Validate.
func (c CLIConfig) WatchCron() (cron.Schedule, error) {
	return watchParser.Parse(c.WatchSchedule)
}

// Parser returns the cron parser the watch subcommand registers jobs with.
func (c CLIConfig) Parser() cron.Parser {
	return watchParser
}
