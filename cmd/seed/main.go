// Command seed fills a database with a synthetic federation dataset for
// development and load testing.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"

	repository "github.com/emahq/mers/internal/adapters/repository"
	"github.com/emahq/mers/internal/seed"
	"github.com/emahq/mers/pkg/logger"
)

type options struct {
	DBPath      string `long:"db" description:"SQLite database path" default:"mers.db"`
	Countries   int    `long:"countries" description:"Number of member countries" default:"12"`
	Players     int    `long:"players" description:"Players per country" default:"40"`
	Tournaments int    `long:"tournaments" description:"Tournaments per ruleset" default:"30"`
	SpanYears   int    `long:"span" description:"Years of tournament history" default:"4"`
	Seed        int64  `long:"seed" description:"Random seed; 0 derives one from the clock"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
	if err := run(opts); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

func run(opts options) error {
	ctx := context.Background()
	if err := logger.Init(); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}
	log := logger.Get()

	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	store, err := repository.OpenSQLite(ctx, opts.DBPath)
	if err != nil {
		return fmt.Errorf("opening store %q: %w", opts.DBPath, err)
	}
	defer store.Close()

	return seed.Run(ctx, log, store, seed.Config{
		Countries:   opts.Countries,
		Players:     opts.Players,
		Tournaments: opts.Tournaments,
		SpanYears:   opts.SpanYears,
		Seed:        opts.Seed,
	})
}
