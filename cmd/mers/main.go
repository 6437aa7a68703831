// Command mers runs the federation ranking engine: aging, player and
// country ranking, quota allocation and the read-only HTTP API.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/emahq/mers/internal/adapters/http/api"
	repository "github.com/emahq/mers/internal/adapters/repository"
	app "github.com/emahq/mers/internal/app"
	"github.com/emahq/mers/internal/config"
	"github.com/emahq/mers/internal/domain/model"
	"github.com/emahq/mers/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// AgeCommand runs only the aging pass.
type AgeCommand struct {
	Reckoning string `long:"reckoning" short:"r" description:"Reckoning date (YYYY-MM-DD); defaults to the configured or current date"`
}

// RankCommand runs the full player ranking pass.
type RankCommand struct {
	Reckoning string `long:"reckoning" short:"r" description:"Reckoning date (YYYY-MM-DD); defaults to the configured or current date"`
	Assess    bool   `long:"assess" description:"Cross-check computed ranks against the stored official values"`
}

// CountriesCommand recomputes country standings for one ruleset.
type CountriesCommand struct {
	Ruleset   string `long:"ruleset" short:"s" description:"Ruleset to rank (mcr or riichi)" required:"true"`
	Reckoning string `long:"reckoning" short:"r" description:"Re-run the player ranking at this date first (YYYY-MM-DD)"`
	Assess    bool   `long:"assess" description:"Cross-check computed standings against the official table"`
}

// QuotaCommand previews a seat allocation for one ruleset.
type QuotaCommand struct {
	Ruleset string `long:"ruleset" short:"s" description:"Ruleset to allocate for (mcr or riichi)" required:"true"`
	Seats   int    `long:"seats" short:"n" description:"Seat pool; defaults to the configured total" default:"-1"`
}

// ServeCommand starts the HTTP API.
type ServeCommand struct {
	Addr string `long:"addr" description:"Listen address; defaults to the configured one"`
}

// env bundles the pieces every command needs.
type env struct {
	cfg *config.Config
	svc *app.Service
	log logger.Logger
}

func setup(ctx context.Context) (*env, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log := logger.Get()

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	overrides, err := cfg.Overrides()
	if err != nil {
		return nil, fmt.Errorf("parsing aging overrides: %w", err)
	}

	store, err := repository.OpenSQLite(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening store %q: %w", cfg.DBPath, err)
	}

	svc := app.New(
		app.WithStore(store),
		app.WithLogger(log),
		app.WithOverrides(overrides),
		app.WithWorkers(cfg.Workers),
	)
	return &env{cfg: cfg, svc: svc, log: log}, nil
}

// reckoning resolves the date for a pass: the flag wins, then the
// config, then today.
func (e *env) reckoning(flag string) (time.Time, error) {
	if flag == "" {
		return e.cfg.Reckoning()
	}
	t, err := time.Parse("2006-01-02", flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad reckoning date %q: %w", flag, err)
	}
	return t, nil
}

// Execute runs the aging pass.
func (c *AgeCommand) Execute(_ []string) error {
	ctx := context.Background()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.svc.Close()

	reckoning, err := e.reckoning(c.Reckoning)
	if err != nil {
		return err
	}
	return e.svc.AgeTournaments(ctx, reckoning)
}

// Execute runs the player ranking pass.
func (c *RankCommand) Execute(_ []string) error {
	ctx := context.Background()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.svc.Close()

	reckoning, err := e.reckoning(c.Reckoning)
	if err != nil {
		return err
	}
	return e.svc.RankAllPlayers(ctx, reckoning, c.Assess || e.cfg.Assess)
}

// Execute recomputes country standings.
func (c *CountriesCommand) Execute(_ []string) error {
	ctx := context.Background()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.svc.Close()

	rs, err := model.ParseRuleset(c.Ruleset)
	if err != nil {
		return err
	}
	var reckoning *time.Time
	if c.Reckoning != "" {
		t, err := e.reckoning(c.Reckoning)
		if err != nil {
			return err
		}
		reckoning = &t
	}
	_, err = e.svc.RankCountries(ctx, rs, reckoning, c.Assess || e.cfg.Assess)
	return err
}

// Execute previews a quota allocation.
func (c *QuotaCommand) Execute(_ []string) error {
	ctx := context.Background()
	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.svc.Close()

	rs, err := model.ParseRuleset(c.Ruleset)
	if err != nil {
		return err
	}
	seats := c.Seats
	if seats < 0 {
		seats = e.cfg.TotalSeats
	}
	_, err = e.svc.AllocateQuota(ctx, seats, rs)
	return err
}

// Execute serves the HTTP API until interrupted.
func (c *ServeCommand) Execute(_ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.svc.Close()

	addr := c.Addr
	if addr == "" {
		addr = e.cfg.Addr
	}

	mux := http.NewServeMux()
	api.NewServer(e.svc, e.cfg.MaxPageSize, e.cfg.TotalSeats).Register(ctx, mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		e.log.Info(ctx, "starting HTTP server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	e.log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		e.log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	e.log.Info(ctx, "server stopped")
	return nil
}

func main() {
	parser := flags.NewParser(nil, flags.Default)
	parser.Usage = "COMMAND [COMMAND-OPTIONS]"

	must := func(err error) {
		if err != nil {
			os.Stderr.WriteString(err.Error() + "\n")
			os.Exit(1)
		}
	}
	_, err := parser.AddCommand("age", "Run the tournament aging pass", "", &AgeCommand{})
	must(err)
	_, err = parser.AddCommand("rank", "Run the player ranking pass", "", &RankCommand{})
	must(err)
	_, err = parser.AddCommand("countries", "Recompute country standings", "", &CountriesCommand{})
	must(err)
	_, err = parser.AddCommand("quota", "Preview a seat allocation", "", &QuotaCommand{})
	must(err)
	_, err = parser.AddCommand("serve", "Serve the read-only HTTP API", "", &ServeCommand{})
	must(err)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(1)
	}
}
