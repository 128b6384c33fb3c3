//go:build !tinygo

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"todowrist/app"
	"todowrist/firmware/metrics"
	"todowrist/firmware/web"
	"todowrist/hal"
	"todowrist/internal/buildinfo"
	"todowrist/internal/config"
)

type CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"todowrist.toml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run     RunCmd     `cmd:"" default:"1" help:"Run the simulated device"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// AfterApply sets up the host-side logger.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

type RunCmd struct {
	Headless bool   `help:"Run without a window"`
	Ticks    uint64 `help:"Stop after N loop iterations in headless mode (0 = run forever)"`
}

type wakeButton interface {
	WakeButton() *hal.VirtualPin
}

func (r *RunCmd) Run(cli *CLI) error {
	cfg, err := config.LoadOrCreate(cli.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cli.Verbose {
		cfg.LogLevel = "debug"
	}
	for _, w := range cfg.Normalize() {
		slog.Warn("config", "problem", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hal.NewHost(hal.HostOptions{
		FlashPath:      cfg.Store.FlashPath,
		PageHeight:     int16(cfg.Display.PageHeight),
		StationAddress: cfg.Network.StationAddress,
		APAddress:      cfg.Network.APAddress,
	})

	var rec metrics.Recorder
	reg := prom.NewRegistry()
	if cfg.HTTP.Metrics {
		rec = metrics.NewPrometheusRecorder(reg)
	}

	newApp := func(ctx context.Context, h hal.HAL) func() error {
		sys := app.NewWithConfig(h, cfg, app.Options{Recorder: rec})

		opts := web.Options{Logger: slog.Default()}
		if cfg.HTTP.Metrics {
			opts.Metrics = metrics.HTTPHandler(reg)
		}
		if b, ok := h.(wakeButton); ok {
			opts.Button = b.WakeButton().Press
		}
		srv, err := web.NewServer(sys.Device(), opts)
		if err != nil {
			slog.Error("web server", "error", err)
		} else {
			go serve(ctx, cfg.HTTP.Listen, srv.Handler())
		}
		return sys.Stepper(ctx)
	}

	hz := int(time.Second / time.Duration(cfg.Loop.Delay))
	hcfg := hal.HeadlessConfig{Enabled: r.Headless, Hz: hz, Ticks: r.Ticks}
	if r.Headless {
		err = hal.RunHeadless(ctx, h, newApp, hcfg)
	} else {
		err = hal.RunWindow(ctx, h, newApp, hcfg)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func serve(ctx context.Context, addr string, handler http.Handler) {
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	slog.Info("setup page listening", "addr", "http://"+addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("web server stopped", "error", err)
	}
}

type VersionCmd struct{}

func (VersionCmd) Run() error {
	fmt.Printf("todowrist %s (commit %s, built %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
	return nil
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("todowrist"),
		kong.Description("Top-five task display simulator"),
	)
	kctx.FatalIfErrorf(kctx.Run(&cli))
}
