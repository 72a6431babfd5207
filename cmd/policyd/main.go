package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dkeye/audiopolicy/internal/adapters"
	"github.com/dkeye/audiopolicy/internal/adapters/feed"
	router "github.com/dkeye/audiopolicy/internal/adapters/http"
	"github.com/dkeye/audiopolicy/internal/adapters/pulse"
	"github.com/dkeye/audiopolicy/internal/adapters/sim"
	"github.com/dkeye/audiopolicy/internal/app"
	"github.com/dkeye/audiopolicy/internal/app/dispatch"
	"github.com/dkeye/audiopolicy/internal/app/orch"
	"github.com/dkeye/audiopolicy/internal/config"
	"github.com/dkeye/audiopolicy/internal/core"
	"github.com/dkeye/audiopolicy/internal/domain"
)

var version = "dev"

func main() {
	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "policyd",
		Short:         "Role based audio policy daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Connect to the audio server and enforce the role policy",
		RunE:  runDaemon,
	}
	f := run.Flags()
	f.String("backend", config.BackendPulse, "audio server backend: pulse or sim")
	f.Int("port", 8080, "admin HTTP port, 0 disables it")
	f.String("pulse-server", "", "PulseAudio server address, empty for the default")
	f.String("log-level", "info", "log level")
	f.String("config-env", "", "config file suffix, overrides CONFIG_ENV")

	root.AddCommand(run, &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})
	return root
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	if env, _ := cmd.Flags().GetString("config-env"); env != "" {
		_ = os.Setenv("CONFIG_ENV", env)
	}
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
		return err
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	hub := feed.NewHub(cfg.FeedBuffer)

	var (
		audio    core.AudioServer
		simSrv   *sim.Server
		pulseSrv *pulse.Server
	)
	switch cfg.Backend {
	case config.BackendSim:
		simSrv = sim.New()
		audio = simSrv
	default:
		pulseSrv, err = pulse.Dial(cfg.PulseServer, "policyd")
		if err != nil {
			log.Error().Err(err).Msg("failed to connect to audio server")
			return err
		}
		defer pulseSrv.Close()
		audio = pulseSrv
	}

	// Validated by config.Load.
	curve, _ := domain.ParseRampCurve(cfg.RampCurve)
	o := orch.New(audio, app.NewMetrics(reg), orch.Options{
		HardwareMatch: cfg.HardwareMatch,
		MixChannels:   cfg.MixChannels,
		MixPrefix:     cfg.MixPrefix,
		Ramps: app.Ramps{
			DuckTarget:      domain.VolumePercent(cfg.DuckPercent),
			DuckDuration:    cfg.DuckRamp,
			RestoreDuration: cfg.RestoreRamp,
			Curve:           curve,
		},
		Decisions: hub,
	})
	events := adapters.NewEvents(o, cfg.RoleKey)

	// The loop outlives ctx so routing can be released on the way out.
	loopCtx, stopLoop := context.WithCancel(context.Background())
	defer stopLoop()
	loop := dispatch.New(256)
	go loop.Run(loopCtx)

	if pulseSrv != nil {
		err := pulseSrv.Subscribe(ctx, cfg.AdoptExisting, func(n core.Notification) {
			if err := loop.Post(func() { events.Handle(n) }); err != nil {
				log.Warn().Err(err).Msg("notification dropped")
			}
		})
		if err != nil {
			log.Error().Err(err).Msg("failed to subscribe")
			return err
		}
	}

	var srv *http.Server
	if cfg.Port > 0 {
		r := router.SetupRouter(ctx, cfg, router.Deps{
			Loop:     loop,
			Orch:     o,
			Feed:     hub,
			Gatherer: reg,
			Events:   events,
			Sim:      simSrv,
			Limiter:  router.NewRateLimiter(50, time.Second),
		})
		addr := fmt.Sprintf(":%d", cfg.Port)
		srv = &http.Server{Addr: addr, Handler: r}
		go func() {
			log.Info().Str("addr", addr).Str("backend", cfg.Backend).Msg("policyd started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("server error")
			}
		}()
	}

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if srv != nil {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}
	hub.Close()
	if err := loop.Do(shutdownCtx, o.Shutdown); err != nil {
		log.Error().Err(err).Msg("routing not released")
	}
	log.Info().Msg("policyd exited gracefully")
	return nil
}
