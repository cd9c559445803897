package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/yndnr/simsync-go/internal/core/service"
	"github.com/yndnr/simsync-go/internal/core/snapbuf"
	"github.com/yndnr/simsync-go/internal/core/supervisor"
	"github.com/yndnr/simsync-go/internal/infra/buildinfo"
	"github.com/yndnr/simsync-go/internal/infra/confloader"
	"github.com/yndnr/simsync-go/internal/infra/shutdown"
	"github.com/yndnr/simsync-go/internal/infra/tlsroots"
	"github.com/yndnr/simsync-go/internal/server/config"
	"github.com/yndnr/simsync-go/internal/server/httpserver"
	"github.com/yndnr/simsync-go/internal/server/httpserver/handler"
	"github.com/yndnr/simsync-go/internal/server/wsserver"
	"github.com/yndnr/simsync-go/internal/sim"
	"github.com/yndnr/simsync-go/internal/telemetry/logger"
	"github.com/yndnr/simsync-go/internal/telemetry/metric"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("simsync-server " + buildinfo.String())
		return nil
	}

	// Load configuration
	loader := newLoader(*configFile)
	cfg, err := loadConfig(loader)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	slogLogger := logger.Slog(log)

	log.Info("starting simsync-server",
		append([]any{"version", buildinfo.Version, "config", *configFile}, config.Summary(cfg)...)...)

	scene, err := loadScene(cfg.Sim.SceneFile)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}

	metrics := metric.NewRegistry()

	// Exchange buffer and command path
	buf := snapbuf.New(scene.Initial(),
		snapbuf.WithLogger(slogLogger),
		snapbuf.WithObserver(metrics),
	)
	inbox := sim.NewInbox(cfg.Sim.InboxSize)
	gate := service.NewCommandGate(buf, inbox)

	hub := wsserver.New(&wsserver.Config{
		WriteTimeout:    cfg.Broadcast.WriteTimeout,
		PingInterval:    cfg.Broadcast.PingInterval,
		CommandRate:     cfg.Broadcast.CommandRate,
		MaxMessageBytes: cfg.Broadcast.MaxMessageBytes,
		AllowedOrigins:  cfg.Server.HTTP.CORSAllowedOrigins,
	}, buf, gate,
		wsserver.WithLogger(slogLogger),
		wsserver.WithObserver(metrics),
	)

	pipeline, err := service.NewPipeline(buf, scene, inbox, hub,
		config.ToPipelineConfig(cfg, slogLogger, metrics))
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	sup := supervisor.New(config.ToSupervisorConfig(cfg),
		supervisor.WithLogger(slogLogger),
		supervisor.WithObserver(metrics),
	)
	if err := metrics.Register(metric.NewCollector(sup)); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	// HTTP surface; bind before starting workers so a bad address fails fast.
	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: handler.Config{
			Buffer:     buf,
			Commands:   gate,
			Supervisor: sup,
			Inbox:      inbox,
			Hub:        hub,
		},
		Hub:                hub,
		Metrics:            metrics.Handler(),
		RequestObserver:    metrics,
		Logger:             slogLogger,
		ResourceDir:        cfg.Server.HTTP.ResourceDir,
		CORSAllowedOrigins: cfg.Server.HTTP.CORSAllowedOrigins,
		RateLimit:          cfg.Server.HTTP.RateLimit,
		ControlAllowList:   cfg.Server.HTTP.ControlAllowList,
	})
	httpServer := httpserver.New(cfg.Server.HTTP.Addr, router)
	if cfg.Server.HTTP.TLSEnabled() {
		reloader, err := tlsroots.NewReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
			tlsroots.WithLogger(slogLogger))
		if err != nil {
			return fmt.Errorf("load tls certificate: %w", err)
		}
		httpServer.SetTLSConfig(reloader.ServerConfig())

		// Certificate rotation is picked up live; the file paths need a restart.
		tlsCtx, stopTLS := context.WithCancel(context.Background())
		defer stopTLS()
		if err := reloader.Start(tlsCtx); err != nil {
			log.Warn("certificate watcher disabled", "error", err)
		}
	}
	if err := httpServer.Listen(); err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Server.HTTP.Addr, err)
	}

	if err := sup.Start(pipeline.Slots()...); err != nil {
		return fmt.Errorf("start supervisor: %w", err)
	}

	shutdownHandler := shutdown.NewHandler(cfg.Supervisor.ShutdownTimeout)
	shutdownHandler.SetLogger(slogLogger)

	watcher := watchConfig(loader, cfg, slogLogger)
	registerShutdown(shutdownHandler, shutdownSteps(httpServer, sup, hub, watcher)...)

	var g errgroup.Group
	g.Go(func() error {
		log.Info("HTTP server listening",
			"addr", httpServer.Addr(),
			"tls", cfg.Server.HTTP.TLSEnabled())
		err := httpServer.Serve("", "")
		if err != nil {
			log.Error("HTTP server error", "error", err)
			shutdownHandler.Trigger("http server failed")
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("server started, press Ctrl+C to stop")
		if err := shutdownHandler.Wait(); err != nil {
			log.Error("shutdown error", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

func newLoader(configFile string) *confloader.Loader {
	var opts []confloader.Option
	if configFile != "" {
		opts = append(opts, confloader.WithConfigFile(configFile))
	}
	return confloader.NewLoader(opts...)
}

// loadConfig loads configuration from file and environment over the defaults.
func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initLogger initializes the structured logger and makes it the default.
func initLogger(cfg *config.ServerConfig) (logger.Logger, error) {
	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return nil, err
	}
	logger.SetDefault(log)
	return log, nil
}

func loadScene(path string) (*sim.Scene, error) {
	if path == "" {
		return sim.DefaultScene(), nil
	}
	return sim.LoadScene(path)
}

// watchConfig reloads the config file on change. Only log.level is applied
// live; other changed keys are logged as needing a restart.
// shutdownStep is one component stopped during graceful shutdown.
type shutdownStep struct {
	name string
	fn   func(context.Context) error
}

// shutdownSteps lists the components in the order they stop. The supervisor
// stops before the hub so the broadcaster never publishes to a closed hub.
func shutdownSteps(srv *httpserver.Server, sup *supervisor.Supervisor, hub *wsserver.Hub, watcher *confloader.Watcher) []shutdownStep {
	steps := []shutdownStep{
		{name: "http-server", fn: srv.Shutdown},
		{name: "supervisor", fn: sup.Shutdown},
		{name: "websocket-hub", fn: hub.Shutdown},
	}
	if watcher != nil {
		steps = append(steps, shutdownStep{name: "config-watcher", fn: func(context.Context) error {
			return watcher.Stop()
		}})
	}
	return steps
}

// registerShutdown registers steps so that they run in the given order;
// the handler runs hooks in reverse registration order.
func registerShutdown(h *shutdown.Handler, steps ...shutdownStep) {
	for i := len(steps) - 1; i >= 0; i-- {
		h.OnShutdown(steps[i].name, steps[i].fn)
	}
}

func watchConfig(loader *confloader.Loader, current *config.ServerConfig, log *slog.Logger) *confloader.Watcher {
	path := loader.FilePath()
	if path == "" {
		return nil
	}

	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		log.Warn("config watcher disabled", "error", err)
		return nil
	}
	if err := watcher.Watch(path); err != nil {
		log.Warn("config watcher disabled", "path", path, "error", err)
		_ = watcher.Stop()
		return nil
	}

	watcher.OnChange(func(string) {
		updated := config.Default()
		if err := loader.Reload(updated); err != nil {
			log.Error("config reload failed", "path", path, "error", err)
			return
		}
		if err := config.Verify(updated); err != nil {
			log.Error("reloaded config is invalid, keeping current", "path", path, "error", err)
			return
		}

		if updated.Log.Level != current.Log.Level {
			logger.SetLevel(updated.Log.Level)
			log.Info("log level changed", "from", current.Log.Level, "to", updated.Log.Level)
			current.Log.Level = updated.Log.Level
		}
		if keys := config.RestartRequired(current, updated); len(keys) > 0 {
			log.Warn("config changes require a restart", "keys", keys)
		}
	})
	watcher.StartAsync()
	return watcher
}
