package config

import (
	"log/slog"
	"slices"

	"github.com/yndnr/simsync-go/internal/core/service"
	"github.com/yndnr/simsync-go/internal/core/supervisor"
	"github.com/yndnr/simsync-go/internal/core/worker"
)

// ToSupervisorConfig maps the supervisor section onto supervisor.Config.
func ToSupervisorConfig(cfg *ServerConfig) supervisor.Config {
	return supervisor.Config{
		PollInterval:   cfg.Supervisor.PollInterval,
		JoinTimeout:    cfg.Supervisor.JoinTimeout,
		RestartBackoff: cfg.Supervisor.RestartBackoff,
	}
}

// ToPipelineConfig maps the sim and broadcast sections onto a pipeline config.
func ToPipelineConfig(cfg *ServerConfig, logger *slog.Logger, obs worker.Observer) service.PipelineConfig {
	return service.PipelineConfig{
		TickRate:               cfg.Sim.TickRate,
		MaxStep:                cfg.Sim.MaxStep,
		BroadcastInterval:      cfg.Broadcast.Interval,
		MaxConsecutiveFailures: cfg.Sim.MaxConsecutiveFailures,
		Logger:                 logger,
		Observer:               obs,
	}
}

// Summary returns the effective configuration as slog key/value pairs
// for the startup log line.
func Summary(cfg *ServerConfig) []any {
	scene := cfg.Sim.SceneFile
	if scene == "" {
		scene = "builtin"
	}
	return []any{
		"http_addr", cfg.Server.HTTP.Addr,
		"tls", cfg.Server.HTTP.TLSEnabled(),
		"resource_dir", cfg.Server.HTTP.ResourceDir,
		"rate_limit", cfg.Server.HTTP.RateLimit,
		"scene", scene,
		"tick_rate", cfg.Sim.TickRate,
		"max_step", cfg.Sim.MaxStep.String(),
		"broadcast_interval", cfg.Broadcast.Interval.String(),
		"poll_interval", cfg.Supervisor.PollInterval.String(),
		"restart_backoff", cfg.Supervisor.RestartBackoff.String(),
		"log_level", cfg.Log.Level,
	}
}

// RestartRequired lists the keys whose change only takes effect after a
// restart. Only log.level is applied live.
func RestartRequired(old, updated *ServerConfig) []string {
	var keys []string
	add := func(changed bool, key string) {
		if changed {
			keys = append(keys, key)
		}
	}
	oh, nh := old.Server.HTTP, updated.Server.HTTP
	add(oh.Addr != nh.Addr, "server.http.addr")
	add(oh.TLSCertFile != nh.TLSCertFile || oh.TLSKeyFile != nh.TLSKeyFile, "server.http.tls")
	add(oh.ResourceDir != nh.ResourceDir, "server.http.resource_dir")
	add(oh.RateLimit != nh.RateLimit, "server.http.rate_limit")
	add(!slices.Equal(oh.CORSAllowedOrigins, nh.CORSAllowedOrigins), "server.http.cors_allowed_origins")
	add(!slices.Equal(oh.ControlAllowList, nh.ControlAllowList), "server.http.control_allow_list")
	add(old.Sim != updated.Sim, "sim")
	add(old.Broadcast != updated.Broadcast, "broadcast")
	add(old.Supervisor != updated.Supervisor, "supervisor")
	add(old.Log.Format != updated.Log.Format, "log.format")
	return keys
}
