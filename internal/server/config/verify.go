package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/yndnr/simsync-go/internal/telemetry/logger"
)

// Verify validates the configuration. All problems are reported together.
func Verify(cfg *ServerConfig) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	return errors.Join(
		verifyHTTP(&cfg.Server.HTTP),
		verifySim(&cfg.Sim),
		verifyBroadcast(&cfg.Broadcast),
		verifySupervisor(&cfg.Supervisor),
		verifyLog(&cfg.Log),
	)
}

func verifyHTTP(cfg *HTTPConfig) error {
	var errs []error

	if cfg.Addr == "" {
		errs = append(errs, errors.New("server.http.addr is required"))
	} else if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		errs = append(errs, fmt.Errorf("server.http.addr %q: %w", cfg.Addr, err))
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		errs = append(errs, errors.New("server.http.tls_cert_file and server.http.tls_key_file must be set together"))
	}
	for key, path := range map[string]string{
		"server.http.tls_cert_file": cfg.TLSCertFile,
		"server.http.tls_key_file":  cfg.TLSKeyFile,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	if cfg.ResourceDir != "" {
		info, err := os.Stat(cfg.ResourceDir)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("server.http.resource_dir: %w", err))
		case !info.IsDir():
			errs = append(errs, fmt.Errorf("server.http.resource_dir %q is not a directory", cfg.ResourceDir))
		}
	}

	if cfg.RateLimit < 0 {
		errs = append(errs, errors.New("server.http.rate_limit must not be negative"))
	}
	for _, origin := range cfg.CORSAllowedOrigins {
		if strings.TrimSpace(origin) == "" {
			errs = append(errs, errors.New("server.http.cors_allowed_origins contains an empty entry"))
			break
		}
	}
	for _, entry := range cfg.ControlAllowList {
		if strings.Contains(entry, "/") {
			if _, _, err := net.ParseCIDR(entry); err != nil {
				errs = append(errs, fmt.Errorf("server.http.control_allow_list: %w", err))
			}
		} else if net.ParseIP(entry) == nil {
			errs = append(errs, fmt.Errorf("server.http.control_allow_list: invalid IP %q", entry))
		}
	}

	return errors.Join(errs...)
}

func verifySim(cfg *SimSection) error {
	var errs []error
	if cfg.TickRate <= 0 || cfg.TickRate > 1000 {
		errs = append(errs, fmt.Errorf("sim.tick_rate must be in [1, 1000], got %d", cfg.TickRate))
	}
	if cfg.MaxStep <= 0 {
		errs = append(errs, errors.New("sim.max_step must be positive"))
	}
	if cfg.InboxSize <= 0 {
		errs = append(errs, errors.New("sim.inbox_size must be positive"))
	}
	if cfg.MaxConsecutiveFailures < 0 {
		errs = append(errs, errors.New("sim.max_consecutive_failures must not be negative"))
	}
	if cfg.SceneFile != "" {
		if _, err := os.Stat(cfg.SceneFile); err != nil {
			errs = append(errs, fmt.Errorf("sim.scene_file: %w", err))
		}
	}
	return errors.Join(errs...)
}

func verifyBroadcast(cfg *BroadcastSection) error {
	var errs []error
	if cfg.Interval < 0 {
		errs = append(errs, errors.New("broadcast.interval must not be negative"))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, errors.New("broadcast.write_timeout must be positive"))
	}
	if cfg.PingInterval <= 0 {
		errs = append(errs, errors.New("broadcast.ping_interval must be positive"))
	}
	if cfg.CommandRate < 0 {
		errs = append(errs, errors.New("broadcast.command_rate must not be negative"))
	}
	if cfg.MaxMessageBytes <= 0 {
		errs = append(errs, errors.New("broadcast.max_message_bytes must be positive"))
	}
	return errors.Join(errs...)
}

func verifySupervisor(cfg *SupervisorSection) error {
	var errs []error
	if cfg.PollInterval <= 0 {
		errs = append(errs, errors.New("supervisor.poll_interval must be positive"))
	}
	if cfg.JoinTimeout <= 0 {
		errs = append(errs, errors.New("supervisor.join_timeout must be positive"))
	}
	if cfg.RestartBackoff < 0 {
		errs = append(errs, errors.New("supervisor.restart_backoff must not be negative"))
	}
	if cfg.ShutdownTimeout < cfg.JoinTimeout {
		errs = append(errs, errors.New("supervisor.shutdown_timeout must be at least supervisor.join_timeout"))
	}
	return errors.Join(errs...)
}

func verifyLog(cfg *LogSection) error {
	var errs []error
	if !logger.ValidLevel(cfg.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", cfg.Level))
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of json, text", cfg.Format))
	}
	return errors.Join(errs...)
}
