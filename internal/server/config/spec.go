package config

import "time"

// ServerConfig is the root configuration for simsync-server.
type ServerConfig struct {
	Server     ServerSection     `koanf:"server"`
	Sim        SimSection        `koanf:"sim"`
	Broadcast  BroadcastSection  `koanf:"broadcast"`
	Supervisor SupervisorSection `koanf:"supervisor"`
	Log        LogSection        `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// ResourceDir serves static model files under /resources/. Empty disables it.
	ResourceDir string `koanf:"resource_dir"`

	// RateLimit is the allowed requests per second per client IP. Zero disables it.
	RateLimit float64 `koanf:"rate_limit"`

	// CORSAllowedOrigins lists allowed origins; "*" allows any.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// ControlAllowList restricts /commands, /status and /metrics to these
	// IPs or CIDRs. Empty allows any client.
	ControlAllowList []string `koanf:"control_allow_list"`
}

// TLSEnabled reports whether both TLS files are configured.
func (c HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// SimSection configures the producer.
type SimSection struct {
	// SceneFile is a YAML scene. Empty uses the built-in demo scene.
	SceneFile string        `koanf:"scene_file"`
	TickRate  int           `koanf:"tick_rate"`
	MaxStep   time.Duration `koanf:"max_step"`
	InboxSize int           `koanf:"inbox_size"`

	// MaxConsecutiveFailures escalates repeated step failures to a worker
	// exit so the supervisor restarts it. Zero disables it.
	MaxConsecutiveFailures int `koanf:"max_consecutive_failures"`
}

// BroadcastSection configures the broadcaster and WebSocket clients.
type BroadcastSection struct {
	Interval        time.Duration `koanf:"interval"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	PingInterval    time.Duration `koanf:"ping_interval"`
	CommandRate     float64       `koanf:"command_rate"`
	MaxMessageBytes int64         `koanf:"max_message_bytes"`
}

// SupervisorSection configures worker supervision.
type SupervisorSection struct {
	PollInterval    time.Duration `koanf:"poll_interval"`
	JoinTimeout     time.Duration `koanf:"join_timeout"`
	RestartBackoff  time.Duration `koanf:"restart_backoff"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
