package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr = "0.0.0.0:8000"

	DefaultTickRate  = 60
	DefaultMaxStep   = 100 * time.Millisecond
	DefaultInboxSize = 256

	DefaultBroadcastInterval = 16 * time.Millisecond
	DefaultWriteTimeout      = 5 * time.Second
	DefaultPingInterval      = 30 * time.Second
	DefaultCommandRate       = 20
	DefaultMaxMessageBytes   = 64 << 10

	DefaultPollInterval    = time.Second
	DefaultJoinTimeout     = 3 * time.Second
	DefaultRestartBackoff  = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr: DefaultHTTPAddr,
			},
		},
		Sim: SimSection{
			TickRate:  DefaultTickRate,
			MaxStep:   DefaultMaxStep,
			InboxSize: DefaultInboxSize,
		},
		Broadcast: BroadcastSection{
			Interval:        DefaultBroadcastInterval,
			WriteTimeout:    DefaultWriteTimeout,
			PingInterval:    DefaultPingInterval,
			CommandRate:     DefaultCommandRate,
			MaxMessageBytes: DefaultMaxMessageBytes,
		},
		Supervisor: SupervisorSection{
			PollInterval:    DefaultPollInterval,
			JoinTimeout:     DefaultJoinTimeout,
			RestartBackoff:  DefaultRestartBackoff,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
