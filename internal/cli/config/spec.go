package config

import "time"

// DefaultServer is the address used when nothing else is configured.
const DefaultServer = "http://localhost:8000"

// CLIConfig is the configuration for simsync-cli.
type CLIConfig struct {
	// Server is the default server address or profile name.
	Server string `yaml:"server"`
	// Output is the default output format: table, json, yaml.
	Output string `yaml:"output"`
	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout"`
	// CAFile is a PEM bundle trusted in addition to the system roots.
	CAFile string `yaml:"ca_file,omitempty"`

	// Profiles maps short names to server addresses, so that
	// "--server lab" can stand for "http://10.0.0.5:8000".
	Profiles map[string]string `yaml:"profiles"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		Server:   DefaultServer,
		Output:   "table",
		Timeout:  10 * time.Second,
		Profiles: make(map[string]string),
	}
}
