package command

import (
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"

	cliconfig "github.com/yndnr/simsync-go/internal/cli/config"
	"github.com/yndnr/simsync-go/internal/cli/connection"
	"github.com/yndnr/simsync-go/internal/cli/output"
	"github.com/yndnr/simsync-go/internal/infra/buildinfo"
	"github.com/yndnr/simsync-go/internal/infra/tlsroots"
)

const metadataConfig = "cliConfig"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "simsync-cli",
		Usage:   "SimSync command-line client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ModelsCommand(),
			StatusCommand(),
			HealthCommand(),
			SendCommand(),
			WatchCommand(),
			VersionCommand(),
			ShellCommand(),
		},
		Before: loadConfig,
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "SimSync server address or profile name (default: " + cliconfig.DefaultServer + ")",
			EnvVars: []string{"SIMSYNC_SERVER"},
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Request timeout",
			Value: 10 * time.Second,
		},
		&cli.StringFlag{
			Name:    "ca-file",
			Usage:   "PEM CA bundle for https:// servers",
			EnvVars: []string{"SIMSYNC_CA_FILE"},
		},
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file (default: ~/.simsync/cli.yaml)",
			EnvVars: []string{"SIMSYNC_CLI_CONFIG"},
		},
	}
}

func loadConfig(c *cli.Context) error {
	cfg, err := cliconfig.Load(c.String("config"))
	if err != nil {
		return err
	}
	c.App.Metadata[metadataConfig] = cfg
	return nil
}

// GlobalFlags defines flags available to all commands, merged with the
// CLI config file.
type GlobalFlags struct {
	Server  string
	Output  output.Format
	Wide    bool
	Timeout time.Duration
	CAFile  string
}

// ParseGlobalFlags extracts global flags from context. Flags and
// environment win over the config file.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	cfg, ok := c.App.Metadata[metadataConfig].(*cliconfig.CLIConfig)
	if !ok {
		cfg = cliconfig.Default()
	}

	out := c.String("output")
	if out == "" {
		out = cfg.Output
	}
	format, err := output.ParseFormat(out)
	if err != nil {
		return nil, err
	}

	timeout := c.Duration("timeout")
	if !c.IsSet("timeout") && cfg.Timeout > 0 {
		timeout = cfg.Timeout
	}

	caFile := c.String("ca-file")
	if caFile == "" {
		caFile = cfg.CAFile
	}

	return &GlobalFlags{
		Server:  cfg.ResolveServer(c.String("server")),
		Output:  format,
		Wide:    c.Bool("wide"),
		Timeout: timeout,
		CAFile:  caFile,
	}, nil
}

// Connect returns an HTTP client for the configured server.
func Connect(c *cli.Context) (*connection.HTTPClient, *GlobalFlags, error) {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return nil, nil, err
	}
	tlsConfig, err := tlsroots.ClientConfig(flags.CAFile)
	if err != nil {
		return nil, nil, err
	}
	return connection.NewHTTPClient(flags.Server, flags.Timeout, connection.WithTLSConfig(tlsConfig)), flags, nil
}

// render writes data in the selected format. In table mode a non-nil
// table is used instead of the generic conversion.
func render(c *cli.Context, flags *GlobalFlags, data any, table *output.Table) error {
	w := c.App.Writer
	if flags.Output == output.FormatTable && table != nil {
		return table.Render(w)
	}
	return output.NewFormatter(flags.Output, flags.Wide).Format(w, data)
}

// printf writes a line of human output. It is silent outside table mode
// so json and yaml stay machine-readable.
func printf(w io.Writer, flags *GlobalFlags, format string, args ...any) {
	if flags.Output != output.FormatTable {
		return
	}
	fmt.Fprintf(w, format, args...)
}
