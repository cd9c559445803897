package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/simsync-go/internal/cli/output"
	"github.com/yndnr/simsync-go/internal/infra/buildinfo"
	"github.com/yndnr/simsync-go/internal/server/httpserver/handler"
)

// VersionInfo pairs the client build with the server's, when reachable.
type VersionInfo struct {
	Client buildinfo.Info `json:"client"`
	Server *ServerVersion `json:"server,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// ServerVersion is the server build reported by /health.
type ServerVersion struct {
	Address   string `json:"address"`
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	GoVersion string `json:"go_version"`
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show client and server versions",
		Action: version,
	}
}

func version(c *cli.Context) error {
	client, flags, err := Connect(c)
	if err != nil {
		return err
	}

	info := VersionInfo{Client: buildinfo.Get()}
	var health handler.HealthResponse
	if err := client.GetJSON(c.Context, "/health", &health); err != nil {
		info.Error = err.Error()
	} else {
		info.Server = &ServerVersion{
			Address:   client.BaseURL(),
			Version:   health.Version,
			Commit:    health.Commit,
			GoVersion: health.GoVersion,
		}
	}

	if flags.Output != output.FormatTable {
		return render(c, flags, info, nil)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "Client: %s\n", buildinfo.String())
	if info.Server != nil {
		fmt.Fprintf(w, "Server: %s (commit: %s, go: %s) at %s\n",
			info.Server.Version, info.Server.Commit, info.Server.GoVersion, info.Server.Address)
	} else {
		fmt.Fprintf(w, "Server: unreachable (%s)\n", info.Error)
	}
	return nil
}
