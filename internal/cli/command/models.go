package command

import (
	"fmt"
	"net/url"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/simsync-go/internal/cli/output"
	"github.com/yndnr/simsync-go/internal/core/domain"
	"github.com/yndnr/simsync-go/internal/server/httpserver/handler"
)

// ModelsCommand returns the models subcommand group.
func ModelsCommand() *cli.Command {
	return &cli.Command{
		Name:    "models",
		Aliases: []string{"model", "m"},
		Usage:   "Inspect the latest committed snapshot",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List every model with its pose",
				Action:  modelsList,
			},
			{
				Name:      "get",
				Usage:     "Show one model",
				ArgsUsage: "NAME",
				Action:    modelsGet,
			},
		},
	}
}

func modelsList(c *cli.Context) error {
	client, flags, err := Connect(c)
	if err != nil {
		return err
	}

	var resp handler.ModelsResponse
	if err := client.GetJSON(c.Context, "/models", &resp); err != nil {
		return err
	}

	printf(c.App.Writer, flags, "seq %d, %d models\n\n", resp.Seq, resp.Count)
	return render(c, flags, resp, snapshotTable(resp.Models, flags.Wide))
}

func modelsGet(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: models get NAME")
	}
	client, flags, err := Connect(c)
	if err != nil {
		return err
	}

	var resp handler.ModelResponse
	if err := client.GetJSON(c.Context, "/models/"+url.PathEscape(c.Args().First()), &resp); err != nil {
		return err
	}
	return render(c, flags, resp, modelTable(resp))
}

// snapshotTable lists models sorted by name.
func snapshotTable(snap domain.Snapshot, wide bool) *output.Table {
	table := &output.Table{}
	if wide {
		table.SetHeaders("NAME", "X", "Y", "Z", "ANGLE", "SPEED", "ROTATION", "MESH")
	} else {
		table.SetHeaders("NAME", "X", "Y", "Z", "ANGLE", "SPEED")
	}

	for _, name := range snap.Names() {
		st := snap[name]
		row := []string{
			name,
			output.FormatFloat(st.Position.X),
			output.FormatFloat(st.Position.Y),
			output.FormatFloat(st.Position.Z),
			extraCell(st, "angle"),
			extraCell(st, "speed"),
		}
		if wide {
			row = append(row, quaternionCell(st.Rotation), extraCell(st, "mesh"))
		}
		table.AddRow(row...)
	}
	return table
}

// modelTable shows one model as field/value rows, extras sorted.
func modelTable(m handler.ModelResponse) *output.Table {
	table := &output.Table{}
	table.SetHeaders("FIELD", "VALUE")
	table.AddRow("name", m.Name)
	table.AddRow("seq", fmt.Sprint(m.Seq))
	table.AddRow("position", fmt.Sprintf("(%s, %s, %s)",
		output.FormatFloat(m.State.Position.X),
		output.FormatFloat(m.State.Position.Y),
		output.FormatFloat(m.State.Position.Z)))
	table.AddRow("rotation", quaternionCell(m.State.Rotation))

	keys := make([]string, 0, len(m.State.Extra))
	for k := range m.State.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		table.AddRow(k, extraCell(m.State, k))
	}
	return table
}

func extraCell(st domain.ModelState, key string) string {
	v, ok := st.Extra[key]
	if !ok {
		return "-"
	}
	if f, ok := v.(float64); ok {
		return output.FormatFloat(f)
	}
	return fmt.Sprint(v)
}

func quaternionCell(q domain.Quaternion) string {
	return fmt.Sprintf("(%s, %s, %s, %s)",
		output.FormatFloat(q.X), output.FormatFloat(q.Y), output.FormatFloat(q.Z), output.FormatFloat(q.W))
}
