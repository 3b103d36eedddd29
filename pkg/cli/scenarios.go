package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/fairmed-lab/fairmed/pkg/cli/config"
	"github.com/fairmed-lab/fairmed/pkg/domain/types"
)

var bandColors = map[types.ScoreBand]*color.Color{
	types.ScoreBandBiased:   color.New(color.FgRed, color.Bold),
	types.ScoreBandModerate: color.New(color.FgYellow),
	types.ScoreBandFair:     color.New(color.FgGreen),
}

func cmdScenarios() *cli.Command {
	var catalogCfg config.Catalog
	var noColor bool

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "no-color",
			Usage:       "Disable colored output",
			Sources:     cli.EnvVars("NO_COLOR"),
			Destination: &noColor,
		},
	}
	flags = append(flags, catalogCfg.Flags()...)

	return &cli.Command{
		Name:    "scenarios",
		Aliases: []string{"ls"},
		Usage:   "List configured scenarios with baseline and mitigated fairness scores",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if noColor {
				color.NoColor = true
			}

			store, err := catalogCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to load scenario catalog")
			}

			var w io.Writer = os.Stdout
			if root := c.Root(); root != nil && root.Writer != nil {
				w = root.Writer
			}

			_, _ = fmt.Fprintf(w, "%-16s %-10s %-10s %-8s %s\n", "ID", "BASELINE", "MITIGATED", "CHANGE", "TITLE")
			for _, s := range store.List(ctx) {
				_, _ = fmt.Fprintf(w, "%-16s %s %s %-+8.1f %s\n",
					s.ID,
					score(s.BaselineScore),
					score(s.MitigatedScore),
					s.MitigatedScore-s.BaselineScore,
					s.Title,
				)
			}
			return nil
		},
	}
}

// score renders a fairness score padded to the column width and colored by
// its band
func score(v float64) string {
	return bandColors[types.BandOf(v)].Sprintf("%-10.1f", v)
}
