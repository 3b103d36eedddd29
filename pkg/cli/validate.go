package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/fairmed-lab/fairmed/pkg/cli/config"
	"github.com/fairmed-lab/fairmed/pkg/utils/logging"
)

func cmdValidate() *cli.Command {
	var catalogCfg config.Catalog

	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate the scenario catalog without starting the server",
		Flags:   catalogCfg.Flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := logging.Default()

			store, err := catalogCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "scenario catalog validation failed")
			}

			summaries := store.List(ctx)
			for _, s := range summaries {
				logger.Info("Scenario validated",
					"id", s.ID,
					"title", s.Title,
					"baseline_score", s.BaselineScore,
					"mitigated_score", s.MitigatedScore,
				)
			}
			logger.Info("Scenario catalog validation passed",
				"catalog", catalogCfg.Path(),
				"scenario_count", len(summaries),
			)

			return nil
		},
	}
}
