package cli

import (
	"io"

	"github.com/urfave/cli/v3"
)

// NewScenariosCommandForTest returns the scenarios command as a standalone
// root writing to w
func NewScenariosCommandForTest(w io.Writer) *cli.Command {
	cmd := cmdScenarios()
	cmd.Writer = w
	return cmd
}
