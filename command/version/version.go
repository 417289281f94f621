package version

import (
	"github.com/dogechain-lab/docwriter/command/helper"
	"github.com/dogechain-lab/docwriter/versioning"
	"github.com/spf13/cobra"
)

func GetCommand() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Returns the current docwriter version",
		Run:   runCommand,
	}

	helper.RegisterJSONOutputFlag(versionCmd)

	return versionCmd
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := helper.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	outputter.SetCommandResult(&VersionResult{
		Version:   versioning.Version,
		Commit:    versioning.Commit,
		BuildTime: versioning.BuildTime,
	})
}
