// Command measurement sends Measurement Protocol hits from the command line
// and reads back delivery statistics.
package main

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		log.WithError(err).Error("measurement")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "measurement",
		Short:         "Send analytics hits to the collection endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetHandler(cli.Default)
			if verbose {
				log.SetLevel(log.DebugLevel)
			}
		},
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose log output")

	cmd.AddCommand(newSendCommand(), newFieldsCommand(), newStatsCommand())
	return cmd
}
