package cmd

import (
	"alumnisync-backend/lib/serviceutil"
	"alumnisync-backend/services/scan"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan <search-url>",
	Short: "Walks a people-search results listing and imports every card.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		service := buildScanService(buildSink())
		runJob(serviceutil.SignalContext(), service, scan.StartRequest{
			Mode:      scan.ModeSearch,
			SearchURL: args[0],
		})
	},
}
