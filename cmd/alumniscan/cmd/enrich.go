package cmd

import (
	"errors"

	"alumnisync-backend/lib/serviceutil"
	"alumnisync-backend/services/scan"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(enrichCmd)
}

var enrichCmd = &cobra.Command{
	Use:   "enrich [profile-url...]",
	Short: "Visits stored profiles missing company or job title and fills them in.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()

		urls := args
		if len(urls) == 0 {
			if config.Sync.BaseUrl != "" {
				fail(errors.New("pass profile urls explicitly when syncing to a remote server"))
			}
			var err error
			urls, err = openLocalService().NeedingEnrichment(ctx, flagMaxUnits)
			if err != nil {
				fail(err)
			}
			if len(urls) == 0 {
				cmd.Println("nothing to enrich")
				return
			}
		}

		service := buildScanService(buildSink())
		runJob(ctx, service, scan.StartRequest{
			Mode:        scan.ModeEnrich,
			ProfileURLs: urls,
		})
	},
}
