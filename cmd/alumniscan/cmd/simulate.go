package cmd

import (
	"fmt"

	"alumnisync-backend/lib/scrapers/linkedin"
	"alumnisync-backend/lib/serviceutil"

	"github.com/mazen160/go-random"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(simulateCmd)
}

var simulatedTitles = []string{
	"Développeur Full Stack",
	"Développeuse Front-End",
	"Data Analyst",
	"Chef de projet digital",
	"Ingénieur DevOps",
	"Product Owner",
	"Consultant cybersécurité",
}

var simulatedCompanies = []string{
	"Capgemini",
	"OVHcloud",
	"Doctolib",
	"BlaBlaCar",
	"Thales",
	"Back Market",
	"Sopra Steria",
}

// fills records the same way an enrichment pass would, without opening
// a browser. useful for exercising the pipeline and the progress math
// against realistic-looking data.
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Fills profiles needing enrichment with generated data, no browser involved.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()
		service := openLocalService()

		urls, err := service.NeedingEnrichment(ctx, flagMaxUnits)
		if err != nil {
			fail(err)
		}
		if len(urls) == 0 {
			cmd.Println("nothing to enrich")
			return
		}

		var batch []linkedin.Profile
		for _, url := range urls {
			title, err := random.IntRange(0, len(simulatedTitles))
			if err != nil {
				fail(err)
			}
			company, err := random.IntRange(0, len(simulatedCompanies))
			if err != nil {
				fail(err)
			}
			batch = append(batch, linkedin.Profile{
				ProfileURL:      url,
				CurrentJobTitle: simulatedTitles[title],
				CurrentCompany:  simulatedCompanies[company],
			})
		}

		result, err := service.Reconcile(ctx, batch)
		if err != nil {
			fail(err)
		}
		fmt.Printf("simulated enrichment of %d profiles (%d errors)\n",
			result.SuccessCount, result.ErrorCount)
	},
}
