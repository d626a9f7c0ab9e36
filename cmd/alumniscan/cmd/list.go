package cmd

import (
	"database/sql"
	"os"

	"alumnisync-backend/lib/serviceutil"
	"alumnisync-backend/services/alumni"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Prints the stored alumni directory.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := serviceutil.SignalContext()
		service := openLocalService()

		rows, err := service.List(ctx)
		if err != nil {
			fail(err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "Degree", "Company", "Title", "Profile"})
		for _, row := range rows {
			t.AppendRow(table.Row{
				row.FirstName + " " + row.LastName,
				degreeLabel(row.Degree),
				row.CurrentCompany.String,
				row.CurrentJobTitle.String,
				row.LinkedinUrl,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

func degreeLabel(degree sql.NullString) string {
	if alumni.ClassifyDegree(degree) == alumni.DegreeKnown {
		return degree.String
	}
	return "(" + alumni.ClassifyDegree(degree).String() + ")"
}
