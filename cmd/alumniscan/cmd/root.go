package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"alumnisync-backend/lib/configutil"
	"alumnisync-backend/lib/notify"
	"alumnisync-backend/lib/scrapers/linkedin"
	"alumnisync-backend/lib/serviceutil"
	"alumnisync-backend/lib/telemetry"
	"alumnisync-backend/services/alumni"
	"alumnisync-backend/services/scan"
	alumnidb "alumnisync-backend/services/alumni/db"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type SyncConfig struct {
	// base url of a remote alumnisyncd, leave empty to write to the
	// local database directly
	BaseUrl string `json:"base_url"`
	ApiKey  string `json:"api_key"`
}

type ScanConfig struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	UseBrowserCookies bool   `json:"use_browser_cookies"`
	Institution       string `json:"institution"`
	MaxUnits          int    `json:"max_units"`
	PerUnitDelayMs    int    `json:"per_unit_delay_ms"`
	SecondsPerUnit    int    `json:"seconds_per_unit"`
	DefaultGradYear   int    `json:"default_grad_year"`
}

type Config struct {
	Database configutil.Database `json:"database"`
	Sync     SyncConfig          `json:"sync"`
	Smtp     notify.SmtpConfig   `json:"smtp"`
	Scan     ScanConfig          `json:"scan"`
}

var config Config

var (
	flagVerbose  bool
	flagHeadless bool
	flagMaxUnits int
)

var rootCmd = &cobra.Command{
	Use:   "alumniscan",
	Short: "alumniscan drives a browser through LinkedIn and feeds the alumni directory.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&flagHeadless, "headless", false, "run the browser without a window")
	rootCmd.PersistentFlags().IntVar(&flagMaxUnits, "max-units", 0, "override the configured page/profile limit")
}

func Execute() {
	var err error
	config, err = configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}

func openLocalService() alumni.Service {
	database, err := config.Database.OpenDB(alumnidb.Schema)
	if err != nil {
		fail(fmt.Errorf("open database: %w", err))
	}
	return alumni.NewService(database)
}

// the sink is remote when a sync url is configured, local otherwise
func buildSink() linkedin.Sink {
	if config.Sync.BaseUrl != "" {
		return alumni.NewImportClient(config.Sync.BaseUrl, config.Sync.ApiKey)
	}
	return openLocalService().Sink()
}

func buildScanService(sink linkedin.Sink) *scan.Service {
	return scan.NewService(
		scan.ChromeFactory(linkedin.ChromeOptions{Headless: flagHeadless}),
		sink,
		notify.New(config.Smtp),
		scan.Config{
			Credentials: linkedin.Credentials{
				Email:    config.Scan.Email,
				Password: config.Scan.Password,
			},
			UseBrowserCookies: config.Scan.UseBrowserCookies,
			Institution:       config.Scan.Institution,
			MaxUnits:          config.Scan.MaxUnits,
			PerUnitDelay:      time.Duration(config.Scan.PerUnitDelayMs) * time.Millisecond,
			SecondsPerUnit:    config.Scan.SecondsPerUnit,
			DefaultGradYear:   config.Scan.DefaultGradYear,
		},
	)
}

func runJob(ctx context.Context, service *scan.Service, req scan.StartRequest) {
	if flagMaxUnits > 0 {
		req.MaxUnits = flagMaxUnits
	}
	if _, err := service.Start(ctx, req); err != nil {
		fail(err)
	}

	status, err := service.Wait(ctx)
	if err != nil {
		fail(err)
	}
	if status.Error != "" {
		fmt.Fprintln(os.Stderr, "scan ended with error:", status.Error)
	}
	printSummary(status)
}

func printSummary(status scan.JobStatus) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Units", "Profiles found", "Stored", "Failed"})
	if status.Summary != nil {
		t.AppendRow(table.Row{
			status.Summary.UnitsCompleted,
			status.Summary.ProfilesFound,
			status.Summary.Stored,
			status.Summary.Failed,
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
