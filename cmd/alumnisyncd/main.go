package main

import (
	"net/http"
	"time"

	"alumnisync-backend/lib/configutil"
	"alumnisync-backend/lib/notify"
	"alumnisync-backend/lib/scrapers/linkedin"
	"alumnisync-backend/lib/serviceutil"
	"alumnisync-backend/lib/telemetry"
	"alumnisync-backend/services/alumni"
	"alumnisync-backend/services/scan"
	alumnidb "alumnisync-backend/services/alumni/db"
)

type ScanConfig struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	UseBrowserCookies bool   `json:"use_browser_cookies"`
	Institution       string `json:"institution"`
	MaxUnits          int    `json:"max_units"`
	PerUnitDelayMs    int    `json:"per_unit_delay_ms"`
	SecondsPerUnit    int    `json:"seconds_per_unit"`
	DefaultGradYear   int    `json:"default_grad_year"`
	Headless          bool   `json:"headless"`
}

type Config struct {
	Port     int                 `json:"port"`
	ApiKey   string              `json:"api_key"`
	Database configutil.Database `json:"database"`
	Smtp     notify.SmtpConfig   `json:"smtp"`
	Scan     ScanConfig          `json:"scan"`
}

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(false)
	telemetry.SetupFromEnv(ctx, "alumnisyncd")
	telemetry.InstrumentPerfStats(ctx)

	config, err := configutil.ReadConfig[Config]("config.json5")
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if config.Port == 0 {
		config.Port = 3001
	}

	database, err := config.Database.OpenDB(alumnidb.Schema)
	if err != nil {
		serviceutil.Fatal("failed to open database", err)
	}

	alumniService := alumni.NewService(database)

	scanService := scan.NewService(
		scan.ChromeFactory(linkedin.ChromeOptions{Headless: config.Scan.Headless}),
		alumniService.Sink(),
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

	mux := http.NewServeMux()
	alumni.NewAPI(alumniService, config.ApiKey).Register(mux)
	scan.NewAPI(scanService, config.ApiKey).
		WithEnrichTargets(alumniService.NeedingEnrichment).
		Register(mux)

	serviceutil.StartHttpServer(config.Port, serviceutil.WithCORS(mux))
}
