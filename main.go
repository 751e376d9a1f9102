package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"homeval/config"
	"homeval/httputil"
	"homeval/logging"
	"homeval/models"
	"homeval/scheduler"
	"homeval/scraper"
	"homeval/storage"
)

var (
	mode    = flag.String("mode", "active", "Valuation variant: active (browser) or passive (HTTP)")
	address = flag.String("address", "", "Property address; site default when empty")
	unit    = flag.String("unit", "", "Apartment number (active mode)")
	rooms   = flag.String("rooms", "", "Rooms count: 0-5 or studio")
	area    = flag.String("area", "", "Total area in square meters")
	headed  = flag.Bool("headed", false, "Show the browser and leave it open after the run")
	canary  = flag.Bool("canary", false, "Run the passive canary on CANARY_CRON until interrupted")
	stats   = flag.Bool("stats", false, "Print run statistics for the site and exit")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup happens before exit.
func run() int {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	logFile, err := logging.Setup(cfg.LogPath, int64(cfg.LogMaxMB)<<20)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	if *headed {
		cfg.Browser.Headless = false
		cfg.Browser.KeepOpen = true
	}

	site := cfg.Site()
	log.Printf("Site: %s (%s), driver: %s", site.Name, site.ID, cfg.Browser.Driver)

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Printf("Failed to open SQLite: %v", err)
		return 1
	}
	defer store.Close()

	if *stats {
		if err := printStats(store, site.ID); err != nil {
			log.Printf("Failed to read stats: %v", err)
			return 1
		}
		return 0
	}

	clients, err := httputil.NewClients(&cfg.Proxy)
	if err != nil {
		log.Printf("Failed to build HTTP clients: %v", err)
		return 1
	}
	if cfg.Proxy.URL != "" {
		log.Printf("Proxy: %s", cfg.Proxy.URL)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var driver scraper.Driver
	if *mode == "active" && !*canary {
		driver, err = scraper.NewDriver(cfg)
		if err != nil {
			log.Printf("Failed to create browser driver: %v", err)
			return 1
		}
	}

	orchestrator := scraper.NewOrchestrator(cfg, store, driver, clients.Scraping)

	artifacts, err := storage.NewArtifacts(ctx, cfg.Artifacts, clients.API)
	if err != nil {
		log.Printf("Warning: artifacts disabled: %v", err)
	} else {
		orchestrator.SetArtifacts(artifacts)
	}

	if *canary {
		if err := runCanary(ctx, cfg, orchestrator); err != nil {
			log.Printf("Failed to start canary: %v", err)
			return 1
		}
		return 0
	}

	var result any
	switch *mode {
	case "active":
		in, err := activeInput(site.Defaults.Active)
		if err != nil {
			log.Printf("Invalid input: %v", err)
			return exitCode(models.RunStatusInvalid)
		}
		result, err = orchestrator.RunActive(ctx, in)
		// the browser stays up for inspection on failure too
		if cfg.Browser.KeepOpen {
			defer waitForInterrupt(ctx)
		}
		if err != nil {
			return failed(err)
		}
	case "passive":
		result, err = orchestrator.RunPassive(ctx, passiveInput(site.Defaults.Passive))
		if err != nil {
			return failed(err)
		}
	default:
		log.Printf("Unknown mode %q (want active or passive)", *mode)
		return 2
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		log.Printf("Failed to encode result: %v", err)
		return 1
	}
	return 0
}

func activeInput(def models.ValuationInput) (models.ValuationInput, error) {
	in := def
	if *address != "" {
		in.Address = *address
	}
	if *unit != "" {
		in.RoomNumber = *unit
	}
	if *rooms != "" {
		switch r := strings.ToLower(strings.TrimSpace(*rooms)); r {
		case "studio", "студия":
			in.RoomsCount = 0
		default:
			n, err := strconv.Atoi(strings.TrimSuffix(r, "+"))
			if err != nil {
				return in, fmt.Errorf("rooms %q: %w", *rooms, err)
			}
			in.RoomsCount = n
		}
	}
	if *area != "" {
		a, err := strconv.ParseFloat(strings.Replace(*area, ",", ".", 1), 64)
		if err != nil {
			return in, fmt.Errorf("area %q: %w", *area, err)
		}
		in.Area = a
	}
	return in, nil
}

func passiveInput(def models.PassiveInput) models.PassiveInput {
	in := def
	if *address != "" {
		in.Address = *address
	}
	if *area != "" {
		in.TotalArea = *area
	}
	if *rooms != "" {
		in.RoomsCount = models.MapRoomsToCount(*rooms)
	}
	return in
}

func runCanary(ctx context.Context, cfg *config.Config, o *scraper.Orchestrator) error {
	c := scheduler.New(o, o.Defaults().Passive, cfg.Canary.Cron)
	if err := c.Start(ctx); err != nil {
		return err
	}
	log.Println("Canary running. Press Ctrl+C to stop.")
	<-ctx.Done()

	log.Println("Shutting down...")
	c.Stop()
	log.Println("Goodbye!")
	return nil
}

// failed logs a failed run and returns its exit code.
func failed(err error) int {
	status := scraper.Classify(err)
	log.Printf("Run %s: %v", status, err)
	return exitCode(status)
}

func exitCode(status models.RunStatus) int {
	switch status {
	case models.RunStatusCompleted:
		return 0
	case models.RunStatusInvalid:
		return 2
	case models.RunStatusNotFound:
		return 3
	case models.RunStatusBlocked:
		return 4
	case models.RunStatusTimeout:
		return 5
	default:
		return 1
	}
}

func waitForInterrupt(ctx context.Context) {
	log.Println("Browser left open. Press Ctrl+C to exit.")
	<-ctx.Done()
}

func printStats(store *storage.SQLiteStore, siteID string) error {
	st, err := store.GetSiteStats(siteID)
	if err != nil {
		return err
	}
	runs, err := store.RecentRuns(siteID, 10)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(map[string]any{
		"stats":  st,
		"recent": runs,
	})
}
