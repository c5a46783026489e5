package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"course-enroller/internal/config"
	"course-enroller/internal/devutil"
	"course-enroller/internal/enroll"
	"course-enroller/internal/export"
	"course-enroller/internal/feed"
	"course-enroller/internal/progress"
	"course-enroller/internal/progress/natsreport"
	"course-enroller/internal/run"
	"course-enroller/internal/scrape"
	"course-enroller/internal/settings"
	"course-enroller/internal/sftpclient"
)

func main() {
	var (
		settingsPath = flag.String("settings", "", "settings file path (overrides SETTINGS_PATH)")
		once         = flag.Bool("once", false, "run a single pass even when auto start is enabled")
		intervalHrs  = flag.Int("interval", 0, "override auto start interval in hours")
		verbose      = flag.Bool("v", false, "log every progress event")
	)
	flag.Parse()

	cfg := config.Load()
	if *settingsPath != "" {
		cfg.SettingsPath = *settingsPath
	}

	prefs, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		log.Fatal(err)
	}

	scrapers := buildScrapers(cfg, prefs)
	if len(scrapers) == 0 {
		log.Fatal("no feeds configured: set FEEDS and enable sites in the settings file")
	}

	reporter, cleanup, err := buildReporter(cfg, *verbose)
	if err != nil {
		log.Fatal(err)
	}
	defer cleanup()

	var limiter *rate.Limiter
	if cfg.EnrollRatePerMin > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.EnrollRatePerMin)/60, 1)
	}

	runner := &run.Runner{
		Scrapers: scrapers,
		API:      enroll.NewClient(cfg.EnrollBaseURL, cfg.EnrollToken),
		Filter:   prefs.Filter(),
		Reporter: reporter,
		Limiter:  limiter,
		Currency: cfg.Currency,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce(ctx, runner, cfg, prefs)

	interval := time.Duration(*intervalHrs) * time.Hour
	if interval <= 0 && prefs.AutoStartEnabled {
		interval = time.Duration(prefs.AutoStartHours) * time.Hour
	}
	if *once || interval <= 0 {
		return
	}

	log.Printf("auto start: running again every %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("shutting down")
			return
		case <-ticker.C:
			runOnce(ctx, runner, cfg, prefs)
		}
	}
}

func runOnce(ctx context.Context, runner *run.Runner, cfg config.Config, prefs settings.Settings) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Hour)
	defer cancel()

	stats, err := runner.Do(runCtx)
	if err != nil {
		log.Printf("run %s failed: %v", runner.RunID(), err)
	}
	log.Printf("run %s: %s", runner.RunID(),
		devutil.JSONLine(devutil.Pick(runner.GetStats(), "successfully_enrolled_c", "amount_saved_c", "status")))
	printSummary(stats)

	if prefs.SaveTxt {
		if err := saveCandidates(ctx, runner, cfg); err != nil {
			log.Printf("WARN: save candidates: %v", err)
		}
	}
}

func printSummary(stats enroll.Stats) {
	fmt.Println("----------------------------------------")
	fmt.Printf("Status:                %s\n", stats.Status)
	fmt.Printf("Successfully Enrolled: %d\n", stats.SuccessfullyEnrolled)
	fmt.Printf("Already Enrolled:      %d\n", stats.AlreadyEnrolled)
	fmt.Printf("Expired Coupons:       %d\n", stats.Expired)
	fmt.Printf("Excluded:              %d\n", stats.Excluded)
	fmt.Printf("Amount Saved:          %.2f %s\n", stats.AmountSaved, stats.Currency)
	fmt.Printf("Courses Processed:     %d/%d\n", stats.TotalProcessed, stats.TotalToProcess)
	fmt.Println("----------------------------------------")
}

func saveCandidates(ctx context.Context, runner *run.Runner, cfg config.Config) error {
	courses := runner.Candidates()
	if len(courses) == 0 {
		return nil
	}

	name := fmt.Sprintf("candidates-%s.txt", time.Now().Format("2006-01-02"))
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := export.WriteTxt(f, courses); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	log.Printf("wrote %d candidates to %s", len(courses), name)

	if cfg.SFTPHost != "" {
		upCfg := sftpclient.Config{
			Host:                  cfg.SFTPHost,
			Port:                  cfg.SFTPPort,
			User:                  cfg.SFTPUser,
			Pass:                  cfg.SFTPPass,
			RemoteDir:             cfg.SFTPDir,
			KnownHostsFile:        cfg.SFTPKnownHosts,
			InsecureIgnoreHostKey: cfg.SFTPInsecureIgnoreHostKey,
		}
		if err := sftpclient.UploadFile(ctx, upCfg, name, name); err != nil {
			return err
		}
		log.Printf("uploaded %s to %s:%s", name, cfg.SFTPHost, cfg.SFTPDir)
	}
	return nil
}

func buildScrapers(cfg config.Config, prefs settings.Settings) []scrape.Scraper {
	var scrapers []scrape.Scraper
	for name, feedURL := range cfg.Feeds {
		// A site listed in the settings with value false stays off; sites
		// the settings never mention are on.
		if on, known := prefs.Sites[name]; known && !on {
			continue
		}
		scrapers = append(scrapers, &feed.Feed{
			Source:   name,
			URL:      feedURL,
			Client:   &http.Client{Timeout: 5 * time.Minute},
			PageSize: cfg.FeedPageSize,
		})
	}
	return scrapers
}

func buildReporter(cfg config.Config, verbose bool) (progress.Reporter, func(), error) {
	reporters := []progress.Reporter{}
	if verbose {
		reporters = append(reporters, &progress.LogReporter{})
	}

	cleanup := func() {}
	if cfg.NATSURL != "" {
		nr, err := natsreport.Connect(cfg.NATSURL)
		if err != nil {
			return nil, nil, err
		}
		nr.Prefix = cfg.NATSPrefix
		reporters = append(reporters, nr)
		cleanup = nr.Close
		log.Printf("publishing progress to %s (prefix %s)", cfg.NATSURL, cfg.NATSPrefix)
	}

	if len(reporters) == 0 {
		return progress.Nop{}, cleanup, nil
	}
	return progress.Multi(reporters...), cleanup, nil
}
