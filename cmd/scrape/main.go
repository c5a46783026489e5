package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"course-enroller/internal/config"
	"course-enroller/internal/domain"
	"course-enroller/internal/export"
	"course-enroller/internal/feed"
	"course-enroller/internal/progress"
	"course-enroller/internal/scrape"
	"course-enroller/internal/settings"
	"course-enroller/internal/sftpclient"
)

func main() {
	var (
		outPath    = flag.String("out", "candidates.csv", "output csv path")
		txtPath    = flag.String("txt", "", "also write a plain text list to this path")
		uploadSFTP = flag.Bool("sftp", false, "upload the generated CSV via SFTP")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	cfg := config.Load()
	prefs, err := settings.Load(cfg.SettingsPath)
	if err != nil {
		log.Fatal(err)
	}

	var scrapers []scrape.Scraper
	for name, feedURL := range cfg.Feeds {
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
	if len(scrapers) == 0 {
		log.Fatal("no feeds configured: set FEEDS and enable sites in the settings file")
	}

	coord := &scrape.Coordinator{Reporter: progress.LogReporter{}}
	ledger, sourceErrors, err := coord.Run(ctx, scrapers)
	if err != nil {
		log.Fatal(err)
	}
	for _, se := range sourceErrors {
		log.Printf("WARN: %s failed: %v (coverage degraded)", se.Source, se.Message)
	}

	courses := ledger.Ordered()
	filtered := courses[:0:0]
	f := prefs.Filter()
	for _, c := range courses {
		if f.Accept(c) {
			filtered = append(filtered, c)
		}
	}

	if dir := filepath.Dir(*outPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal(err)
		}
	}

	if err := writeCSV(*outPath, filtered); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %d of %d scraped courses to %s", len(filtered), len(courses), *outPath)

	if *txtPath != "" {
		if err := writeTxt(*txtPath, filtered); err != nil {
			log.Fatal(err)
		}
		log.Printf("wrote text list to %s", *txtPath)
	}

	if *uploadSFTP {
		remoteName := filepath.Base(*outPath)
		if !strings.HasSuffix(remoteName, ".csv") {
			remoteName += ".csv"
		}
		upCfg := sftpclient.Config{
			Host:                  cfg.SFTPHost,
			Port:                  cfg.SFTPPort,
			User:                  cfg.SFTPUser,
			Pass:                  cfg.SFTPPass,
			RemoteDir:             cfg.SFTPDir,
			KnownHostsFile:        cfg.SFTPKnownHosts,
			InsecureIgnoreHostKey: cfg.SFTPInsecureIgnoreHostKey,
		}
		if err := sftpclient.UploadFile(ctx, upCfg, *outPath, remoteName); err != nil {
			log.Fatal(err)
		}
		log.Printf("uploaded %s to %s:%s", remoteName, cfg.SFTPHost, cfg.SFTPDir)
	}
}

func writeCSV(path string, courses []domain.Course) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteCSV(f, courses); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeTxt(path string, courses []domain.Course) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteTxt(f, courses); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
