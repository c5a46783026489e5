// Package config reads process configuration from the environment. User
// preferences live in the settings file; everything here is deployment
// wiring (endpoints, credentials, pacing).
package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// SettingsPath locates the JSON preferences file.
	SettingsPath string

	// Feeds maps site name to feed URL, parsed from FEEDS
	// ("site1=https://...,site2=https://...").
	Feeds        map[string]string
	FeedPageSize int

	// Enrollment API
	EnrollBaseURL string
	EnrollToken   string
	Currency      string

	// EnrollRatePerMin caps enrollment API calls per minute. 0 disables
	// pacing.
	EnrollRatePerMin int

	// NATS progress publishing. Empty URL disables it.
	NATSURL     string
	NATSPrefix  string

	// SFTP drop for exported candidate lists.
	SFTPHost                  string
	SFTPPort                  int
	SFTPUser                  string
	SFTPPass                  string
	SFTPDir                   string
	SFTPKnownHosts            string
	SFTPInsecureIgnoreHostKey bool
}

func Load() Config {
	return Config{
		SettingsPath: getenv("SETTINGS_PATH", "duce-settings.json"),

		Feeds:        parseFeeds(os.Getenv("FEEDS")),
		FeedPageSize: getenvInt("FEED_PAGE_SIZE", 50),

		EnrollBaseURL:    getenv("ENROLL_API_BASE_URL", "https://www.udemy.com"),
		EnrollToken:      os.Getenv("ENROLL_API_TOKEN"),
		Currency:         getenv("CURRENCY", "USD"),
		EnrollRatePerMin: getenvInt("ENROLL_RATE_PER_MIN", 30),

		NATSURL:    os.Getenv("NATS_URL"),
		NATSPrefix: getenv("NATS_PREFIX", "enroller"),

		SFTPHost:                  os.Getenv("SFTP_HOST"),
		SFTPPort:                  getenvInt("SFTP_PORT", 22),
		SFTPUser:                  os.Getenv("SFTP_USER"),
		SFTPPass:                  os.Getenv("SFTP_PASS"),
		SFTPDir:                   getenv("SFTP_DIR", "/inbound"),
		SFTPKnownHosts:            os.Getenv("SFTP_KNOWN_HOSTS"),
		SFTPInsecureIgnoreHostKey: getenvBool("SFTP_INSECURE_IGNORE_HOSTKEY", true),
	}
}

// parseFeeds splits "name=url,name=url" pairs. Malformed entries are
// dropped.
func parseFeeds(raw string) map[string]string {
	feeds := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		name, url, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || url == "" {
			continue
		}
		feeds[name] = url
	}
	return feeds
}

func getenv(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
