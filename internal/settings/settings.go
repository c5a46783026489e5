// Package settings loads and saves the user's enrollment preferences as a
// JSON file and maps them onto the candidate filter.
package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"course-enroller/internal/filter"
)

// Settings is the on-disk preferences document. Map values of true mean the
// site/category/language is selected; an empty map selects everything.
type Settings struct {
	Sites      map[string]bool `json:"sites"`
	Categories map[string]bool `json:"categories"`
	Languages  map[string]bool `json:"languages"`

	MinRating             float64 `json:"min_rating"`
	UpdateThresholdMonths int     `json:"course_update_threshold_months"`
	DiscountedOnly        bool    `json:"discounted_only"`

	InstructorExclude []string `json:"instructor_exclude"`
	TitleExclude      []string `json:"title_exclude"`

	// SaveTxt enables writing the scraped candidate list to disk after a
	// run.
	SaveTxt bool `json:"save_txt"`

	// AutoStartHours is the interval of the periodic run loop. Zero
	// disables it.
	AutoStartEnabled bool `json:"auto_start_enabled"`
	AutoStartHours   int  `json:"auto_start_hours"`
}

// Default returns the settings a fresh installation starts with.
func Default() Settings {
	return Settings{
		Sites:                 map[string]bool{},
		Categories:            map[string]bool{},
		Languages:             map[string]bool{},
		MinRating:             0,
		UpdateThresholdMonths: 24,
		AutoStartHours:        4,
	}
}

// Load reads the settings file at path. A missing file yields the defaults
// without error; a malformed file is an error so bad edits do not silently
// reset preferences.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("settings: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("settings: parse %s: %w", path, err)
	}
	if s.Sites == nil {
		s.Sites = map[string]bool{}
	}
	if s.Categories == nil {
		s.Categories = map[string]bool{}
	}
	if s.Languages == nil {
		s.Languages = map[string]bool{}
	}
	return s, nil
}

// Save writes the settings file, creating parent directories as needed.
func Save(path string, s Settings) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("settings: mkdir %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("settings: write %s: %w", path, err)
	}
	return nil
}

// Filter maps the preferences onto the candidate filter.
func (s Settings) Filter() filter.Config {
	return filter.Config{
		Sites:              s.Sites,
		Categories:         s.Categories,
		Languages:          s.Languages,
		MinRating:          s.MinRating,
		MaxStalenessMonths: s.UpdateThresholdMonths,
		DiscountedOnly:     s.DiscountedOnly,
		InstructorExclude:  s.InstructorExclude,
		TitleExclude:       s.TitleExclude,
	}
}

// EnabledSites lists the site names whose value is true, in no particular
// order. An empty result with a non-empty map means everything is disabled.
func (s Settings) EnabledSites() []string {
	var out []string
	for name, on := range s.Sites {
		if on {
			out = append(out, name)
		}
	}
	return out
}
