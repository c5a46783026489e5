// Package export writes scraped candidate lists to disk in the formats the
// run loop can hand off: CSV for spreadsheets and plain text for sharing.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"course-enroller/internal/domain"
)

// Keep header order EXACT; downstream sheets key on column position.
var csvHeader = []string{
	"SOURCE",
	"COURSE_ID",
	"TITLE",
	"URL",
	"CATEGORY",
	"LANGUAGE",
	"INSTRUCTOR",
	"RATING",
	"PRICE",
	"CURRENCY",
	"DISCOUNTED",
	"LAST_UPDATED",
}

// WriteCSV writes the candidate list as CSV.
func WriteCSV(w io.Writer, courses []domain.Course) error {
	cw := csv.NewWriter(w)
	// match typical spreadsheet templates
	cw.UseCRLF = true

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range courses {
		if err := cw.Write(toRow(c)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func toRow(c domain.Course) []string {
	rating := ""
	if c.Rating > 0 {
		rating = strconv.FormatFloat(c.Rating, 'f', 1, 64)
	}
	price := ""
	if c.Price.Amount > 0 {
		price = strconv.FormatFloat(c.Price.Amount, 'f', 2, 64)
	}
	updated := ""
	if !c.LastUpdated.IsZero() {
		updated = c.LastUpdated.Format(time.RFC3339)
	}

	// Source: keep first letter uppercase, rest lowercase ("udemy" -> "Udemy")
	source := strings.TrimSpace(c.Source)
	if source != "" {
		source = strings.ToUpper(source[:1]) + strings.ToLower(source[1:])
	}

	return []string{
		source,
		c.ID,
		clean(c.Title),
		c.URL,
		c.Category,
		c.Language,
		clean(c.Instructor),
		rating,
		price,
		c.Price.Currency,
		strconv.FormatBool(c.Price.Discounted),
		updated,
	}
}

// WriteTxt writes one "title - url" line per candidate.
func WriteTxt(w io.Writer, courses []domain.Course) error {
	for _, c := range courses {
		if _, err := fmt.Fprintf(w, "%s - %s\n", clean(c.Title), c.URL); err != nil {
			return err
		}
	}
	return nil
}

func clean(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.TrimSpace(s)
}
