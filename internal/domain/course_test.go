package domain

import (
	"testing"
	"time"
)

func TestCourseKey(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"plain", "https://www.udemy.com/course/golang-basics/", "https://www.udemy.com/course/golang-basics"},
		{"coupon code stripped", "https://www.udemy.com/course/golang-basics/?couponCode=FREE2024", "https://www.udemy.com/course/golang-basics"},
		{"fragment stripped", "https://www.udemy.com/course/golang-basics#reviews", "https://www.udemy.com/course/golang-basics"},
		{"case folded", "https://www.udemy.com/course/Golang-Basics/", "https://www.udemy.com/course/golang-basics"},
		{"whitespace", "  https://www.udemy.com/course/a ", "https://www.udemy.com/course/a"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		c := Course{URL: tt.url}
		if got := c.Key(); got != tt.want {
			t.Errorf("%s: Key() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCourseFields(t *testing.T) {
	updated := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	c := Course{
		Source:      "realdiscount",
		ID:          "12345",
		URL:         "https://www.udemy.com/course/test/",
		Title:       "Test Course",
		Category:    "Development",
		Language:    "English",
		Instructor:  "Jane Doe",
		Rating:      4.5,
		Price:       Price{Amount: 19.99, Currency: "USD", Discounted: true},
		LastUpdated: updated,
	}

	if c.Rating != 4.5 {
		t.Errorf("Expected Rating to be 4.5, got %f", c.Rating)
	}
	if !c.Price.Discounted {
		t.Error("Expected Price.Discounted to be true")
	}
	if c.Price.Currency != "USD" {
		t.Errorf("Expected Currency to be 'USD', got %q", c.Price.Currency)
	}
	if !c.LastUpdated.Equal(updated) {
		t.Errorf("Expected LastUpdated %v, got %v", updated, c.LastUpdated)
	}
}
