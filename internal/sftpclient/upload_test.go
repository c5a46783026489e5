package sftpclient

import (
	"context"
	"strings"
	"testing"
)

// The real transfer needs a server; these cover the validation paths that
// run before any dialing happens.

func TestUploadValidation(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name          string
		cfg           Config
		errorContains string
	}{
		{
			name:          "Missing credentials",
			cfg:           Config{},
			errorContains: "missing host, user or password",
		},
		{
			name: "No host key policy",
			cfg: Config{
				Host: "drop.example.com",
				User: "courses",
				Pass: "secret",
			},
			errorContains: "no known_hosts file configured",
		},
		{
			name: "Missing known_hosts file",
			cfg: Config{
				Host:           "drop.example.com",
				User:           "courses",
				Pass:           "secret",
				KnownHostsFile: "/does/not/exist",
			},
			errorContains: "known_hosts",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Upload(ctx, tc.cfg, strings.NewReader("data"), "candidates.csv")
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.errorContains) {
				t.Errorf("Expected error to contain %q, got %q", tc.errorContains, err.Error())
			}
		})
	}
}

func TestUploadFileMissingLocalFile(t *testing.T) {
	cfg := Config{
		Host:                  "drop.example.com",
		User:                  "courses",
		Pass:                  "secret",
		InsecureIgnoreHostKey: true,
	}
	err := UploadFile(context.Background(), cfg, "non_existent_file.txt", "candidates.csv")
	if err == nil || !strings.Contains(err.Error(), "open local file") {
		t.Errorf("Expected open error, got %v", err)
	}
}
