package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fetch.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755); err != nil {
		t.Fatalf("Failed to write script: %v", err)
	}
	return path
}

func TestCommandFetcher_Success(t *testing.T) {
	binary := writeScript(t, "exit 0\n")
	f := NewCommandFetcher(binary, t.TempDir(), zaptest.NewLogger(t))

	path, err := f.Fetch(context.Background(), "https://youtu.be/abc")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.HasSuffix(path, ".mp4") {
		t.Errorf("Expected mp4 output path, got %s", path)
	}
}

func TestCommandFetcher_FailureCarriesStderr(t *testing.T) {
	binary := writeScript(t, "echo 'ERROR: unsupported url' >&2\nexit 1\n")
	f := NewCommandFetcher(binary, t.TempDir(), zaptest.NewLogger(t))

	_, err := f.Fetch(context.Background(), "https://example.com/nope")
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "unsupported url") {
		t.Errorf("Expected stderr context in error, got: %v", err)
	}
}

func TestCommandFetcher_Timeout(t *testing.T) {
	binary := writeScript(t, "sleep 5\n")
	f := NewCommandFetcher(binary, t.TempDir(), zaptest.NewLogger(t))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := f.Fetch(ctx, "https://youtu.be/abc")
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("Expected timeout in error, got: %v", err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("Fetch did not honor the context deadline")
	}
}

func TestCommandFetcher_MissingBinary(t *testing.T) {
	f := NewCommandFetcher("/nonexistent/yt-dlp", t.TempDir(), zaptest.NewLogger(t))

	_, err := f.Fetch(context.Background(), "https://youtu.be/abc")
	if err == nil {
		t.Fatal("Expected error for missing binary, got nil")
	}
}
