package fetcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fetcher is the video fetch capability: given a URL, produce a local file
// or fail. Everything past that contract is opaque to the queue.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// CommandFetcher shells out to an external downloader (yt-dlp by default).
// The command inherits ctx, so a fetch timeout kills the process instead of
// leaving it orphaned.
type CommandFetcher struct {
	binary    string
	outputDir string
	logger    *zap.Logger
}

func NewCommandFetcher(binary, outputDir string, logger *zap.Logger) *CommandFetcher {
	return &CommandFetcher{
		binary:    binary,
		outputDir: outputDir,
		logger:    logger,
	}
}

func (f *CommandFetcher) Fetch(ctx context.Context, url string) (string, error) {
	outputPath := filepath.Join(f.outputDir, uuid.New().String()+".mp4")

	args := []string{
		"--no-playlist",
		"-f", "bestvideo+bestaudio/best",
		"--merge-output-format", "mp4",
		"-o", outputPath,
		url,
	}

	f.logger.Info("Starting fetch",
		zap.String("url", url),
		zap.String("output", outputPath),
	)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, f.binary, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("fetch timed out: %w", ctx.Err())
		}
		if msg := firstLine(stderr.String()); msg != "" {
			return "", fmt.Errorf("fetch failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("fetch failed: %w", err)
	}

	f.logger.Info("Fetch completed",
		zap.String("url", url),
		zap.String("output", outputPath),
	)

	return outputPath, nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}
