package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"subgen/internal/config"
	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/services"
)

// Fetcher retrieves media over the configured gateway list and runs the
// ffmpeg remux for HLS sources.
type Fetcher struct {
	cfg           config.IPFS
	client        *http.Client
	logger        *slog.Logger
	ffmpegBinary  string
	ffprobeBinary string
	commandRunner func(ctx context.Context, name string, args ...string) (string, error)
}

// NewFetcher builds a Fetcher. The HTTP client timeout covers a single
// gateway attempt; the gateway list provides the retries.
func NewFetcher(cfg config.IPFS, logger *slog.Logger) *Fetcher {
	timeout := time.Duration(cfg.DownloadTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Fetcher{
		cfg:           cfg,
		client:        &http.Client{Timeout: timeout},
		logger:        logging.WithComponent(logger, "fetch"),
		ffmpegBinary:  "ffmpeg",
		ffprobeBinary: "ffprobe",
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func (f *Fetcher) WithHTTPClient(client *http.Client) { f.client = client }

// WithCommandRunner sets a custom command runner (for testing).
func (f *Fetcher) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) (string, error)) {
	f.commandRunner = runner
}

// FetchMedia materializes the item's media in workDir and returns the local
// path. Manifest-backed sources go through the ffmpeg remux; file-backed
// sources are plain gateway downloads.
func (f *Fetcher) FetchMedia(ctx context.Context, item media.Item, workDir string) (string, error) {
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", services.Wrap(services.ErrValidation, "fetch", "fetch media", "ensure work dir", err)
	}
	switch {
	case item.IsAudio():
		dest := filepath.Join(workDir, "source.m4a")
		return dest, f.Download(ctx, item.ContentRef, dest)
	case item.IsEmbed():
		dest := filepath.Join(workDir, "source.mp4")
		return dest, f.RemuxManifest(ctx, item.ContentRef, dest)
	default:
		dest := filepath.Join(workDir, "source.mp4")
		return dest, f.Download(ctx, item.ContentRef, dest)
	}
}

// Download streams /ipfs/<cid> to dest, trying each gateway in order.
func (f *Fetcher) Download(ctx context.Context, cid, dest string) error {
	var lastErr error
	for _, gateway := range f.cfg.Gateways {
		url := gatewayURL(gateway, cid)
		if err := f.downloadOne(ctx, url, dest); err != nil {
			lastErr = err
			f.logger.Warn("gateway download failed; trying next",
				logging.String("url", url),
				logging.Error(err),
			)
			continue
		}
		return nil
	}
	return services.Wrap(services.ErrTransient, "fetch", "download", "all gateways failed for "+cid, lastErr)
}

func (f *Fetcher) downloadOne(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	written, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(dest)
		return err
	}
	if written == 0 {
		os.Remove(dest)
		return fmt.Errorf("gateway returned empty body")
	}
	return nil
}

// RemuxManifest copies the HLS stream behind the manifest CID into a single
// local file. Stream copy only, no re-encode.
func (f *Fetcher) RemuxManifest(ctx context.Context, manifestCID, dest string) error {
	var lastErr error
	for _, gateway := range f.cfg.Gateways {
		manifest := gatewayURL(gateway, manifestCID) + "/manifest.m3u8"
		args := []string{
			"-y",
			"-hide_banner",
			"-loglevel", "error",
			"-i", manifest,
			"-c", "copy",
			dest,
		}
		if _, err := f.run(ctx, f.ffmpegTimeout(), f.ffmpegBinary, args...); err != nil {
			lastErr = err
			f.logger.Warn("manifest remux failed; trying next gateway",
				logging.String("url", manifest),
				logging.Error(err),
			)
			continue
		}
		return nil
	}
	return services.Wrap(services.ErrExternalTool, "fetch", "remux", "all gateways failed for "+manifestCID, lastErr)
}

// Duration probes the media duration of a local file.
func (f *Fetcher) Duration(ctx context.Context, path string) (time.Duration, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
	output, err := f.run(ctx, f.ffmpegTimeout(), f.ffprobeBinary, args...)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "fetch", "probe", "ffprobe failed", err)
	}
	seconds, err := strconv.ParseFloat(strings.TrimSpace(output), 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "fetch", "probe", "unparseable duration "+strings.TrimSpace(output), err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func (f *Fetcher) ffmpegTimeout() time.Duration {
	if f.cfg.FFmpegTimeoutSeconds > 0 {
		return time.Duration(f.cfg.FFmpegTimeoutSeconds) * time.Second
	}
	return 30 * time.Minute
}

func (f *Fetcher) run(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	if f.commandRunner != nil {
		return f.commandRunner(ctx, name, args...)
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

func gatewayURL(gateway, cid string) string {
	return strings.TrimSuffix(gateway, "/") + "/ipfs/" + cid
}
