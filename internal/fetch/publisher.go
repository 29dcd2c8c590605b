package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"subgen/internal/config"
	"subgen/internal/logging"
	"subgen/internal/services"
)

// Publisher pushes finished subtitle files to the IPFS node and optionally
// asks a remote pinning endpoint to keep them.
type Publisher struct {
	apiURL       string
	remotePin    bool
	remotePinURL string
	client       *http.Client
	logger       *slog.Logger
}

// NewPublisher builds a Publisher from the IPFS and workflow configuration.
func NewPublisher(ipfs config.IPFS, workflow config.Workflow, logger *slog.Logger) *Publisher {
	return &Publisher{
		apiURL:       strings.TrimSuffix(ipfs.APIURL, "/"),
		remotePin:    workflow.RemotePin,
		remotePinURL: strings.TrimSuffix(workflow.RemotePinURL, "/"),
		client:       &http.Client{Timeout: 2 * time.Minute},
		logger:       logging.WithComponent(logger, "publish"),
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func (p *Publisher) WithHTTPClient(client *http.Client) { p.client = client }

type addResponse struct {
	Hash string `json:"Hash"`
}

// Add uploads the file to the node's /api/v0/add endpoint and returns the
// resulting CID. The node pins what it adds.
func (p *Publisher) Add(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "publish", "add", "open artifact", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "publish", "add", "build form", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", services.Wrap(services.ErrTransient, "publish", "add", "read artifact", err)
	}
	if err := writer.Close(); err != nil {
		return "", services.Wrap(services.ErrTransient, "publish", "add", "finish form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL+"/api/v0/add?pin=true", &body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "publish", "add", "build request", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "publish", "add", "node unreachable", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", services.Wrap(services.ErrTransient, "publish", "add", fmt.Sprintf("node returned %s", resp.Status), nil)
	}

	var parsed addResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", services.Wrap(services.ErrTransient, "publish", "add", "decode response", err)
	}
	if parsed.Hash == "" {
		return "", services.Wrap(services.ErrTransient, "publish", "add", "node returned no hash", nil)
	}

	if p.remotePin {
		p.pinRemote(ctx, parsed.Hash)
	}
	return parsed.Hash, nil
}

// pinRemote is best effort; the local node already pinned the content.
func (p *Publisher) pinRemote(ctx context.Context, cid string) {
	endpoint := p.remotePinURL + "?arg=" + url.QueryEscape(cid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		p.logger.Warn("remote pin request build failed", logging.String("cid", cid), logging.Error(err))
		return
	}
	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("remote pin failed", logging.String("cid", cid), logging.Error(err))
		return
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("remote pin rejected",
			logging.String("cid", cid),
			logging.String("status", resp.Status),
		)
	}
}
