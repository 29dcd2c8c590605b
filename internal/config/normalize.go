package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Normalize expands paths, trims user input, and parses derived fields.
// It must run before Validate.
func (c *Config) Normalize() error {
	var err error
	for _, field := range []*string{
		&c.Paths.WorkDir,
		&c.Paths.SubtitleDir,
		&c.Paths.LogDir,
		&c.Cache.Dir,
	} {
		if *field, err = expandPath(*field); err != nil {
			return err
		}
	}

	c.Mongo.URI = strings.TrimSpace(c.Mongo.URI)
	c.Mongo.Database = strings.TrimSpace(c.Mongo.Database)
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Workflow.ProcessOnly = strings.TrimSpace(c.Workflow.ProcessOnly)
	c.Workflow.RemotePinURL = strings.TrimSpace(c.Workflow.RemotePinURL)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))

	for i := range c.Languages {
		c.Languages[i].Code = strings.ToLower(strings.TrimSpace(c.Languages[i].Code))
	}

	gateways := make([]string, 0, len(c.IPFS.Gateways))
	for _, gw := range c.IPFS.Gateways {
		gw = strings.TrimSpace(gw)
		if gw == "" {
			continue
		}
		if !strings.HasSuffix(gw, "/") {
			gw += "/"
		}
		gateways = append(gateways, gw)
	}
	c.IPFS.Gateways = gateways

	if start := strings.TrimSpace(c.Workflow.StartDate); start != "" {
		parsed, parseErr := time.Parse("2006-01-02", start)
		if parseErr != nil {
			return fmt.Errorf("workflow.start_date: expected YYYY-MM-DD, got %q", start)
		}
		c.startDate = parsed.UTC()
	}

	return nil
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		return filepath.Join(home, trimmed[2:]), nil
	}
	return filepath.Clean(trimmed), nil
}
