package config

import (
	"errors"
	"fmt"
	"strings"

	"subgen/internal/language"
)

// Validate checks the configuration for values the process cannot run with.
func (c *Config) Validate() error {
	var problems []string

	if c.Mongo.URI == "" {
		problems = append(problems, "mongo.uri is required")
	}
	if c.Mongo.Database == "" {
		problems = append(problems, "mongo.database is required")
	}
	for name, value := range map[string]string{
		"mongo.collections.legacy":            c.Mongo.Collections.Legacy,
		"mongo.collections.embed":             c.Mongo.Collections.Embed,
		"mongo.collections.audio":             c.Mongo.Collections.Audio,
		"mongo.collections.progress":          c.Mongo.Collections.Progress,
		"mongo.collections.priority":          c.Mongo.Collections.Priority,
		"mongo.collections.status":            c.Mongo.Collections.Status,
		"mongo.collections.blacklist":         c.Mongo.Collections.Blacklist,
		"mongo.collections.blacklist_authors": c.Mongo.Collections.BlacklistAuthors,
	} {
		if strings.TrimSpace(value) == "" {
			problems = append(problems, name+" is required")
		}
	}

	if len(c.Languages) == 0 {
		problems = append(problems, "at least one target language is required")
	}
	seen := map[string]struct{}{}
	for _, lang := range c.Languages {
		if lang.Code == "" {
			problems = append(problems, "languages: empty code")
			continue
		}
		if !language.IsSupported(lang.Code) {
			problems = append(problems, fmt.Sprintf("languages: unsupported code %q", lang.Code))
		}
		if _, dup := seen[lang.Code]; dup {
			problems = append(problems, fmt.Sprintf("languages: duplicate code %q", lang.Code))
		}
		seen[lang.Code] = struct{}{}
		if lang.MaxDurationMinutes < 0 {
			problems = append(problems, fmt.Sprintf("languages: negative max_duration_minutes for %q", lang.Code))
		}
	}

	if len(c.IPFS.Gateways) == 0 {
		problems = append(problems, "ipfs.gateways must list at least one gateway")
	}
	if c.IPFS.DownloadTimeoutSeconds <= 0 {
		problems = append(problems, "ipfs.download_timeout must be positive")
	}
	if c.IPFS.FFmpegTimeoutSeconds <= 0 {
		problems = append(problems, "ipfs.ffmpeg_timeout must be positive")
	}

	if c.Workflow.PollIntervalSeconds <= 0 {
		problems = append(problems, "workflow.poll_interval must be positive")
	}
	if c.Workflow.ItemDelaySeconds < 0 {
		problems = append(problems, "workflow.item_delay must not be negative")
	}
	if only := c.Workflow.ProcessOnly; only != "" && !strings.Contains(only, "/") {
		problems = append(problems, "workflow.process_only must be owner/permlink")
	}
	if c.Workflow.RemotePin && c.Workflow.RemotePinURL == "" {
		problems = append(problems, "workflow.remote_pin_url is required when remote_pin is enabled")
	}
	if c.Workflow.RemotePin && !c.Workflow.PinSubtitles {
		problems = append(problems, "workflow.remote_pin requires pin_subtitles")
	}

	if c.Cache.Enabled {
		if strings.TrimSpace(c.Cache.Dir) == "" {
			problems = append(problems, "cache.dir is required when cache is enabled")
		}
		if c.Cache.MaxGiB <= 0 {
			problems = append(problems, "cache.max_gib must be positive")
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}
