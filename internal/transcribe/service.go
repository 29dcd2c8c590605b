package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"subgen/internal/config"
	"subgen/internal/language"
	"subgen/internal/services"
)

// Segment is one timed span of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Result is a full transcription.
type Result struct {
	// Language is the ISO 639-1 code the recognizer detected (or was forced to).
	Language string
	Segments []Segment
}

// Text concatenates the segment texts.
func (r Result) Text() string {
	parts := make([]string, 0, len(r.Segments))
	for _, seg := range r.Segments {
		if text := strings.TrimSpace(seg.Text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " ")
}

// whisperPayload is the recognizer's JSON output structure.
type whisperPayload struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
}

// Service wraps the recognizer CLI.
type Service struct {
	cfg           config.Whisper
	commandRunner func(ctx context.Context, name string, args ...string) error
}

// NewService creates a recognizer service with the given configuration.
func NewService(cfg config.Whisper) *Service {
	return &Service{cfg: cfg}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.commandRunner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string { return s.cfg.Model }

// Transcribe runs the recognizer over source, writing its output under
// outputDir. hotwords, when present, seed the initial prompt so domain terms
// are recognized. If the detected language is not in the supported set the
// transcription is re-run forced to English.
func (s *Service) Transcribe(ctx context.Context, source, outputDir string, hotwords []string) (Result, error) {
	var result Result
	if source == "" {
		return result, services.Wrap(services.ErrValidation, "transcribe", "transcribe", "source path required", nil)
	}
	if outputDir == "" {
		outputDir = filepath.Dir(source)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return result, services.Wrap(services.ErrValidation, "transcribe", "transcribe", "ensure output dir", err)
	}

	result, err := s.runOnce(ctx, source, outputDir, hotwords, "")
	if err != nil {
		return result, err
	}
	if !language.IsSupported(result.Language) {
		result, err = s.runOnce(ctx, source, outputDir, hotwords, "en")
		if err != nil {
			return result, err
		}
		result.Language = "en"
	}
	return result, nil
}

func (s *Service) runOnce(ctx context.Context, source, outputDir string, hotwords []string, forceLang string) (Result, error) {
	var result Result

	args := s.buildArgs(source, outputDir, hotwords, forceLang)
	if err := s.run(ctx, s.cfg.Binary, args...); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "transcribe", "recognizer failed", err)
	}

	baseName := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jsonPath := filepath.Join(outputDir, baseName+".json")
	payload, err := loadPayload(jsonPath)
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcribe", "transcribe", "parse recognizer output", err)
	}
	result.Language = payload.Language
	result.Segments = payload.Segments
	if len(result.Segments) == 0 {
		return result, services.Wrap(services.ErrValidation, "transcribe", "transcribe", "recognizer produced no speech segments", nil)
	}
	return result, nil
}

func (s *Service) buildArgs(source, outputDir string, hotwords []string, forceLang string) []string {
	args := []string{
		source,
		"--model", s.cfg.Model,
		"--device", s.cfg.Device,
		"--compute_type", s.cfg.ComputeType,
		"--output_format", "json",
		"--output_dir", outputDir,
	}
	if forceLang != "" {
		args = append(args, "--language", forceLang)
	}
	if len(hotwords) > 0 {
		args = append(args, "--initial_prompt", strings.Join(hotwords, ", "))
	}
	return args
}

func (s *Service) run(ctx context.Context, name string, args ...string) error {
	if s.commandRunner != nil {
		return s.commandRunner(ctx, name, args...)
	}
	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

func loadPayload(jsonPath string) (whisperPayload, error) {
	var payload whisperPayload
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return payload, err
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("parse recognizer json: %w", err)
	}
	return payload, nil
}
