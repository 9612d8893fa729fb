// Package report writes the per-run report of loaded, sent and failed orders.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jogardn/order-forwarder/pkg/models"
	"github.com/sirupsen/logrus"
)

type Format string

const (
	FormatHTML    Format = "html"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatHTML, FormatJSON, FormatSummary:
		return f, nil
	case "":
		return FormatHTML, nil
	default:
		return "", fmt.Errorf("unsupported report format: %s", s)
	}
}

func (f Format) extension() string {
	if f == FormatSummary {
		return "txt"
	}
	return string(f)
}

type jsonReport struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	Statistics      Statistics        `json:"statistics"`
	Recommendations []string          `json:"recommendations"`
	Result          *models.RunResult `json:"result"`
}

type Generator struct {
	dir    string
	format Format
	now    func() time.Time
	logger *logrus.Logger
}

func NewGenerator(dir string, format Format, logger *logrus.Logger) *Generator {
	if dir == "" {
		dir = "."
	}
	if format == "" {
		format = FormatHTML
	}
	return &Generator{
		dir:    dir,
		format: format,
		now:    time.Now,
		logger: logger,
	}
}

// Render produces the report body without touching the filesystem.
func (g *Generator) Render(result *models.RunResult, generatedAt time.Time) ([]byte, error) {
	stats := Analyze(result)

	switch g.format {
	case FormatJSON:
		return json.MarshalIndent(jsonReport{
			GeneratedAt:     generatedAt.UTC(),
			Statistics:      stats,
			Recommendations: recommendations(stats),
			Result:          result,
		}, "", "  ")
	case FormatSummary:
		return summaryReport(result, stats, generatedAt.UTC()), nil
	case FormatHTML:
		var buf bytes.Buffer
		if err := renderHTML(&buf, result, stats, generatedAt); err != nil {
			return nil, fmt.Errorf("failed to render html report: %w", err)
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported report format: %s", g.format)
	}
}

// Generate writes report_<UTC timestamp>.<ext> and returns its path.
func (g *Generator) Generate(result *models.RunResult) (string, error) {
	generatedAt := g.now().UTC()

	data, err := g.Render(result, generatedAt)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	name := fmt.Sprintf("report_%s.%s", generatedAt.Format("2006-01-02T15-04-05"), g.format.extension())
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"path":   path,
		"format": g.format,
		"bytes":  len(data),
	}).Info("Report written")

	return path, nil
}
