// ABOUTME: Dataset export in JSON, CSV and YAML.
// ABOUTME: Shared by the generate command and the /api/leads download.

package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/2389/leadscore/internal/leads"
)

// Format is an export encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// Formats lists the supported encodings.
var Formats = []Format{FormatJSON, FormatCSV, FormatYAML}

// FormatNames lists the supported formats for help and error text.
func FormatNames() string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// ParseFormat accepts a format name case-insensitively; "yml" is an alias.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q (want %s)", leads.ErrInvalidConfiguration, s, FormatNames())
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatYAML:
		return "application/yaml"
	default:
		return "application/json"
	}
}

// CSVHeader is the column order of CSV exports.
var CSVHeader = []string{
	"name", "email", "type", "sources", "bounce", "last_updated_days",
	"verified_domain", "social_presence", "source_confidence", "score",
}

// Write encodes ds to w.
func Write(w io.Writer, f Format, ds *leads.Dataset) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, ds.Records())
	case FormatYAML:
		return writeYAML(w, ds)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(ds)
	}
	return fmt.Errorf("%w: unknown export format %q", leads.ErrInvalidConfiguration, f)
}

func writeCSV(w io.Writer, records []leads.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, l := range records {
		bounce := ""
		if l.Bounce != leads.BounceUnknown {
			bounce = l.Bounce.String()
		}
		row := []string{
			l.Name,
			l.Email,
			string(l.Type),
			strconv.Itoa(l.Sources),
			bounce,
			strconv.Itoa(l.LastUpdatedDays),
			flag(l.VerifiedDomain),
			flag(l.SocialPresence),
			strconv.FormatFloat(l.SourceConfidence, 'f', -1, 64),
			strconv.FormatFloat(l.Score, 'f', 2, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type yamlDataset struct {
	Session     string       `yaml:"session,omitempty"`
	Seed        int64        `yaml:"seed"`
	Count       int          `yaml:"count"`
	GeneratedAt time.Time    `yaml:"generated_at"`
	Records     []leads.Lead `yaml:"records"`
}

func writeYAML(w io.Writer, ds *leads.Dataset) error {
	key := ds.Key()
	records := ds.Records()
	if records == nil {
		records = []leads.Lead{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDataset{
		Session:     key.Session,
		Seed:        key.Seed,
		Count:       key.Count,
		GeneratedAt: ds.GeneratedAt(),
		Records:     records,
	}); err != nil {
		return err
	}
	return enc.Close()
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
