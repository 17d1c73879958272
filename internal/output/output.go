package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mj1618/winsync/internal/model"
	"gopkg.in/yaml.v3"
)

// Format represents the output format.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// OutputFormat is the current output format, set by the root command's --format flag.
var OutputFormat Format = FormatYAML

// PrettyOutput enables pretty-printing for JSON output.
var PrettyOutput bool

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatYAML:
		return FormatYAML, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("invalid format %q: must be yaml or json", s)
	}
}

// ListResult is the output of the `list` command.
type ListResult struct {
	Key     string               `yaml:"key"     json:"key"`
	TS      int64                `yaml:"ts"      json:"ts"`
	Count   int                  `yaml:"count"   json:"count"`
	Status  string               `yaml:"status"  json:"status"`
	Windows []model.WindowRecord `yaml:"windows" json:"windows"`
}

// WaitResult is the output of the `wait` command.
type WaitResult struct {
	OK        bool                `yaml:"ok"                  json:"ok"`
	Elapsed   string              `yaml:"elapsed"             json:"elapsed"`
	Condition string              `yaml:"condition"           json:"condition"`
	Count     int                 `yaml:"count"               json:"count"`
	Window    *model.WindowRecord `yaml:"window,omitempty"    json:"window,omitempty"`
}

// ClearResult is the output of the `clear` command.
type ClearResult struct {
	OK      bool   `yaml:"ok"      json:"ok"`
	Store   string `yaml:"store"   json:"store"`
	Removed int    `yaml:"removed" json:"removed"`
}

// LayoutResult is the output of the `layout` command.
type LayoutResult struct {
	OK      bool   `yaml:"ok"      json:"ok"`
	Path    string `yaml:"path"    json:"path"`
	Windows int    `yaml:"windows" json:"windows"`
	Width   int    `yaml:"width"   json:"width"`
	Height  int    `yaml:"height"  json:"height"`
}

// Print serializes v to stdout in the current output format.
func Print(v interface{}) error {
	return Fprint(os.Stdout, v)
}

// Fprint serializes v to w in the current output format.
func Fprint(w io.Writer, v interface{}) error {
	switch OutputFormat {
	case FormatJSON:
		return WriteJSON(w, v, PrettyOutput)
	case FormatYAML:
		return WriteYAML(w, v)
	default:
		return fmt.Errorf("unsupported output format: %s", OutputFormat)
	}
}

// WriteJSON serializes v to w as JSON. If pretty is true, uses indentation;
// otherwise single-line.
func WriteJSON(w io.Writer, v interface{}, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("json encode: %w", err)
	}
	return nil
}

// WriteYAML serializes v to w as YAML.
func WriteYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("yaml encode: %w", err)
	}
	return enc.Close()
}
