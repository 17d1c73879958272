package config

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// hclSettings mirrors fileConfig. Metadata stays an expression because gohcl
// cannot decode arbitrary values into a Go map.
type hclSettings struct {
	Store        *string        `hcl:"store,optional"`
	Key          *string        `hcl:"key,optional"`
	PollInterval *string        `hcl:"poll_interval,optional"`
	Shape        *string        `hcl:"shape,optional"`
	Drift        *string        `hcl:"drift,optional"`
	Bounds       *string        `hcl:"bounds,optional"`
	FPS          *int           `hcl:"fps,optional"`
	Duration     *string        `hcl:"duration,optional"`
	MetricsAddr  *string        `hcl:"metrics_addr,optional"`
	LogLevel     *string        `hcl:"log_level,optional"`
	LogFormat    *string        `hcl:"log_format,optional"`
	Metadata     hcl.Expression `hcl:"metadata,optional"`
}

func parseHCL(filename string, data []byte) (*fileConfig, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, diags
	}

	var s hclSettings
	if diags := gohcl.DecodeBody(file.Body, nil, &s); diags.HasErrors() {
		return nil, diags
	}

	meta, err := decodeHCLMetadata(s.Metadata)
	if err != nil {
		return nil, err
	}
	return &fileConfig{
		Store:        s.Store,
		Key:          s.Key,
		PollInterval: s.PollInterval,
		Shape:        s.Shape,
		Drift:        s.Drift,
		Bounds:       s.Bounds,
		FPS:          s.FPS,
		Duration:     s.Duration,
		MetricsAddr:  s.MetricsAddr,
		LogLevel:     s.LogLevel,
		LogFormat:    s.LogFormat,
		Metadata:     meta,
	}, nil
}

// decodeHCLMetadata evaluates the metadata expression and converts it to
// plain Go values through its JSON form.
func decodeHCLMetadata(expr hcl.Expression) (map[string]any, error) {
	if expr == nil {
		return nil, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("metadata: expected an object, got %s", ty.FriendlyName())
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("metadata: value is not known")
	}

	data, err := ctyjson.Marshal(val, ty)
	if err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("metadata: %w", err)
	}
	return out, nil
}
