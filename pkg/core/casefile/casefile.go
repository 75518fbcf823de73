// Package casefile reads and writes valuation cases (forecast + context) as
// YAML, JSON or Hjson. JSON input is parsed leniently: strict first, then
// repaired, then as Hjson.
package casefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"

	"dcf_builder/pkg/core/model"
)

// ErrUnsupportedFormat is returned for unknown file extensions or format names.
var ErrUnsupportedFormat = errors.New("unsupported case file format")

type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatHJSON Format = "hjson"
)

// ParseFormat accepts a format name or a file extension (with or without dot).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "hjson":
		return FormatHJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Decode parses a case and checks it is structurally usable.
func Decode(data []byte, f Format) (model.BuilderState, error) {
	var state model.BuilderState
	var err error
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &state)
	case FormatJSON:
		state, err = smartParse(data)
	case FormatHJSON:
		state, err = parseHJSON(data)
	default:
		return model.BuilderState{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	if err != nil {
		return model.BuilderState{}, fmt.Errorf("decode %s case: %w", f, err)
	}
	if err := state.Check(); err != nil {
		return model.BuilderState{}, fmt.Errorf("invalid case: %w", err)
	}
	return state, nil
}

// Encode serializes a case.
func Encode(state model.BuilderState, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		return yaml.Marshal(state)
	case FormatJSON:
		return json.MarshalIndent(state, "", "  ")
	case FormatHJSON:
		// go through JSON so field names follow the json tags
		raw, err := json.Marshal(state)
		if err != nil {
			return nil, err
		}
		var generic map[string]interface{}
		if err := json.Unmarshal(raw, &generic); err != nil {
			return nil, err
		}
		return hjson.Marshal(generic)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// Load reads a case file, choosing the format by extension.
func Load(path string) (model.BuilderState, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return model.BuilderState{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return model.BuilderState{}, fmt.Errorf("read case %s: %w", path, err)
	}
	return Decode(data, f)
}

// Save writes a case file, choosing the format by extension.
func Save(path string, state model.BuilderState) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	data, err := Encode(state, f)
	if err != nil {
		return fmt.Errorf("encode case: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// smartParse tries strict JSON, then repaired JSON, then Hjson.
func smartParse(data []byte) (model.BuilderState, error) {
	var state model.BuilderState
	strictErr := decodeStrict(data, &state)
	if strictErr == nil {
		return state, nil
	}

	if repaired, err := jsonrepair.RepairJSON(string(data)); err == nil {
		state = model.BuilderState{}
		if err := decodeStrict([]byte(repaired), &state); err == nil {
			return state, nil
		}
	}

	if state, err := parseHJSON(data); err == nil {
		return state, nil
	}
	return model.BuilderState{}, strictErr
}

func decodeStrict(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// parseHJSON converts Hjson to plain JSON before decoding so the json tags
// decide field names.
func parseHJSON(data []byte) (model.BuilderState, error) {
	var generic interface{}
	if err := hjson.Unmarshal(data, &generic); err != nil {
		return model.BuilderState{}, fmt.Errorf("hjson: %w", err)
	}
	raw, err := json.Marshal(generic)
	if err != nil {
		return model.BuilderState{}, err
	}
	var state model.BuilderState
	if err := json.Unmarshal(raw, &state); err != nil {
		return model.BuilderState{}, err
	}
	return state, nil
}
