package settings

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Top-level section names of the configuration document.
const (
	SectionTrading   = "trading"
	SectionEvolution = "evolution"
	SectionRisk      = "risk"
)

// RawConfig is the unvalidated configuration document as decoded from JSON.
// Numbers are float64, nested objects are map[string]any.
type RawConfig map[string]any

// ParseRaw decodes a JSON document whose top level must be an object.
func ParseRaw(data []byte) (RawConfig, error) {
	var raw RawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse JSON: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("parse JSON: top level must be an object")
	}
	return raw, nil
}

// Encode renders the document as indented JSON followed by a newline.
func (r RawConfig) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Clone returns a deep copy of the document.
func (r RawConfig) Clone() RawConfig {
	if r == nil {
		return nil
	}
	out := make(RawConfig, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Lookup resolves a dotted path such as "trading.symbol".
func (r RawConfig) Lookup(path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var current any = map[string]any(r)
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return cloneValue(current), true
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, inner := range typed {
			out[k] = cloneValue(inner)
		}
		return out
	case RawConfig:
		return map[string]any(typed.Clone())
	case []any:
		out := make([]any, len(typed))
		for i, inner := range typed {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}

// toRaw converts a typed value into its JSON-decoded generic form so that
// defaults and file contents share the same representation.
func toRaw(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("settings: marshal %T: %v", v, err))
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("settings: unmarshal %T: %v", v, err))
	}
	return out
}
