package gemini

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

const (
	objectSchema = `{"type": "object"}`

	verdictSchema = `{
  "type": "object",
  "required": ["status"],
  "properties": {
    "status": {"type": "string"},
    "accuracy_score": {"type": ["number", "string", "null"]}
  }
}`

	jobSchema = `{
  "type": "object",
  "required": ["title"],
  "properties": {
    "title": {"type": "string", "minLength": 1}
  }
}`
)

var (
	objectSchemaLoader  = gojsonschema.NewStringLoader(objectSchema)
	verdictSchemaLoader = gojsonschema.NewStringLoader(verdictSchema)
	jobSchemaLoader     = gojsonschema.NewStringLoader(jobSchema)
)

// extractJSON strips surrounding whitespace and markdown code fences.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```JSON")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// decodeObject decodes cleaned model output into target. It reports an error only when the text
// is not a JSON object or does not satisfy the schema. Fields that cannot be fitted into target
// are left at their zero value and returned as dropped.
// prepare, when set, may normalize the generic map before decoding.
func decodeObject(cleaned string, schema gojsonschema.JSONLoader, target any, prepare func(map[string]any)) (dropped []string, err error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if data == nil {
		return nil, errors.New("decode json: not an object")
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validate json: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return nil, fmt.Errorf("unexpected response shape: %s", strings.Join(details, "; "))
	}

	if prepare != nil {
		prepare(data)
	}

	return decodeFields(data, target)
}

// decodeFields decodes data into target one key at a time. Each key is tried on a scratch
// value first so a mismatched field never leaves partial data behind.
func decodeFields(data map[string]any, target any) ([]string, error) {
	targetType := reflect.TypeOf(target)
	if targetType == nil || targetType.Kind() != reflect.Pointer {
		return nil, errors.New("decode target must be a pointer")
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var dropped []string
	for _, key := range keys {
		field := map[string]any{key: data[key]}

		if err := weakDecode(field, reflect.New(targetType.Elem()).Interface()); err != nil {
			dropped = append(dropped, key)
			continue
		}
		if err := weakDecode(field, target); err != nil {
			return dropped, fmt.Errorf("decode field %s: %w", key, err)
		}
	}

	return dropped, nil
}

func weakDecode(input map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       flattenToString,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		Result:           target,
	})
	if err != nil {
		return fmt.Errorf("build decoder: %w", err)
	}
	return decoder.Decode(input)
}

// flattenToString lets free-text fields accept lists and objects: lists are joined with "; ",
// objects are kept as their JSON text.
func flattenToString(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}

	switch val := data.(type) {
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
				continue
			}
			encoded, err := json.Marshal(item)
			if err != nil {
				return data, nil
			}
			parts = append(parts, string(encoded))
		}
		return strings.Join(parts, "; "), nil
	case map[string]any:
		encoded, err := json.Marshal(val)
		if err != nil {
			return data, nil
		}
		return string(encoded), nil
	default:
		return data, nil
	}
}

// normalizeVerdict lower-cases the status, turns "85%" style scores into numbers within
// 0..100 and accepts "yes"/"no" for the profile flag.
func normalizeVerdict(data map[string]any) {
	if status, ok := data["status"].(string); ok {
		data["status"] = strings.ToLower(strings.TrimSpace(status))
	}

	if _, ok := data["accuracy_score"]; ok {
		data["accuracy_score"] = clampScore(coerceFloat(data["accuracy_score"]))
	}

	if v, ok := data["linked_profile_verified"]; ok {
		data["linked_profile_verified"] = coerceBool(v)
	}
}

// clampScore keeps an accuracy score within 0..100. Unparsable scores become 0.
func clampScore(score float64) float64 {
	switch {
	case math.IsNaN(score), score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}

func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		lower := strings.ToLower(strings.TrimSpace(val))
		return lower == "true" || lower == "yes"
	case float64:
		return val != 0
	default:
		return false
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "%"))
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
