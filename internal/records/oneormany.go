package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// OneOrMany holds a JSON value that may arrive either as a single object or as
// an array of objects. It is normalized into a slice at decode time so no
// downstream code has to branch on the shape the model returned.
type OneOrMany[T any] struct {
	items []T
}

// Items returns the canonical slice of decoded values.
func (o OneOrMany[T]) Items() []T { return o.items }

// UnmarshalJSON accepts an object, an array, or null.
func (o *OneOrMany[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		o.items = nil
		return nil
	case trimmed[0] == '[':
		var many []T
		if err := json.Unmarshal(trimmed, &many); err != nil {
			return err
		}
		o.items = many
		return nil
	default:
		var one T
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return err
		}
		o.items = []T{one}
		return nil
	}
}

// MarshalJSON always emits the canonical array form.
func (o OneOrMany[T]) MarshalJSON() ([]byte, error) {
	if o.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(o.items)
}

// codeRecordSchema mirrors the structured output format requested from the model.
var codeRecordSchema = map[string]any{
	"type":     "object",
	"required": []any{"code"},
	"properties": map[string]any{
		"code":             map[string]any{"type": "string", "minLength": 1},
		"code_description": map[string]any{"type": []any{"string", "null"}},
		"excerpt":          map[string]any{"type": []any{"string", "null"}},
		"speaker":          map[string]any{"type": []any{"string", "null"}},
		"source":           map[string]any{"type": []any{"string", "null"}},
	},
}

// ParseCodeRecords decodes raw model output into code records. The output may
// be a single object, an array of objects, or an object wrapping the array under
// one key (for example {"codes": [...]}); markdown code fences are stripped.
// Every object is validated against the code record schema and a violation is
// reported as an InputError naming the offending element.
func ParseCodeRecords(raw []byte) ([]CodeRecord, error) {
	payload := []byte(stripFences(string(raw)))
	if len(bytes.TrimSpace(payload)) == 0 {
		return nil, &InputError{Op: "parse code records", Reason: "empty model output"}
	}

	payload = unwrapSingleKey(payload)

	var elems OneOrMany[json.RawMessage]
	if err := json.Unmarshal(payload, &elems); err != nil {
		return nil, &InputError{Op: "parse code records", Reason: fmt.Sprintf("not JSON: %v", err)}
	}

	schema := gojsonschema.NewGoLoader(codeRecordSchema)
	out := make([]CodeRecord, 0, len(elems.Items()))
	for i, elem := range elems.Items() {
		result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(elem))
		if err != nil {
			return nil, &InputError{Op: "parse code records", Key: fmt.Sprintf("[%d]", i), Reason: fmt.Sprintf("schema validation error: %v", err)}
		}
		if !result.Valid() {
			var details []string
			for _, desc := range result.Errors() {
				details = append(details, desc.String())
			}
			return nil, &InputError{Op: "parse code records", Key: fmt.Sprintf("[%d]", i), Reason: strings.Join(details, "; ")}
		}

		var rec struct {
			Code            string  `json:"code"`
			CodeDescription *string `json:"code_description"`
			Excerpt         *string `json:"excerpt"`
			Speaker         *string `json:"speaker"`
			Source          *string `json:"source"`
		}
		if err := json.Unmarshal(elem, &rec); err != nil {
			return nil, &InputError{Op: "parse code records", Key: fmt.Sprintf("[%d]", i), Reason: err.Error()}
		}
		out = append(out, CodeRecord{
			Code:            rec.Code,
			CodeDescription: deref(rec.CodeDescription),
			Excerpt:         deref(rec.Excerpt),
			Speaker:         deref(rec.Speaker),
			Source:          deref(rec.Source),
		})
	}
	return out, nil
}

// ParseRows decodes a JSON object or array of objects into generic rows.
func ParseRows(raw []byte) (Rows, error) {
	var elems OneOrMany[Row]
	if err := json.Unmarshal(unwrapSingleKey([]byte(stripFences(string(raw)))), &elems); err != nil {
		return nil, &InputError{Op: "parse rows", Reason: fmt.Sprintf("expected a JSON object or array of objects: %v", err)}
	}
	return Rows(elems.Items()), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		trimmed = trimmed[nl+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

// unwrapSingleKey returns the inner array when payload is an object with
// exactly one key whose value is an array; otherwise payload is returned as is.
func unwrapSingleKey(payload []byte) []byte {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil || len(obj) != 1 {
		return trimmed
	}
	for _, v := range obj {
		inner := bytes.TrimSpace(v)
		if len(inner) > 0 && inner[0] == '[' {
			return inner
		}
	}
	return trimmed
}
