package katapult

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// importedKey is the wrapper key Katapult puts on imported attribute values.
const importedKey = "-Imported"

// AttrValue is one Katapult attribute value. Exports wrap values as
// {"-Imported": v} or {<attributeId>: v}; older exports carry bare scalars.
// Accessors express intent instead of raw nested-map indexing.
type AttrValue struct {
	scalar any
	object map[string]any
}

// UnmarshalJSON accepts both the wrapped-object and bare-scalar encodings.
func (a *AttrValue) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(data, &a.object); err != nil {
			return eris.Wrap(err, "katapult: parse attribute object")
		}
		return nil
	}
	if err := json.Unmarshal(data, &a.scalar); err != nil {
		return eris.Wrap(err, "katapult: parse attribute value")
	}
	return nil
}

// Imported returns the "-Imported" wrapped value, falling back to the single
// value and then to a bare scalar.
func (a *AttrValue) Imported() (any, bool) {
	if a == nil {
		return nil, false
	}
	if a.object != nil {
		if v, ok := a.object[importedKey]; ok && v != nil {
			return v, true
		}
		return a.SingleValue()
	}
	if a.scalar != nil {
		return a.scalar, true
	}
	return nil, false
}

// SingleValue returns the sole wrapped value of an attribute keyed by an
// opaque attribute id. With multiple entries the smallest key wins so the
// result is deterministic.
func (a *AttrValue) SingleValue() (any, bool) {
	if a == nil {
		return nil, false
	}
	if a.object == nil {
		if a.scalar != nil {
			return a.scalar, true
		}
		return nil, false
	}
	keys := make([]string, 0, len(a.object))
	for k := range a.object {
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return nil, false
	}
	sort.Strings(keys)
	v := a.object[keys[0]]
	return v, v != nil
}

// Value returns the wrapped value under an explicit key, such as
// "button_added" on node_type attributes.
func (a *AttrValue) Value(key string) (any, bool) {
	if a == nil || a.object == nil {
		return nil, false
	}
	v, ok := a.object[key]
	return v, ok && v != nil
}

// Entries returns the raw key/value pairs, used for mappings like
// measured_attachments where every key is data.
func (a *AttrValue) Entries() map[string]any {
	if a == nil {
		return nil
	}
	return a.object
}

// ImportedString returns the imported value rendered as a string.
func (a *AttrValue) ImportedString() (string, bool) {
	v, ok := a.Imported()
	if !ok {
		return "", false
	}
	return stringify(v)
}

// ImportedFloat returns the imported value parsed as a float. String values
// may carry a trailing percent sign.
func (a *AttrValue) ImportedFloat() (float64, bool) {
	v, ok := a.Imported()
	if !ok {
		return 0, false
	}
	return floatify(v)
}

// SingleFloat returns the single wrapped value parsed as a float.
func (a *AttrValue) SingleFloat() (float64, bool) {
	v, ok := a.SingleValue()
	if !ok {
		return 0, false
	}
	return floatify(v)
}

func stringify(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprintf("%v", v), v != nil
	}
}

func floatify(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		s := strings.TrimSuffix(strings.TrimSpace(t), "%")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
