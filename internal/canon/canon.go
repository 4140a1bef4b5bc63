// Package canon defines the canonical comparable value model used when
// deciding whether a stored attribute or document field has changed. Values
// are reduced to the JSON data model (null, bool, float64, string, ordered
// sequences, and string-keyed mappings) before comparison. Anything that
// cannot be represented in that model compares as unequal, which forces a
// safe recompute downstream instead of silently treating it as unchanged.
package canon

import (
	"encoding/json"
)

// Canonicalize reduces a value to the canonical model via a JSON round trip.
// The second return value is false if the value has no canonical form.
func Canonicalize(v any) (any, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false
	}
	return out, true
}

// Equal reports whether two values are structurally equal under the canonical
// model: exact match for scalars, ordered equality for sequences, and key-set
// plus per-key equality for mappings. Values outside the model are never
// equal, not even to themselves.
func Equal(a, b any) bool {
	ca, ok := Canonicalize(a)
	if !ok {
		return false
	}
	cb, ok := Canonicalize(b)
	if !ok {
		return false
	}
	return equalCanonical(ca, cb)
}

func equalCanonical(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for idx := range av {
			if !equalCanonical(av[idx], bv[idx]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for key, aval := range av {
			bval, present := bv[key]
			if !present || !equalCanonical(aval, bval) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
