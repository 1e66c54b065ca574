package vectorstore

import "fmt"

// matches evaluates Filter against a document's metadata, per §4.5's
// grammar. A value is treated as list-valued for the "non-empty
// intersection" rule when it is a []string or []any; any other value
// is compared by scalar equality. An unknown key (absent from
// metadata) fails closed — a filter referencing it matches nothing.
func matches(metadata map[string]any, filter Filter) bool {
	for key, expected := range filter {
		actual, present := metadata[key]
		if !present {
			return false
		}
		if !fieldMatches(actual, expected) {
			return false
		}
	}
	return true
}

func fieldMatches(actual, expected any) bool {
	expectedList, expectedIsList := toStringSlice(expected)
	actualList, actualIsList := toStringSlice(actual)

	switch {
	case expectedIsList && actualIsList:
		return intersects(expectedList, actualList)
	case expectedIsList && !actualIsList:
		for _, e := range expectedList {
			if e == toString(actual) {
				return true
			}
		}
		return false
	case !expectedIsList && actualIsList:
		for _, a := range actualList {
			if a == toString(expected) {
				return true
			}
		}
		return false
	default:
		return toString(actual) == toString(expected)
	}
}

func intersects(a, b []string) bool {
	set := make(map[string]struct{}, len(a))
	for _, x := range a {
		set[x] = struct{}{}
	}
	for _, y := range b {
		if _, ok := set[y]; ok {
			return true
		}
	}
	return false
}

func toStringSlice(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, len(t))
		for i, x := range t {
			out[i] = toString(x)
		}
		return out, true
	default:
		return nil, false
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
