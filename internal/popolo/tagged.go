package popolo

import (
	"fmt"
	"strconv"
)

// subRecords returns the maps stored under key, skipping anything that is not
// a mapping.
func subRecords(data Record, key string) []Record {
	switch items := data[key].(type) {
	case []any:
		out := make([]Record, 0, len(items))
		for _, item := range items {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	case []Record:
		return items
	}
	return nil
}

func tagValues(data Record, t Tag, tag string) []string {
	var values []string
	for _, sub := range subRecords(data, t.List) {
		if typ, ok := sub[t.TypeKey]; ok && stringOf(typ) == tag {
			values = append(values, stringOf(sub[t.ValueKey]))
		}
	}
	return values
}

func tagValue(data Record, kind string, t Tag, tag string) (string, error) {
	values := tagValues(data, t, tag)
	switch len(values) {
	case 0:
		return "", nil
	case 1:
		return values[0], nil
	}
	return "", &MultipleFoundError{
		Kind:  kind + " " + t.List,
		Query: fmt.Sprintf("%s=%q", t.TypeKey, tag),
		Count: len(values),
	}
}

// setTagValue replaces the value of the first sub-document carrying tag, or
// appends a new one.
func setTagValue(data Record, t Tag, tag, value string) {
	for _, sub := range subRecords(data, t.List) {
		if typ, ok := sub[t.TypeKey]; ok && stringOf(typ) == tag {
			sub[t.ValueKey] = value
			return
		}
	}
	entry := map[string]any{t.TypeKey: tag, t.ValueKey: value}
	switch items := data[t.List].(type) {
	case []any:
		data[t.List] = append(items, entry)
	case []Record:
		data[t.List] = append(items, entry)
	default:
		data[t.List] = []any{entry}
	}
}

// deleteTagValue removes the first sub-document carrying tag.
func deleteTagValue(data Record, t Tag, tag string) bool {
	switch items := data[t.List].(type) {
	case []any:
		for i, item := range items {
			sub, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if typ, ok := sub[t.TypeKey]; ok && stringOf(typ) == tag {
				data[t.List] = append(items[:i:i], items[i+1:]...)
				return true
			}
		}
	case []Record:
		for i, sub := range items {
			if typ, ok := sub[t.TypeKey]; ok && stringOf(typ) == tag {
				data[t.List] = append(items[:i:i], items[i+1:]...)
				return true
			}
		}
	}
	return false
}

func stringOf(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return strconv.FormatBool(s)
	}
	return fmt.Sprint(v)
}
