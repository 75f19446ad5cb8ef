package pkgcfg

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// SerializeOptions renders opts into the canonical "{k=v,k=v,...}" form, or
// "{}" for an empty table. Keys are sorted lexicographically; string values
// are quoted with '"' and '\\' escaped; numbers and booleans appear bare;
// nested tables recurse with the same rules. Two option tables that are
// equal as Go values always serialize identically regardless of
// construction order, because maps have no order and this function always
// sorts.
func SerializeOptions(opts map[string]any) string {
	if len(opts) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(serializeValue(opts[k]))
	}
	b.WriteByte('}')
	return b.String()
}

func serializeValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return quoteString(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return formatFloat(val)
	case map[string]any:
		return SerializeOptions(val)
	case []any:
		return serializeArray(val)
	default:
		return quoteString(fmt.Sprintf("%v", val))
	}
}

func serializeArray(arr []any) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range arr {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(serializeValue(v))
	}
	b.WriteByte(']')
	return b.String()
}

func formatFloat(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
