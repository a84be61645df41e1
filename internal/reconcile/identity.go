package reconcile

import (
	"encoding/json"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/rowmap/internal/normalize"
	"github.com/roach88/rowmap/internal/record"
)

// identityTimeLayout renders time values so that a time read back by the
// driver matches the same instant written as SQL datetime text.
const identityTimeLayout = "2006-01-02 15:04:05"

// Identity returns the canonical text of r's projection onto keys.
//
// Keys are sorted by name, so neither the order of keys nor the field order of
// r affects the result. Scalars compare by their text form (1, int64(1),
// 1.0 and "1" are the same identity; true is "1"), strings are NFC
// normalized, nil is distinct from every scalar, and composites compare by
// their JSON encoding.
func Identity(r *record.Record, keys []string) string {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var b strings.Builder
	b.WriteByte('{')
	for i, k := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		b.WriteString(canonicalValue(r.Value(k)))
	}
	b.WriteByte('}')
	return b.String()
}

func canonicalValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case time.Time:
		return strconv.Quote(t.UTC().Format(identityTimeLayout))
	case *time.Time:
		if t == nil {
			return "null"
		}
		return strconv.Quote(t.UTC().Format(identityTimeLayout))
	}

	if !normalize.IsComposite(v) {
		if s, err := normalize.ToString(v); err == nil {
			return strconv.Quote(norm.NFC.String(s))
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		// Unencodable values fall back to the encoder's error text.
		return strconv.Quote("!" + err.Error())
	}
	return string(data)
}
