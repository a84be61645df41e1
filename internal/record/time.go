package record

import (
	"fmt"
	"strings"
	"time"
)

// TimeParser converts a raw field value into a time.
type TimeParser func(v any) (time.Time, error)

// timeLayouts are tried in order by ParseTime.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTime is the default TimeParser. It accepts time.Time, *time.Time,
// integer Unix epochs and strings in the common SQL and RFC 3339 layouts.
func ParseTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case *time.Time:
		if t == nil {
			return time.Time{}, fmt.Errorf("parse time: nil pointer")
		}
		return *t, nil
	case int:
		return time.Unix(int64(t), 0).UTC(), nil
	case int64:
		return time.Unix(t, 0).UTC(), nil
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, nil
			}
		}
		return time.Time{}, fmt.Errorf("parse time: unrecognized layout %q", t)
	default:
		return time.Time{}, fmt.Errorf("parse time: unsupported type %T", v)
	}
}

// WithTimeParser overrides the parser used by date, datetime and timestamp
// casts.
func (r *Record) WithTimeParser(p TimeParser) *Record {
	r.parse = p
	return r
}

// ParseTime parses v with the record's parser, falling back to ParseTime.
func (r *Record) ParseTime(v any) (time.Time, error) {
	if r.parse != nil {
		return r.parse(v)
	}
	return ParseTime(v)
}
