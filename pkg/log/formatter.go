package log

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// TextFormatter renders "time LEVEL message key=value ..." with sorted keys.
type TextFormatter struct {
	// NoTimestamp omits the leading timestamp, mostly for tests.
	NoTimestamp bool
	// ShowCaller appends caller=file:line.
	ShowCaller bool
}

func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	var b bytes.Buffer
	if !f.NoTimestamp {
		b.WriteString(entry.Timestamp.Format(timeLayout))
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s %s", entry.Level.String(), entry.Message)

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(textValue(entry.Fields[k]))
	}
	if f.ShowCaller && entry.Caller != "" {
		b.WriteString(" caller=")
		b.WriteString(entry.Caller)
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func textValue(v interface{}) string {
	var s string
	switch t := v.(type) {
	case nil:
		return "<nil>"
	case string:
		s = t
	case error:
		s = t.Error()
	case time.Time:
		return t.Format(timeLayout)
	default:
		s = fmt.Sprint(t)
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return fmt.Sprintf("%q", s)
	}
	return s
}

// JSONFormatter renders one JSON object per line. Fields are merged at the
// top level next to "time", "level" and "msg".
type JSONFormatter struct {
	ShowCaller bool
}

func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	m := make(map[string]interface{}, len(entry.Fields)+4)
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		m[k] = v
	}
	m["time"] = entry.Timestamp.Format(timeLayout)
	m["level"] = strings.ToLower(entry.Level.String())
	m["msg"] = entry.Message
	if f.ShowCaller && entry.Caller != "" {
		m["caller"] = entry.Caller
	}
	out, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
