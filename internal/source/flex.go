package source

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// WordPress ACF fields are loosely typed: an empty field comes back as
// false, "" or null, and numeric ids occasionally as strings. The types below
// absorb those shapes instead of failing the whole decode.

// FlexInt is an integer field that may be absent or of the wrong type.
// Valid is true only for JSON integers.
type FlexInt struct {
	Value int
	Valid bool
	Raw   string
}

// Int builds a valid FlexInt.
func Int(v int) FlexInt {
	return FlexInt{Value: v, Valid: true, Raw: strconv.Itoa(v)}
}

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	*f = FlexInt{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			f.Raw = s
		}
		return nil
	}
	f.Raw = string(data)
	n, err := strconv.Atoi(string(data))
	if err == nil {
		f.Value = n
		f.Valid = true
	}
	return nil
}

func (f FlexInt) MarshalJSON() ([]byte, error) {
	if f.Valid {
		return []byte(strconv.Itoa(f.Value)), nil
	}
	if f.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(f.Raw)
}

// String renders the raw value, or "" when absent.
func (f FlexInt) String() string { return f.Raw }

// Text is a string field that tolerates false, null and numbers.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")),
		bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("true")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case data[0] == '[' || data[0] == '{':
		*t = ""
	default:
		*t = Text(string(data))
	}
	return nil
}

func (t Text) String() string { return string(t) }

// Blank reports whether the text is empty once whitespace is trimmed.
func (t Text) Blank() bool { return strings.TrimSpace(string(t)) == "" }

// List is a JSON array that decodes to empty when upstream sends anything
// other than an array.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		*l = nil
		return nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	*l = items
	return nil
}

// Rendered is the WordPress {"rendered": "..."} wrapper.
type Rendered struct {
	Rendered Text `json:"rendered"`
}
