package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// The provider is loose with scalar types: numbers arrive as strings, dates
// as epoch numbers, lists as comma separated text. The types below accept any
// of those shapes and never fail decoding; unusable values collapse to zero.

var jsonNull = []byte("null")

// Timestamp keeps the raw provider value (ISO string, date, or epoch number).
// Parsing is left to the consumer so that bad values can fail closed there.
type Timestamp string

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		*t = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*t = ""
			return nil
		}
		*t = Timestamp(strings.TrimSpace(s))
		return nil
	}
	if data[0] == '-' || (data[0] >= '0' && data[0] <= '9') {
		*t = Timestamp(data)
		return nil
	}
	*t = ""
	return nil
}

// Amount is a monetary value. Null, non-numeric and non-finite input is 0.
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount(parseLooseFloat(data))
	return nil
}

// Count is a non-negative integer counter. Anything unusable is 0.
type Count int

func (c *Count) UnmarshalJSON(data []byte) error {
	f := parseLooseFloat(data)
	if f < 0 {
		f = 0
	}
	*c = Count(int(f))
	return nil
}

// StringList accepts a JSON array of strings or a single comma separated
// string. Non-string array members are skipped.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*l = nil
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil
		}
		for _, item := range raw {
			var s string
			if err := json.Unmarshal(item, &s); err != nil {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				*l = append(*l, s)
			}
		}
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				*l = append(*l, part)
			}
		}
	}
	return nil
}

func parseLooseFloat(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, jsonNull) {
		return 0
	}

	text := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &text); err != nil {
			return 0
		}
		text = strings.TrimSpace(text)
	}

	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
