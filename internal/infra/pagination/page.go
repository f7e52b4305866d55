package pagination

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
)

// collector accumulates items in arrival order, dropping ids already seen.
// Items without an id are always kept.
type collector struct {
	seen  map[string]struct{}
	items []json.RawMessage
}

func newCollector() *collector {
	return &collector{seen: make(map[string]struct{}), items: []json.RawMessage{}}
}

func (c *collector) add(items []json.RawMessage) {
	for _, item := range items {
		if id := itemID(item); id != "" {
			if _, dup := c.seen[id]; dup {
				continue
			}
			c.seen[id] = struct{}{}
		}
		c.items = append(c.items, item)
	}
}

// pageItems extracts the item array under key. A missing or null key is an
// empty page; anything other than an array is a malformed response.
func pageItems(body map[string]json.RawMessage, key string) ([]json.RawMessage, error) {
	raw, ok := body[key]
	if !ok || isNull(raw) {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &domain.TransportError{
			Message: fmt.Sprintf("malformed response: %q is not a list", key),
			Err:     err,
		}
	}
	return items, nil
}

func itemID(item json.RawMessage) string {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(item, &probe); err != nil {
		return ""
	}
	return scalarText(probe.ID)
}

func lastItemID(items []json.RawMessage) string {
	if len(items) == 0 {
		return ""
	}
	return itemID(items[len(items)-1])
}

// field looks name up at the top level first, then inside "meta".
func field(body map[string]json.RawMessage, name string) json.RawMessage {
	if raw, ok := body[name]; ok && !isNull(raw) {
		return raw
	}
	return metaField(body, name)
}

func metaField(body map[string]json.RawMessage, name string) json.RawMessage {
	raw, ok := body["meta"]
	if !ok || isNull(raw) {
		return nil
	}
	var meta map[string]json.RawMessage
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil
	}
	if v, ok := meta[name]; ok && !isNull(v) {
		return v
	}
	return nil
}

// scalarText renders a JSON string or number as text; anything else is "".
func scalarText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// intValue reads a JSON number or numeric string.
func intValue(raw json.RawMessage) (int, bool) {
	text := scalarText(raw)
	if text == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return int(f), true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
