package command

import (
	"encoding/json"
	"time"

	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

// Favourite is a saved preset overriding a base category's parameters.
type Favourite struct {
	Name        string
	CommandName string
	ProgramName string

	// Groups holds the stored values keyed by parameter group.
	Groups map[string]map[string]any
}

// UnmarshalJSON decodes the vendor favourite format:
//
//	{"favouriteName": "...", "command": {"commandName": "...", "programName": "...",
//	 "parameters": {...}, "ancillaryParameters": {...}}}
func (f *Favourite) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name    string         `json:"favouriteName"`
		Command map[string]any `json:"command"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Name = raw.Name
	f.CommandName, _ = raw.Command["commandName"].(string)
	f.ProgramName, _ = raw.Command["programName"].(string)
	f.Groups = make(map[string]map[string]any)
	for key, value := range raw.Command {
		if group, ok := value.(map[string]any); ok {
			f.Groups[key] = group
		}
	}
	return nil
}

// HistoryEntry is one previously transmitted command.
type HistoryEntry struct {
	CommandName string
	Parameters  map[string]any
	Timestamp   time.Time
}

// UnmarshalJSON decodes a vendor history entry. The timestamp may sit at
// the top level or inside the command, as an ISO-8601 string or epoch
// milliseconds.
func (h *HistoryEntry) UnmarshalJSON(data []byte) error {
	var raw struct {
		Command   map[string]any `json:"command"`
		Timestamp any            `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	h.CommandName, _ = raw.Command["commandName"].(string)
	h.Parameters, _ = raw.Command["parameters"].(map[string]any)

	ts := raw.Timestamp
	if ts == nil {
		ts = raw.Command["timestamp"]
	}
	h.Timestamp = parseTimestamp(ts)
	return nil
}

func parseTimestamp(v any) time.Time {
	switch val := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z0700", "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, val); err == nil {
				return t.UTC()
			}
		}
	case float64:
		return time.UnixMilli(int64(val)).UTC()
	}
	if f, err := parameter.ParseNumber(v); err == nil && f > 0 {
		return time.UnixMilli(int64(f)).UTC()
	}
	return time.Time{}
}

// latestEntry returns the most recent entry for name. Entries with equal
// timestamps keep their list order, so an undated history resolves to its
// first match.
func latestEntry(history []HistoryEntry, name string) (HistoryEntry, bool) {
	var (
		best  HistoryEntry
		found bool
	)
	for _, entry := range history {
		if entry.CommandName != name {
			continue
		}
		if !found || entry.Timestamp.After(best.Timestamp) {
			best = entry
			found = true
		}
	}
	return best, found
}
