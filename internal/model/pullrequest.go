package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// StaleThreshold is the age in days at which an open PR counts as stale.
const StaleThreshold = 7

// PullRequest is one row of a project's PR table. Columns vary by backend
// revision, so the raw fields are kept alongside the few the UI relies on.
type PullRequest struct {
	ID       string
	URL      string
	Title    string
	DaysOpen int
	Fields   map[string]any

	keys []string // field order of the JSON object, when decoded
}

type knownPRFields struct {
	ID       string `mapstructure:"id"`
	URL      string `mapstructure:"url"`
	Title    string `mapstructure:"title"`
	DaysOpen int    `mapstructure:"days_open"`
}

var knownPRKeys = []string{"id", "url", "title", "days_open"}

func (p *PullRequest) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("pull request row: %w", err)
	}
	keys, err := objectKeys(data)
	if err != nil {
		return fmt.Errorf("pull request row: %w", err)
	}

	// a known field that does not convert stays zero; the row is kept
	var known knownPRFields
	for _, k := range knownPRKeys {
		v, ok := raw[k]
		if !ok {
			continue
		}
		var one knownPRFields
		if err := mapstructure.WeakDecode(map[string]any{k: v}, &one); err != nil {
			continue
		}
		switch k {
		case "id":
			known.ID = one.ID
		case "url":
			known.URL = one.URL
		case "title":
			known.Title = one.Title
		case "days_open":
			known.DaysOpen = one.DaysOpen
		}
	}

	*p = PullRequest{
		ID:       known.ID,
		URL:      known.URL,
		Title:    known.Title,
		DaysOpen: known.DaysOpen,
		Fields:   raw,
		keys:     keys,
	}
	return nil
}

// objectKeys returns the top-level keys of a JSON object in document order.
func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (p PullRequest) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.Fields)
}

func (p PullRequest) IsStale() bool { return p.DaysOpen >= StaleThreshold }

// hiddenColumns are present in rows but never shown as table columns.
var hiddenColumns = map[string]bool{"id": true, "url": true}

// preferredColumns order rows built without a decoded key order.
var preferredColumns = []string{"number", "title", "author", "created_at", "days_open"}

// Columns returns the display columns of the table, taken from the first
// row in the backend's field order. Rows built in code have no order; they
// get the preferred columns first, then the rest alphabetically.
func Columns(rows []PullRequest) []string {
	if len(rows) == 0 {
		return nil
	}
	first := rows[0]
	if len(first.keys) > 0 {
		var cols []string
		seen := make(map[string]bool)
		for _, k := range first.keys {
			if hiddenColumns[k] || seen[k] {
				continue
			}
			seen[k] = true
			cols = append(cols, k)
		}
		return cols
	}

	fields := first.Fields
	var cols []string
	taken := make(map[string]bool)
	for _, c := range preferredColumns {
		if _, ok := fields[c]; ok {
			cols = append(cols, c)
			taken[c] = true
		}
	}
	var rest []string
	for k := range fields {
		if hiddenColumns[k] || taken[k] {
			continue
		}
		rest = append(rest, k)
	}
	sort.Strings(rest)
	return append(cols, rest...)
}

// Cell formats one field of the row for display.
func (p PullRequest) Cell(col string) string {
	v, ok := p.Fields[col]
	if !ok || v == nil {
		return "—"
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == math.Trunc(x) {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', 1, 64)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	default:
		return fmt.Sprint(x)
	}
}

// PRSummary is the backend's aggregate over a project's open PRs.
type PRSummary struct {
	TotalOpen       int     `json:"total_open_prs"`
	StaleCount      int     `json:"stale_prs"`
	AverageDaysOpen float64 `json:"average_days_open"`
	OldestDays      int     `json:"oldest_pr_days"`
}
