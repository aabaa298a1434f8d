package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// Team is a participant in the tournament.
type Team struct {
	ID    string
	Title string
}

// Provider supplies the ordered list of teams for a schedule run.
type Provider interface {
	Load(ctx context.Context) ([]Team, error)
}

// LoadError reports a failure to obtain a usable team list from a source.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading teams from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Static returns a fixed, in-memory team list.
type Static struct {
	Teams []Team
}

func (s Static) Load(ctx context.Context) ([]Team, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LoadError{Source: "inline", Err: err}
	}
	out := make([]Team, len(s.Teams))
	copy(out, s.Teams)
	if err := normalize(out); err != nil {
		return nil, &LoadError{Source: "inline", Err: err}
	}
	return out, nil
}

// document is the JSON shape teams are published in:
//
//	{"teams": [{"id": 1, "title": "Liverpool"}, ...]}
type document struct {
	Teams *[]record `json:"teams"`
}

type record struct {
	ID    json.RawMessage `json:"id"`
	Title string          `json:"title"`
}

// Decode parses a JSON team document. source only labels errors.
func Decode(r io.Reader, source string) ([]Team, error) {
	var doc document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("parsing JSON: %w", err)}
	}
	if doc.Teams == nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("missing required field \"teams\"")}
	}

	out := make([]Team, 0, len(*doc.Teams))
	for i, rec := range *doc.Teams {
		id, err := parseID(rec.ID)
		if err != nil {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("team %d: %w", i+1, err)}
		}
		out = append(out, Team{ID: id, Title: rec.Title})
	}
	if err := normalize(out); err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return out, nil
}

// parseID accepts a JSON string or number. Absent and null ids yield "".
func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("invalid id: %w", err)
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("id must be a string or number, got %s", raw)
	}
	return n.String(), nil
}

// normalize trims titles, fills missing IDs and rejects lists the
// generator could not use.
func normalize(list []Team) error {
	if len(list) == 0 {
		return fmt.Errorf("no teams listed")
	}
	titles := make(map[string]int)
	ids := make(map[string]int)
	for i := range list {
		t := &list[i]
		t.Title = strings.TrimSpace(t.Title)
		if t.Title == "" {
			return fmt.Errorf("team %d: missing required field \"title\"", i+1)
		}
		if prev, ok := titles[t.Title]; ok {
			return fmt.Errorf("team %q listed twice (entries %d and %d)", t.Title, prev, i+1)
		}
		titles[t.Title] = i + 1

		if t.ID == "" {
			t.ID = DeriveID(t.Title)
		}
		if prev, ok := ids[t.ID]; ok {
			return fmt.Errorf("id %q used by entries %d and %d", t.ID, prev, i+1)
		}
		ids[t.ID] = i + 1
	}
	return nil
}

// DeriveID returns a stable identifier for a team that was listed without one.
func DeriveID(title string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(title)).String()
}
