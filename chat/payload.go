package chat

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PostPayload is the flattened outbound content Thread.Post hands to an
// adapter's Send. Text is always a string (possibly empty) — the
// invariant spec.md §4.1 requires of Postable.ToPayload.
type PostPayload struct {
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Postable is anything Thread.Post/ChannelRef.Post can flatten into a
// PostPayload: at most one of Text, Markdown, Raw, AST, or Card should be
// set (if more than one is present, the first one set in ToPayload's order
// Text, Markdown, Card, AST, Raw wins and the rest are ignored).
type Postable struct {
	Text     string
	Markdown string
	Raw      any
	AST      any
	Card     any
	Metadata map[string]any
}

// ToPayload flattens a Postable into a PostPayload, projecting any of
// {text, markdown, raw, ast, card} to a best-effort string and tagging the
// result with metadata.format for the markdown, card and ast variants; text
// and raw carry no format tag (spec.md §4.1).
func (p Postable) ToPayload() PostPayload {
	meta := cloneAnyMap(p.Metadata)

	switch {
	case p.Text != "":
		return PostPayload{Text: p.Text, Metadata: meta}
	case p.Markdown != "":
		meta = withFormat(meta, "markdown")
		return PostPayload{Text: p.Markdown, Metadata: meta}
	case p.Card != nil:
		meta = withFormat(meta, "card")
		return PostPayload{Text: projectToString(p.Card), Metadata: meta}
	case p.AST != nil:
		meta = withFormat(meta, "ast")
		return PostPayload{Text: projectToString(p.AST), Metadata: meta}
	case p.Raw != nil:
		return PostPayload{Text: projectToString(p.Raw), Metadata: meta}
	default:
		return PostPayload{Text: "", Metadata: meta}
	}
}

func withFormat(meta map[string]any, format string) map[string]any {
	if meta == nil {
		meta = map[string]any{}
	}
	meta["format"] = format
	return meta
}

// projectToString best-effort projects an arbitrary value to a string: a
// string passes through, anything JSON-encodable is JSON-encoded, and
// anything else falls back to fmt's %+v inspection.
func projectToString(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%+v", v)
}

// PostableFromMap coerces a map into a Postable, accepting the same keys
// as the Postable struct fields, spelled exactly in lowercase ("text"/
// "markdown"/"raw"/"ast"/"card"/"metadata"); other spellings are ignored.
func PostableFromMap(m map[string]any) Postable {
	p := Postable{}
	if v, ok := m["text"].(string); ok {
		p.Text = v
	}
	if v, ok := m["markdown"].(string); ok {
		p.Markdown = v
	}
	if v, ok := m["raw"]; ok {
		p.Raw = v
	}
	if v, ok := m["ast"]; ok {
		p.AST = v
	}
	if v, ok := m["card"]; ok {
		p.Card = v
	}
	if v, ok := m["metadata"].(map[string]any); ok {
		p.Metadata = v
	}
	return p
}

func cloneAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneStringSet(s map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// trimLower lowercases and trims a string — the common normalization
// applied to chat types, capability keys, and adapter names.
func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
