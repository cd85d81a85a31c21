package chat

import (
	"strconv"
	"strings"
)

// MentionUser renders an outbound @-mention for user on the given adapter.
// Discord-style adapters use the "<@id>" wire form; every other adapter
// falls back to a plain "@id". user is polymorphic: a bare string/int id,
// an Author (by UserID), or a map carrying "user_id" are all accepted;
// anything else — or an id that resolves empty — renders as "@unknown"
// rather than an empty or malformed mention (spec.md §6).
func MentionUser(adapterName string, user any) string {
	id := strings.TrimSpace(mentionID(user))
	if id == "" {
		return "@unknown"
	}
	switch trimLower(adapterName) {
	case "discord":
		return "<@" + id + ">"
	default:
		return "@" + id
	}
}

// mentionID extracts a string user id from the polymorphic inputs
// MentionUser accepts, returning "" for anything it cannot resolve.
func mentionID(user any) string {
	switch v := user.(type) {
	case nil:
		return ""
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case Author:
		return v.UserID
	case *Author:
		if v == nil {
			return ""
		}
		return v.UserID
	case map[string]any:
		if id, ok := v["user_id"].(string); ok {
			return id
		}
		return ""
	default:
		return ""
	}
}
