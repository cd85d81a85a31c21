// Package chat is the transport-agnostic event router and outbound facade
// at the core of a multi-platform chat SDK. It normalizes inbound events
// from heterogeneous platform adapters (see adapter.go) into a single typed
// event stream, dispatches them to user-registered handlers (dispatch.go,
// router.go), and exposes a uniform outbound API (thread.go, channel.go,
// sentmessage.go) that delegates to per-platform adapters.
//
// Real platform adapters (Telegram, Discord, …), HTTP server plumbing, and
// listener supervision are external collaborators — this package describes
// only the contract they satisfy and how the core invokes them.
package chat

import (
	"strings"
	"time"
)

// Author describes the sender of an inbound message.
type Author struct {
	UserID   string         `json:"user_id"`
	UserName string         `json:"user_name,omitempty"`
	FullName string         `json:"full_name,omitempty"`
	IsBot    bool           `json:"is_bot,omitempty"`
	IsMe     bool           `json:"is_me,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// MediaType enumerates the canonical kinds of inbound/outbound media.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaAudio MediaType = "audio"
	MediaVideo MediaType = "video"
	MediaVoice MediaType = "voice"
	MediaFile  MediaType = "file"
	MediaGIF   MediaType = "gif"
)

// Media is a normalized attachment carried by an Incoming message.
type Media struct {
	Type         MediaType      `json:"type"`
	URL          string         `json:"url,omitempty"`
	Name         string         `json:"name,omitempty"`
	Size         int64          `json:"size,omitempty"`
	Mime         string         `json:"mime,omitempty"`
	Caption      string         `json:"caption,omitempty"`
	ThumbnailURL string         `json:"thumbnail_url,omitempty"`
	DurationMs   int64          `json:"duration_ms,omitempty"`
	Width        int            `json:"width,omitempty"`
	Height       int            `json:"height,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// Mention is a normalized @-mention found in message text.
type Mention struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name,omitempty"`
	Offset   int    `json:"offset,omitempty"`
	Length   int    `json:"length,omitempty"`
}

// ChannelMeta describes the room/conversation an Incoming arrived on.
type ChannelMeta struct {
	ChatType  string `json:"chat_type,omitempty"`
	ChatTitle string `json:"chat_title,omitempty"`
	Topic     string `json:"topic,omitempty"`
}

// Incoming is the normalized inbound event body — the wire-shaped payload
// produced by Adapter.TransformIncoming. It is distinct from Message, which
// is the stored/paginated normalized form.
type Incoming struct {
	ExternalRoomID     string         `json:"external_room_id"`
	ExternalUserID     string         `json:"external_user_id,omitempty"`
	ExternalMessageID  string         `json:"external_message_id,omitempty"`
	ExternalReplyToID  string         `json:"external_reply_to_id,omitempty"`
	ExternalThreadID   string         `json:"external_thread_id,omitempty"`
	Text               string         `json:"text,omitempty"`
	Timestamp          time.Time      `json:"timestamp,omitempty"`
	ChatType           string         `json:"chat_type,omitempty"`
	ChatTitle          string         `json:"chat_title,omitempty"`
	WasMentioned       bool           `json:"was_mentioned,omitempty"`
	Mentions           []Mention      `json:"mentions,omitempty"`
	Media              []Media        `json:"media,omitempty"`
	Author             *Author        `json:"author,omitempty"`
	ChannelMeta        ChannelMeta    `json:"channel_meta"`
	Raw                map[string]any `json:"raw,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

// NewIncoming validates and normalizes raw fields into an Incoming value,
// applying spec.md §4.1's author-synthesis and channel-meta defaulting
// rules. It is the schema-validating constructor for Incoming.
func NewIncoming(in Incoming) (Incoming, error) {
	if strings.TrimSpace(in.ExternalRoomID) == "" {
		return Incoming{}, newValidation("incoming", in, FieldError{
			Path: "external_room_id", Message: "is required",
		})
	}
	if in.Author == nil && strings.TrimSpace(in.ExternalUserID) != "" {
		in.Author = &Author{UserID: in.ExternalUserID}
	}
	if in.ChannelMeta == (ChannelMeta{}) {
		in.ChannelMeta = ChannelMeta{ChatType: in.ChatType, ChatTitle: in.ChatTitle}
	}
	if in.Mentions == nil {
		in.Mentions = []Mention{}
	}
	if in.Media == nil {
		in.Media = []Media{}
	}
	for i, m := range in.Media {
		in.Media[i] = NormalizeMedia(m)
	}
	return in, nil
}

// Message is the stored/paginated normalized form of a chat message, as
// returned by history fetches (MessagePage, ThreadPage) and produced by
// FromIncoming.
type Message struct {
	ID        string         `json:"id"`
	ThreadID  string         `json:"thread_id"`
	ChannelID string         `json:"channel_id"`
	AuthorID  string         `json:"author_id,omitempty"`
	Author    *Author        `json:"author,omitempty"`
	Text      string         `json:"text,omitempty"`
	IsMention bool           `json:"is_mention,omitempty"`
	Media     []Media        `json:"media,omitempty"`
	CreatedAt time.Time      `json:"created_at,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// FromIncomingOptions overrides the defaults used by FromIncoming.
type FromIncomingOptions struct {
	AdapterName string
	ThreadID    string
}

// FromIncoming implements spec.md §4.1's Message.from_incoming: the id
// defaults to the external message id (or a new id when absent), the
// thread id defaults to the canonical "adapter:room[:thread]" form, the
// channel id is the stringified room id, and is_mention/created_at are
// copied from the incoming event.
func FromIncoming(in Incoming, opts FromIncomingOptions) Message {
	id := in.ExternalMessageID
	if id == "" {
		id = newID()
	}
	threadID := opts.ThreadID
	if threadID == "" {
		threadID = ThreadIDFrom(opts.AdapterName, in)
	}
	return Message{
		ID:        id,
		ThreadID:  threadID,
		ChannelID: in.ExternalRoomID,
		AuthorID:  authorID(in.Author),
		Author:    in.Author,
		Text:      in.Text,
		IsMention: in.WasMentioned,
		Media:     in.Media,
		CreatedAt: in.Timestamp,
		Metadata:  in.Metadata,
	}
}

func authorID(a *Author) string {
	if a == nil {
		return ""
	}
	return a.UserID
}

// ChannelIDFrom builds the deterministic "adapter:room" channel id.
func ChannelIDFrom(adapterName, externalRoomID string) string {
	return adapterName + ":" + externalRoomID
}

// ThreadIDFrom builds the deterministic thread id: "adapter:room" when the
// incoming event carries no sub-thread, "adapter:room:thread" otherwise
// (spec.md §4.3, §8 invariant 8).
func ThreadIDFrom(adapterName string, in Incoming) string {
	if strings.TrimSpace(in.ExternalThreadID) == "" {
		return ChannelIDFrom(adapterName, in.ExternalRoomID)
	}
	return ChannelIDFrom(adapterName, in.ExternalRoomID) + ":" + in.ExternalThreadID
}

// ResponseStatus enumerates the lifecycle status of a sent Response.
type ResponseStatus string

const (
	ResponseSent    ResponseStatus = "sent"
	ResponseFailed  ResponseStatus = "failed"
	ResponseQueued  ResponseStatus = "queued"
)

// Response is the normalized result of an adapter send/edit call.
// Legacy field names are accepted by ResponseFromRaw but the canonical fields are
// always the source of truth; MessageID/ChatID/ChannelID/Date are read-only
// aliases computed from them (spec.md §9, Open Questions #3).
type Response struct {
	ExternalMessageID string         `json:"external_message_id"`
	ExternalRoomID    string         `json:"external_room_id"`
	Text              string         `json:"text,omitempty"`
	Status            ResponseStatus `json:"status"`
	Timestamp         time.Time      `json:"timestamp,omitempty"`
	Raw               map[string]any `json:"raw,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// MessageID is the legacy alias for ExternalMessageID.
func (r Response) MessageID() string { return r.ExternalMessageID }

// ChatID is the legacy alias for ExternalRoomID.
func (r Response) ChatID() string { return r.ExternalRoomID }

// ChannelID is the legacy alias for ExternalRoomID.
func (r Response) ChannelID() string { return r.ExternalRoomID }

// Date is the legacy alias for Timestamp.
func (r Response) Date() time.Time { return r.Timestamp }

// ResponseFromRaw coerces a raw adapter result map into a Response, accepting the
// legacy field names `message_id` and `chat_id`/`channel_id`, and parsing
// the timestamp from an integer epoch, an ISO8601 string, or a time.Time.
func ResponseFromRaw(raw map[string]any) Response {
	r := Response{Status: ResponseSent, Raw: raw}
	if raw == nil {
		return r
	}
	r.ExternalMessageID = firstString(raw, "external_message_id", "message_id")
	r.ExternalRoomID = firstString(raw, "external_room_id", "chat_id", "channel_id")
	r.Text = firstString(raw, "text")
	if status, ok := raw["status"].(string); ok && status != "" {
		r.Status = ResponseStatus(status)
	}
	r.Timestamp = parseTimestamp(firstValue(raw, "timestamp", "date"))
	return r
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func firstValue(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

func parseTimestamp(v any) time.Time {
	switch value := v.(type) {
	case time.Time:
		return value
	case int64:
		return time.Unix(value, 0).UTC()
	case int:
		return time.Unix(int64(value), 0).UTC()
	case float64:
		return time.Unix(int64(value), 0).UTC()
	case string:
		if t, err := time.Parse(time.RFC3339, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ChannelInfo is the normalized result of Adapter.FetchMetadata.
type ChannelInfo struct {
	ID       string         `json:"id"`
	Name     string         `json:"name,omitempty"`
	Topic    string         `json:"topic,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ThreadSummary is one entry in a ThreadPage.
type ThreadSummary struct {
	ID         string         `json:"id"`
	ExternalID string         `json:"external_id"`
	Title      string         `json:"title,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// MessagePage is one page of paginated history.
type MessagePage struct {
	Messages   []Message `json:"messages"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// ThreadPage is one page of paginated thread listings.
type ThreadPage struct {
	Threads    []ThreadSummary `json:"threads"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// EphemeralMessage is the result of Adapter.PostEphemeral (or its DM
// fallback).
type EphemeralMessage struct {
	ID           string         `json:"id"`
	UsedFallback bool           `json:"used_fallback,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ModalResult is the result of Adapter.OpenModal.
type ModalResult struct {
	ID       string         `json:"id"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// FetchOptions parameterizes history/thread-listing fetches.
type FetchOptions struct {
	Cursor string
	Limit  int
	Extra  map[string]any
}

// MessagingTargetKind enumerates the inferred delivery target kind.
type MessagingTargetKind string

const (
	TargetDM     MessagingTargetKind = "dm"
	TargetThread MessagingTargetKind = "thread"
	TargetRoom   MessagingTargetKind = "room"
)

// ReplyToMode enumerates the reply-threading behavior for a post.
type ReplyToMode string

const (
	ReplyToPlatformDefault ReplyToMode = "platform_default"
	ReplyToInline          ReplyToMode = "inline"
	ReplyToQuote           ReplyToMode = "quote"
)

// MessagingTarget carries the addressing + reply-threading intent of an
// outbound post, inferred from a Thread/ChannelRef's context.
type MessagingTarget struct {
	Kind        MessagingTargetKind
	ReplyToID   string
	ThreadID    string
	ReplyToMode ReplyToMode
}

// InferTargetKind infers a MessagingTargetKind from a chat_type string, per
// spec.md §4.1 ("direct → dm, thread → thread, else → room").
func InferTargetKind(chatType string) MessagingTargetKind {
	switch strings.ToLower(strings.TrimSpace(chatType)) {
	case "direct", "dm", "private", "p2p":
		return TargetDM
	case "thread":
		return TargetThread
	default:
		return TargetRoom
	}
}

// ToSendOpts emits the opts map fields send_message-style calls expect:
// reply_to_id and thread_id are present whenever the corresponding
// MessagingTarget field is set; reply_mode is present only when
// ReplyToMode is set and is not the platform default.
func (t MessagingTarget) ToSendOpts() map[string]any {
	opts := map[string]any{}
	if t.ReplyToID != "" {
		opts["reply_to_id"] = t.ReplyToID
	}
	if t.ThreadID != "" {
		opts["thread_id"] = t.ThreadID
	}
	if t.ReplyToMode != "" && t.ReplyToMode != ReplyToPlatformDefault {
		opts["reply_mode"] = string(t.ReplyToMode)
	}
	return opts
}
