package chat_test

import (
	"context"
	"errors"
	"sync"

	"github.com/chatcore/sdk/chat"
)

var errBoom = errors.New("mock adapter: boom")

// mockAdapter is a configurable chat.Adapter used across the test suite.
// It implements every optional capability interface unconditionally, so
// capability type assertions against it always succeed; of the flags below
// only editable is consulted (EditMessage panics when it is false).
type mockAdapter struct {
	name string

	mu   sync.Mutex
	sent []chat.Response

	editable    bool
	deletable   bool
	typingOK    bool
	reactable   bool
	metadataOK  bool
	ephemeralOK bool
	dmOpenable  bool
	channelPost bool
	streamable  bool
	modalOK     bool
	messagesOK  bool
	chanMsgsOK  bool
	threadsOK   bool
	threadFetch bool
	messageFetch bool

	declared chat.CapabilityMatrix

	pages       []chat.MessagePage
	threadPages []chat.ThreadPage

	sendErr error
}

func (a *mockAdapter) ChannelType() string { return a.name }

func (a *mockAdapter) TransformIncoming(raw map[string]any) (chat.Incoming, error) {
	roomID, _ := raw["external_room_id"].(string)
	return chat.NewIncoming(chat.Incoming{ExternalRoomID: roomID, Raw: raw})
}

func (a *mockAdapter) SendMessage(ctx context.Context, externalRoomID, text string, opts map[string]any) (chat.Response, error) {
	if a.sendErr != nil {
		return chat.Response{}, a.sendErr
	}
	resp := chat.Response{ExternalRoomID: externalRoomID, ExternalMessageID: "sent-1", Text: text, Status: chat.ResponseSent}
	a.mu.Lock()
	a.sent = append(a.sent, resp)
	a.mu.Unlock()
	return resp, nil
}

func (a *mockAdapter) Capabilities() chat.CapabilityMatrix {
	return a.declared
}

func (a *mockAdapter) EditMessage(ctx context.Context, externalRoomID, externalMessageID, text string, opts map[string]any) (chat.Response, error) {
	if !a.editable {
		panic("EditMessage called but not enabled")
	}
	return chat.Response{ExternalRoomID: externalRoomID, ExternalMessageID: externalMessageID, Text: text}, nil
}

func (a *mockAdapter) DeleteMessage(ctx context.Context, externalRoomID, externalMessageID string) error {
	return nil
}

func (a *mockAdapter) StartTyping(ctx context.Context, externalRoomID string) error { return nil }

func (a *mockAdapter) AddReaction(ctx context.Context, externalRoomID, externalMessageID, emoji string) error {
	return nil
}

func (a *mockAdapter) RemoveReaction(ctx context.Context, externalRoomID, externalMessageID, emoji string) error {
	return nil
}

func (a *mockAdapter) FetchMetadata(ctx context.Context, externalRoomID string) (chat.ChannelInfo, error) {
	return chat.ChannelInfo{ID: externalRoomID, Name: "mock"}, nil
}

func (a *mockAdapter) FetchThread(ctx context.Context, externalRoomID, externalThreadID string) (chat.Thread, error) {
	return chat.Thread{ExternalRoomID: externalRoomID, ExternalThreadID: externalThreadID}, nil
}

func (a *mockAdapter) FetchMessage(ctx context.Context, externalRoomID, externalMessageID string) (chat.Message, error) {
	return chat.Message{ID: externalMessageID, ChannelID: externalRoomID}, nil
}

func (a *mockAdapter) PostEphemeral(ctx context.Context, externalRoomID, externalUserID, text string, opts map[string]any) (chat.EphemeralMessage, error) {
	return chat.EphemeralMessage{ID: "eph-1"}, nil
}

func (a *mockAdapter) OpenDM(ctx context.Context, externalUserID string) (string, error) {
	return "dm:" + externalUserID, nil
}

func (a *mockAdapter) PostChannelMessage(ctx context.Context, externalRoomID, text string, opts map[string]any) (chat.Response, error) {
	return chat.Response{ExternalRoomID: externalRoomID, ExternalMessageID: "chan-1", Text: text}, nil
}

func (a *mockAdapter) Stream(ctx context.Context, externalRoomID string, chunks <-chan chat.StreamChunk, opts map[string]any) (chat.Response, error) {
	var text string
	for c := range chunks {
		text += c.Text
	}
	return chat.Response{ExternalRoomID: externalRoomID, ExternalMessageID: "stream-1", Text: text}, nil
}

func (a *mockAdapter) OpenModal(ctx context.Context, triggerID string, modal map[string]any) (chat.ModalResult, error) {
	return chat.ModalResult{ID: "modal-1"}, nil
}

func (a *mockAdapter) FetchMessages(ctx context.Context, externalRoomID, externalThreadID string, opts chat.FetchOptions) (chat.MessagePage, error) {
	idx := 0
	if opts.Cursor != "" {
		idx = 1
	}
	if idx < len(a.pages) {
		return a.pages[idx], nil
	}
	return chat.MessagePage{}, nil
}

func (a *mockAdapter) FetchChannelMessages(ctx context.Context, externalRoomID string, opts chat.FetchOptions) (chat.MessagePage, error) {
	return a.FetchMessages(ctx, externalRoomID, "", opts)
}

func (a *mockAdapter) ListThreads(ctx context.Context, externalRoomID string, opts chat.FetchOptions) (chat.ThreadPage, error) {
	idx := 0
	if opts.Cursor != "" {
		idx = 1
	}
	if idx < len(a.threadPages) {
		return a.threadPages[idx], nil
	}
	return chat.ThreadPage{}, nil
}

// cyclicPagerAdapter always returns the same next cursor, simulating a
// misbehaving adapter whose pagination never terminates on its own — used
// to prove Thread.AllMessages, ChannelRef.AllMessages and
// ChannelRef.ThreadsStream dedupe cursors seen instead of looping forever.
type cyclicPagerAdapter struct {
	plainAdapter
	cursor string
}

func (a *cyclicPagerAdapter) FetchMessages(ctx context.Context, externalRoomID, externalThreadID string, opts chat.FetchOptions) (chat.MessagePage, error) {
	return chat.MessagePage{Messages: []chat.Message{{ID: "m-" + opts.Cursor}}, NextCursor: a.cursor}, nil
}

func (a *cyclicPagerAdapter) FetchChannelMessages(ctx context.Context, externalRoomID string, opts chat.FetchOptions) (chat.MessagePage, error) {
	return a.FetchMessages(ctx, externalRoomID, "", opts)
}

func (a *cyclicPagerAdapter) ListThreads(ctx context.Context, externalRoomID string, opts chat.FetchOptions) (chat.ThreadPage, error) {
	return chat.ThreadPage{Threads: []chat.ThreadSummary{{ID: "t-" + opts.Cursor}}, NextCursor: a.cursor}, nil
}

// plainAdapter implements only the required chat.Adapter interface — no
// optional capabilities at all.
type plainAdapter struct {
	name string
	seen []string
}

func (a *plainAdapter) ChannelType() string { return a.name }

func (a *plainAdapter) TransformIncoming(raw map[string]any) (chat.Incoming, error) {
	roomID, _ := raw["external_room_id"].(string)
	return chat.NewIncoming(chat.Incoming{ExternalRoomID: roomID})
}

func (a *plainAdapter) SendMessage(ctx context.Context, externalRoomID, text string, opts map[string]any) (chat.Response, error) {
	a.seen = append(a.seen, text)
	return chat.Response{ExternalRoomID: externalRoomID, ExternalMessageID: "plain-1", Text: text, Status: chat.ResponseSent}, nil
}
