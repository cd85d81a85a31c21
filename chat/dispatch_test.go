package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatcore/sdk/chat"
)

func newTestChat(t *testing.T, a chat.Adapter) *chat.Chat {
	t.Helper()
	return chat.New("astra", chat.WithAdapter(a))
}

func incomingFor(t *testing.T, roomID, userID, msgID, text string) chat.Incoming {
	t.Helper()
	in, err := chat.NewIncoming(chat.Incoming{
		ExternalRoomID:    roomID,
		ExternalUserID:    userID,
		ExternalMessageID: msgID,
		Text:              text,
	})
	require.NoError(t, err)
	return in
}

func TestProcessMessageDedupeIsIdempotent(t *testing.T) {
	var calls int
	a := &plainAdapter{name: "mock"}
	c := newTestChat(t, a)
	c, err := c.RegisterMessage(`.*`, chat.StatelessMessage(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		calls++
		return nil
	}))
	require.NoError(t, err)

	in := incomingFor(t, "room-1", "user-1", "msg-1", "hello")

	ctx := context.Background()
	c, _, err = chat.ProcessMessage(ctx, c, "mock", in)
	require.NoError(t, err)
	require.Equal(t, 1, calls)

	// Redelivering the same (adapter, external_message_id) must not fire
	// handlers again (spec.md §8 invariant 1).
	c, _, err = chat.ProcessMessage(ctx, c, "mock", in)
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestProcessMessageWithoutExternalIDSkipsDedupe(t *testing.T) {
	var calls int
	a := &plainAdapter{name: "mock"}
	c := newTestChat(t, a)
	c, err := c.RegisterMessage(`.*`, chat.StatelessMessage(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		calls++
		return nil
	}))
	require.NoError(t, err)

	in := incomingFor(t, "room-1", "user-1", "", "hello")
	ctx := context.Background()

	c, _, err = chat.ProcessMessage(ctx, c, "mock", in)
	require.NoError(t, err)
	c, _, err = chat.ProcessMessage(ctx, c, "mock", in)
	require.NoError(t, err)
	require.Equal(t, 2, calls)
}

func TestDedupeEvictsOldestWhenOverBound(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := chat.New("astra", chat.WithAdapter(a), chat.WithMetadata(map[string]any{"dedupe_limit": 2}))
	ctx := context.Background()

	var err error
	for i, id := range []string{"m1", "m2", "m3"} {
		in := incomingFor(t, "room-1", "user-1", id, "hi")
		c, _, err = chat.ProcessMessage(ctx, c, "mock", in)
		require.NoErrorf(t, err, "message %d", i)
	}

	require.Len(t, c.DedupeOrder, 2)
	require.Equal(t, "m2", c.DedupeOrder[0].ExternalMessageID)
	require.Equal(t, "m3", c.DedupeOrder[1].ExternalMessageID)

	// m1 was evicted, so redelivering it must fire handlers again.
	var calls int
	c, err = c.RegisterMessage(`.*`, chat.StatelessMessage(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		calls++
		return nil
	}))
	require.NoError(t, err)
	c, _, err = chat.ProcessMessage(ctx, c, "mock", incomingFor(t, "room-1", "user-1", "m1", "hi again"))
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestRoutingPrefersSubscribedOverMentionOverMessage(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := newTestChat(t, a)

	var subscribedFired, mentionFired, messageFired bool
	c = c.RegisterSubscribed(chat.StatelessSubscribed(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		subscribedFired = true
		return nil
	}))
	c = c.RegisterMention(chat.StatelessMention(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		mentionFired = true
		return nil
	}))
	c, err := c.RegisterMessage(`.*`, chat.StatelessMessage(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		messageFired = true
		return nil
	}))
	require.NoError(t, err)

	threadID := chat.ThreadIDFrom("mock", incomingFor(t, "room-1", "user-1", "m1", "hi"))
	c = c.Subscribe(threadID)

	in := incomingFor(t, "room-1", "user-1", "m1", "@astra hi")
	in.WasMentioned = true

	ctx := context.Background()
	_, _, err = chat.ProcessMessage(ctx, c, "mock", in)
	require.NoError(t, err)

	require.True(t, subscribedFired, "subscribed handler should fire for a subscribed thread")
	require.False(t, mentionFired, "mention handler must not fire when the thread is subscribed")
	require.False(t, messageFired, "message handler must not fire when the thread is subscribed")
}

func TestRoutingPrefersMentionOverMessage(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := newTestChat(t, a)

	var mentionFired, messageFired bool
	c = c.RegisterMention(chat.StatelessMention(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		mentionFired = true
		return nil
	}))
	c, err := c.RegisterMessage(`.*`, chat.StatelessMessage(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		messageFired = true
		return nil
	}))
	require.NoError(t, err)

	in := incomingFor(t, "room-1", "user-1", "m1", "@astra hi")
	in.WasMentioned = true

	ctx := context.Background()
	_, _, err = chat.ProcessMessage(ctx, c, "mock", in)
	require.NoError(t, err)

	require.True(t, mentionFired)
	require.False(t, messageFired)
}

func TestAllMatchingMessageHandlersFireInRegistrationOrder(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := newTestChat(t, a)

	var order []string
	c, err := c.RegisterMessage(`^ping`, chat.StatelessMessage(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		order = append(order, "ping-prefix")
		return nil
	}))
	require.NoError(t, err)
	c, err = c.RegisterMessage(`.*`, chat.StatelessMessage(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		order = append(order, "catch-all")
		return nil
	}))
	require.NoError(t, err)

	ctx := context.Background()
	_, _, err = chat.ProcessMessage(ctx, c, "mock", incomingFor(t, "room-1", "user-1", "m1", "ping now"))
	require.NoError(t, err)

	require.Equal(t, []string{"ping-prefix", "catch-all"}, order)
}

func TestHandlerErrorDoesNotAbortDispatch(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := newTestChat(t, a)

	var secondRan bool
	c, err := c.RegisterMessage(`.*`, chat.StatelessMessage(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		return errBoom
	}))
	require.NoError(t, err)
	c, err = c.RegisterMessage(`.*`, chat.StatelessMessage(func(ctx context.Context, tr chat.Thread, in chat.Incoming) error {
		secondRan = true
		return nil
	}))
	require.NoError(t, err)

	ctx := context.Background()
	_, _, err = chat.ProcessMessage(ctx, c, "mock", incomingFor(t, "room-1", "user-1", "m1", "hi"))
	require.NoError(t, err, "a handler error must not surface as ProcessMessage's own error")
	require.True(t, secondRan, "a failing handler must not abort subsequent handlers")
}
