package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatcore/sdk/chat"
)

func TestRouteMessageFillsEmptyEnvelopeSlotsOnly(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := chat.New("astra", chat.WithAdapter(a))

	in := incomingFor(t, "room-1", "user-1", "m1", "hi")
	env := &chat.EventEnvelope{
		Type:           chat.EventMessage,
		ChannelID:      "preset-channel",
		PayloadMessage: &in,
	}

	_, routed, err := chat.Route(context.Background(), c, "mock", env)
	require.NoError(t, err)

	// ChannelID was already set, so Route must not overwrite it (spec.md §8
	// invariant 5).
	require.Equal(t, "preset-channel", routed.ChannelID)
	// ThreadID/MessageID were empty, so Route fills them from the routed
	// payload.
	require.Equal(t, "mock:room-1", routed.ThreadID)
	require.Equal(t, "m1", routed.MessageID)
}

func TestRouteUnknownEventTypeIsAnError(t *testing.T) {
	c := chat.New("astra", chat.WithAdapter(&plainAdapter{name: "mock"}))
	env := &chat.EventEnvelope{Type: chat.EventType("unknown_type")}

	_, _, err := chat.Route(context.Background(), c, "mock", env)
	require.Error(t, err)

	var unsupported *chat.ErrUnsupportedEventType
	require.ErrorAs(t, err, &unsupported)
}

func TestRouteDispatchesNonMessageEventToMatchingHandlerClass(t *testing.T) {
	c := chat.New("astra", chat.WithAdapter(&plainAdapter{name: "mock"}))

	var fired bool
	c = c.RegisterReaction(chat.StatelessEvent(func(ctx context.Context, env chat.EventEnvelope) error {
		fired = true
		return nil
	}))

	env := &chat.EventEnvelope{Type: chat.EventReaction, AdapterName: "mock"}
	_, _, err := chat.Route(context.Background(), c, "mock", env)
	require.NoError(t, err)
	require.True(t, fired)
}

func TestEnsureEnvelopeInfersEventTypeFromShape(t *testing.T) {
	env, err := chat.EnsureEnvelope(map[string]any{"emoji": "👍"}, "mock")
	require.NoError(t, err)
	require.Equal(t, chat.EventReaction, env.Type)

	env, err = chat.EnsureEnvelope(map[string]any{"command": "/help"}, "mock")
	require.NoError(t, err)
	require.Equal(t, chat.EventSlashCommand, env.Type)

	env, err = chat.EnsureEnvelope(map[string]any{}, "mock")
	require.NoError(t, err)
	require.Equal(t, chat.EventMessage, env.Type)
}

func TestEnsureEnvelopeRejectsUncoercibleValue(t *testing.T) {
	_, err := chat.EnsureEnvelope(42, "mock")
	require.Error(t, err)

	var v *chat.Validation
	require.ErrorAs(t, err, &v)
}
