package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatcore/sdk/chat"
)

// dmOnlyAdapter implements DMOpener and SendMessage but not EphemeralPoster,
// exercising PostEphemeral's DM-fallback path.
type dmOnlyAdapter struct {
	plainAdapter
	openedFor string
}

func (a *dmOnlyAdapter) OpenDM(ctx context.Context, externalUserID string) (string, error) {
	a.openedFor = externalUserID
	return "dm-room", nil
}

func TestPostEphemeralFallsBackToDMWhenUnimplemented(t *testing.T) {
	a := &dmOnlyAdapter{plainAdapter: plainAdapter{name: "mock"}}
	c := chat.New("astra", chat.WithAdapter(a))
	th, err := chat.BuildThread(c, "mock", incomingFor(t, "room-1", "user-1", "m1", "hi"))
	require.NoError(t, err)

	msg, err := chat.PostEphemeral(context.Background(), th, "user-1", "secret", nil)
	require.NoError(t, err)
	require.True(t, msg.UsedFallback)
	require.Equal(t, "room-1", msg.Metadata["source_room_id"])
	require.Equal(t, "dm-room", msg.Metadata["dm_room_id"])
	require.Equal(t, "user-1", a.openedFor)
}

func TestPostEphemeralUnsupportedWithoutDMOpener(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := chat.New("astra", chat.WithAdapter(a))
	th, err := chat.BuildThread(c, "mock", incomingFor(t, "room-1", "user-1", "m1", "hi"))
	require.NoError(t, err)

	_, err = chat.PostEphemeral(context.Background(), th, "user-1", "secret", nil)
	require.ErrorIs(t, err, chat.ErrUnsupported)
}

func TestPostEphemeralNativeWhenImplemented(t *testing.T) {
	a := &mockAdapter{name: "mock"}
	c := chat.New("astra", chat.WithAdapter(a))
	th, err := chat.BuildThread(c, "mock", incomingFor(t, "room-1", "user-1", "m1", "hi"))
	require.NoError(t, err)

	msg, err := chat.PostEphemeral(context.Background(), th, "user-1", "secret", nil)
	require.NoError(t, err)
	require.False(t, msg.UsedFallback)
	require.Equal(t, "eph-1", msg.ID)
}

func TestStreamPostFallsBackToJoinedSendWhenUnimplemented(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := chat.New("astra", chat.WithAdapter(a))
	th, err := chat.BuildThread(c, "mock", incomingFor(t, "room-1", "user-1", "m1", "hi"))
	require.NoError(t, err)

	chunks := make(chan chat.StreamChunk, 3)
	chunks <- chat.StreamChunk{Text: "hel"}
	chunks <- chat.StreamChunk{Text: "lo"}
	close(chunks)

	out, err := chat.StreamPost(context.Background(), th, chunks, nil)
	require.NoError(t, err)
	require.Equal(t, "hello", out.Response.Text)
	require.Equal(t, []string{"hello"}, a.seen)
}

func TestFetchMessageScansHistoryWhenOnlyMessagesFetcherImplemented(t *testing.T) {
	// mockAdapter implements MessageFetcher directly, which would take
	// priority over the scan fallback; use a narrower fixture that
	// implements only MessagesFetcher to exercise the fallback path.
	b := &messagesOnlyAdapter{pages: []chat.MessagePage{
		{Messages: []chat.Message{{ID: "m1"}, {ID: "target"}}},
	}}
	c := chat.New("astra", chat.WithAdapter(b))
	th, err := chat.BuildThread(c, "mock", incomingFor(t, "room-1", "user-1", "m1", "hi"))
	require.NoError(t, err)

	msg, err := chat.FetchMessage(context.Background(), th, "target")
	require.NoError(t, err)
	require.Equal(t, "target", msg.ID)
}

func TestFetchMessageUnsupportedWithoutAnyFetcher(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := chat.New("astra", chat.WithAdapter(a))
	th, err := chat.BuildThread(c, "mock", incomingFor(t, "room-1", "user-1", "m1", "hi"))
	require.NoError(t, err)

	_, err = chat.FetchMessage(context.Background(), th, "target")
	require.ErrorIs(t, err, chat.ErrUnsupported)
}

// messagesOnlyAdapter implements only MessagesFetcher (plus the base
// Adapter contract), never MessageFetcher.
type messagesOnlyAdapter struct {
	plainAdapter
	pages []chat.MessagePage
}

func (a *messagesOnlyAdapter) ChannelType() string { return "mock" }

func (a *messagesOnlyAdapter) FetchMessages(ctx context.Context, externalRoomID, externalThreadID string, opts chat.FetchOptions) (chat.MessagePage, error) {
	if len(a.pages) == 0 {
		return chat.MessagePage{}, nil
	}
	return a.pages[0], nil
}
