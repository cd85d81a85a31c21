package chat_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatcore/sdk/chat"
)

func TestChannelRefAllMessagesPagesUntilCursorExhausted(t *testing.T) {
	a := &mockAdapter{
		name: "mock",
		pages: []chat.MessagePage{
			{Messages: []chat.Message{{ID: "m1"}, {ID: "m2"}}, NextCursor: "cursor-2"},
			{Messages: []chat.Message{{ID: "m3"}}},
		},
	}
	c := chat.New("astra", chat.WithAdapter(a))
	ch, err := chat.BuildChannelRef(c, "mock", "room-1")
	require.NoError(t, err)

	all, err := ch.AllMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestChannelRefAllMessagesStopsOnRepeatedCursor(t *testing.T) {
	a := &cyclicPagerAdapter{plainAdapter: plainAdapter{name: "mock"}, cursor: "loop"}
	c := chat.New("astra", chat.WithAdapter(a))
	ch, err := chat.BuildChannelRef(c, "mock", "room-1")
	require.NoError(t, err)

	all, err := ch.AllMessages(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2, "pagination must stop once a cursor repeats, not loop forever")
}

func TestChannelRefThreadsStreamStopsOnRepeatedCursor(t *testing.T) {
	a := &cyclicPagerAdapter{plainAdapter: plainAdapter{name: "mock"}, cursor: "loop"}
	c := chat.New("astra", chat.WithAdapter(a))
	ch, err := chat.BuildChannelRef(c, "mock", "room-1")
	require.NoError(t, err)

	out, errc := ch.ThreadsStream(context.Background())
	var got []string
	for s := range out {
		got = append(got, s.ID)
	}
	require.NoError(t, <-errc)
	require.Len(t, got, 2)
}

func TestChannelRefMessagesUnsupportedWithoutFetcher(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := chat.New("astra", chat.WithAdapter(a))
	ch, err := chat.BuildChannelRef(c, "mock", "room-1")
	require.NoError(t, err)

	_, err = ch.Messages(context.Background(), chat.FetchOptions{})
	require.ErrorIs(t, err, chat.ErrUnsupported)
}

func TestChannelRefPostFallsBackToSendMessageWithoutChannelPoster(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := chat.New("astra", chat.WithAdapter(a))
	ch, err := chat.BuildChannelRef(c, "mock", "room-1")
	require.NoError(t, err)

	sent, err := ch.Post(context.Background(), chat.Postable{Text: "hi"}, nil)
	require.NoError(t, err)
	require.Equal(t, "hi", sent.Text)
	require.Equal(t, []string{"hi"}, a.seen)
}

func TestChannelRefFetchMetadataFallsBackWithoutMetadataFetcher(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	c := chat.New("astra", chat.WithAdapter(a))
	ch, err := chat.BuildChannelRef(c, "mock", "room-1")
	require.NoError(t, err)

	info, err := ch.FetchMetadata(context.Background())
	require.NoError(t, err)
	require.Equal(t, ch.ID, info.ID)
	require.Equal(t, true, info.Metadata["fallback"])
}
