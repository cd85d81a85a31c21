package chat

import (
	"context"
	"strings"
)

// PostEphemeral posts text visible only to externalUserID. Adapters that
// implement EphemeralPoster handle it natively; otherwise the core falls
// back to opening a DM (via DMOpener) and sending a plain message into it,
// tagging the result with used_fallback and the originating room id
// (spec.md §4.2's Fallback semantics for post_ephemeral).
func PostEphemeral(ctx context.Context, t Thread, externalUserID, text string, opts map[string]any) (EphemeralMessage, error) {
	if poster, ok := t.Adapter.(EphemeralPoster); ok {
		return poster.PostEphemeral(ctx, t.ExternalRoomID, externalUserID, text, opts)
	}

	opener, ok := t.Adapter.(DMOpener)
	if !ok {
		return EphemeralMessage{}, &Ingress{Transport: IngressTransport(t.AdapterName), Reason: "post_ephemeral", Cause: ErrUnsupported}
	}
	dmRoomID, err := opener.OpenDM(ctx, externalUserID)
	if err != nil {
		return EphemeralMessage{}, err
	}
	resp, err := t.Adapter.SendMessage(ctx, dmRoomID, text, opts)
	if err != nil {
		return EphemeralMessage{}, err
	}
	return EphemeralMessage{
		ID:           resp.ExternalMessageID,
		UsedFallback: true,
		Metadata:     map[string]any{"source_room_id": t.ExternalRoomID, "dm_room_id": dmRoomID},
	}, nil
}

// StreamPost sends a token-by-token stream. Adapters that implement
// Streamer handle it natively; otherwise the core drains chunks, joins
// their text, and sends one plain message (spec.md §4.2's Fallback
// semantics for stream).
func StreamPost(ctx context.Context, t Thread, chunks <-chan StreamChunk, opts map[string]any) (SentMessage, error) {
	if streamer, ok := t.Adapter.(Streamer); ok {
		resp, err := streamer.Stream(ctx, t.ExternalRoomID, chunks, opts)
		if err != nil {
			return SentMessage{}, err
		}
		return SentMessage{Response: resp, AdapterName: t.AdapterName, Adapter: t.Adapter, ExternalRoomID: t.ExternalRoomID}, nil
	}

	var sb strings.Builder
	for chunk := range chunks {
		sb.WriteString(chunk.Text)
	}
	return t.Post(ctx, Postable{Text: sb.String()}, opts)
}

// FetchMessage retrieves one message by id. Adapters that implement
// MessageFetcher handle it natively; otherwise the core scans
// MessagesFetcher history pages for a matching id (spec.md §4.2's Fallback
// semantics for fetch_message).
func FetchMessage(ctx context.Context, t Thread, externalMessageID string) (Message, error) {
	if fetcher, ok := t.Adapter.(MessageFetcher); ok {
		return fetcher.FetchMessage(ctx, t.ExternalRoomID, externalMessageID)
	}
	if _, ok := t.Adapter.(MessagesFetcher); ok {
		msgs, err := t.AllMessages(ctx)
		if err != nil {
			return Message{}, err
		}
		for _, m := range msgs {
			if m.ID == externalMessageID {
				return m, nil
			}
		}
		return Message{}, newValidation("fetch_message", externalMessageID, FieldError{
			Path: "external_message_id", Message: "not found in history",
		})
	}
	return Message{}, &Ingress{Transport: IngressTransport(t.AdapterName), Reason: "fetch_message", Cause: ErrUnsupported}
}

// InitializeAdapter runs Adapter.Initialize if the adapter implements
// Initializer, else is a no-op (spec.md §4.2's Fallback default for
// initialize).
func InitializeAdapter(ctx context.Context, a Adapter, opts map[string]any) error {
	init, ok := a.(Initializer)
	if !ok {
		return nil
	}
	return init.Initialize(ctx, opts)
}

// ShutdownAdapter runs Adapter.Shutdown if the adapter implements
// Shutdowner, else is a no-op (spec.md §4.2's Fallback default for
// shutdown).
func ShutdownAdapter(ctx context.Context, a Adapter) error {
	down, ok := a.(Shutdowner)
	if !ok {
		return nil
	}
	return down.Shutdown(ctx)
}
