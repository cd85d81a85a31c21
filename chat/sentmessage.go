package chat

import "context"

// SentMessage is the outbound follow-up handle returned by Thread.Post /
// ChannelRef.Post: the normalized Response plus enough adapter context to
// support edit/delete/reaction follow-ups (spec.md §4.6, C7).
type SentMessage struct {
	Response

	AdapterName    string
	Adapter        Adapter
	ExternalRoomID string
}

// Edit edits the sent message's text via the adapter's MessageEditor
// capability, or ErrUnsupported when the adapter declares none.
func (s SentMessage) Edit(ctx context.Context, text string, opts map[string]any) (SentMessage, error) {
	editor, ok := s.Adapter.(MessageEditor)
	if !ok {
		return s, &Ingress{Transport: IngressTransport(s.AdapterName), Reason: "edit_message", Cause: ErrUnsupported}
	}
	resp, err := editor.EditMessage(ctx, s.ExternalRoomID, s.ExternalMessageID, text, opts)
	if err != nil {
		return s, err
	}
	return SentMessage{Response: resp, AdapterName: s.AdapterName, Adapter: s.Adapter, ExternalRoomID: s.ExternalRoomID}, nil
}

// Delete deletes the sent message via the adapter's MessageDeleter
// capability, or ErrUnsupported when the adapter declares none.
func (s SentMessage) Delete(ctx context.Context) error {
	deleter, ok := s.Adapter.(MessageDeleter)
	if !ok {
		return &Ingress{Transport: IngressTransport(s.AdapterName), Reason: "delete_message", Cause: ErrUnsupported}
	}
	return deleter.DeleteMessage(ctx, s.ExternalRoomID, s.ExternalMessageID)
}

// AddReaction adds emoji to the sent message via the adapter's Reactor
// capability.
func (s SentMessage) AddReaction(ctx context.Context, emoji string) error {
	reactor, ok := s.Adapter.(Reactor)
	if !ok {
		return &Ingress{Transport: IngressTransport(s.AdapterName), Reason: "add_reaction", Cause: ErrUnsupported}
	}
	return reactor.AddReaction(ctx, s.ExternalRoomID, s.ExternalMessageID, emoji)
}

// RemoveReaction removes emoji from the sent message via the adapter's
// Reactor capability.
func (s SentMessage) RemoveReaction(ctx context.Context, emoji string) error {
	reactor, ok := s.Adapter.(Reactor)
	if !ok {
		return &Ingress{Transport: IngressTransport(s.AdapterName), Reason: "remove_reaction", Cause: ErrUnsupported}
	}
	return reactor.RemoveReaction(ctx, s.ExternalRoomID, s.ExternalMessageID, emoji)
}
