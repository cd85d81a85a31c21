package chat

import "context"

// Thread is the outbound handle scoped to a single conversation thread
// (spec.md §4.2, C7). Its ID is the canonical "adapter:room[:thread]" form
// and ChannelID is always the "adapter:room" prefix of ID — the two never
// diverge (spec.md §8 invariant 8).
type Thread struct {
	ID               string
	AdapterName      string
	Adapter          Adapter
	ExternalRoomID   string
	ExternalThreadID string
	ChannelID        string
	IsDM             bool
	Metadata         map[string]any
}

// BuildThread resolves the adapter named by adapterName and constructs the
// Thread an Incoming event routes into. It is the forward step of C4's
// dispatch: dedup happens before this call, handler routing after it.
func BuildThread(c *Chat, adapterName string, in Incoming) (Thread, error) {
	a, err := c.Adapter(adapterName)
	if err != nil {
		return Thread{}, err
	}
	channelID := ChannelIDFrom(adapterName, in.ExternalRoomID)
	threadID := ThreadIDFrom(adapterName, in)
	chatType := in.ChatType
	if in.ChannelMeta.ChatType != "" {
		chatType = in.ChannelMeta.ChatType
	}
	return Thread{
		ID:               threadID,
		AdapterName:      adapterName,
		Adapter:          a,
		ExternalRoomID:   in.ExternalRoomID,
		ExternalThreadID: in.ExternalThreadID,
		ChannelID:        channelID,
		IsDM:             InferTargetKind(chatType) == TargetDM,
		Metadata:         cloneAnyMap(in.Metadata),
	}, nil
}

// targetFor infers the MessagingTarget a post on this thread should carry.
func (t Thread) targetFor() MessagingTarget {
	kind := TargetRoom
	if t.IsDM {
		kind = TargetDM
	} else if t.ExternalThreadID != "" {
		kind = TargetThread
	}
	return MessagingTarget{Kind: kind, ThreadID: t.ExternalThreadID}
}

// Post sends a message into the thread, merging the thread's inferred
// MessagingTarget opts underneath any caller-supplied opts (spec.md §4.2,
// §4.6, C2).
func (t Thread) Post(ctx context.Context, content Postable, opts map[string]any) (SentMessage, error) {
	payload := content.ToPayload()
	merged := t.targetFor().ToSendOpts()
	for k, v := range payload.Metadata {
		merged[k] = v
	}
	for k, v := range opts {
		merged[k] = v
	}
	resp, err := t.Adapter.SendMessage(ctx, t.ExternalRoomID, payload.Text, merged)
	if err != nil {
		return SentMessage{}, err
	}
	return SentMessage{Response: resp, AdapterName: t.AdapterName, Adapter: t.Adapter, ExternalRoomID: t.ExternalRoomID}, nil
}

// MentionUser renders an @-mention for user appropriate to this thread's
// adapter. user accepts the same polymorphic shapes as the package-level
// MentionUser (a string/int id, an Author, or a map with "user_id").
func (t Thread) MentionUser(user any) string {
	return MentionUser(t.AdapterName, user)
}

// StartTyping signals a typing indicator via the adapter's TypingNotifier
// capability, or ErrUnsupported.
func (t Thread) StartTyping(ctx context.Context) error {
	notifier, ok := t.Adapter.(TypingNotifier)
	if !ok {
		return &Ingress{Transport: IngressTransport(t.AdapterName), Reason: "start_typing", Cause: ErrUnsupported}
	}
	return notifier.StartTyping(ctx, t.ExternalRoomID)
}

// Refresh re-fetches the thread's metadata via the adapter's ThreadFetcher
// capability, returning an updated Thread value. Adapters that do not
// implement ThreadFetcher leave the receiver unchanged.
func (t Thread) Refresh(ctx context.Context) (Thread, error) {
	fetcher, ok := t.Adapter.(ThreadFetcher)
	if !ok {
		return t, nil
	}
	refreshed, err := fetcher.FetchThread(ctx, t.ExternalRoomID, t.ExternalThreadID)
	if err != nil {
		return t, err
	}
	refreshed.Adapter = t.Adapter
	refreshed.AdapterName = t.AdapterName
	return refreshed, nil
}

// Messages fetches one page of this thread's history via the adapter's
// MessagesFetcher capability, or ErrUnsupported.
func (t Thread) Messages(ctx context.Context, opts FetchOptions) (MessagePage, error) {
	fetcher, ok := t.Adapter.(MessagesFetcher)
	if !ok {
		return MessagePage{}, &Ingress{Transport: IngressTransport(t.AdapterName), Reason: "fetch_messages", Cause: ErrUnsupported}
	}
	return fetcher.FetchMessages(ctx, t.ExternalRoomID, t.ExternalThreadID, opts)
}

// AllMessages pages through the thread's entire history, deduplicating
// cursors seen so a misbehaving adapter that returns a repeated cursor
// cannot loop forever (spec.md §4.7).
func (t Thread) AllMessages(ctx context.Context) ([]Message, error) {
	var all []Message
	seen := map[string]struct{}{}
	cursor := ""
	for {
		page, err := t.Messages(ctx, FetchOptions{Cursor: cursor})
		if err != nil {
			return all, err
		}
		all = append(all, page.Messages...)
		if page.NextCursor == "" {
			return all, nil
		}
		if _, ok := seen[page.NextCursor]; ok {
			return all, nil
		}
		seen[page.NextCursor] = struct{}{}
		cursor = page.NextCursor
	}
}

// MessagesStream streams the thread's history page by page over a channel,
// closing it (and reporting any fetch error on the error channel) once
// paging is exhausted (spec.md §4.7's history streams).
func (t Thread) MessagesStream(ctx context.Context) (<-chan Message, <-chan error) {
	out := make(chan Message)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		seen := map[string]struct{}{}
		cursor := ""
		for {
			page, err := t.Messages(ctx, FetchOptions{Cursor: cursor})
			if err != nil {
				errc <- err
				return
			}
			for _, m := range page.Messages {
				select {
				case out <- m:
				case <-ctx.Done():
					errc <- ctx.Err()
					return
				}
			}
			if page.NextCursor == "" {
				return
			}
			if _, ok := seen[page.NextCursor]; ok {
				return
			}
			seen[page.NextCursor] = struct{}{}
			cursor = page.NextCursor
		}
	}()
	return out, errc
}
