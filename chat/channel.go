package chat

import "context"

// ChannelRef is the outbound handle scoped to a channel/room as a whole,
// as opposed to a single thread within it (spec.md §4.2, C7).
type ChannelRef struct {
	ID             string
	AdapterName    string
	Adapter        Adapter
	ExternalRoomID string
	Metadata       map[string]any
}

// BuildChannelRef resolves adapterName and constructs the ChannelRef for
// externalRoomID.
func BuildChannelRef(c *Chat, adapterName, externalRoomID string) (ChannelRef, error) {
	a, err := c.Adapter(adapterName)
	if err != nil {
		return ChannelRef{}, err
	}
	return ChannelRef{
		ID:             ChannelIDFrom(adapterName, externalRoomID),
		AdapterName:    adapterName,
		Adapter:        a,
		ExternalRoomID: externalRoomID,
	}, nil
}

// Post sends a message addressed to the channel as a whole. When the
// adapter implements ChannelPoster that capability is used directly;
// otherwise it falls back to plain SendMessage — channel-level posting
// degrades to a regular send rather than failing outright (spec.md §4.2's
// Fallback semantics for post_channel_message).
func (ch ChannelRef) Post(ctx context.Context, content Postable, opts map[string]any) (SentMessage, error) {
	payload := content.ToPayload()
	merged := cloneAnyMap(opts)
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range payload.Metadata {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}

	var resp Response
	var err error
	if poster, ok := ch.Adapter.(ChannelPoster); ok {
		resp, err = poster.PostChannelMessage(ctx, ch.ExternalRoomID, payload.Text, merged)
	} else {
		resp, err = ch.Adapter.SendMessage(ctx, ch.ExternalRoomID, payload.Text, merged)
	}
	if err != nil {
		return SentMessage{}, err
	}
	return SentMessage{Response: resp, AdapterName: ch.AdapterName, Adapter: ch.Adapter, ExternalRoomID: ch.ExternalRoomID}, nil
}

// FetchMetadata retrieves the channel's metadata via the adapter's
// MetadataFetcher capability, falling back to a synthetic ChannelInfo
// carrying the channel id and a "fallback": true metadata flag when the
// adapter declares none (spec.md §4.2's
// Fallback semantics for fetch_metadata).
func (ch ChannelRef) FetchMetadata(ctx context.Context) (ChannelInfo, error) {
	fetcher, ok := ch.Adapter.(MetadataFetcher)
	if !ok {
		return ChannelInfo{ID: ch.ID, Metadata: map[string]any{"fallback": true}}, nil
	}
	return fetcher.FetchMetadata(ctx, ch.ExternalRoomID)
}

// Messages fetches one page of the channel's history via the adapter's
// ChannelMessagesFetcher capability, or ErrUnsupported.
func (ch ChannelRef) Messages(ctx context.Context, opts FetchOptions) (MessagePage, error) {
	fetcher, ok := ch.Adapter.(ChannelMessagesFetcher)
	if !ok {
		return MessagePage{}, &Ingress{Transport: IngressTransport(ch.AdapterName), Reason: "fetch_channel_messages", Cause: ErrUnsupported}
	}
	return fetcher.FetchChannelMessages(ctx, ch.ExternalRoomID, opts)
}

// AllMessages pages through the channel's entire history, deduplicating
// cursors seen so a misbehaving adapter that returns a repeated cursor
// cannot loop forever (spec.md §4.7).
func (ch ChannelRef) AllMessages(ctx context.Context) ([]Message, error) {
	var all []Message
	seen := map[string]struct{}{}
	cursor := ""
	for {
		page, err := ch.Messages(ctx, FetchOptions{Cursor: cursor})
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

// Threads lists one page of the channel's threads via the adapter's
// ThreadLister capability, or ErrUnsupported.
func (ch ChannelRef) Threads(ctx context.Context, opts FetchOptions) (ThreadPage, error) {
	lister, ok := ch.Adapter.(ThreadLister)
	if !ok {
		return ThreadPage{}, &Ingress{Transport: IngressTransport(ch.AdapterName), Reason: "list_threads", Cause: ErrUnsupported}
	}
	return lister.ListThreads(ctx, ch.ExternalRoomID, opts)
}

// ThreadsStream streams the channel's thread listing page by page, mirroring
// Thread.MessagesStream (spec.md §4.7).
func (ch ChannelRef) ThreadsStream(ctx context.Context) (<-chan ThreadSummary, <-chan error) {
	out := make(chan ThreadSummary)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		seen := map[string]struct{}{}
		cursor := ""
		for {
			page, err := ch.Threads(ctx, FetchOptions{Cursor: cursor})
			if err != nil {
				errc <- err
				return
			}
			for _, s := range page.Threads {
				select {
				case out <- s:
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
