package chat

import (
	"errors"
	"sort"
	"time"
)

// ToPlain renders a Chat into a JSON-friendly map[string]any suitable for
// durable storage (spec.md §4.8). Handlers are not serializable — they are
// closures — so only their per-class counts are carried, via
// HandlerTable.Counts; adapters are live connections and are carried by
// name only. A host reviving a Chat must re-register both via ReviveChat's
// adapters argument and its own handler-registration calls.
//
// Subscriptions is rendered as a sorted sequence so serialization is
// deterministic and diff-friendly. The Dedupe set is not emitted on its
// own: DedupeOrder is kept verbatim (its order is significant) and
// ReviveChat rebuilds Dedupe from it.
func ToPlain(c *Chat) map[string]any {
	return map[string]any{
		"__type__":     "chat",
		"id":           c.ID,
		"user_name":    c.UserName,
		"initialized":  c.Initialized,
		"adapters":     sortedAdapterNames(c.Adapters),
		"subscriptions": sortedStringSet(c.Subscriptions),
		"dedupe_order": plainDedupeOrder(c.DedupeOrder),
		"handler_counts": c.Handlers.Counts(),
		"thread_state":   plainStateMap(c.ThreadState),
		"channel_state":  plainStateMap(c.ChannelState),
		"metadata":       cloneAnyMap(c.Metadata),
	}
}

// ReviveChat reconstructs a Chat from ToPlain's output. adapters re-wires
// live adapter implementations by the names carried in the "adapters"
// field — any serialized adapter name absent from this map is dropped
// rather than erroring, since the serialized name alone carries no way to
// reconstruct a live connection (spec.md §9, Open Questions #2: Initialized
// is advisory and is restored as-is, it gates nothing here either).
//
// Registered handlers are NOT restored — callers must re-run their own
// RegisterMention/RegisterMessage/... calls after revival; only the
// per-class counts from the serialized form are available for
// verification via the returned Chat's Handlers.Counts().
func ReviveChat(data map[string]any, adapters map[string]Adapter) (*Chat, error) {
	id, _ := data["id"].(string)
	userName, _ := data["user_name"].(string)
	initialized, _ := data["initialized"].(bool)

	c := &Chat{
		ID:            id,
		UserName:      userName,
		Initialized:   initialized,
		Adapters:      map[string]Adapter{},
		Subscriptions: map[string]struct{}{},
		Dedupe:        map[dedupeKey]struct{}{},
		ThreadState:   map[string]map[string]any{},
		ChannelState:  map[string]map[string]any{},
		Metadata:      map[string]any{},
	}

	for _, name := range stringSlice(data["adapters"]) {
		if a, ok := adapters[trimLower(name)]; ok {
			c.Adapters[trimLower(name)] = a
		}
	}

	for _, threadID := range stringSlice(data["subscriptions"]) {
		c.Subscriptions[threadID] = struct{}{}
	}

	order := revivePlainDedupeOrder(data["dedupe_order"])
	dedupe := make(map[dedupeKey]struct{}, len(order))
	for _, k := range order {
		dedupe[k] = struct{}{}
	}
	c.DedupeOrder = order
	c.Dedupe = dedupe

	c.ThreadState = reviveStateMap(data["thread_state"])
	c.ChannelState = reviveStateMap(data["channel_state"])

	if meta, ok := data["metadata"].(map[string]any); ok {
		c.Metadata = cloneAnyMap(meta)
	}

	c.mentionRe, _ = mentionPattern(c.UserName)

	return c, nil
}

func sortedAdapterNames(adapters map[string]Adapter) []string {
	names := make([]string, 0, len(adapters))
	for name := range adapters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedStringSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func plainDedupeOrder(order []dedupeKey) []map[string]string {
	out := make([]map[string]string, len(order))
	for i, k := range order {
		out[i] = map[string]string{"adapter": k.Adapter, "external_message_id": k.ExternalMessageID}
	}
	return out
}

func revivePlainDedupeOrder(v any) []dedupeKey {
	raw, ok := v.([]map[string]string)
	if ok {
		out := make([]dedupeKey, len(raw))
		for i, m := range raw {
			out[i] = dedupeKey{Adapter: m["adapter"], ExternalMessageID: m["external_message_id"]}
		}
		return out
	}
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]dedupeKey, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		adapter, _ := m["adapter"].(string)
		msgID, _ := m["external_message_id"].(string)
		out = append(out, dedupeKey{Adapter: adapter, ExternalMessageID: msgID})
	}
	return out
}

func plainStateMap(m map[string]map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneAnyMap(v)
	}
	return out
}

func reviveStateMap(v any) map[string]map[string]any {
	out := map[string]map[string]any{}
	if typed, ok := v.(map[string]map[string]any); ok {
		for k, nested := range typed {
			out[k] = cloneAnyMap(nested)
		}
		return out
	}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, raw := range m {
		if nested, ok := raw.(map[string]any); ok {
			out[k] = cloneAnyMap(nested)
		}
	}
	return out
}

func stringSlice(v any) []string {
	switch values := v.(type) {
	case []string:
		return values
	case []any:
		out := make([]string, 0, len(values))
		for _, item := range values {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// formatISO8601 renders t in the wire-stable ISO8601/RFC3339 form used
// across the serialized model's timestamps.
func formatISO8601(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseISO8601 is formatISO8601's inverse: it parses an RFC3339 string
// back into a time.Time, returning the zero value for anything else.
func parseISO8601(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func strField(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func stringMapToAny(m map[string]string) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func anyMapToStringMap(v any) map[string]string {
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, raw := range m {
			if s, ok := raw.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}

// Revive is the single entry point spec.md §6 describes: it dispatches on
// a plain map's "__type__" tag and reconstructs the matching canonical Go
// value. A map carrying no recognized tag (or no tag at all) passes
// through unchanged, as spec.md §6 requires. adapters resolves any live
// Adapter fields (Thread.Adapter, ChannelRef.Adapter, SentMessage.Adapter)
// by the adapter name carried in the plain form — exactly as ReviveChat
// already does for Chat.Adapters.
func Revive(data map[string]any, adapters map[string]Adapter) (any, error) {
	tag, _ := data["__type__"].(string)
	switch tag {
	case "chat":
		return ReviveChat(data, adapters)
	case "thread":
		return ReviveThread(data, adapters)
	case "channel":
		return ReviveChannelRef(data, adapters)
	case "message":
		return ReviveMessage(data)
	case "sent_message":
		return ReviveSentMessage(data, adapters)
	case "event_envelope":
		return ReviveEventEnvelope(data)
	case "ingress_result":
		return ReviveIngress(data)
	case "modal_result":
		return ReviveModalResult(data)
	case "capability_matrix":
		return ReviveCapabilityMatrix(data)
	case "webhook_request":
		return ReviveWebhookRequest(data)
	case "webhook_response":
		return ReviveWebhookResponse(data)
	case "post_payload":
		return RevivePostPayload(data)
	default:
		return data, nil
	}
}

// ToPlainThread renders a Thread into its plain map form. The live Adapter
// is carried by name only, like Chat.Adapters (spec.md §6).
func ToPlainThread(t Thread) map[string]any {
	return map[string]any{
		"__type__":           "thread",
		"id":                 t.ID,
		"adapter_name":       t.AdapterName,
		"external_room_id":   t.ExternalRoomID,
		"external_thread_id": t.ExternalThreadID,
		"channel_id":         t.ChannelID,
		"is_dm":              t.IsDM,
		"metadata":           cloneAnyMap(t.Metadata),
	}
}

// ReviveThread is ToPlainThread's inverse. adapters resolves the Adapter
// field by the carried adapter name; an unresolved name leaves it nil,
// mirroring ReviveChat's drop-rather-than-error behavior.
func ReviveThread(data map[string]any, adapters map[string]Adapter) (Thread, error) {
	meta, _ := data["metadata"].(map[string]any)
	adapterName := strField(data, "adapter_name")
	t := Thread{
		ID:               strField(data, "id"),
		AdapterName:      adapterName,
		ExternalRoomID:   strField(data, "external_room_id"),
		ExternalThreadID: strField(data, "external_thread_id"),
		ChannelID:        strField(data, "channel_id"),
		IsDM:             boolField(data, "is_dm"),
		Metadata:         cloneAnyMap(meta),
	}
	if a, ok := adapters[trimLower(adapterName)]; ok {
		t.Adapter = a
	}
	return t, nil
}

func boolField(data map[string]any, key string) bool {
	b, _ := data[key].(bool)
	return b
}

// ToPlainChannelRef renders a ChannelRef into its plain map form.
func ToPlainChannelRef(ch ChannelRef) map[string]any {
	return map[string]any{
		"__type__":         "channel",
		"id":               ch.ID,
		"adapter_name":     ch.AdapterName,
		"external_room_id": ch.ExternalRoomID,
		"metadata":         cloneAnyMap(ch.Metadata),
	}
}

// ReviveChannelRef is ToPlainChannelRef's inverse.
func ReviveChannelRef(data map[string]any, adapters map[string]Adapter) (ChannelRef, error) {
	meta, _ := data["metadata"].(map[string]any)
	adapterName := strField(data, "adapter_name")
	ch := ChannelRef{
		ID:             strField(data, "id"),
		AdapterName:    adapterName,
		ExternalRoomID: strField(data, "external_room_id"),
		Metadata:       cloneAnyMap(meta),
	}
	if a, ok := adapters[trimLower(adapterName)]; ok {
		ch.Adapter = a
	}
	return ch, nil
}

// ToPlainMessage renders a Message into its plain map form. Author and
// Media are already flat, JSON-tagged value types with no revival logic of
// their own, so they are carried as the typed values themselves (Author as
// the same *Author pointer, Media as the same slice) rather than further
// decomposed into maps.
func ToPlainMessage(m Message) map[string]any {
	return map[string]any{
		"__type__":   "message",
		"id":         m.ID,
		"thread_id":  m.ThreadID,
		"channel_id": m.ChannelID,
		"author_id":  m.AuthorID,
		"author":     m.Author,
		"text":       m.Text,
		"is_mention": m.IsMention,
		"media":      m.Media,
		"created_at": formatISO8601(m.CreatedAt),
		"metadata":   cloneAnyMap(m.Metadata),
	}
}

// ReviveMessage is ToPlainMessage's inverse.
func ReviveMessage(data map[string]any) (Message, error) {
	meta, _ := data["metadata"].(map[string]any)
	var author *Author
	switch a := data["author"].(type) {
	case *Author:
		author = a
	case Author:
		author = &a
	}
	var media []Media
	if m, ok := data["media"].([]Media); ok {
		media = m
	}
	return Message{
		ID:        strField(data, "id"),
		ThreadID:  strField(data, "thread_id"),
		ChannelID: strField(data, "channel_id"),
		AuthorID:  strField(data, "author_id"),
		Author:    author,
		Text:      strField(data, "text"),
		IsMention: boolField(data, "is_mention"),
		Media:     media,
		CreatedAt: parseISO8601(data["created_at"]),
		Metadata:  cloneAnyMap(meta),
	}, nil
}

// ToPlainSentMessage renders a SentMessage into its plain map form.
func ToPlainSentMessage(s SentMessage) map[string]any {
	return map[string]any{
		"__type__":            "sent_message",
		"external_message_id": s.ExternalMessageID,
		"external_room_id":    s.ExternalRoomID,
		"text":                s.Text,
		"status":              string(s.Status),
		"timestamp":           formatISO8601(s.Timestamp),
		"raw":                 s.Raw,
		"metadata":            cloneAnyMap(s.Metadata),
		"adapter_name":        s.AdapterName,
	}
}

// ReviveSentMessage is ToPlainSentMessage's inverse. adapters resolves the
// Adapter field by name, as in ReviveThread.
func ReviveSentMessage(data map[string]any, adapters map[string]Adapter) (SentMessage, error) {
	raw, _ := data["raw"].(map[string]any)
	meta, _ := data["metadata"].(map[string]any)
	adapterName := strField(data, "adapter_name")
	externalRoomID := strField(data, "external_room_id")
	s := SentMessage{
		Response: Response{
			ExternalMessageID: strField(data, "external_message_id"),
			ExternalRoomID:    externalRoomID,
			Text:              strField(data, "text"),
			Status:            ResponseStatus(strField(data, "status")),
			Timestamp:         parseISO8601(data["timestamp"]),
			Raw:               raw,
			Metadata:          cloneAnyMap(meta),
		},
		AdapterName:    adapterName,
		ExternalRoomID: externalRoomID,
	}
	if a, ok := adapters[trimLower(adapterName)]; ok {
		s.Adapter = a
	}
	return s, nil
}

// ToPlainEventEnvelope renders an EventEnvelope into its plain map form.
// Exactly one Payload* field is populated for a given Type (the same
// invariant the live struct holds), so the plain form carries it under a
// single "payload" key rather than one key per payload variant.
func ToPlainEventEnvelope(env EventEnvelope) map[string]any {
	data := map[string]any{
		"__type__":     "event_envelope",
		"id":           env.ID,
		"adapter_name": env.AdapterName,
		"type":         string(env.Type),
		"thread_id":    env.ThreadID,
		"channel_id":   env.ChannelID,
		"message_id":   env.MessageID,
		"raw":          env.Raw,
		"metadata":     cloneAnyMap(env.Metadata),
	}
	switch env.Type {
	case EventMessage:
		data["payload"] = env.PayloadMessage
	case EventReaction:
		data["payload"] = env.PayloadReaction
	case EventAction:
		data["payload"] = env.PayloadAction
	case EventModalSubmit:
		data["payload"] = env.PayloadModalSubmit
	case EventModalClose:
		data["payload"] = env.PayloadModalClose
	case EventSlashCommand:
		data["payload"] = env.PayloadSlashCommand
	case EventAssistantThreadStarted:
		data["payload"] = env.PayloadAssistantThreadStarted
	case EventAssistantContextChanged:
		data["payload"] = env.PayloadAssistantContextChanged
	}
	return data
}

// ReviveEventEnvelope is ToPlainEventEnvelope's inverse, routing the
// "payload" value back into the one Payload* field matching its concrete
// type.
func ReviveEventEnvelope(data map[string]any) (EventEnvelope, error) {
	raw, _ := data["raw"].(map[string]any)
	meta, _ := data["metadata"].(map[string]any)
	env := EventEnvelope{
		ID:          strField(data, "id"),
		AdapterName: strField(data, "adapter_name"),
		Type:        EventType(strField(data, "type")),
		ThreadID:    strField(data, "thread_id"),
		ChannelID:   strField(data, "channel_id"),
		MessageID:   strField(data, "message_id"),
		Raw:         raw,
		Metadata:    cloneAnyMap(meta),
	}
	switch payload := data["payload"].(type) {
	case *Incoming:
		env.PayloadMessage = payload
	case *ReactionEvent:
		env.PayloadReaction = payload
	case *ActionEvent:
		env.PayloadAction = payload
	case *ModalSubmitEvent:
		env.PayloadModalSubmit = payload
	case *ModalCloseEvent:
		env.PayloadModalClose = payload
	case *SlashCommandEvent:
		env.PayloadSlashCommand = payload
	case *AssistantThreadStartedEvent:
		env.PayloadAssistantThreadStarted = payload
	case *AssistantContextChangedEvent:
		env.PayloadAssistantContextChanged = payload
	}
	return env, nil
}

// ToPlainIngress renders an *Ingress into its plain map form. Cause is
// carried as its error message only — Go error values have no generic
// plain-data form — so a revived Ingress wraps a new plain error rather
// than the original sentinel; errors.Is comparisons against the original
// sentinel are not expected to survive a round trip (spec.md §8 testable
// property 6 excuses handler lists and datetime precision, and this is the
// same class of necessary lossiness for a non-serializable Go value).
func ToPlainIngress(e *Ingress) map[string]any {
	data := map[string]any{
		"__type__":  "ingress_result",
		"transport": string(e.Transport),
		"reason":    e.Reason,
	}
	if e.Cause != nil {
		data["cause"] = e.Cause.Error()
	}
	return data
}

// ReviveIngress is ToPlainIngress's inverse.
func ReviveIngress(data map[string]any) (*Ingress, error) {
	e := &Ingress{
		Transport: IngressTransport(strField(data, "transport")),
		Reason:    strField(data, "reason"),
	}
	if cause := strField(data, "cause"); cause != "" {
		e.Cause = errors.New(cause)
	}
	return e, nil
}

// ToPlainModalResult renders a ModalResult into its plain map form.
func ToPlainModalResult(m ModalResult) map[string]any {
	return map[string]any{
		"__type__": "modal_result",
		"id":       m.ID,
		"metadata": cloneAnyMap(m.Metadata),
	}
}

// ReviveModalResult is ToPlainModalResult's inverse.
func ReviveModalResult(data map[string]any) (ModalResult, error) {
	meta, _ := data["metadata"].(map[string]any)
	return ModalResult{ID: strField(data, "id"), Metadata: cloneAnyMap(meta)}, nil
}

// ToPlainCapabilityMatrix renders a CapabilityMatrix into its plain map
// form: operation names to support-status strings, under "operations".
func ToPlainCapabilityMatrix(m CapabilityMatrix) map[string]any {
	ops := make(map[string]any, len(m))
	for op, support := range m {
		ops[string(op)] = string(support)
	}
	return map[string]any{
		"__type__":   "capability_matrix",
		"operations": ops,
	}
}

// ReviveCapabilityMatrix is ToPlainCapabilityMatrix's inverse.
func ReviveCapabilityMatrix(data map[string]any) (CapabilityMatrix, error) {
	out := CapabilityMatrix{}
	raw, ok := data["operations"].(map[string]any)
	if !ok {
		return out, nil
	}
	for op, v := range raw {
		if s, ok := v.(string); ok {
			out[Operation(op)] = Support(s)
		}
	}
	return out, nil
}

// ToPlainWebhookRequest renders a WebhookRequest into its plain map form.
func ToPlainWebhookRequest(r WebhookRequest) map[string]any {
	return map[string]any{
		"__type__":     "webhook_request",
		"adapter_name": r.AdapterName,
		"method":       r.Method,
		"headers":      stringMapToAny(r.Headers),
		"query":        stringMapToAny(r.Query),
		"body":         string(r.Body),
	}
}

// ReviveWebhookRequest is ToPlainWebhookRequest's inverse.
func ReviveWebhookRequest(data map[string]any) (WebhookRequest, error) {
	return WebhookRequest{
		AdapterName: strField(data, "adapter_name"),
		Method:      strField(data, "method"),
		Headers:     anyMapToStringMap(data["headers"]),
		Query:       anyMapToStringMap(data["query"]),
		Body:        []byte(strField(data, "body")),
	}, nil
}

// ToPlainWebhookResponse renders a WebhookResponse into its plain map
// form.
func ToPlainWebhookResponse(r WebhookResponse) map[string]any {
	return map[string]any{
		"__type__": "webhook_response",
		"status":   r.Status,
		"body":     string(r.Body),
		"headers":  stringMapToAny(r.Headers),
	}
}

// ReviveWebhookResponse is ToPlainWebhookResponse's inverse.
func ReviveWebhookResponse(data map[string]any) (WebhookResponse, error) {
	status := 0
	switch v := data["status"].(type) {
	case int:
		status = v
	case int64:
		status = int(v)
	case float64:
		status = int(v)
	}
	return WebhookResponse{
		Status:  status,
		Body:    []byte(strField(data, "body")),
		Headers: anyMapToStringMap(data["headers"]),
	}, nil
}

// ToPlainPostPayload renders a PostPayload into its plain map form.
func ToPlainPostPayload(p PostPayload) map[string]any {
	return map[string]any{
		"__type__": "post_payload",
		"text":     p.Text,
		"metadata": cloneAnyMap(p.Metadata),
	}
}

// RevivePostPayload is ToPlainPostPayload's inverse.
func RevivePostPayload(data map[string]any) (PostPayload, error) {
	meta, _ := data["metadata"].(map[string]any)
	return PostPayload{Text: strField(data, "text"), Metadata: cloneAnyMap(meta)}, nil
}
