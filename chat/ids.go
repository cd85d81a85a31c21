package chat

import "github.com/google/uuid"

// newID generates an opaque identifier for values that need one but were
// not given an external id by the platform (new Chat ids, synthesized
// message/envelope ids). SentMessage values are never given a generated
// id: they carry the adapter's ExternalMessageID as returned, even when
// it is empty.
func newID() string {
	return uuid.New().String()
}
