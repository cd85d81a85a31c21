package chat_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatcore/sdk/chat"
)

// declaredOnlyAdapter declares edit_message as Native without implementing
// MessageEditor (spec.md §8 scenario S7).
type declaredOnlyAdapter struct {
	plainAdapter
}

func (a *declaredOnlyAdapter) Capabilities() chat.CapabilityMatrix {
	return chat.CapabilityMatrix{chat.OpEditMessage: chat.Native}
}

func TestValidateCapabilitiesCatchesUnimplementedNative(t *testing.T) {
	a := &declaredOnlyAdapter{plainAdapter: plainAdapter{name: "mock"}}
	offenders := chat.ValidateCapabilities(a)
	require.Len(t, offenders, 1)
	require.Equal(t, chat.OpEditMessage, offenders[0].Operation)
}

func TestValidateCapabilitiesPassesWhenImplemented(t *testing.T) {
	a := &mockAdapter{name: "mock", editable: true, declared: chat.CapabilityMatrix{chat.OpEditMessage: chat.Native}}
	offenders := chat.ValidateCapabilities(a)
	require.Empty(t, offenders)
}

func TestResolveCapabilitiesDefaultsUnimplementedOptionalToUnsupported(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	matrix := chat.ResolveCapabilities(a)
	require.Equal(t, chat.Unsupported, matrix[chat.OpEditMessage])
	require.Equal(t, chat.Unsupported, matrix[chat.OpAddReaction])
}

func TestResolveCapabilitiesFallsBackForDocumentedOps(t *testing.T) {
	a := &plainAdapter{name: "mock"}
	matrix := chat.ResolveCapabilities(a)
	require.Equal(t, chat.Fallback, matrix[chat.OpPostEphemeral])
	require.Equal(t, chat.Fallback, matrix[chat.OpStream])
}

func TestResolveCapabilitiesNativeWhenImplemented(t *testing.T) {
	a := &mockAdapter{name: "mock", editable: true}
	matrix := chat.ResolveCapabilities(a)
	require.Equal(t, chat.Native, matrix[chat.OpEditMessage])
}
