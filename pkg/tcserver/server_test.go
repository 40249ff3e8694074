package tcserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activatedServer(t *testing.T, sectionCount int) (*Server, *fakeTransport, Partner) {
	t.Helper()
	transport := &fakeTransport{}
	server := NewServer(transport)

	const partner Partner = 42
	server.StorePool(partner, buildPoolBytes(t, sectionCount), false)
	ok, actErr, poolErr, _, _ := server.ActivatePool(partner)
	require.True(t, ok, "activation failed: %v / %v", actErr, poolErr)
	return server, transport, partner
}

// S1: pool upload & bind.
func TestActivatePoolBindsSections(t *testing.T) {
	server, _, partner := activatedServer(t, 3)

	cs, ok := server.Store().Get(partner)
	require.True(t, ok)
	assert.Equal(t, 3, cs.NumberOfSections)

	server.RequestMeasurementCommands()
	assert.Equal(t, uint16(5), cs.DDIToElementNumber[ActualCondensedWorkStateDDI(0)])
	assert.True(t, cs.MeasurementCommandsSent)
}

func TestActivatePoolNoChunksFails(t *testing.T) {
	server := NewServer(&fakeTransport{})
	ok, actErr, _, _, _ := server.ActivatePool(Partner(1))
	assert.False(t, ok)
	assert.Equal(t, ActivationErrorNoChunks, actErr)
}

func TestActivatePoolMalformedFails(t *testing.T) {
	server := NewServer(&fakeTransport{})
	server.StorePool(Partner(1), []byte{0xFF, 0x00, 0x00}, false)
	ok, actErr, poolErr, _, _ := server.ActivatePool(Partner(1))
	assert.False(t, ok)
	assert.Equal(t, ActivationErrorParseFailed, actErr)
	assert.Error(t, poolErr)
}

// S2: actual state -> AOG heartbeat.
func TestOnValueCommandActualConsensedWorkStateFeedsHeartbeat(t *testing.T) {
	server, _, partner := activatedServer(t, 3)

	// ON, ON, OFF packed into the low 3 slots of the window.
	value := PackWindow([]SectionState{SectionOn, SectionOn, SectionOff})
	ok := server.OnValueCommand(partner, ActualCondensedWorkStateDDI(0), 5, value)
	require.True(t, ok)

	cs, _ := server.Store().Get(partner)
	payload := HeartbeatPayload(cs)
	assert.Equal(t, []byte{0, 3, 0b00000011}, payload)
}

func TestOnValueCommandActualWorkStateWritesActualNotSetpoint(t *testing.T) {
	server, _, partner := activatedServer(t, 3)

	ok := server.OnValueCommand(partner, DDIActualWorkState, 5, 1)
	require.True(t, ok)

	cs, _ := server.Store().Get(partner)
	assert.True(t, cs.ActualWorkState)
	assert.False(t, cs.SetpointWorkState)
}

func TestOnValueCommandSectionControlState(t *testing.T) {
	server, _, partner := activatedServer(t, 3)

	require.True(t, server.OnValueCommand(partner, DDISectionControlState, 5, 1))
	cs, _ := server.Store().Get(partner)
	assert.True(t, cs.SectionControlEnabled)
}

func TestOnValueCommandUnknownPartnerFails(t *testing.T) {
	server := NewServer(&fakeTransport{})
	assert.False(t, server.OnValueCommand(Partner(99), DDIActualWorkState, 5, 1))
}

// S6: timeout cleanup.
func TestOnClientTimeoutDropsStateKeepsChunks(t *testing.T) {
	server, _, partner := activatedServer(t, 3)

	server.OnClientTimeout(partner)
	_, ok := server.Store().Get(partner)
	assert.False(t, ok)

	// A fresh activation should still succeed from the retained chunks.
	ok, _, _, _, _ := server.ActivatePool(partner)
	assert.True(t, ok)
}

func TestPoolStoredLookupsAlwaysFalse(t *testing.T) {
	server := NewServer(&fakeTransport{})
	assert.False(t, server.PoolStoredByStructureLabel(Partner(1), []byte("x")))
	assert.False(t, server.PoolStoredByLocalizationLabel(Partner(1), []byte("x")))
}

func TestEnoughMemoryAlwaysTrue(t *testing.T) {
	server := NewServer(&fakeTransport{})
	assert.True(t, server.EnoughMemory(1<<30))
}
