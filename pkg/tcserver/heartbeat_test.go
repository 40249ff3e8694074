package tcserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeartbeatPayloadLayout(t *testing.T) {
	cs := newClientState(nil, 3)
	cs.SectionControlEnabled = true
	cs.SectionActual[0] = SectionOn
	cs.SectionActual[1] = SectionOff
	cs.SectionActual[2] = SectionOn

	payload := HeartbeatPayload(cs)
	assert.Equal(t, []byte{1, 3, 0b00000101}, payload)
}

func TestHeartbeatPayloadSizeScalesWithSections(t *testing.T) {
	cs := newClientState(nil, 20)
	payload := HeartbeatPayload(cs)
	// 2 header bytes + ceil(20/8) = 3 bitmap bytes.
	assert.Len(t, payload, 5)
}

func TestHeartbeatsOnePerClient(t *testing.T) {
	server, _, partner := activatedServer(t, 3)
	heartbeats := server.Heartbeats()
	a := assert.New(t)
	a.Contains(heartbeats, partner)
	a.Len(heartbeats[partner], 3) // 2 header bytes + ceil(3/8)=1 bitmap byte
}

func TestHeartbeatsSentAccumulatesAcrossCalls(t *testing.T) {
	server, _, _ := activatedServer(t, 3)
	server.Heartbeats()
	server.Heartbeats()
	assert.Equal(t, uint64(2), server.HeartbeatsSent())
}
