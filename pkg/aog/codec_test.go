package aog

import (
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/agopengps/tc-bridge/pkg/subnet"
)

func testLogger() *log.Entry {
	return log.WithField("service", "[TEST]")
}

func TestDispatchMainIgnoresForeignSource(t *testing.T) {
	var got bool
	c := &Codec{handlers: Handlers{OnSectionControl: func(enabled bool) { got = true }}}
	c.dispatchMain(Frame{Source: 0x01, PGN: PGNSectionControl, Payload: []byte{1}})
	assert.False(t, got)
}

func TestDispatchMainSectionControl(t *testing.T) {
	var enabled bool
	c := &Codec{handlers: Handlers{OnSectionControl: func(e bool) { enabled = e }}}
	c.dispatchMain(Frame{Source: SourceAOG, PGN: PGNSectionControl, Payload: []byte{1}})
	assert.True(t, enabled)
}

func TestDispatchMainSteerData(t *testing.T) {
	var got SteerData
	c := &Codec{handlers: Handlers{OnSteerData: func(sd SteerData) { got = sd }}}
	payload := Encode(SourceAOG, PGNSteerData, make([]byte, 8))[5:13]
	c.dispatchMain(Frame{Source: SourceAOG, PGN: PGNSteerData, Payload: payload})
	assert.Equal(t, SteerData{}, got)
}

func TestDispatchDiscoverySubnetAnnounceInvokesHandler(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	c := &Codec{
		logger: testLogger(),
		cfg:    subnet.Default(),
	}
	var announced subnet.Config
	c.handlers = Handlers{OnSubnetAnnounce: func(cfg subnet.Config) { announced = cfg }}
	c.mainConn = nil // rebind will fail to bind a real socket only if findLocalIP picks an address already in use; loopback bind is safe in test sandboxes

	c.dispatchDiscovery(Frame{Source: SourceAOG, PGN: PGNSubnetAnnounce, Payload: []byte{0xC9, 0xC9, 16, 32, 48}})

	assert.Equal(t, subnet.Config{A: 16, B: 32, C: 48}, announced)
	assert.Equal(t, subnet.Config{A: 16, B: 32, C: 48}, c.Subnet())
	c.Close()
}
