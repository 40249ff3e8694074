package canbridge

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agopengps/tc-bridge/pkg/can"
	"github.com/agopengps/tc-bridge/pkg/tcserver"
)

type fakeBus struct {
	sent []can.Frame
}

func (f *fakeBus) Connect(...any) error                    { return nil }
func (f *fakeBus) Disconnect() error                        { return nil }
func (f *fakeBus) Subscribe(callback can.FrameListener) error { return nil }
func (f *fakeBus) Send(frame can.Frame) error {
	f.sent = append(f.sent, frame)
	return nil
}

func TestSendSetValueEncodesProcessDataFrame(t *testing.T) {
	bus := &fakeBus{}
	b := NewBridge(bus)

	require.NoError(t, b.SendSetValue(tcserver.Partner(7), 5, 0x00D3, 0xABCD))
	require.Len(t, bus.sent, 1)

	frame := bus.sent[0]
	assert.Equal(t, uint16(0x00D3), binary.LittleEndian.Uint16(frame.Data[0:2]))
	assert.Equal(t, uint32(0xABCD), binary.LittleEndian.Uint32(frame.Data[2:6]))
	assert.Equal(t, uint16(5), binary.LittleEndian.Uint16(frame.Data[6:8]))
}

func TestSetSpeedThenUpdateBroadcasts(t *testing.T) {
	bus := &fakeBus{}
	b := NewBridge(bus)

	b.SetSpeed(1234)
	require.NoError(t, b.Update())

	require.Len(t, bus.sent, 1)
	assert.Equal(t, uint32(1234), binary.LittleEndian.Uint32(bus.sent[0].Data[0:4]))
}

func TestNoopTransportPumpNeverErrors(t *testing.T) {
	assert.NoError(t, NoopTransportPump{}.Update())
}
