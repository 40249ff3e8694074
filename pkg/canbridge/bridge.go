// Package canbridge is the thin, concrete stand-in for the ISO 11783
// transport layer spec.md §1 treats as an external collaborator: address
// claim, the large-pool transport protocol, and periodic keep-alives are
// assumed to be handled underneath; this package only has to turn a
// tcserver.Transport call into an 8-byte CAN frame (and the reverse, for a
// real stack's inbound dispatch) over the pkg/can.Bus contract.
package canbridge

import (
	"encoding/binary"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/agopengps/tc-bridge/pkg/can"
	"github.com/agopengps/tc-bridge/pkg/tcserver"
)

// Frame IDs here stand in for proper PGN/source-address composition; bits
// 8-15 distinguish the message kind and the low 8 bits carry the partner
// handle so a real stack's per-partner addressing has an analogue to
// replace this with.
const (
	idSetValue              uint32 = 0x0CEF0000
	idSubscribeOnChange     uint32 = 0x0CEF0100
	idSubscribeTimeInterval uint32 = 0x0CEF0200
	idSpeed                 uint32 = 0x0CFE0000
)

// Bridge adapts a pkg/can.Bus into the capabilities the event loop needs:
// tcserver.Transport (SET-VALUE + subscriptions) and
// eventloop.SpeedInterface (cyclic speed broadcast). Pair it with
// NoopTransportPump for eventloop.TransportPump.
type Bridge struct {
	bus           can.Bus
	logger        *log.Entry
	lastSpeedMMPS uint32
}

func NewBridge(bus can.Bus) *Bridge {
	return &Bridge{bus: bus, logger: log.WithField("service", "[CANBRIDGE]")}
}

// processDataFrame lays out DDI(2B LE) + value(4B LE) + element(2B LE) into
// one 8-byte frame, the same shape a real ISO 11783-10 process data
// message's data field carries.
func processDataFrame(id uint32, element, ddi uint16, value uint32) can.Frame {
	f := can.NewFrame(id, 8)
	binary.LittleEndian.PutUint16(f.Data[0:2], ddi)
	binary.LittleEndian.PutUint32(f.Data[2:6], value)
	binary.LittleEndian.PutUint16(f.Data[6:8], element)
	return f
}

func frameID(base uint32, partner tcserver.Partner) uint32 {
	return (base &^ 0xFF) | (uint32(partner) & 0xFF)
}

func (b *Bridge) send(id uint32, element, ddi uint16, value uint32) error {
	if err := b.bus.Send(processDataFrame(id, element, ddi, value)); err != nil {
		return fmt.Errorf("canbridge: send failed: %w", err)
	}
	return nil
}

// SendSetValue implements tcserver.Transport.
func (b *Bridge) SendSetValue(partner tcserver.Partner, element uint16, ddi uint16, value uint32) error {
	return b.send(frameID(idSetValue, partner), element, ddi, value)
}

// SubscribeOnChange implements tcserver.Transport.
func (b *Bridge) SubscribeOnChange(partner tcserver.Partner, element uint16, ddi uint16, threshold uint32) error {
	return b.send(frameID(idSubscribeOnChange, partner), element, ddi, threshold)
}

// SubscribeTimeInterval implements tcserver.Transport.
func (b *Bridge) SubscribeTimeInterval(partner tcserver.Partner, element uint16, ddi uint16, intervalMs uint32) error {
	return b.send(frameID(idSubscribeTimeInterval, partner), element, ddi, intervalMs)
}

// Update implements eventloop.SpeedInterface's per-tick broadcast of the
// cached navigation-based machine speed (spec.md §4.4 step 5).
func (b *Bridge) Update() error {
	f := can.NewFrame(idSpeed, 4)
	binary.LittleEndian.PutUint32(f.Data[0:4], b.lastSpeedMMPS)
	if err := b.bus.Send(f); err != nil {
		return fmt.Errorf("canbridge: speed broadcast failed: %w", err)
	}
	return nil
}

// SetSpeed implements eventloop.SpeedInterface: caches the latest
// navigation-based machine speed for the next cyclic broadcast.
func (b *Bridge) SetSpeed(mmPerSecond uint32) {
	b.lastSpeedMMPS = mmPerSecond
}

// Handle implements can.FrameListener. A real ISO 11783 transport stack
// (out of scope per spec.md §1) would parse inbound frames here and invoke
// tcserver.Server's StorePool/ActivatePool/OnValueCommand hooks; this
// bridge only logs them, since that stack is assumed to sit underneath.
func (b *Bridge) Handle(frame can.Frame) {
	b.logger.WithField("id", frame.ID).Debug("inbound frame (no ISO 11783 stack wired)")
}

// NoopTransportPump implements eventloop.TransportPump for a CAN backend
// whose library already pumps its own receive goroutine (pkg/can/socketcan,
// pkg/can/virtual): there is nothing left for the event loop to drive.
type NoopTransportPump struct{}

func (NoopTransportPump) Update() error { return nil }
