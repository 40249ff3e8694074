// Package socketcan wraps github.com/brutella/can to provide the can.Bus
// contract over a Linux SocketCAN netdevice. All four adapters named in the
// CLI surface (peak-pcan, innomaker-usb2can, rusoku-toucan, sys-tec-usb2can)
// expose a standard SocketCAN netdevice once their kernel driver is loaded,
// so a single backend serves all of them; pkg/adapters resolves the
// adapter name + channel number to the netdevice name passed in here.
package socketcan

import (
	sockcan "github.com/brutella/can"
	log "github.com/sirupsen/logrus"

	"github.com/agopengps/tc-bridge/pkg/can"
)

func init() {
	can.RegisterInterface("socketcan", NewBus)
}

type Bus struct {
	bus        *sockcan.Bus
	rxCallback can.FrameListener
	logger     *log.Entry
}

func (b *Bus) Connect(...any) error {
	go func() {
		if err := b.bus.ConnectAndPublish(); err != nil {
			b.logger.WithError(err).Error("socketcan bus stopped")
		}
	}()
	return nil
}

func (b *Bus) Disconnect() error {
	return b.bus.Disconnect()
}

func (b *Bus) Send(frame can.Frame) error {
	return b.bus.Publish(sockcan.Frame{
		ID:     frame.ID,
		Length: frame.DLC,
		Flags:  frame.Flags,
		Data:   frame.Data,
	})
}

func (b *Bus) Subscribe(rxCallback can.FrameListener) error {
	b.rxCallback = rxCallback
	// brutella/can defines its own "Handle" interface for received frames
	b.bus.Subscribe(b)
	return nil
}

// Handle adapts a brutella/can frame to our adapter-independent Frame type.
func (b *Bus) Handle(frame sockcan.Frame) {
	b.rxCallback.Handle(can.Frame{ID: frame.ID, DLC: frame.Length, Flags: frame.Flags, Data: frame.Data})
}

func NewBus(name string) (can.Bus, error) {
	bus, err := sockcan.NewBusForInterfaceWithName(name)
	if err != nil {
		return nil, err
	}
	return &Bus{bus: bus, logger: log.WithField("service", "[SOCKETCAN]").WithField("channel", name)}, nil
}
