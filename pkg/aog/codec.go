package aog

import (
	"context"
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"

	"github.com/agopengps/tc-bridge/pkg/subnet"
)

const (
	udpPort       = 8888
	broadcastPort = 9999
)

// Handlers are the callbacks Codec invokes for each dispatched frame kind.
// Wiring these is the TC server's and event loop's job, not the codec's.
type Handlers struct {
	OnSteerData      func(SteerData)
	OnSectionControl func(enabled bool)
	OnSubnetAnnounce func(subnet.Config)
}

// Codec owns the two AOG UDP sockets (spec.md §4.2) and the current
// subnet, rebinding the main socket whenever a discovery announce commits a
// new one.
type Codec struct {
	logger           *log.Entry
	handlers         Handlers
	validateChecksum bool

	cfg           subnet.Config
	mainSocket    *socket
	discSocket    *socket
	mainConn      *net.UDPConn
	discConn      *net.UDPConn
}

// New binds both sockets against the given initial subnet and returns a
// ready Codec.
func New(ctx context.Context, cfg subnet.Config, handlers Handlers, validateChecksum bool) (*Codec, error) {
	logger := log.WithField("service", "[AOG]")

	discConn, err := bindUDP(ctx, "0.0.0.0", udpPort)
	if err != nil {
		return nil, fmt.Errorf("aog: discovery socket: %w", err)
	}

	c := &Codec{
		logger:           logger,
		handlers:         handlers,
		validateChecksum: validateChecksum,
		cfg:              cfg,
		discConn:         discConn,
	}
	c.discSocket = newSocket(discConn, c.dispatchDiscovery, validateChecksum, logger.WithField("socket", "discovery"))

	if err := c.rebind(ctx, cfg); err != nil {
		discConn.Close()
		return nil, err
	}
	return c, nil
}

func bindUDP(ctx context.Context, ip string, port int) (*net.UDPConn, error) {
	addr := fmt.Sprintf("%s:%d", ip, port)
	conn, err := broadcastListenConfig.ListenPacket(ctx, "udp4", addr)
	if err != nil {
		return nil, err
	}
	return conn.(*net.UDPConn), nil
}

// rebind closes and re-establishes the main socket against the interface
// whose prefix matches cfg (spec.md §4.2 subnet announce handling).
func (c *Codec) rebind(ctx context.Context, cfg subnet.Config) error {
	if c.mainConn != nil {
		c.mainConn.Close()
	}

	ip := findLocalIP(cfg)
	conn, err := bindUDP(ctx, ip.String(), udpPort)
	if err != nil {
		return fmt.Errorf("aog: main socket bind to %s: %w", ip, err)
	}

	c.cfg = cfg
	c.mainConn = conn
	c.mainSocket = newSocket(conn, c.dispatchMain, c.validateChecksum, c.logger.WithField("socket", "main"))
	return nil
}

// Pump runs one tick of both sockets (event loop steps 1-2, spec.md §4.4).
func (c *Codec) Pump(ctx context.Context) {
	c.discSocket.Pump()
	c.mainSocket.Pump()
}

func (c *Codec) dispatchMain(frame Frame) {
	if frame.Source != SourceAOG {
		return
	}
	switch frame.PGN {
	case PGNSteerData:
		if c.handlers.OnSteerData != nil {
			c.handlers.OnSteerData(DecodeSteerData(frame.Payload))
		}
	case PGNSectionControl:
		if len(frame.Payload) >= 1 && c.handlers.OnSectionControl != nil {
			c.handlers.OnSectionControl(frame.Payload[0] == 1)
		}
	}
}

func (c *Codec) dispatchDiscovery(frame Frame) {
	if frame.Source != SourceAOG || frame.PGN != PGNSubnetAnnounce {
		return
	}
	cfg, ok := ParseSubnetAnnounce(frame.Payload)
	if !ok {
		return
	}

	if err := subnet.Save(cfg); err != nil {
		c.logger.WithError(err).Warn("failed to persist announced subnet")
	}
	if err := c.rebind(context.Background(), cfg); err != nil {
		c.logger.WithError(err).Error("failed to rebind main socket to announced subnet")
		return
	}
	if c.handlers.OnSubnetAnnounce != nil {
		c.handlers.OnSubnetAnnounce(cfg)
	}
}

// Send emits a frame from the main socket to the current subnet's
// broadcast address. Errors are logged and swallowed, returning false
// (spec.md §4.2).
func (c *Codec) Send(pgn byte, payload []byte) bool {
	dst := &net.UDPAddr{
		IP:   net.IPv4(c.cfg.A, c.cfg.B, c.cfg.C, 255),
		Port: broadcastPort,
	}
	buf := Encode(SourceTC, pgn, payload)
	if _, err := c.mainConn.WriteToUDP(buf, dst); err != nil {
		c.logger.WithError(err).Warn("send failed")
		return false
	}
	return true
}

// Close releases both sockets.
func (c *Codec) Close() {
	if c.mainConn != nil {
		c.mainConn.Close()
	}
	if c.discConn != nil {
		c.discConn.Close()
	}
}

// Subnet returns the subnet currently in effect.
func (c *Codec) Subnet() subnet.Config { return c.cfg }

// FramesDropped reports the running count of datagrams or frames discarded
// across both sockets, for status display (spec.md §4.1.4 has no counter
// requirement of its own; this is purely observability).
func (c *Codec) FramesDropped() uint64 {
	return c.mainSocket.dropped + c.discSocket.dropped
}
