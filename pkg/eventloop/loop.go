// Package eventloop drives the single-threaded cooperative scheduler
// spec.md §4.4 describes: pump both AOG sockets, pull newly activated
// clients to steady state, drive the CAN-stack TC state machine, refresh
// the cyclic speed broadcast, and gate a 10 Hz AOG heartbeat — all from one
// goroutine, no per-client fan-out (spec.md §5).
package eventloop

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/agopengps/tc-bridge/pkg/aog"
	"github.com/agopengps/tc-bridge/pkg/tcserver"
)

const (
	heartbeatPeriod = 100 * time.Millisecond
	tickYield       = 2 * time.Millisecond
	heartbeatPGN    = 0xF0
)

// TransportPump is the underlying ISO 11783 transport's per-tick driver:
// transmitting queued SET-VALUEs and processing received frames. It is an
// external collaborator (spec.md §1); the loop only needs to call it once
// per iteration.
type TransportPump interface {
	Update() error
}

// AOGCodec is the subset of *aog.Codec the loop drives each tick. Modeling
// it as an interface keeps the scheduler's own logic (heartbeat gating,
// ordering) testable without a real pair of UDP sockets.
type AOGCodec interface {
	Pump(ctx context.Context)
	Send(pgn byte, payload []byte) bool
}

// SpeedInterface is the cyclic ISO 11783 speed-broadcast collaborator
// (spec.md §4.4 step 5), fed by the AOG steer-data handler and pumped once
// per iteration.
type SpeedInterface interface {
	SetSpeed(mmPerSecond uint32)
	Update() error
}

// Loop is the event loop. Construct one with New, wire its collaborators,
// then call Run.
type Loop struct {
	codec     AOGCodec
	tc        *tcserver.Server
	transport TransportPump
	speed     SpeedInterface
	logger    *log.Entry

	lastHeartbeat time.Time
}

func New(codec AOGCodec, tc *tcserver.Server, transport TransportPump, speed SpeedInterface) *Loop {
	return &Loop{
		codec:     codec,
		tc:        tc,
		transport: transport,
		speed:     speed,
		logger:    log.WithField("service", "[LOOP]"),
	}
}

// Run executes the scheduler until ctx is cancelled, then returns nil. Each
// iteration yields briefly to bound CPU use (spec.md §4.4: "SHOULD yield
// ~1-5 ms").
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		l.tick(ctx)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(tickYield):
		}
	}
}

func (l *Loop) tick(ctx context.Context) {
	l.codec.Pump(ctx)
	l.tc.RequestMeasurementCommands()

	if err := l.transport.Update(); err != nil {
		l.logger.WithError(err).Warn("transport update failed")
	}
	if err := l.speed.Update(); err != nil {
		l.logger.WithError(err).Warn("speed interface update failed")
	}

	if time.Since(l.lastHeartbeat) >= heartbeatPeriod {
		l.emitHeartbeats()
		l.lastHeartbeat = time.Now()
	}
}

func (l *Loop) emitHeartbeats() {
	for partner, payload := range l.tc.Heartbeats() {
		if !l.codec.Send(heartbeatPGN, payload) {
			l.logger.WithField("partner", partner).Warn("heartbeat send failed")
		}
	}
}

// HandleSteerData is the AOG codec's PGN 0xFE handler: it updates the
// cyclic speed broadcast and reconciles desired section states.
func (l *Loop) HandleSteerData(sd aog.SteerData) {
	l.speed.SetSpeed(aog.SpeedMMPerSecond(sd.SpeedKmhTenths))

	desired := make([]bool, len(sd.DesiredOn))
	copy(desired, sd.DesiredOn[:])
	l.tc.UpdateSectionStates(desired)
}

// HandleSectionControl is the AOG codec's PGN 0xF1 handler.
func (l *Loop) HandleSectionControl(enabled bool) {
	l.tc.UpdateSectionControlEnabled(enabled)
}
