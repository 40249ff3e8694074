// Package tcserver implements the ISO 11783-10 task controller state
// machine: per-partner pool lifecycle, DDI-to-element binding, and
// setpoint/actual section-state reconciliation (spec.md §4.1).
//
// The underlying ISO 11783 transport (address claim, large-pool transport
// protocol, periodic keep-alives) is an external collaborator; Server only
// implements the hooks that collaborator invokes and the Transport
// capability it requires in return.
package tcserver

import (
	log "github.com/sirupsen/logrus"
)

// Server is registered with the underlying ISO 11783 stack as its set of
// task-controller callbacks (spec.md §9: a value type providing closures /
// a capability interface, not a stack-base subclass).
type Server struct {
	store          *Store
	transport      Transport
	logger         *log.Entry
	heartbeatsSent uint64
}

func NewServer(transport Transport) *Server {
	return &Server{
		store:     NewStore(),
		transport: transport,
		logger:    log.WithField("service", "[TC]"),
	}
}

// Store exposes the underlying Store, for callers that need to inspect the
// installed ClientStates directly.
func (s *Server) Store() *Store { return s.store }

// StorePool appends an uploaded DDOP fragment. Always succeeds; never
// parses (spec.md §4.1 store_pool).
func (s *Server) StorePool(partner Partner, chunk []byte, continuing bool) {
	s.store.StorePool(partner, chunk, continuing)
}

// ActivatePool attempts to deserialise the partner's uploaded chunks and
// install a ClientState.
func (s *Server) ActivatePool(partner Partner) (ok bool, actErr ActivationError, poolErr error, parentObjectID, objectID uint16) {
	ok, actErr, poolErr, parentObjectID, objectID = s.store.ActivatePool(partner)
	if !ok {
		s.logger.WithError(poolErr).WithField("partner", partner).Warn("pool activation failed")
		return
	}
	s.logger.WithField("partner", partner).Info("pool activated")
	return
}

// DeactivatePool drops the partner's ClientState and pending chunks.
func (s *Server) DeactivatePool(partner Partner) {
	s.store.DeactivatePool(partner)
}

// DeletePool is the explicit-delete counterpart of DeactivatePool.
func (s *Server) DeletePool(partner Partner) {
	s.store.DeletePool(partner)
}

// PoolStoredByStructureLabel always answers false: this core persists no
// DDOP across runs (spec.md §1 Non-goals), forcing the client to re-upload.
func (s *Server) PoolStoredByStructureLabel(partner Partner, label []byte) bool {
	return false
}

// PoolStoredByLocalizationLabel is the localization-label counterpart of
// PoolStoredByStructureLabel.
func (s *Server) PoolStoredByLocalizationLabel(partner Partner, label []byte) bool {
	return false
}

// EnoughMemory always answers true; this core imposes no pool size limit.
func (s *Server) EnoughMemory(size uint32) bool {
	return true
}

// IdentifyTaskController is a no-op: the visual indicator this hook drives
// is not supported here.
func (s *Server) IdentifyTaskController(number uint8) {}

// OnClientTimeout drops the partner's ClientState after ISO 11783 silence
// (>6s, detected by the transport, spec.md §5).
func (s *Server) OnClientTimeout(partner Partner) {
	s.store.OnClientTimeout(partner)
	s.logger.WithField("partner", partner).Warn("client timed out")
}

// OnValueCommand applies an inbound process-data value from the implement
// (spec.md §4.1 on_value_command). Unrecognised DDIs are accepted silently.
func (s *Server) OnValueCommand(partner Partner, ddi uint16, element uint16, value uint32) bool {
	cs, ok := s.store.Get(partner)
	if !ok {
		return false
	}

	if window, ok := ActualCondensedWorkStateWindow(ddi); ok {
		offset := window * condensedWorkStateWindows
		states := UnpackWindow(value)
		for i, st := range states {
			cs.SetActual(offset+i, st)
		}
		return true
	}

	switch ddi {
	case DDISectionControlState:
		cs.SectionControlEnabled = value == 1
	case DDIActualWorkState:
		// Fixes a known source bug that wrote this into setpoint_work_state
		// instead (spec.md §9 Open Questions).
		cs.ActualWorkState = value == 1
	}
	return true
}

// OnProcessDataAcknowledge only logs; no state transition follows an ack.
func (s *Server) OnProcessDataAcknowledge(partner Partner, ddi uint16, element uint16, errorCode uint8) {
	s.logger.WithFields(log.Fields{"partner": partner, "ddi": ddi, "element": element}).Debug("process data acknowledged")
}

// OnChangeDesignator acknowledges a designator change without acting on
// it.
func (s *Server) OnChangeDesignator(partner Partner, objectID uint16, designator string) bool {
	return true
}

// Terminate runs once the event loop has stopped (spec.md §4.4: "the loop
// exits, then tc.terminate() and CAN shutdown run on the same thread").
// There is no per-client teardown beyond what the underlying transport's
// own shutdown already does; this exists so callers have a single,
// named place to hook future cleanup rather than reaching into Store.
func (s *Server) Terminate() {
	s.logger.Info("task controller terminating")
}
