package tcserver

// HeartbeatPayload builds the AOG heartbeat payload for a client (PGN
// 0xF0, spec.md §4.1.4): section-control flag, section count, then the
// actual-on bitmap, LSB-first, one bit per section.
func HeartbeatPayload(cs *ClientState) []byte {
	payload := make([]byte, 2, 2+(cs.NumberOfSections+7)/8)
	if cs.SectionControlEnabled {
		payload[0] = 1
	}
	payload[1] = byte(cs.NumberOfSections)

	bitmap := make([]byte, (cs.NumberOfSections+7)/8)
	for i, st := range cs.SectionActual {
		if st == SectionOn {
			bitmap[i/8] |= 1 << uint(i%8)
		}
	}
	return append(payload, bitmap...)
}

// Heartbeats builds one payload per currently installed client, keyed by
// partner, for the event loop's 10 Hz emission pass.
func (s *Server) Heartbeats() map[Partner][]byte {
	out := make(map[Partner][]byte)
	for _, partner := range s.store.Partners() {
		cs, ok := s.store.Get(partner)
		if !ok {
			continue
		}
		out[partner] = HeartbeatPayload(cs)
	}
	s.heartbeatsSent += uint64(len(out))
	return out
}

// HeartbeatsSent reports the running count of per-client heartbeat payloads
// built across all calls to Heartbeats, for status display.
func (s *Server) HeartbeatsSent() uint64 {
	return s.heartbeatsSent
}
