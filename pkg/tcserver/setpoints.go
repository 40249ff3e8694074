package tcserver

// UpdateSectionStates reconciles every client's desired section-on vector
// (as delivered by AOG's steer-data frame) against its cached setpoints,
// emitting one SET-VALUE per dirty 16-section window and, if the overall
// on/off state changed, one SetpointWorkState SET-VALUE (spec.md §4.1.2).
//
// Clients with section control disabled are skipped entirely on entry
// (spec.md §9: prefer the entry-gate over gating inside the flush, since it
// avoids accumulating diffs that will never be sent).
func (s *Server) UpdateSectionStates(desired []bool) {
	for _, partner := range s.store.Partners() {
		cs, ok := s.store.Get(partner)
		if !ok || !cs.SectionControlEnabled {
			continue
		}
		s.updateClientSectionStates(partner, cs, desired)
	}
}

func (s *Server) updateClientSectionStates(partner Partner, cs *ClientState, desired []bool) {
	n := cs.NumberOfSections
	for w := range cs.dirtyWindow {
		cs.dirtyWindow[w] = false
	}

	for i := 0; i < n; i++ {
		want := false
		if i < len(desired) {
			want = desired[i]
		}
		cur := cs.SectionSetpoint[i] == SectionOn
		if want != cur {
			if want {
				cs.SectionSetpoint[i] = SectionOn
			} else {
				cs.SectionSetpoint[i] = SectionOff
			}
			cs.dirtyWindow[i/condensedWorkStateWindows] = true
		}

		if (i+1)%condensedWorkStateWindows == 0 {
			s.flushWindow(partner, cs, i/condensedWorkStateWindows)
		}
	}
	if n > 0 {
		s.flushWindow(partner, cs, (n-1)/condensedWorkStateWindows)
	}

	anyOn := false
	for _, st := range cs.SectionSetpoint {
		if st == SectionOn {
			anyOn = true
			break
		}
	}
	if anyOn != cs.SetpointWorkState {
		if element, ok := cs.DDIToElementNumber[DDISetpointWorkState]; ok {
			if err := s.transport.SendSetValue(partner, element, DDISetpointWorkState, boolToUint32(anyOn)); err != nil {
				s.logger.WithError(err).Warn("setpoint work state SET-VALUE failed")
			}
		}
		cs.SetpointWorkState = anyOn
	}
}

// flushWindow emits the packed SetpointCondensedWorkState SET-VALUE for
// window w if it was marked dirty, then clears the flag.
func (s *Server) flushWindow(partner Partner, cs *ClientState, w int) {
	if !cs.dirtyWindow[w] {
		return
	}
	cs.dirtyWindow[w] = false

	start := w * condensedWorkStateWindows
	end := start + condensedWorkStateWindows
	if end > len(cs.SectionSetpoint) {
		end = len(cs.SectionSetpoint)
	}
	word := PackWindow(cs.SectionSetpoint[start:end])
	ddi := SetpointCondensedWorkStateDDI(w)

	element, ok := cs.DDIToElementNumber[ddi]
	if !ok {
		return
	}
	if err := s.transport.SendSetValue(partner, element, ddi, word); err != nil {
		s.logger.WithError(err).WithField("ddi", ddi).Warn("setpoint window SET-VALUE failed")
	}
}

// UpdateSectionControlEnabled propagates a new auto/manual mode to every
// client whose cached state differs (spec.md §4.1.3).
func (s *Server) UpdateSectionControlEnabled(enabled bool) {
	for _, partner := range s.store.Partners() {
		cs, ok := s.store.Get(partner)
		if !ok || cs.SectionControlEnabled == enabled {
			continue
		}
		cs.SectionControlEnabled = enabled
		element, ok := cs.DDIToElementNumber[DDISectionControlState]
		if !ok {
			continue
		}
		if err := s.transport.SendSetValue(partner, element, DDISectionControlState, boolToUint32(enabled)); err != nil {
			s.logger.WithError(err).Warn("section control SET-VALUE failed")
		}
	}
}
