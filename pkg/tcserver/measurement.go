package tcserver

import "github.com/agopengps/tc-bridge/pkg/ddop"

// RequestMeasurementCommands walks the pool of every client whose
// measurement subscriptions have not yet been requested, binding each
// relevant DDI to the element number that parents it and issuing the
// matching measurement subscription (spec.md §4.1.1). It is meant to be
// called every event-loop iteration; clients that are already subscribed,
// or whose pool is not yet installed, are skipped cheaply.
func (s *Server) RequestMeasurementCommands() {
	for _, partner := range s.store.Partners() {
		cs, ok := s.store.Get(partner)
		if !ok || cs.Pool == nil || cs.MeasurementCommandsSent {
			continue
		}
		s.bindAndSubscribe(partner, cs)
		cs.MeasurementCommandsSent = true
	}
}

func (s *Server) bindAndSubscribe(partner Partner, cs *ClientState) {
	for _, pd := range cs.Pool.ProcessData() {
		switch {
		case IsSubscribableDDI(pd.DDI):
			s.bindProcessData(partner, cs, pd, false)
		case IsChangeOnlyDDI(pd.DDI):
			if !pd.HasTrigger(ddop.TriggerOnChange) {
				continue
			}
			s.bindProcessData(partner, cs, pd, true)
		}
	}
}

// bindProcessData records the DDI's owning element and issues whatever
// subscriptions its trigger bits advertise. changeOnly is set for the
// step-2 DDIs (SectionControlState, SetpointWorkState,
// SetpointCondensedWorkState*): spec.md §4.1.1 step 2 subscribes those
// "only with the OnChange trigger", so a TimeInterval trigger bit on one of
// them must never produce a time-interval subscription, even if the object
// happens to advertise it.
func (s *Server) bindProcessData(partner Partner, cs *ClientState, pd *ddop.DeviceProcessData, changeOnly bool) {
	element, ok := cs.Pool.ParentOf(pd.ObjectID)
	if !ok {
		return
	}
	cs.DDIToElementNumber[pd.DDI] = element.Number

	if pd.HasTrigger(ddop.TriggerOnChange) {
		if err := s.transport.SubscribeOnChange(partner, element.Number, pd.DDI, 1); err != nil {
			s.logger.WithError(err).WithField("ddi", pd.DDI).Warn("on-change subscription failed")
		}
	}
	if changeOnly {
		return
	}
	if pd.HasTrigger(ddop.TriggerTimeInterval) {
		if err := s.transport.SubscribeTimeInterval(partner, element.Number, pd.DDI, 1000); err != nil {
			s.logger.WithError(err).WithField("ddi", pd.DDI).Warn("time-interval subscription failed")
		}
	}
}
