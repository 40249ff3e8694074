package tcserver

// Data Description Indices this server understands, per spec.md §3/§4.1.
// Values follow the ISO 11783-11 process-data DDI catalogue's shape: a
// handful of scalar DDIs plus two 16-wide contiguous ranges of "condensed
// work state" DDIs, one per direction.
const (
	DDIActualWorkState    uint16 = 0x00A2
	DDISetpointWorkState  uint16 = 0x00A1
	DDISectionControlState uint16 = 0x00A3

	// ddiActualCondensedWorkStateBase is DDI "ActualCondensedWorkState1_16";
	// ddiActualCondensedWorkStateBase+k (k=0..15) is the DDI covering
	// sections (16k+1)..(16k+16), up to "241_256".
	ddiActualCondensedWorkStateBase   uint16 = 0x00D3
	ddiSetpointCondensedWorkStateBase uint16 = 0x00E3

	condensedWorkStateWindows = 16
)

// ActualCondensedWorkStateDDI returns the DDI for the given 16-section
// window index (0 => sections 1-16, 15 => sections 241-256).
func ActualCondensedWorkStateDDI(window int) uint16 {
	return ddiActualCondensedWorkStateBase + uint16(window)
}

// SetpointCondensedWorkStateDDI is the setpoint-direction counterpart.
func SetpointCondensedWorkStateDDI(window int) uint16 {
	return ddiSetpointCondensedWorkStateBase + uint16(window)
}

// ActualCondensedWorkStateWindow reports which window a DDI belongs to, if
// it falls within the 16-wide ActualCondensedWorkState range.
func ActualCondensedWorkStateWindow(ddi uint16) (window int, ok bool) {
	if ddi < ddiActualCondensedWorkStateBase || ddi >= ddiActualCondensedWorkStateBase+condensedWorkStateWindows {
		return 0, false
	}
	return int(ddi - ddiActualCondensedWorkStateBase), true
}

// SetpointCondensedWorkStateWindow is the setpoint-direction counterpart.
func SetpointCondensedWorkStateWindow(ddi uint16) (window int, ok bool) {
	if ddi < ddiSetpointCondensedWorkStateBase || ddi >= ddiSetpointCondensedWorkStateBase+condensedWorkStateWindows {
		return 0, false
	}
	return int(ddi - ddiSetpointCondensedWorkStateBase), true
}

// IsSubscribableDDI reports whether this DDI is one request_measurement_commands
// (spec.md §4.1.1) walks the pool for.
func IsSubscribableDDI(ddi uint16) bool {
	if ddi == DDIActualWorkState {
		return true
	}
	_, ok := ActualCondensedWorkStateWindow(ddi)
	return ok
}

// IsChangeOnlyDDI reports whether this DDI is only ever subscribed with the
// OnChange trigger (spec.md §4.1.1 step 2).
func IsChangeOnlyDDI(ddi uint16) bool {
	if ddi == DDISectionControlState || ddi == DDISetpointWorkState {
		return true
	}
	_, ok := SetpointCondensedWorkStateWindow(ddi)
	return ok
}
