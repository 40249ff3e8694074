package tcserver

import (
	"encoding/binary"
	"testing"

	"github.com/agopengps/tc-bridge/pkg/ddop"
)

// buildPoolBytes constructs a one-boom, sectionCount-section pool's raw
// wire bytes: a Function element (number 5) owning `sectionCount` Section
// children (numbers 10, 11, 12, ...) plus a single condensed-work-state
// process-data object bound to element 5, advertising both OnChange and
// TimeInterval triggers.
func buildPoolBytes(t *testing.T, sectionCount int) []byte {
	t.Helper()
	buf := []byte{}

	appendDevice := func(objID uint16, designator string) {
		buf = append(buf, byte(ddop.ObjectTypeDevice))
		buf = binary.LittleEndian.AppendUint16(buf, objID)
		buf = append(buf, byte(len(designator)))
		buf = append(buf, []byte(designator)...)
	}
	appendElement := func(objID, number uint16, elType ddop.ElementType, parent uint16, children []uint16) {
		buf = append(buf, byte(ddop.ObjectTypeDeviceElement))
		buf = binary.LittleEndian.AppendUint16(buf, objID)
		buf = binary.LittleEndian.AppendUint16(buf, number)
		buf = append(buf, byte(elType))
		buf = binary.LittleEndian.AppendUint16(buf, parent)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(children)))
		for _, c := range children {
			buf = binary.LittleEndian.AppendUint16(buf, c)
		}
	}
	appendProcessData := func(objID, ddi uint16, triggers uint8) {
		buf = append(buf, byte(ddop.ObjectTypeProcessData))
		buf = binary.LittleEndian.AppendUint16(buf, objID)
		buf = binary.LittleEndian.AppendUint16(buf, ddi)
		buf = append(buf, triggers)
	}

	children := make([]uint16, 0, sectionCount+1)
	const processDataID = 900
	children = append(children, processDataID)
	for i := 0; i < sectionCount; i++ {
		children = append(children, uint16(10+i))
	}

	appendDevice(0, "sprayer")
	appendElement(5, 5, ddop.ElementTypeFunction, 0, children)
	for i := 0; i < sectionCount; i++ {
		appendElement(uint16(10+i), uint16(10+i), ddop.ElementTypeSection, 5, nil)
	}
	appendProcessData(processDataID, ActualCondensedWorkStateDDI(0), ddop.TriggerOnChange|ddop.TriggerTimeInterval)

	return buf
}

// buildPoolBytesWithSectionControl is buildPoolBytes plus a second
// process-data object bound to the same element (5), carrying
// DDISectionControlState and advertising *both* OnChange and TimeInterval
// triggers — despite being one of the step-2, change-only DDIs (spec.md
// §4.1.1 step 2).
func buildPoolBytesWithSectionControl(t *testing.T, sectionCount int) []byte {
	t.Helper()
	buf := []byte{}

	appendDevice := func(objID uint16, designator string) {
		buf = append(buf, byte(ddop.ObjectTypeDevice))
		buf = binary.LittleEndian.AppendUint16(buf, objID)
		buf = append(buf, byte(len(designator)))
		buf = append(buf, []byte(designator)...)
	}
	appendElement := func(objID, number uint16, elType ddop.ElementType, parent uint16, children []uint16) {
		buf = append(buf, byte(ddop.ObjectTypeDeviceElement))
		buf = binary.LittleEndian.AppendUint16(buf, objID)
		buf = binary.LittleEndian.AppendUint16(buf, number)
		buf = append(buf, byte(elType))
		buf = binary.LittleEndian.AppendUint16(buf, parent)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(children)))
		for _, c := range children {
			buf = binary.LittleEndian.AppendUint16(buf, c)
		}
	}
	appendProcessData := func(objID, ddi uint16, triggers uint8) {
		buf = append(buf, byte(ddop.ObjectTypeProcessData))
		buf = binary.LittleEndian.AppendUint16(buf, objID)
		buf = binary.LittleEndian.AppendUint16(buf, ddi)
		buf = append(buf, triggers)
	}

	const actualProcessDataID = 900
	const sectionControlProcessDataID = 901
	children := make([]uint16, 0, sectionCount+2)
	children = append(children, actualProcessDataID, sectionControlProcessDataID)
	for i := 0; i < sectionCount; i++ {
		children = append(children, uint16(10+i))
	}

	appendDevice(0, "sprayer")
	appendElement(5, 5, ddop.ElementTypeFunction, 0, children)
	for i := 0; i < sectionCount; i++ {
		appendElement(uint16(10+i), uint16(10+i), ddop.ElementTypeSection, 5, nil)
	}
	appendProcessData(actualProcessDataID, ActualCondensedWorkStateDDI(0), ddop.TriggerOnChange|ddop.TriggerTimeInterval)
	appendProcessData(sectionControlProcessDataID, DDISectionControlState, ddop.TriggerOnChange|ddop.TriggerTimeInterval)

	return buf
}
