// Package adapters resolves a --can_adapter name and channel number into a
// concrete SocketCAN netdevice plus its default bitrate (SPEC_FULL §D.1),
// using the same ini.v1-based lookup the teacher's EDS parser uses for
// objects, applied here to a much smaller built-in document.
package adapters

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// catalogue is the built-in adapter-name -> device-template/bitrate map,
// covering the adapters spec.md §6 enumerates for --can_adapter.
const catalogue = `
[peak-pcan]
device = can%d
bitrate = 250000

[innomaker-usb2can]
device = can%d
bitrate = 250000

[rusoku-toucan]
device = can%d
bitrate = 250000

[sys-tec-usb2can]
device = can%d
bitrate = 250000
`

// Resolved is a concrete SocketCAN interface selection.
type Resolved struct {
	Device  string
	Bitrate int
}

// Resolve maps an adapter name and channel index to a SocketCAN netdevice
// name and bitrate. An unknown adapter name is a fatal configuration error
// per spec.md §7 ("unknown adapter values are fatal").
func Resolve(adapter string, channel int) (Resolved, error) {
	doc, err := ini.Load([]byte(catalogue))
	if err != nil {
		// The catalogue is a compile-time constant; a parse failure here is
		// a programmer error, not a runtime configuration error.
		panic(fmt.Sprintf("adapters: built-in catalogue failed to parse: %v", err))
	}

	if !doc.HasSection(adapter) {
		return Resolved{}, fmt.Errorf("adapters: unknown can_adapter %q", adapter)
	}
	section := doc.Section(adapter)

	device := fmt.Sprintf(section.Key("device").String(), channel)
	bitrate, err := section.Key("bitrate").Int()
	if err != nil {
		return Resolved{}, fmt.Errorf("adapters: malformed bitrate for %q: %w", adapter, err)
	}
	return Resolved{Device: device, Bitrate: bitrate}, nil
}

// Names lists every adapter name the catalogue recognises, for CLI help
// text and validation error messages.
func Names() []string {
	doc, err := ini.Load([]byte(catalogue))
	if err != nil {
		panic(fmt.Sprintf("adapters: built-in catalogue failed to parse: %v", err))
	}
	var names []string
	for _, section := range doc.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		names = append(names, section.Name())
	}
	return names
}
