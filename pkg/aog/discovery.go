package aog

import (
	"net"

	"github.com/agopengps/tc-bridge/pkg/subnet"
)

// ParseSubnetAnnounce recognises the PGN 0xC9 discovery payload
// (spec.md §4.2: `[0xC9, 0xC9, A, B, C]`).
func ParseSubnetAnnounce(payload []byte) (subnet.Config, bool) {
	if len(payload) != 5 || payload[0] != 0xC9 || payload[1] != 0xC9 {
		return subnet.Config{}, false
	}
	return subnet.Config{A: payload[2], B: payload[3], C: payload[4]}, true
}

// findLocalIP returns the address of the first local interface whose first
// three octets match cfg, or loopback if none match (spec.md §3).
func findLocalIP(cfg subnet.Config) net.IP {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return net.IPv4(127, 0, 0, 1)
	}
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		ip4 := ipNet.IP.To4()
		if ip4 == nil {
			continue
		}
		if ip4[0] == cfg.A && ip4[1] == cfg.B && ip4[2] == cfg.C {
			return ip4
		}
	}
	return net.IPv4(127, 0, 0, 1)
}
