package aog

import "encoding/binary"

// SteerData is the decoded payload of a PGN 0xFE frame (spec.md §4.2, §6).
type SteerData struct {
	SpeedKmhTenths uint16
	Status         byte // observable but unused, spec.md §9 Open Questions
	DesiredOn      [16]bool
}

// DecodeSteerData parses a PGN 0xFE payload. Bytes 2..5 (status, xte) are
// only partially consumed per spec.md's documented layout; byte 2 is kept
// as Status, the rest is ignored.
func DecodeSteerData(payload []byte) SteerData {
	var sd SteerData
	if len(payload) >= 2 {
		sd.SpeedKmhTenths = binary.LittleEndian.Uint16(payload[0:2])
	}
	if len(payload) >= 3 {
		sd.Status = payload[2]
	}
	if len(payload) >= 8 {
		bitmap := binary.LittleEndian.Uint16(payload[6:8])
		for i := 0; i < 16; i++ {
			sd.DesiredOn[i] = bitmap&(1<<uint(i)) != 0
		}
	}
	return sd
}

// SpeedMMPerSecond converts 0.1 km/h units to mm/s using the mathematically
// correct integer form (spec.md §9: "fix on (speed * 100000) / 3600",
// replacing the source's inconsistent 1e5/3600 vs 1000/36 conversions).
func SpeedMMPerSecond(kmhTenths uint16) uint32 {
	return uint32(uint64(kmhTenths) * 100000 / 3600)
}
