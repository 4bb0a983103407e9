package codec

import "github.com/sigurn/crc16"

// crc16Table is CRC-16/ARC: poly 0x8005, init 0x0000, reflected in/out,
// no final xor — the exact parameterization spec.md §4.1 calls for.
var crc16Table = crc16.MakeTable(crc16.CRC16_ARC)

// CRC16 computes the serial-frame checksum over data.
func CRC16(data []byte) uint16 {
	return crc16.Checksum(data, crc16Table)
}

// CRC16Bytes returns the checksum as a big-endian two-byte trailer.
func CRC16Bytes(data []byte) [2]byte {
	sum := CRC16(data)
	return [2]byte{byte(sum >> 8), byte(sum)}
}
