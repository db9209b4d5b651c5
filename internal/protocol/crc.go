package protocol

// Extended messages carry a checksum in their trailing user data bytes.
// Older firmware uses a one-byte sum (CRC-1) in userData14; newer i2cs
// firmware uses a bit-serial 16-bit CRC (CRC-2) in userData13/userData14.

// span returns the bytes from command1 through the named last field, inclusive
func (m *Message) span(last string) ([]byte, error) {
	start, err := m.field(FieldCommand1)
	if err != nil {
		return nil, err
	}
	end, err := m.field(last)
	if err != nil {
		return nil, err
	}
	if end.Offset < start.Offset || end.Offset >= len(m.data) {
		return nil, fieldError("invalid checksum span %s..%s", FieldCommand1, last)
	}
	return m.data[start.Offset : end.Offset+1], nil
}

// checksum1 is the two's complement of the byte sum
func checksum1(data []byte) byte {
	var sum byte
	for _, b := range data {
		sum += b
	}
	return ^sum + 1
}

// checksum2 runs the bit-serial CRC, least significant bit of each byte first
func checksum2(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		for bit := 0; bit < 8; bit++ {
			fb := uint16(b & 0x01)
			if crc&0x8000 == 0 {
				fb ^= 1
			}
			if crc&0x4000 == 0 {
				fb ^= 1
			}
			if crc&0x1000 == 0 {
				fb ^= 1
			}
			crc = crc<<1 | fb
			b >>= 1
		}
	}
	return crc
}

// CRC computes the one-byte checksum over command1..userData13
func (m *Message) CRC() (byte, error) {
	data, err := m.span("userData13")
	if err != nil {
		return 0, err
	}
	return checksum1(data), nil
}

// SetCRC stores the one-byte checksum in userData14
func (m *Message) SetCRC() error {
	crc, err := m.CRC()
	if err != nil {
		return err
	}
	return m.SetByte("userData14", crc)
}

// HasValidCRC reports whether userData14 holds the one-byte checksum
func (m *Message) HasValidCRC() bool {
	crc, err := m.CRC()
	if err != nil {
		return false
	}
	stored, err := m.Byte("userData14")
	return err == nil && stored == crc
}

// CRC2 computes the two-byte checksum over command1..userData12
func (m *Message) CRC2() (uint16, error) {
	data, err := m.span("userData12")
	if err != nil {
		return 0, err
	}
	return checksum2(data), nil
}

// SetCRC2 stores the two-byte checksum in userData13 (high) and userData14 (low)
func (m *Message) SetCRC2() error {
	crc, err := m.CRC2()
	if err != nil {
		return err
	}
	if err := m.SetByte("userData13", byte(crc>>8)); err != nil {
		return err
	}
	return m.SetByte("userData14", byte(crc))
}

// HasValidCRC2 reports whether userData13/userData14 hold the two-byte checksum
func (m *Message) HasValidCRC2() bool {
	crc, err := m.CRC2()
	if err != nil {
		return false
	}
	stored, err := m.Int16("userData13")
	return err == nil && uint16(stored) == crc
}
