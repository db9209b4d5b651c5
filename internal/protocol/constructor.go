package protocol

// Message constructor library for building commands to send to the modem.
// Each builder starts from a definition template and fills the fields the
// PLM needs; callers may adjust further fields before sending.

// Flag values used by the outbound builders
const (
	// FlagsStandard is a direct standard message, max hops 3, hops left 3
	FlagsStandard = 0x0F
	// FlagsExtended is a direct extended message, max hops 3, hops left 3
	FlagsExtended = 0x1F
	// FlagsAllLinkBroadcast is an all-link broadcast, max hops 3, hops left 3
	FlagsAllLinkBroadcast = 0xCF
)

// CRCKind selects the checksum embedded by MakeExtendedMessage
type CRCKind int

const (
	CRCNone CRCKind = iota
	CRC1
	CRC2
)

func (k CRCKind) String() string {
	switch k {
	case CRC1:
		return "crc1"
	case CRC2:
		return "crc2"
	default:
		return "none"
	}
}

// NewMessage creates a message from the named definition's template
//
// Returns:
//   - Message ready for field setters
//   - Error of type ErrTypeUnknownMessage if no such definition exists
func NewMessage(defs *Definitions, name string) (*Message, error) {
	def, ok := defs.Lookup(name)
	if !ok {
		return nil, unknownMessageError("no definition named %s", name)
	}
	return newMessage(def), nil
}

// MakePureNack returns the single-byte NACK message
func MakePureNack(defs *Definitions) (*Message, error) {
	return NewMessage(defs, PureNackDefinition)
}

// MakeBroadcastMessage builds an all-link broadcast to a group
//
// Layout (SendStandardMessage):
//
//	[0]     0x02           Sync
//	[1]     0x62           Cmd
//	[2-4]   00.00.group    toAddress (synthetic group address)
//	[5]     0xCF           messageFlags
//	[6]     cmd1           command1
//	[7]     cmd2           command2
func MakeBroadcastMessage(defs *Definitions, group byte, cmd1, cmd2 byte) (*Message, error) {
	m, err := NewMessage(defs, "SendStandardMessage")
	if err != nil {
		return nil, err
	}
	if err := m.setDirect(GroupAddress(group), FlagsAllLinkBroadcast, cmd1, cmd2); err != nil {
		return nil, err
	}
	return m, nil
}

// MakeStandardMessage builds a direct standard-length message to addr
//
// Example:
//
//	msg, err := MakeStandardMessage(defs, addr, 0x11, 0xFF) // on, full level
func MakeStandardMessage(defs *Definitions, addr Address, cmd1, cmd2 byte) (*Message, error) {
	m, err := NewMessage(defs, "SendStandardMessage")
	if err != nil {
		return nil, err
	}
	if err := m.setDirect(addr, FlagsStandard, cmd1, cmd2); err != nil {
		return nil, err
	}
	m.QuietTime = DefaultStandardQuietTime
	return m, nil
}

// MakeExtendedMessage builds a direct extended message to addr
//
// Parameters:
//   - data: up to 14 user data bytes, written from userData1 onwards
//   - crc: checksum to compute after the user data is in place
//
// A CRC overwrites the trailing user data byte(s), so data intended for
// userData13/14 is lost when crc is not CRCNone.
func MakeExtendedMessage(defs *Definitions, addr Address, cmd1, cmd2 byte, data []byte, crc CRCKind) (*Message, error) {
	m, err := NewMessage(defs, "SendExtendedMessage")
	if err != nil {
		return nil, err
	}
	if err := m.setDirect(addr, FlagsExtended, cmd1, cmd2); err != nil {
		return nil, err
	}
	if err := m.SetUserData(data); err != nil {
		return nil, err
	}

	switch crc {
	case CRC1:
		err = m.SetCRC()
	case CRC2:
		err = m.SetCRC2()
	}
	if err != nil {
		return nil, err
	}

	m.QuietTime = DefaultExtendedQuietTime
	return m, nil
}

func (m *Message) setDirect(addr Address, flags byte, cmd1, cmd2 byte) error {
	if err := m.SetAddress(FieldToAddress, addr); err != nil {
		return err
	}
	if err := m.SetByte(FieldMessageFlags, flags); err != nil {
		return err
	}
	if err := m.SetByte(FieldCommand1, cmd1); err != nil {
		return err
	}
	return m.SetByte(FieldCommand2, cmd2)
}
