package protocol

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Wire constants
const (
	SyncByte     = 0x02 // Start of every framed message
	PureNackByte = 0x15 // Bare NACK sent by the modem when its buffer is full
	AckByte      = 0x06 // ACK/NACK field value for an accepted command
	NackByte     = 0x15 // ACK/NACK field value for a rejected command

	// SuccessReportCommand is cmd1 of an all-link success report
	SuccessReportCommand = 0x06

	// MaxUserData is the number of user data bytes in an extended message
	MaxUserData = 14
)

// Default quiet times applied by the outbound constructors
const (
	DefaultStandardQuietTime = 500 * time.Millisecond
	DefaultExtendedQuietTime = 2000 * time.Millisecond
)

// PureNackDefinition is the name of the bare NACK definition
const PureNackDefinition = "PureNACK"

// NoGroup is returned by Group when the message carries no group number
const NoGroup = -1

// Message is a fixed-length byte buffer bound to the definition describing it
type Message struct {
	data []byte
	def  *Definition

	Priority  Priority
	QuietTime time.Duration

	// Per-attempt bookkeeping, reset by Copy
	Timestamp time.Time
	Expired   bool
	Replayed  bool
}

// newMessage creates a message initialized from the definition template
func newMessage(def *Definition) *Message {
	return &Message{
		data:     def.Template(),
		def:      def,
		Priority: PriorityNormal,
	}
}

// NewInboundMessage binds a received byte sequence to def.
// The bytes are copied; their length must equal the definition length.
func NewInboundMessage(def *Definition, data []byte) (*Message, error) {
	if len(data) != def.Length() {
		return nil, fieldError("message %s needs %d bytes, got %d", def.Name, def.Length(), len(data))
	}
	return &Message{
		data:     append([]byte(nil), data...),
		def:      def,
		Priority: PriorityNormal,
	}, nil
}

// Definition returns the definition this message was built from
func (m *Message) Definition() *Definition { return m.def }

// Name returns the definition name
func (m *Message) Name() string { return m.def.Name }

// Len returns the message length in bytes
func (m *Message) Len() int { return len(m.data) }

// Bytes returns a copy of the raw message bytes
func (m *Message) Bytes() []byte {
	return append([]byte(nil), m.data...)
}

// Hex returns the message bytes as a hex string
func (m *Message) Hex() string {
	return strings.ToUpper(hex.EncodeToString(m.data))
}

func (m *Message) field(name string) (Field, error) {
	f, ok := m.def.Field(name)
	if !ok {
		return Field{}, fieldError("message %s has no field %s", m.def.Name, name)
	}
	return f, nil
}

// HasField reports whether the definition declares the named field
func (m *Message) HasField(name string) bool {
	_, ok := m.def.Field(name)
	return ok
}

// Byte returns the value of a byte field
func (m *Message) Byte(name string) (byte, error) {
	f, err := m.field(name)
	if err != nil {
		return 0, err
	}
	return f.Byte(m.data)
}

// SetByte sets the value of a byte field
func (m *Message) SetByte(name string, b byte) error {
	f, err := m.field(name)
	if err != nil {
		return err
	}
	return f.SetByte(m.data, b)
}

// Int returns a byte field as an unsigned integer
func (m *Message) Int(name string) (int, error) {
	b, err := m.Byte(name)
	if err != nil {
		return 0, err
	}
	return int(b), nil
}

// Address returns the value of an address field
func (m *Message) Address(name string) (Address, error) {
	f, err := m.field(name)
	if err != nil {
		return Address{}, err
	}
	return f.Address(m.data)
}

// SetAddress sets the value of an address field
func (m *Message) SetAddress(name string, a Address) error {
	f, err := m.field(name)
	if err != nil {
		return err
	}
	return f.SetAddress(m.data, a)
}

// SetString parses text into the named field (see Field.SetFromString)
func (m *Message) SetString(name string, text string) error {
	f, err := m.field(name)
	if err != nil {
		return err
	}
	return f.SetFromString(m.data, text)
}

// readUint reads n big-endian bytes starting at the named field's offset
func (m *Message) readUint(name string, n int) (int, error) {
	f, err := m.field(name)
	if err != nil {
		return 0, err
	}
	if f.Offset+n > len(m.data) {
		return 0, fieldError("%d-byte read of %s at offset %d exceeds message length %d", n, name, f.Offset, len(m.data))
	}
	v := 0
	for _, b := range m.data[f.Offset : f.Offset+n] {
		v = v<<8 | int(b)
	}
	return v, nil
}

// Int16 reads two bytes starting at the named field, big-endian
func (m *Message) Int16(name string) (int, error) { return m.readUint(name, 2) }

// Int24 reads three bytes starting at the named field, big-endian
func (m *Message) Int24(name string) (int, error) { return m.readUint(name, 3) }

// Int32 reads four bytes starting at the named field, big-endian
func (m *Message) Int32(name string) (int, error) { return m.readUint(name, 4) }

func userDataField(i int) string {
	return fmt.Sprintf("userData%d", i)
}

// UserData returns the 14 user data bytes of an extended message
func (m *Message) UserData() ([]byte, error) {
	out := make([]byte, MaxUserData)
	for i := range out {
		b, err := m.Byte(userDataField(i + 1))
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// SetUserData writes data into userData1 onwards
func (m *Message) SetUserData(data []byte) error {
	if len(data) > MaxUserData {
		return fieldError("user data is %d bytes, max %d", len(data), MaxUserData)
	}
	for i, b := range data {
		if err := m.SetByte(userDataField(i+1), b); err != nil {
			return err
		}
	}
	return nil
}

// Command returns the modem command byte (the Cmd field)
func (m *Message) Command() (byte, bool) {
	b, err := m.Byte(FieldCmd)
	if err != nil {
		return 0, false
	}
	return b, true
}

// Flags returns the message flags byte, if the message has one
func (m *Message) Flags() (byte, bool) {
	b, err := m.Byte(FieldMessageFlags)
	if err != nil {
		return 0, false
	}
	return b, true
}

// Type classifies the message from its flags. Messages without a flags
// field are MsgTypeInvalid.
func (m *Message) Type() MsgType {
	flags, ok := m.Flags()
	if !ok {
		return MsgTypeInvalid
	}
	return MsgTypeFromFlags(flags)
}

func (m *Message) IsBroadcast() bool          { return m.Type() == MsgTypeBroadcast }
func (m *Message) IsDirect() bool             { return m.Type() == MsgTypeDirect }
func (m *Message) IsAckOfDirect() bool        { return m.Type() == MsgTypeAckOfDirect }
func (m *Message) IsNackOfDirect() bool       { return m.Type() == MsgTypeNackOfDirect }
func (m *Message) IsAllLinkBroadcast() bool   { return m.Type() == MsgTypeAllLinkBroadcast }
func (m *Message) IsAllLinkCleanup() bool     { return m.Type() == MsgTypeAllLinkCleanup }
func (m *Message) IsAllLinkCleanupAck() bool  { return m.Type() == MsgTypeAllLinkCleanupAck }
func (m *Message) IsAllLinkCleanupNack() bool { return m.Type() == MsgTypeAllLinkCleanupNack }

// IsAllLinkSuccessReport reports an all-link broadcast with cmd1 0x06.
// Its toAddress carries the original cmd1 in the high byte and the group in the low byte.
func (m *Message) IsAllLinkSuccessReport() bool {
	if !m.IsAllLinkBroadcast() {
		return false
	}
	cmd1, err := m.Byte(FieldCommand1)
	return err == nil && cmd1 == SuccessReportCommand
}

// IsExtended tests the extended bit of the flags byte
func (m *Message) IsExtended() bool {
	flags, ok := m.Flags()
	return ok && flags&FlagExtended != 0
}

// HopsLeft returns the remaining hop count from the flags byte
func (m *Message) HopsLeft() int {
	flags, _ := m.Flags()
	return int(flags&FlagHopsLeft) >> hopsLeftShift
}

// MaxHops returns the maximum hop count from the flags byte
func (m *Message) MaxHops() int {
	flags, _ := m.Flags()
	return int(flags & FlagMaxHops)
}

// IsPureNack reports the single-byte NACK the modem sends when busy
func (m *Message) IsPureNack() bool {
	return len(m.data) == 1 && m.data[0] == PureNackByte
}

// IsInbound reports a message sent by the modem
func (m *Message) IsInbound() bool { return m.def.Direction == FromModem }

// IsOutbound reports a message destined for the modem
func (m *Message) IsOutbound() bool { return m.def.Direction == ToModem }

// IsReply reports a modem echo of a host command (it carries an ACK/NACK byte)
func (m *Message) IsReply() bool {
	return m.IsInbound() && m.HasField(FieldAckNack)
}

// IsAck reports a modem reply that accepted the command
func (m *Message) IsAck() bool {
	b, err := m.Byte(FieldAckNack)
	return err == nil && b == AckByte
}

// IsNack reports a modem reply that rejected the command
func (m *Message) IsNack() bool {
	b, err := m.Byte(FieldAckNack)
	return err == nil && b == NackByte
}

// Group returns the all-link group the message refers to, or NoGroup.
// It never fails.
func (m *Message) Group() int {
	switch {
	case m.IsAllLinkBroadcast():
		if a, err := m.Address(FieldToAddress); err == nil {
			return int(a.Low())
		}
	case m.IsAllLinkCleanup():
		if v, err := m.Int(FieldCommand2); err == nil {
			return v
		}
	case m.IsExtended():
		cmd1, err1 := m.Byte(FieldCommand1)
		cmd2, err2 := m.Byte(FieldCommand2)
		if err1 == nil && err2 == nil && cmd1 == 0x2E && cmd2 == 0x00 {
			if v, err := m.Int("userData1"); err == nil {
				return v
			}
		}
	}
	return NoGroup
}

// Equal reports whether both messages hold identical bytes
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	return bytes.Equal(m.data, other.data)
}

// Copy returns a message with the same bytes, definition, priority and
// quiet time. Timestamp, Expired and Replayed start over.
func (m *Message) Copy() *Message {
	return &Message{
		data:      append([]byte(nil), m.data...),
		def:       m.def,
		Priority:  m.Priority,
		QuietTime: m.QuietTime,
	}
}

// String returns a debug representation listing every named field
func (m *Message) String() string {
	var sb strings.Builder
	sb.WriteString(m.def.Name)
	sb.WriteByte('{')
	for i, f := range m.def.order {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteByte('=')
		switch f.Type {
		case FieldAddress:
			a, _ := f.Address(m.data)
			sb.WriteString(a.String())
		default:
			b, _ := f.Byte(m.data)
			fmt.Fprintf(&sb, "0x%02X", b)
		}
		if f.Name == FieldMessageFlags {
			fmt.Fprintf(&sb, "(%s)", m.Type())
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
