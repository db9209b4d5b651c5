package protocol

import (
	"fmt"
	"strings"
)

// Direction tells which side of the serial link a message originates from
type Direction int

const (
	// FromModem messages are sent by the PLM to the host
	FromModem Direction = iota
	// ToModem messages are sent by the host to the PLM
	ToModem
)

// ParseDirection accepts "FromModem"/"ToModem" and the FROM_MODEM/TO_MODEM spellings
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.ReplaceAll(s, "_", "")) {
	case "frommodem":
		return FromModem, nil
	case "tomodem":
		return ToModem, nil
	default:
		return 0, fmt.Errorf("invalid direction %q", s)
	}
}

func (d Direction) String() string {
	switch d {
	case FromModem:
		return "FromModem"
	case ToModem:
		return "ToModem"
	default:
		return fmt.Sprintf("Direction(%d)", d)
	}
}

// Well-known field names shared by the definitions resource and the message accessors
const (
	FieldCmd          = "Cmd"
	FieldFromAddress  = "fromAddress"
	FieldToAddress    = "toAddress"
	FieldMessageFlags = "messageFlags"
	FieldCommand1     = "command1"
	FieldCommand2     = "command2"
	FieldAckNack      = "ACK/NACK"
)

// Definition is an immutable template describing one message shape
type Definition struct {
	Name         string
	Direction    Direction
	HeaderLength int

	template []byte
	fields   map[string]Field
	order    []Field
}

// Length returns the total message length in bytes
func (d *Definition) Length() int {
	return len(d.template)
}

// Template returns a copy of the default byte pattern
func (d *Definition) Template() []byte {
	return append([]byte(nil), d.template...)
}

// Field returns the named field
func (d *Definition) Field(name string) (Field, bool) {
	f, ok := d.fields[name]
	return f, ok
}

// Fields returns the named fields in wire order
func (d *Definition) Fields() []Field {
	return append([]Field(nil), d.order...)
}

// FieldNames returns the field names in wire order
func (d *Definition) FieldNames() []string {
	names := make([]string, len(d.order))
	for i, f := range d.order {
		names[i] = f.Name
	}
	return names
}

// Command returns the template value of the Cmd field. Definitions without
// one (the pure NACK) cannot be looked up by command.
func (d *Definition) Command() (byte, bool) {
	f, ok := d.fields[FieldCmd]
	if !ok {
		return 0, false
	}
	b, err := f.Byte(d.template)
	if err != nil {
		return 0, false
	}
	return b, true
}

// IsExtended reports whether the template's header marks an extended message
func (d *Definition) IsExtended() bool {
	return isExtendedHeader(d.template, d.HeaderLength)
}

// isExtendedHeader tests bit 4 of the last header byte. A header that stops
// at the command byte carries no flags, so it is never extended.
func isExtendedHeader(buf []byte, headerLength int) bool {
	if headerLength <= 2 || len(buf) < headerLength {
		return false
	}
	return buf[headerLength-1]&0x10 != 0
}

// String returns a debug representation of the definition
func (d *Definition) String() string {
	names := make([]string, 0, len(d.order))
	for _, f := range d.order {
		names = append(names, f.String())
	}
	return fmt.Sprintf("%s{dir=%s, len=%d, header=%d, fields=[%s]}",
		d.Name, d.Direction, d.Length(), d.HeaderLength, strings.Join(names, " "))
}
