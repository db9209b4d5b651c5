package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldType identifies the primitive wire type of a field
type FieldType int

const (
	// FieldByte is a single byte
	FieldByte FieldType = iota
	// FieldAddress is a 3-byte device address
	FieldAddress
)

// ParseFieldType resolves a field type by its canonical name ("byte", "address")
func ParseFieldType(name string) (FieldType, error) {
	switch name {
	case "byte":
		return FieldByte, nil
	case "address":
		return FieldAddress, nil
	default:
		return 0, fmt.Errorf("unknown field type %q", name)
	}
}

// Size returns the number of bytes the type occupies on the wire
func (ft FieldType) Size() int {
	switch ft {
	case FieldByte:
		return 1
	case FieldAddress:
		return 3
	default:
		return 0
	}
}

// String returns the canonical name of the type
func (ft FieldType) String() string {
	switch ft {
	case FieldByte:
		return "byte"
	case FieldAddress:
		return "address"
	default:
		return fmt.Sprintf("FieldType(%d)", ft)
	}
}

// Field is a named, typed accessor bound to an offset within a message buffer
type Field struct {
	Name   string
	Offset int
	Type   FieldType
}

// check validates that the field has type want and fits within buf
func (f Field) check(buf []byte, want FieldType) error {
	if f.Type != want {
		return fieldError("field %s is %s, not %s", f.Name, f.Type, want)
	}
	if f.Offset < 0 || f.Offset+f.Type.Size() > len(buf) {
		return fieldError("field %s at offset %d exceeds buffer length %d", f.Name, f.Offset, len(buf))
	}
	return nil
}

// Byte reads the byte at the field offset
func (f Field) Byte(buf []byte) (byte, error) {
	if err := f.check(buf, FieldByte); err != nil {
		return 0, err
	}
	return buf[f.Offset], nil
}

// SetByte writes b at the field offset
func (f Field) SetByte(buf []byte, b byte) error {
	if err := f.check(buf, FieldByte); err != nil {
		return err
	}
	buf[f.Offset] = b
	return nil
}

// Address reads the 3-byte address at the field offset
func (f Field) Address(buf []byte) (Address, error) {
	if err := f.check(buf, FieldAddress); err != nil {
		return Address{}, err
	}
	var a Address
	copy(a[:], buf[f.Offset:f.Offset+3])
	return a, nil
}

// SetAddress writes a at the field offset
func (f Field) SetAddress(buf []byte, a Address) error {
	if err := f.check(buf, FieldAddress); err != nil {
		return err
	}
	copy(buf[f.Offset:], a[:])
	return nil
}

// SetFromString parses text according to the field type and writes it.
// Byte fields take hex ("0x50", "50"; "" is zero), address fields take
// AA.BB.CC ("" is UnknownAddress).
func (f Field) SetFromString(buf []byte, text string) error {
	text = strings.TrimSpace(text)
	switch f.Type {
	case FieldByte:
		if text == "" {
			return f.SetByte(buf, 0x00)
		}
		v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(text), "0x"), 16, 8)
		if err != nil {
			return &Error{
				Type:    ErrTypeField,
				Message: fmt.Sprintf("field %s: invalid byte value %q", f.Name, text),
				Err:     err,
			}
		}
		return f.SetByte(buf, byte(v))
	case FieldAddress:
		a, err := ParseAddress(text)
		if err != nil {
			return &Error{
				Type:    ErrTypeField,
				Message: fmt.Sprintf("field %s: invalid address value %q", f.Name, text),
				Err:     err,
			}
		}
		return f.SetAddress(buf, a)
	default:
		return fieldError("field %s has unsupported type %s", f.Name, f.Type)
	}
}

// String returns a debug representation of the field
func (f Field) String() string {
	return fmt.Sprintf("%s(%s@%d)", f.Name, f.Type, f.Offset)
}
