// Package protocol implements the Insteon PowerLinc Modem (PLM) serial message layer.
//
// This package decodes the byte stream a PLM sends to its host into typed
// messages, and builds the messages a host sends back. Message layouts are not
// hard-coded: they come from a YAML definitions resource embedded in the
// binary, which can be replaced at runtime.
//
// # Wire Format
//
// Every framed message starts with the sync byte 0x02 followed by a command
// byte. The modem also emits a bare 0x15 (pure NACK) when its buffer is full.
//
// Insteon messages relayed by the modem carry a flags byte:
//   - Bits 0-1: max hops
//   - Bits 2-3: hops left
//   - Bit 4: extended (14 user data bytes follow the command bytes)
//   - Bits 5-7: message type (direct, ACK, all-link cleanup, broadcast, ...)
//
// # Definitions
//
// A Definition names a message shape: direction, total length, header length
// and a set of typed fields (byte or address) at fixed offsets. Definitions
// are looked up by name, or by command byte and direction, optionally
// filtered on the extended flag.
//
// # Usage Example - Parsing
//
//	defs, err := protocol.DefaultDefinitions()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	factory := protocol.NewFactory(defs)
//	factory.AddData(chunk)
//	for !factory.Done() {
//	    msg, err := factory.ProcessData()
//	    if err != nil {
//	        continue // framing error, bad bytes already discarded
//	    }
//	    if msg != nil {
//	        fmt.Println(msg)
//	    }
//	}
//
// # Usage Example - Construction
//
//	addr, _ := protocol.ParseAddress("1A.2B.3C")
//	msg, err := protocol.MakeExtendedMessage(defs, addr, 0x2E, 0x00, []byte{0x01}, protocol.CRC1)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	port.Write(msg.Bytes())
//
// # Checksums
//
// Extended messages may carry a checksum in their trailing user data: a
// one-byte sum (CRC-1) for older devices, or a 16-bit bit-serial CRC (CRC-2)
// for i2cs devices.
//
// # Error Handling
//
// Every error is an *Error carrying an ErrorType:
//   - Field errors: access past the end of a message, or of the wrong type
//   - Unknown message errors: no definition matches
//   - Framing errors: the stream did not start with a usable message
//   - Definition errors: a malformed definitions record
//
// None of them are fatal; at worst a message is dropped.
//
// # Thread Safety
//
// Definitions are immutable once built and safe for concurrent use. A Factory
// and the Messages it returns belong to a single goroutine.
package protocol
