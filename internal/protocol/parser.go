package protocol

import (
	"time"

	"go.uber.org/zap"

	"github.com/muurk/insteon/internal/logging"
)

// MaxBufferSize bounds the bytes a Factory holds while waiting for a complete message
const MaxBufferSize = 4096

// Factory turns an unbounded incoming byte stream into messages.
//
// Feed bytes with AddData, then call ProcessData until Done reports true.
// Standard and extended messages can share a command byte, so the parser
// first waits for the header, reads the extended flag from its last byte,
// and only then knows the full message length.
//
// A Factory is not safe for concurrent use; run one per connection.
type Factory struct {
	defs *Definitions
	buf  []byte // unread bytes are buf[head:]
	head int
	done bool
	now  func() time.Time
}

// NewFactory creates a parser using defs to recognize inbound messages
func NewFactory(defs *Definitions) *Factory {
	return &Factory{
		defs: defs,
		buf:  make([]byte, 0, MaxBufferSize),
		done: true,
		now:  time.Now,
	}
}

// SetClock replaces the source of message timestamps
func (f *Factory) SetClock(now func() time.Time) {
	f.now = now
}

// Buffered returns the number of unprocessed bytes
func (f *Factory) Buffered() int {
	return len(f.buf) - f.head
}

// Done reports that no complete message can be extracted without more input
func (f *Factory) Done() bool {
	return f.done
}

// AddData appends chunk to the buffer and returns how many bytes were kept.
// Bytes beyond MaxBufferSize are dropped with a warning.
func (f *Factory) AddData(chunk []byte) int {
	n := len(chunk)
	if avail := MaxBufferSize - f.Buffered(); n > avail {
		logging.Warn("Truncating excessively long input",
			zap.Int("received", n),
			zap.Int("kept", avail),
		)
		n = avail
	}
	if n <= 0 {
		return 0
	}

	if len(f.buf)+n > cap(f.buf) {
		f.compact()
	}
	f.buf = append(f.buf, chunk[:n]...)
	f.done = false
	return n
}

// compact moves the unread bytes to the start of the arena
func (f *Factory) compact() {
	n := copy(f.buf, f.buf[f.head:])
	f.buf = f.buf[:n]
	f.head = 0
}

// consume discards n bytes from the front
func (f *Factory) consume(n int) {
	f.head += n
	if f.head >= len(f.buf) {
		f.buf = f.buf[:0]
		f.head = 0
	}
}

// ProcessData extracts the next message, if one is complete.
//
// Returns:
//   - (msg, nil) when a message was decoded
//   - (nil, nil) when more input is needed; Done is then true
//   - (nil, err) with a framing error after discarding bytes up to the
//     next sync byte; the caller should log it and keep calling
func (f *Factory) ProcessData() (*Message, error) {
	data := f.buf[f.head:]

	// The modem answers with a bare NACK when it cannot accept a command
	if len(data) > 0 && data[0] == PureNackByte {
		f.consume(1)
		msg, err := MakePureNack(f.defs)
		if err != nil {
			return nil, err
		}
		msg.Timestamp = f.now()
		f.updateDone(msg)
		return msg, nil
	}

	if len(data) > 0 && data[0] != SyncByte {
		return nil, f.bail("message does not start with 0x%02X (got 0x%02X)", SyncByte, data[0])
	}

	var def *Definition
	if len(data) > 1 {
		cmd := data[1]
		headerLength := f.defs.HeaderLength(cmd)
		if headerLength < 0 {
			f.consume(1) // drop the sync byte so draining can progress
			return nil, f.bail("unknown command code 0x%02X", cmd)
		}
		if len(data) >= headerLength {
			ext := isExtendedHeader(data, headerLength)
			d, ok := f.defs.ByCommandExtended(cmd, ext, FromModem)
			if !ok {
				f.consume(1)
				return nil, f.bail("unknown command code/extended flag 0x%02X/%t", cmd, ext)
			}
			def = d
		}
	}

	var msg *Message
	if def != nil && len(data) >= def.Length() {
		var err error
		msg, err = NewInboundMessage(def, data[:def.Length()])
		f.consume(def.Length())
		if err != nil {
			return nil, err
		}
		msg.Timestamp = f.now()
	}

	f.updateDone(msg)
	return msg, nil
}

func (f *Factory) updateDone(msg *Message) {
	if f.Buffered() == 0 || msg == nil {
		f.done = true
	}
}

// bail drains the buffer up to the next sync byte and returns a framing error
func (f *Factory) bail(format string, args ...any) error {
	err := framingError(format, args...)
	dropped := f.drain()
	if f.Buffered() == 0 {
		f.done = true
	}
	logging.Debug("Bad data received",
		zap.Error(err),
		zap.Int("dropped", dropped),
		zap.Int("remaining", f.Buffered()),
	)
	return err
}

// drain removes bytes until the buffer is empty or starts with a sync byte
func (f *Factory) drain() int {
	dropped := 0
	for f.Buffered() > 0 && f.buf[f.head] != SyncByte {
		f.consume(1)
		dropped++
	}
	return dropped
}
