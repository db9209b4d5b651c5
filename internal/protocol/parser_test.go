package protocol

import (
	"bytes"
	"testing"
	"time"
)

var (
	rawStandard = []byte{0x02, 0x50, 0x1A, 0x2B, 0x3C, 0x44, 0x55, 0x66, 0x0B, 0x11, 0xFF}
	rawReply    = []byte{0x02, 0x62, 0x44, 0x55, 0x66, 0x0F, 0x11, 0xFF, 0x06}
	rawExtReply = []byte{
		0x02, 0x62, 0x44, 0x55, 0x66, 0x1F, 0x2E, 0x00,
		0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xD1,
		0x06,
	}
)

// drainFactory calls ProcessData until the factory is done
func drainFactory(t *testing.T, f *Factory) (msgs []*Message, errs []error) {
	t.Helper()
	for i := 0; !f.Done(); i++ {
		if i > MaxBufferSize {
			t.Fatal("ProcessData() did not reach done")
		}
		msg, err := f.ProcessData()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if msg != nil {
			msgs = append(msgs, msg)
		}
	}
	return msgs, errs
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func TestFactoryProcessData(t *testing.T) {
	tests := []struct {
		name      string
		input     []byte
		wantNames []string
		wantErrs  int
		wantLeft  int
	}{
		{
			name:      "standard message received",
			input:     rawStandard,
			wantNames: []string{"StandardMessageReceived"},
		},
		{
			name:      "standard 0x62 reply",
			input:     rawReply,
			wantNames: []string{"SendStandardMessageReply"},
		},
		{
			name:      "extended 0x62 reply",
			input:     rawExtReply,
			wantNames: []string{"SendExtendedMessageReply"},
		},
		{
			name:      "back to back",
			input:     concat(rawReply, rawStandard, rawExtReply),
			wantNames: []string{"SendStandardMessageReply", "StandardMessageReceived", "SendExtendedMessageReply"},
		},
		{
			name:      "pure nack",
			input:     []byte{0x15},
			wantNames: []string{PureNackDefinition},
		},
		{
			name:      "pure nack then message",
			input:     concat([]byte{0x15}, rawStandard),
			wantNames: []string{PureNackDefinition, "StandardMessageReceived"},
		},
		{
			name:      "leading garbage",
			input:     concat([]byte{0xFF, 0xFF}, rawStandard),
			wantNames: []string{"StandardMessageReceived"},
			wantErrs:  1,
		},
		{
			name:      "unknown command",
			input:     concat([]byte{0x02, 0xFF, 0x33}, rawStandard),
			wantNames: []string{"StandardMessageReceived"},
			wantErrs:  1,
		},
		{
			name:     "only garbage",
			input:    []byte{0x00, 0x01, 0x03},
			wantErrs: 1,
		},
		{
			name:     "partial message waits",
			input:    rawStandard[:7],
			wantLeft: 7,
		},
		{
			name:     "lone sync byte waits",
			input:    []byte{0x02},
			wantLeft: 1,
		},
		{
			name:      "message then partial",
			input:     concat(rawReply, rawExtReply[:10]),
			wantNames: []string{"SendStandardMessageReply"},
			wantLeft:  10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFactory(mustDefaults(t))
			if !f.Done() {
				t.Error("new factory should be done")
			}

			if n := f.AddData(tt.input); n != len(tt.input) {
				t.Fatalf("AddData() = %d, want %d", n, len(tt.input))
			}
			msgs, errs := drainFactory(t, f)

			if len(msgs) != len(tt.wantNames) {
				t.Fatalf("got %d messages, want %d (%v)", len(msgs), len(tt.wantNames), msgs)
			}
			for i, msg := range msgs {
				if msg.Name() != tt.wantNames[i] {
					t.Errorf("message %d = %s, want %s", i, msg.Name(), tt.wantNames[i])
				}
			}
			if len(errs) != tt.wantErrs {
				t.Errorf("got %d errors (%v), want %d", len(errs), errs, tt.wantErrs)
			}
			for _, err := range errs {
				if !IsFramingError(err) {
					t.Errorf("error %v is not a framing error", err)
				}
			}
			if f.Buffered() != tt.wantLeft {
				t.Errorf("Buffered() = %d, want %d", f.Buffered(), tt.wantLeft)
			}
		})
	}
}

func TestFactoryResync(t *testing.T) {
	f := NewFactory(mustDefaults(t))
	f.AddData(concat([]byte{0xFF, 0xFF}, rawStandard))

	msg, err := f.ProcessData()
	if msg != nil || !IsFramingError(err) {
		t.Fatalf("first ProcessData() = %v, %v, want framing error", msg, err)
	}
	if f.Buffered() != len(rawStandard) {
		t.Errorf("Buffered() = %d, garbage should be dropped up to the sync byte", f.Buffered())
	}
	if f.Done() {
		t.Error("factory should not be done with a full message buffered")
	}

	msg, err = f.ProcessData()
	if err != nil {
		t.Fatalf("second ProcessData() error = %v", err)
	}
	if msg == nil || !bytes.Equal(msg.Bytes(), rawStandard) {
		t.Errorf("decoded %v, want % X", msg, rawStandard)
	}
}

func TestFactoryPureNackConsumesOneByte(t *testing.T) {
	f := NewFactory(mustDefaults(t))
	f.AddData([]byte{0x15, 0x02})

	msg, err := f.ProcessData()
	if err != nil {
		t.Fatalf("ProcessData() error = %v", err)
	}
	if msg == nil || !msg.IsPureNack() {
		t.Fatalf("ProcessData() = %v, want pure NACK", msg)
	}
	if f.Buffered() != 1 {
		t.Errorf("Buffered() = %d, want 1", f.Buffered())
	}
}

func TestFactoryChunkBoundaries(t *testing.T) {
	inputs := map[string][]byte{
		"standard":       rawStandard,
		"reply":          rawReply,
		"extended reply": rawExtReply,
	}

	for name, raw := range inputs {
		for split := 0; split <= len(raw); split++ {
			f := NewFactory(mustDefaults(t))

			f.AddData(raw[:split])
			first, errs1 := drainFactory(t, f)
			f.AddData(raw[split:])
			second, errs2 := drainFactory(t, f)

			msgs := append(first, second...)
			if len(errs1)+len(errs2) != 0 {
				t.Fatalf("%s split at %d: unexpected errors %v %v", name, split, errs1, errs2)
			}
			if len(msgs) != 1 {
				t.Fatalf("%s split at %d: got %d messages, want 1", name, split, len(msgs))
			}
			if !bytes.Equal(msgs[0].Bytes(), raw) {
				t.Errorf("%s split at %d: decoded % X, want % X", name, split, msgs[0].Bytes(), raw)
			}
			if f.Buffered() != 0 {
				t.Errorf("%s split at %d: Buffered() = %d, want 0", name, split, f.Buffered())
			}
		}
	}
}

func TestFactoryByteAtATime(t *testing.T) {
	stream := concat([]byte{0xEE}, rawReply, []byte{0x15}, rawExtReply, rawStandard)
	f := NewFactory(mustDefaults(t))

	var msgs []*Message
	var errs []error
	for i := range stream {
		f.AddData(stream[i : i+1])
		m, e := drainFactory(t, f)
		msgs = append(msgs, m...)
		errs = append(errs, e...)
	}

	want := []string{"SendStandardMessageReply", PureNackDefinition, "SendExtendedMessageReply", "StandardMessageReceived"}
	if len(msgs) != len(want) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(want))
	}
	for i := range want {
		if msgs[i].Name() != want[i] {
			t.Errorf("message %d = %s, want %s", i, msgs[i].Name(), want[i])
		}
	}
	if len(errs) != 1 {
		t.Errorf("got %d errors, want 1 for the leading garbage byte", len(errs))
	}
}

func TestFactoryTruncatesInput(t *testing.T) {
	f := NewFactory(mustDefaults(t))

	big := make([]byte, MaxBufferSize+100)
	big[0] = SyncByte
	big[1] = 0x50
	if n := f.AddData(big); n != MaxBufferSize {
		t.Errorf("AddData() = %d, want %d", n, MaxBufferSize)
	}
	if n := f.AddData([]byte{0x02}); n != 0 {
		t.Errorf("AddData() on full buffer = %d, want 0", n)
	}
	if f.Buffered() != MaxBufferSize {
		t.Errorf("Buffered() = %d, want %d", f.Buffered(), MaxBufferSize)
	}

	// The parser must still make progress through the junk
	msgs, _ := drainFactory(t, f)
	if len(msgs) != 1 {
		t.Errorf("got %d messages, want 1", len(msgs))
	}
	if f.Buffered() != 0 {
		t.Errorf("Buffered() = %d after draining, want 0", f.Buffered())
	}
}

func TestFactoryLongStream(t *testing.T) {
	f := NewFactory(mustDefaults(t))

	const count = 600
	var stream []byte
	for i := 0; i < count; i++ {
		stream = append(stream, rawStandard...)
	}

	decoded := 0
	for off := 0; off < len(stream); off += 7 {
		end := off + 7
		if end > len(stream) {
			end = len(stream)
		}
		if n := f.AddData(stream[off:end]); n != end-off {
			t.Fatalf("AddData() dropped bytes at offset %d", off)
		}
		msgs, errs := drainFactory(t, f)
		if len(errs) > 0 {
			t.Fatalf("unexpected errors at offset %d: %v", off, errs)
		}
		decoded += len(msgs)
	}

	if decoded != count {
		t.Errorf("decoded %d messages, want %d", decoded, count)
	}
}

func TestFactoryExtendedLookupMiss(t *testing.T) {
	defs, err := ParseDefinitions([]byte(`
messages:
  - name: ShortOnly
    direction: FromModem
    length: 4
    header:
      length: 3
      fields:
        - {type: byte, value: "0x02"}
        - {type: byte, name: Cmd, value: "0x7E"}
        - {type: byte, name: messageFlags}
    fields:
      - {type: byte, name: value}
`))
	if err != nil {
		t.Fatalf("ParseDefinitions() error = %v", err)
	}

	f := NewFactory(defs)
	f.AddData([]byte{0x02, 0x7E, 0x10, 0x00, 0x02, 0x7E, 0x00, 0x42})
	msgs, errs := drainFactory(t, f)

	if len(errs) != 1 || !IsFramingError(errs[0]) {
		t.Errorf("errors = %v, want one framing error", errs)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if v, _ := msgs[0].Byte("value"); v != 0x42 {
		t.Errorf("value = 0x%02X, want 0x42", v)
	}
}

func TestFactoryTimestamps(t *testing.T) {
	at := time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC)
	f := NewFactory(mustDefaults(t))
	f.SetClock(func() time.Time { return at })

	f.AddData(concat([]byte{0x15}, rawStandard))
	msgs, _ := drainFactory(t, f)
	for _, msg := range msgs {
		if !msg.Timestamp.Equal(at) {
			t.Errorf("%s timestamp = %v, want %v", msg.Name(), msg.Timestamp, at)
		}
	}
}

func TestFactoryEmpty(t *testing.T) {
	f := NewFactory(mustDefaults(t))

	msg, err := f.ProcessData()
	if msg != nil || err != nil {
		t.Errorf("ProcessData() on empty buffer = %v, %v", msg, err)
	}
	if n := f.AddData(nil); n != 0 || !f.Done() {
		t.Errorf("AddData(nil) = %d, done = %t", n, f.Done())
	}
}

func BenchmarkFactory(b *testing.B) {
	defs := mustDefaults(b)
	stream := concat(rawReply, rawStandard, rawExtReply)
	f := NewFactory(defs)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.AddData(stream)
		for !f.Done() {
			_, _ = f.ProcessData()
		}
	}
}
