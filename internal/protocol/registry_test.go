package protocol

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mustDefaults(t testing.TB) *Definitions {
	t.Helper()
	defs, err := DefaultDefinitions()
	if err != nil {
		t.Fatalf("DefaultDefinitions() error = %v", err)
	}
	return defs
}

func TestDefaultDefinitions(t *testing.T) {
	defs := mustDefaults(t)

	if defs.Len() != 53 {
		t.Errorf("Len() = %d, want 53", defs.Len())
	}

	again, _ := DefaultDefinitions()
	if again != defs {
		t.Error("DefaultDefinitions() should return the same instance")
	}

	tests := []struct {
		name         string
		direction    Direction
		length       int
		headerLength int
		command      byte
		extended     bool
	}{
		{"StandardMessageReceived", FromModem, 11, 2, 0x50, false},
		{"ExtendedMessageReceived", FromModem, 25, 2, 0x51, false},
		{"SendStandardMessageReply", FromModem, 9, 6, 0x62, false},
		{"SendExtendedMessageReply", FromModem, 23, 6, 0x62, true},
		{"SendStandardMessage", ToModem, 8, 6, 0x62, false},
		{"SendExtendedMessage", ToModem, 22, 6, 0x62, true},
		{"GetIMInfo", ToModem, 2, 2, 0x60, false},
		{"GetIMInfoReply", FromModem, 9, 2, 0x60, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := defs.Lookup(tt.name)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.name)
			}
			if def.Direction != tt.direction {
				t.Errorf("Direction = %v, want %v", def.Direction, tt.direction)
			}
			if def.Length() != tt.length {
				t.Errorf("Length() = %d, want %d", def.Length(), tt.length)
			}
			if def.HeaderLength != tt.headerLength {
				t.Errorf("HeaderLength = %d, want %d", def.HeaderLength, tt.headerLength)
			}
			cmd, ok := def.Command()
			if !ok || cmd != tt.command {
				t.Errorf("Command() = 0x%02X, %t, want 0x%02X", cmd, ok, tt.command)
			}
			if def.IsExtended() != tt.extended {
				t.Errorf("IsExtended() = %t, want %t", def.IsExtended(), tt.extended)
			}
			if tmpl := def.Template(); tmpl[0] != SyncByte {
				t.Errorf("Template()[0] = 0x%02X, want sync byte", tmpl[0])
			}
		})
	}
}

func TestDefinitionsPureNack(t *testing.T) {
	defs := mustDefaults(t)

	def, ok := defs.Lookup(PureNackDefinition)
	if !ok {
		t.Fatal("pure NACK definition missing")
	}
	if def.Length() != 1 || def.Template()[0] != PureNackByte {
		t.Errorf("pure NACK template = % X, want 15", def.Template())
	}
	if _, ok := def.Command(); ok {
		t.Error("pure NACK should have no command byte")
	}
}

func TestDefinitionsCommandLookups(t *testing.T) {
	defs := mustDefaults(t)

	tests := []struct {
		name     string
		lookup   func() (*Definition, bool)
		wantName string
	}{
		{
			name:     "first 0x62 reply wins",
			lookup:   func() (*Definition, bool) { return defs.ByCommand(0x62, FromModem) },
			wantName: "SendStandardMessageReply",
		},
		{
			name:     "0x62 outbound",
			lookup:   func() (*Definition, bool) { return defs.ByCommand(0x62, ToModem) },
			wantName: "SendStandardMessage",
		},
		{
			name:     "extended 0x62 reply",
			lookup:   func() (*Definition, bool) { return defs.ByCommandExtended(0x62, true, FromModem) },
			wantName: "SendExtendedMessageReply",
		},
		{
			name:     "extended 0x62 outbound",
			lookup:   func() (*Definition, bool) { return defs.ByCommandExtended(0x62, true, ToModem) },
			wantName: "SendExtendedMessage",
		},
		{
			name:     "0x51 is keyed as not extended",
			lookup:   func() (*Definition, bool) { return defs.ByCommandExtended(0x51, false, FromModem) },
			wantName: "ExtendedMessageReceived",
		},
		{
			name:   "0x51 extended lookup misses",
			lookup: func() (*Definition, bool) { return defs.ByCommandExtended(0x51, true, FromModem) },
		},
		{
			name:   "unknown command",
			lookup: func() (*Definition, bool) { return defs.ByCommand(0xFF, FromModem) },
		},
		{
			name:   "inbound-only command outbound",
			lookup: func() (*Definition, bool) { return defs.ByCommand(0x50, ToModem) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := tt.lookup()
			if tt.wantName == "" {
				if ok {
					t.Errorf("lookup found %s, want not found", def.Name)
				}
				return
			}
			if !ok {
				t.Fatalf("lookup not found, want %s", tt.wantName)
			}
			if def.Name != tt.wantName {
				t.Errorf("lookup = %s, want %s", def.Name, tt.wantName)
			}
		})
	}
}

func TestDefinitionsLengths(t *testing.T) {
	defs := mustDefaults(t)

	tests := []struct {
		cmd        byte
		ext        bool
		wantHeader int
		wantLength int
	}{
		{0x50, false, 2, 11},
		{0x51, false, 2, 25},
		{0x62, false, 6, 9},
		{0x62, true, 6, 23},
		{0x60, false, 2, 9},
		{0xAA, false, -1, -1},
	}

	for _, tt := range tests {
		if got := defs.HeaderLength(tt.cmd); got != tt.wantHeader {
			t.Errorf("HeaderLength(0x%02X) = %d, want %d", tt.cmd, got, tt.wantHeader)
		}
		if got := defs.MessageLength(tt.cmd, tt.ext); got != tt.wantLength {
			t.Errorf("MessageLength(0x%02X, %t) = %d, want %d", tt.cmd, tt.ext, got, tt.wantLength)
		}
	}
}

func TestDefinitionFields(t *testing.T) {
	defs := mustDefaults(t)
	def, _ := defs.Lookup("StandardMessageReceived")

	want := []Field{
		{FieldCmd, 1, FieldByte},
		{FieldFromAddress, 2, FieldAddress},
		{FieldToAddress, 5, FieldAddress},
		{FieldMessageFlags, 8, FieldByte},
		{FieldCommand1, 9, FieldByte},
		{FieldCommand2, 10, FieldByte},
	}

	got := def.Fields()
	if len(got) != len(want) {
		t.Fatalf("Fields() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Fields()[%d] = %v, want %v", i, got[i], want[i])
		}
	}

	names := def.FieldNames()
	if len(names) != len(want) || names[0] != FieldCmd || names[len(names)-1] != FieldCommand2 {
		t.Errorf("FieldNames() = %v", names)
	}

	if _, ok := def.Field("userData1"); ok {
		t.Error("standard message should not have userData1")
	}

	// Template and Fields are copies
	def.Template()[1] = 0x00
	if cmd, _ := def.Command(); cmd != 0x50 {
		t.Error("mutating Template() changed the definition")
	}
}

func TestParseDefinitionsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		record  string
		wantMsg string
	}{
		{
			name: "missing direction",
			record: `
  - name: Bad
    length: 2
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7F"}]`,
			wantMsg: "missing direction",
		},
		{
			name: "invalid direction",
			record: `
  - name: Bad
    direction: Sideways
    length: 2
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7F"}]`,
			wantMsg: "bad direction",
		},
		{
			name: "zero length",
			record: `
  - name: Bad
    direction: FromModem
    length: 0
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7F"}]`,
			wantMsg: "length must be positive",
		},
		{
			name: "missing header",
			record: `
  - name: Bad
    direction: FromModem
    length: 1
    fields: [{type: byte, name: Cmd}]`,
			wantMsg: "missing header",
		},
		{
			name: "unknown field type",
			record: `
  - name: Bad
    direction: FromModem
    length: 3
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7F"}]
    fields: [{type: word, name: value}]`,
			wantMsg: "unknown field type",
		},
		{
			name: "length mismatch",
			record: `
  - name: Bad
    direction: FromModem
    length: 4
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7F"}]
    fields: [{type: byte, name: value}]`,
			wantMsg: "declared length 4",
		},
		{
			name: "header length mismatch",
			record: `
  - name: Bad
    direction: FromModem
    length: 3
    header:
      length: 3
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7F"}]
    fields: [{type: byte, name: value}]`,
			wantMsg: "header fields span 2 bytes",
		},
		{
			name: "field overflows length",
			record: `
  - name: Bad
    direction: FromModem
    length: 3
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7F"}]
    fields: [{type: address, name: value}]`,
			wantMsg: "exceeds declared length",
		},
		{
			name: "duplicate field",
			record: `
  - name: Bad
    direction: FromModem
    length: 4
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7F"}]
    fields: [{type: byte, name: value}, {type: byte, name: value}]`,
			wantMsg: "duplicate field",
		},
		{
			name: "bad literal",
			record: `
  - name: Bad
    direction: FromModem
    length: 2
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0xZZ"}]`,
			wantMsg: "invalid byte value",
		},
	}

	good := `
  - name: Good
    direction: FromModem
    length: 3
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7E"}]
    fields: [{type: byte, name: value}]`

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := "messages:" + tt.record + good + "\n"

			defs, err := ParseDefinitions([]byte(doc))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !IsDefinitionError(err) {
				t.Errorf("expected definition error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantMsg)
			}

			// The bad record is skipped, the good one still loads
			if defs == nil {
				t.Fatal("ParseDefinitions() returned nil set for a partially valid document")
			}
			if _, ok := defs.Lookup("Bad"); ok {
				t.Error("malformed record should not be registered")
			}
			if _, ok := defs.Lookup("Good"); !ok {
				t.Error("valid record should still be registered")
			}
		})
	}
}

func TestParseDefinitionsDuplicateName(t *testing.T) {
	doc := `
messages:
  - name: Dup
    direction: FromModem
    length: 2
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7E"}]
  - name: Other
    direction: FromModem
    length: 2
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7D"}]
  - name: Dup
    direction: FromModem
    length: 3
    header:
      length: 2
      fields: [{type: byte, value: "0x02"}, {type: byte, name: Cmd, value: "0x7E"}]
    fields: [{type: byte, name: value}]
`
	defs, err := ParseDefinitions([]byte(doc))
	if err != nil {
		t.Fatalf("ParseDefinitions() error = %v", err)
	}

	if defs.Len() != 2 {
		t.Errorf("Len() = %d, want 2", defs.Len())
	}
	def, _ := defs.Lookup("Dup")
	if def.Length() != 3 {
		t.Errorf("Dup length = %d, want the later record (3)", def.Length())
	}
	if all := defs.All(); all[0].Name != "Dup" {
		t.Errorf("All()[0] = %s, overwrite should keep document position", all[0].Name)
	}
	if names := defs.Names(); len(names) != 2 || names[0] != "Dup" || names[1] != "Other" {
		t.Errorf("Names() = %v, want [Dup Other]", names)
	}
}

func TestParseDefinitionsInvalidYAML(t *testing.T) {
	defs, err := ParseDefinitions([]byte("messages: [unclosed"))
	if err == nil {
		t.Fatal("expected error for invalid YAML")
	}
	if defs != nil {
		t.Error("invalid YAML should return a nil set")
	}
}

func TestLoadDefinitions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "defs.yaml")
	if err := os.WriteFile(path, defaultDefinitionsYAML, 0600); err != nil {
		t.Fatalf("failed to write definitions: %v", err)
	}

	fromFile, err := LoadDefinitionsFile(path)
	if err != nil {
		t.Fatalf("LoadDefinitionsFile() error = %v", err)
	}
	if fromFile.Len() != mustDefaults(t).Len() {
		t.Errorf("Len() = %d, want %d", fromFile.Len(), mustDefaults(t).Len())
	}

	fromReader, err := LoadDefinitions(strings.NewReader(string(defaultDefinitionsYAML)))
	if err != nil {
		t.Fatalf("LoadDefinitions() error = %v", err)
	}
	if fromReader.Len() != fromFile.Len() {
		t.Errorf("Len() = %d, want %d", fromReader.Len(), fromFile.Len())
	}

	_, err = LoadDefinitionsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !errors.Is(err, os.ErrNotExist) {
		t.Errorf("LoadDefinitionsFile(missing) error = %v, want not-exist", err)
	}
}

func BenchmarkParseDefinitions(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := ParseDefinitions(defaultDefinitionsYAML); err != nil {
			b.Fatal(err)
		}
	}
}
