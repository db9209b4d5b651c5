package protocol

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/muurk/insteon/internal/logging"
)

//go:embed definitions.yaml
var defaultDefinitionsYAML []byte

var (
	// Process-wide definitions built from the embedded resource (loaded lazily)
	defaultDefinitions     *Definitions
	defaultDefinitionsOnce sync.Once
	defaultDefinitionsErr  error
)

// definitionsDocument mirrors the YAML resource layout
type definitionsDocument struct {
	Messages []messageRecord `yaml:"messages"`
}

type messageRecord struct {
	Name      string        `yaml:"name"`
	Direction string        `yaml:"direction"`
	Length    int           `yaml:"length"`
	Header    *headerRecord `yaml:"header"`
	Fields    []fieldRecord `yaml:"fields"`
}

type headerRecord struct {
	Length int           `yaml:"length"`
	Fields []fieldRecord `yaml:"fields"`
}

type fieldRecord struct {
	Type  string `yaml:"type"`
	Name  string `yaml:"name,omitempty"`
	Value string `yaml:"value,omitempty"`
}

type commandKey struct {
	cmd byte
	dir Direction
}

type extendedKey struct {
	cmd byte
	ext bool
	dir Direction
}

// Definitions is a read-only set of message definitions. It is built once
// and safe for concurrent lookups afterwards.
type Definitions struct {
	byName     map[string]*Definition
	order      []*Definition
	byCommand  map[commandKey]*Definition
	byExtended map[extendedKey]*Definition
}

// DefaultDefinitions returns the definitions embedded in the binary.
// Thread-safe - the resource is parsed once and every call returns the same instance.
func DefaultDefinitions() (*Definitions, error) {
	defaultDefinitionsOnce.Do(func() {
		defaultDefinitions, defaultDefinitionsErr = ParseDefinitions(defaultDefinitionsYAML)
	})
	return defaultDefinitions, defaultDefinitionsErr
}

// LoadDefinitionsFile reads a definitions resource from disk
func LoadDefinitionsFile(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file: %w", err)
	}
	return ParseDefinitions(data)
}

// LoadDefinitions reads a definitions resource from r
func LoadDefinitions(r io.Reader) (*Definitions, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions: %w", err)
	}
	return ParseDefinitions(data)
}

// ParseDefinitions builds a Definitions set from a YAML document.
//
// A malformed record is skipped and reported; the returned set still holds
// every record that parsed. The error joins one *Error per failed record, so
// callers that need an all-or-nothing load should treat any error as fatal.
// A document that is not valid YAML returns a nil set.
func ParseDefinitions(data []byte) (*Definitions, error) {
	var doc definitionsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse definitions: %w", err)
	}

	defs := &Definitions{
		byName: make(map[string]*Definition),
	}

	var errs []error
	for i := range doc.Messages {
		rec := &doc.Messages[i]
		def, err := buildDefinition(rec)
		if err != nil {
			logging.Warn("Skipping message definition",
				zap.String("name", rec.Name),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		defs.add(def)
	}

	defs.index()

	logging.Debug("Message definitions loaded",
		zap.Int("count", len(defs.order)),
		zap.Int("failed", len(errs)),
	)

	return defs, errors.Join(errs...)
}

// add stores def, replacing an earlier definition with the same name in place
func (d *Definitions) add(def *Definition) {
	if old, exists := d.byName[def.Name]; exists {
		logging.Warn("Overwriting message definition", zap.String("name", def.Name))
		for i, o := range d.order {
			if o == old {
				d.order[i] = def
				break
			}
		}
	} else {
		d.order = append(d.order, def)
	}
	d.byName[def.Name] = def
}

// index precomputes the command lookups; the first definition in document order wins
func (d *Definitions) index() {
	d.byCommand = make(map[commandKey]*Definition)
	d.byExtended = make(map[extendedKey]*Definition)

	for _, def := range d.order {
		cmd, ok := def.Command()
		if !ok {
			continue
		}
		ck := commandKey{cmd: cmd, dir: def.Direction}
		if _, exists := d.byCommand[ck]; !exists {
			d.byCommand[ck] = def
		}
		ek := extendedKey{cmd: cmd, ext: def.IsExtended(), dir: def.Direction}
		if _, exists := d.byExtended[ek]; !exists {
			d.byExtended[ek] = def
		}
	}
}

// buildDefinition converts one record, walking header then body fields in order
func buildDefinition(rec *messageRecord) (*Definition, error) {
	if rec.Name == "" {
		return nil, definitionError(rec.Name, "missing name")
	}
	if rec.Direction == "" {
		return nil, definitionError(rec.Name, "missing direction")
	}
	dir, err := ParseDirection(rec.Direction)
	if err != nil {
		return nil, &Error{Type: ErrTypeDefinition, Message: fmt.Sprintf("message %q: bad direction", rec.Name), Err: err}
	}
	if rec.Length <= 0 {
		return nil, definitionError(rec.Name, "length must be positive, got %d", rec.Length)
	}
	if rec.Header == nil {
		return nil, definitionError(rec.Name, "missing header")
	}

	def := &Definition{
		Name:      rec.Name,
		Direction: dir,
		template:  make([]byte, rec.Length),
		fields:    make(map[string]Field),
	}

	offset := 0
	for _, fr := range rec.Header.Fields {
		if offset, err = def.addField(fr, offset); err != nil {
			return nil, err
		}
	}
	if offset != rec.Header.Length {
		return nil, definitionError(rec.Name, "header fields span %d bytes, declared %d", offset, rec.Header.Length)
	}
	def.HeaderLength = offset

	for _, fr := range rec.Fields {
		if offset, err = def.addField(fr, offset); err != nil {
			return nil, err
		}
	}
	if offset != rec.Length {
		return nil, definitionError(rec.Name, "fields span %d bytes, declared length %d", offset, rec.Length)
	}

	return def, nil
}

// addField places fr at offset, fills any literal value into the template
// and returns the offset of the next field
func (d *Definition) addField(fr fieldRecord, offset int) (int, error) {
	ft, err := ParseFieldType(fr.Type)
	if err != nil {
		return 0, &Error{Type: ErrTypeDefinition, Message: fmt.Sprintf("message %q", d.Name), Err: err}
	}

	f := Field{Name: fr.Name, Offset: offset, Type: ft}
	if offset+ft.Size() > len(d.template) {
		return 0, definitionError(d.Name, "field %s exceeds declared length %d", f, len(d.template))
	}

	if fr.Value != "" {
		if err := f.SetFromString(d.template, fr.Value); err != nil {
			return 0, &Error{Type: ErrTypeDefinition, Message: fmt.Sprintf("message %q", d.Name), Err: err}
		}
	}

	// Unnamed fields (the sync byte) only occupy space in the template
	if fr.Name != "" {
		if _, dup := d.fields[fr.Name]; dup {
			return 0, definitionError(d.Name, "duplicate field %s", fr.Name)
		}
		d.fields[fr.Name] = f
		d.order = append(d.order, f)
	}

	return offset + ft.Size(), nil
}

// Lookup returns the definition with the given name
func (d *Definitions) Lookup(name string) (*Definition, bool) {
	def, ok := d.byName[name]
	return def, ok
}

// ByCommand returns the first definition for a command byte and direction
func (d *Definitions) ByCommand(cmd byte, dir Direction) (*Definition, bool) {
	def, ok := d.byCommand[commandKey{cmd: cmd, dir: dir}]
	return def, ok
}

// ByCommandExtended is ByCommand additionally filtered on the extended flag
func (d *Definitions) ByCommandExtended(cmd byte, ext bool, dir Direction) (*Definition, bool) {
	def, ok := d.byExtended[extendedKey{cmd: cmd, ext: ext, dir: dir}]
	return def, ok
}

// HeaderLength returns the header length of the first inbound definition for cmd, or -1
func (d *Definitions) HeaderLength(cmd byte) int {
	def, ok := d.ByCommand(cmd, FromModem)
	if !ok {
		return -1
	}
	return def.HeaderLength
}

// MessageLength returns the total length of the inbound definition for cmd/ext, or -1
func (d *Definitions) MessageLength(cmd byte, ext bool) int {
	def, ok := d.ByCommandExtended(cmd, ext, FromModem)
	if !ok {
		return -1
	}
	return def.Length()
}

// Len returns the number of definitions
func (d *Definitions) Len() int {
	return len(d.order)
}

// All returns the definitions in document order
func (d *Definitions) All() []*Definition {
	return append([]*Definition(nil), d.order...)
}

// Names returns the definition names sorted alphabetically
func (d *Definitions) Names() []string {
	names := make([]string, 0, len(d.byName))
	for name := range d.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
