// Package irpack (de)serializes IR compilation units. The wire format is
// msgpack: a schema version followed by the unit payload. Decoding checks
// the schema before touching any IR, so format drift surfaces as a load
// error instead of garbage reaching the verifier. Semantic validation is
// explicitly not done here: malformed shapes inside a structurally valid
// payload are the verifier's business and become diagnostics, not errors.
package irpack

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"borrowck/internal/ir"
)

// Schema version of the unit payload. Increment when the ir structs change
// shape incompatibly.
const schemaVersion uint16 = 1

var (
	// ErrSchemaMismatch means the payload was written by an incompatible
	// front end or tool version.
	ErrSchemaMismatch = errors.New("unit schema mismatch")
	// ErrEmptyUnit means the payload decoded but carried no unit.
	ErrEmptyUnit = errors.New("unit payload is empty")
)

// Encode serializes a unit.
func Encode(u *ir.Unit) ([]byte, error) {
	if u == nil {
		return nil, ErrEmptyUnit
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.Encode(schemaVersion); err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	if err := enc.Encode(u); err != nil {
		return nil, fmt.Errorf("encode unit %q: %w", u.Name, err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes a unit, verifying the schema version first.
func Decode(data []byte) (*ir.Unit, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	var schema uint16
	if err := dec.Decode(&schema); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	if schema != schemaVersion {
		return nil, fmt.Errorf("%w: payload schema %d, supported %d", ErrSchemaMismatch, schema, schemaVersion)
	}
	var u ir.Unit
	if err := dec.Decode(&u); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	return &u, nil
}

// Load reads and decodes a unit file.
func Load(path string) (*ir.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit %q: %w", path, err)
	}
	u, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("unit %q: %w", path, err)
	}
	return u, nil
}

// Write encodes a unit and writes it to path.
func Write(path string, u *ir.Unit) error {
	data, err := Encode(u)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write unit %q: %w", path, err)
	}
	return nil
}
