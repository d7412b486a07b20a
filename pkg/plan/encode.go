package plan

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/NyankoNyan/buildgen/pkg/errors"
)

// Format is an output format for plans.
type Format string

const (
	FormatJSON    Format = "json"
	FormatMsgpack Format = "msgpack"
	FormatDOT     Format = "dot"
	FormatSVG     Format = "svg"
)

// Formats lists every output format.
var Formats = []Format{FormatJSON, FormatMsgpack, FormatDOT, FormatSVG}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FormatJSON, FormatMsgpack, FormatDOT, FormatSVG:
		return f, nil
	case "mp", "msgpk":
		return FormatMsgpack, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported plan format %q", s)
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	if f == FormatMsgpack {
		return "msgpack"
	}
	return string(f)
}

// Encode renders p in format f.
func Encode(p *Plan, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return MarshalJSON(p)
	case FormatMsgpack:
		return MarshalMsgpack(p)
	case FormatDOT:
		return []byte(ToDOT(p, DOTOptions{})), nil
	case FormatSVG:
		return RenderSVG(ToDOT(p, DOTOptions{}))
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported plan format %q", f)
}

// Decode parses a plan encoded as JSON or msgpack.
func Decode(data []byte, f Format) (*Plan, error) {
	switch f {
	case FormatJSON:
		return UnmarshalJSON(data)
	case FormatMsgpack:
		return UnmarshalMsgpack(data)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "plan format %q cannot be decoded", f)
}

// MarshalJSON encodes p as indented JSON.
func MarshalJSON(p *Plan) ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode plan")
	}
	return data, nil
}

// UnmarshalJSON decodes a JSON plan.
func UnmarshalJSON(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode plan")
	}
	return &p, nil
}

// MarshalMsgpack encodes p as msgpack using the JSON field names.
func MarshalMsgpack(p *Plan) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode plan")
	}
	return buf.Bytes(), nil
}

// UnmarshalMsgpack decodes a msgpack plan.
func UnmarshalMsgpack(data []byte) (*Plan, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	var p Plan
	if err := dec.Decode(&p); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode plan")
	}
	return &p, nil
}
