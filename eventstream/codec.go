package eventstream

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"time"

	"github.com/google/uuid"
)

const (
	preludeLength = 12

	maxHeadersLength     = 128 * 1024
	maxHeaderValueLength = 32*1024 - 1
	maxPayloadLength     = 16 * 1024 * 1024
)

// Header value type codes on the wire.
const (
	typeBoolTrue byte = iota
	typeBoolFalse
	typeInt8
	typeInt16
	typeInt32
	typeInt64
	typeBytes
	typeString
	typeTimestamp
	typeUUID
)

// Value is a header value of one of the wire types.
type Value interface {
	appendTo(dst []byte) ([]byte, error)
}

type (
	BoolValue   bool
	Int8Value   int8
	Int16Value  int16
	Int32Value  int32
	Int64Value  int64
	BytesValue  []byte
	StringValue string
	// TimestampValue is carried with millisecond precision.
	TimestampValue time.Time
	UUIDValue      uuid.UUID
)

func (v BoolValue) appendTo(dst []byte) ([]byte, error) {
	if v {
		return append(dst, typeBoolTrue), nil
	}
	return append(dst, typeBoolFalse), nil
}

func (v Int8Value) appendTo(dst []byte) ([]byte, error) {
	return append(dst, typeInt8, byte(v)), nil
}

func (v Int16Value) appendTo(dst []byte) ([]byte, error) {
	return binary.BigEndian.AppendUint16(append(dst, typeInt16), uint16(v)), nil
}

func (v Int32Value) appendTo(dst []byte) ([]byte, error) {
	return binary.BigEndian.AppendUint32(append(dst, typeInt32), uint32(v)), nil
}

func (v Int64Value) appendTo(dst []byte) ([]byte, error) {
	return binary.BigEndian.AppendUint64(append(dst, typeInt64), uint64(v)), nil
}

func (v BytesValue) appendTo(dst []byte) ([]byte, error) {
	if len(v) > maxHeaderValueLength {
		return nil, &InvalidLengthError{Field: "header value", Length: len(v), Max: maxHeaderValueLength}
	}
	dst = binary.BigEndian.AppendUint16(append(dst, typeBytes), uint16(len(v)))
	return append(dst, v...), nil
}

func (v StringValue) appendTo(dst []byte) ([]byte, error) {
	if len(v) > maxHeaderValueLength {
		return nil, &InvalidLengthError{Field: "header value", Length: len(v), Max: maxHeaderValueLength}
	}
	dst = binary.BigEndian.AppendUint16(append(dst, typeString), uint16(len(v)))
	return append(dst, v...), nil
}

func (v TimestampValue) appendTo(dst []byte) ([]byte, error) {
	ms := time.Time(v).UnixMilli()
	return binary.BigEndian.AppendUint64(append(dst, typeTimestamp), uint64(ms)), nil
}

func (v UUIDValue) appendTo(dst []byte) ([]byte, error) {
	return append(append(dst, typeUUID), v[:]...), nil
}

func unixMilliUTC(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Header is one named header entry.
type Header struct {
	Name  string
	Value Value
}

// Headers is an ordered header block. Order is preserved on the wire.
type Headers []Header

// Get returns the value for name, if present.
func (hs Headers) Get(name string) (Value, bool) {
	for _, h := range hs {
		if h.Name == name {
			return h.Value, true
		}
	}
	return nil, false
}

// GetString returns the string value for name, if present and of
// string type.
func (hs Headers) GetString(name string) (string, bool) {
	v, ok := hs.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(StringValue)
	return string(s), ok
}

// Message is one decoded frame.
type Message struct {
	Headers Headers
	Payload []byte
}

// Encode serializes headers and payload into a single self-describing
// frame.
func Encode(headers Headers, payload []byte) ([]byte, error) {
	if len(payload) > maxPayloadLength {
		return nil, &InvalidLengthError{Field: "payload", Length: len(payload), Max: maxPayloadLength}
	}
	encodedHeaders, err := EncodeHeaders(headers)
	if err != nil {
		return nil, err
	}
	if len(encodedHeaders) > maxHeadersLength {
		return nil, &InvalidLengthError{Field: "headers", Length: len(encodedHeaders), Max: maxHeadersLength}
	}

	totalLength := preludeLength + len(encodedHeaders) + len(payload) + 4
	frame := make([]byte, 0, totalLength)
	frame = binary.BigEndian.AppendUint32(frame, uint32(totalLength))
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(encodedHeaders)))
	frame = binary.BigEndian.AppendUint32(frame, crc32.ChecksumIEEE(frame))
	frame = append(frame, encodedHeaders...)
	frame = append(frame, payload...)
	frame = binary.BigEndian.AppendUint32(frame, crc32.ChecksumIEEE(frame))
	return frame, nil
}

// EncodeHeaders serializes just the header block.
func EncodeHeaders(headers Headers) ([]byte, error) {
	var encoded []byte
	for _, h := range headers {
		if len(h.Name) > 255 {
			return nil, &InvalidLengthError{Field: "header name", Length: len(h.Name), Max: 255}
		}
		encoded = append(encoded, byte(len(h.Name)))
		encoded = append(encoded, h.Name...)
		var err error
		if encoded, err = h.Value.appendTo(encoded); err != nil {
			return nil, fmt.Errorf("header %q: %w", h.Name, err)
		}
	}
	return encoded, nil
}
