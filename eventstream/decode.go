package eventstream

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var errTruncatedHeaders = errors.New("eventstream: truncated header block")

// DecodeHeaders parses a complete header block. Duplicate names are
// rejected.
func DecodeHeaders(data []byte) (Headers, error) {
	var headers Headers
	seen := make(map[string]struct{})
	for len(data) > 0 {
		nameLen := int(data[0])
		data = data[1:]
		if len(data) < nameLen+1 {
			return nil, errTruncatedHeaders
		}
		name := string(data[:nameLen])
		typeCode := data[nameLen]
		data = data[nameLen+1:]

		value, consumed, err := decodeValue(typeCode, data)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", name, err)
		}
		data = data[consumed:]

		if _, ok := seen[name]; ok {
			return nil, &DuplicateHeaderError{Name: name}
		}
		seen[name] = struct{}{}
		headers = append(headers, Header{Name: name, Value: value})
	}
	return headers, nil
}

func decodeValue(typeCode byte, data []byte) (Value, int, error) {
	switch typeCode {
	case typeBoolTrue:
		return BoolValue(true), 0, nil
	case typeBoolFalse:
		return BoolValue(false), 0, nil
	case typeInt8:
		if len(data) < 1 {
			return nil, 0, errTruncatedHeaders
		}
		return Int8Value(data[0]), 1, nil
	case typeInt16:
		if len(data) < 2 {
			return nil, 0, errTruncatedHeaders
		}
		return Int16Value(binary.BigEndian.Uint16(data)), 2, nil
	case typeInt32:
		if len(data) < 4 {
			return nil, 0, errTruncatedHeaders
		}
		return Int32Value(binary.BigEndian.Uint32(data)), 4, nil
	case typeInt64:
		if len(data) < 8 {
			return nil, 0, errTruncatedHeaders
		}
		return Int64Value(binary.BigEndian.Uint64(data)), 8, nil
	case typeBytes, typeString:
		if len(data) < 2 {
			return nil, 0, errTruncatedHeaders
		}
		length := int(binary.BigEndian.Uint16(data))
		if len(data) < 2+length {
			return nil, 0, errTruncatedHeaders
		}
		raw := data[2 : 2+length]
		if typeCode == typeString {
			return StringValue(raw), 2 + length, nil
		}
		value := make(BytesValue, length)
		copy(value, raw)
		return value, 2 + length, nil
	case typeTimestamp:
		if len(data) < 8 {
			return nil, 0, errTruncatedHeaders
		}
		ms := int64(binary.BigEndian.Uint64(data))
		return TimestampValue(unixMilliUTC(ms)), 8, nil
	case typeUUID:
		if len(data) < 16 {
			return nil, 0, errTruncatedHeaders
		}
		var id uuid.UUID
		copy(id[:], data[:16])
		return UUIDValue(id), 16, nil
	default:
		return nil, 0, fmt.Errorf("eventstream: unknown header value type %d", typeCode)
	}
}
