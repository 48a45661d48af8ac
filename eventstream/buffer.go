package eventstream

import (
	"encoding/binary"
	"hash/crc32"
)

// Buffer reassembles frames from a byte stream delivered in arbitrary
// chunks. Append bytes as they arrive and call Next until it returns
// ErrIncompleteFrame.
type Buffer struct {
	data []byte
}

// Append adds raw bytes to the buffer.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Buffered reports how many bytes are held but not yet consumed by a
// decoded frame. A non-zero count at end of stream means the stream
// was cut mid-frame.
func (b *Buffer) Buffered() int {
	return len(b.data)
}

// Next decodes the next complete frame, advancing past it. It returns
// ErrIncompleteFrame while the buffer holds only part of a frame. Any
// other error means the byte stream is corrupt at the current offset
// and cannot be resynchronized.
func (b *Buffer) Next() (*Message, error) {
	if len(b.data) < preludeLength {
		return nil, ErrIncompleteFrame
	}

	totalLength := int(binary.BigEndian.Uint32(b.data[0:4]))
	headersLength := int(binary.BigEndian.Uint32(b.data[4:8]))
	preludeCRC := binary.BigEndian.Uint32(b.data[8:12])

	// Bounds are checked before the prelude CRC so that wildly corrupt
	// length fields are rejected without waiting for more bytes.
	if headersLength > maxHeadersLength {
		return nil, &InvalidLengthError{Field: "headers", Length: headersLength, Max: maxHeadersLength}
	}
	payloadLength := totalLength - headersLength - preludeLength - 4
	if payloadLength < 0 || payloadLength > maxPayloadLength {
		return nil, &InvalidLengthError{Field: "payload", Length: payloadLength, Max: maxPayloadLength}
	}
	if computed := crc32.ChecksumIEEE(b.data[:8]); computed != preludeCRC {
		return nil, &ChecksumError{Expected: preludeCRC, Computed: computed}
	}

	if len(b.data) < totalLength {
		return nil, ErrIncompleteFrame
	}
	frame := b.data[:totalLength]

	messageCRC := binary.BigEndian.Uint32(frame[totalLength-4:])
	if computed := crc32.ChecksumIEEE(frame[:totalLength-4]); computed != messageCRC {
		return nil, &ChecksumError{Expected: messageCRC, Computed: computed}
	}

	headers, err := DecodeHeaders(frame[preludeLength : preludeLength+headersLength])
	if err != nil {
		return nil, err
	}
	payload := make([]byte, payloadLength)
	copy(payload, frame[preludeLength+headersLength:totalLength-4])

	b.data = b.data[totalLength:]
	return &Message{Headers: headers, Payload: payload}, nil
}
