// Package eventstream implements the binary event-stream framing used
// on the wire between the client and the transcription service.
//
// A frame is a 12-byte prelude (total length, headers length, prelude
// CRC32), a block of typed headers, an opaque payload, and a trailing
// CRC32 over everything before it. All integers are big-endian. The
// codec is stateless per frame; Buffer reassembles frames from a byte
// stream delivered in arbitrary chunks.
package eventstream
