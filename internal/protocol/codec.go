package protocol

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Encode frames a payload as a single binary WebSocket message: a one-byte
// kind tag followed by its gob encoding. This is the completed form of the
// teacher's own two-path SendMessage/EncodeBinaryMessage design — binary
// first, with callers falling back to JSON only on the HTTP session-setup
// surface, which never carries these message types.
func Encode(kind Kind, payload any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(byte(kind))
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", kind, err)
	}
	return buf.Bytes(), nil
}

// Decode splits a raw frame into its kind tag and a decoder primed to
// unmarshal the remaining gob-encoded payload into a caller-supplied value.
func Decode(frame []byte) (Kind, *gob.Decoder, error) {
	if len(frame) < 1 {
		return 0, nil, fmt.Errorf("protocol: empty frame")
	}
	kind := Kind(frame[0])
	return kind, gob.NewDecoder(bytes.NewReader(frame[1:])), nil
}
