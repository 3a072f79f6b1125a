package protocol

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
)

// MaxIncomingSize is the largest single frame the decoder will accept before
// it reports a buffer-limit error and the caller closes the session.
const MaxIncomingSize = 65536

// Delimiter separates frames on the wire. A frame is a JSON document
// followed by exactly one Delimiter byte.
const Delimiter = 0x00

// Fill is a padding byte some peers emit between frames. It never appears
// inside a JSON document, so the decoder discards it wherever it occurs.
const Fill = 0x01

// ErrBufferLimit is returned by Decoder.Next when more than MaxIncomingSize
// bytes accumulate without a delimiter.
var ErrBufferLimit = fmt.Errorf("protocol: buffer limit exceeded without a frame delimiter")

// Encode appends the delimiter to a marshaled Message, ready to write to the
// wire.
func Encode(m Message) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return append(raw, Delimiter), nil
}

// Decoder reads delimiter-framed Messages from a byte stream.
type Decoder struct {
	r   *bufio.Reader
	buf bytes.Buffer
}

// NewDecoder wraps r for frame-at-a-time decoding.
func NewDecoder(r *bufio.Reader) *Decoder {
	return &Decoder{r: r}
}

// Next reads and decodes the next frame, blocking until one full frame (or
// an error) is available. It returns ErrBufferLimit if more than
// MaxIncomingSize bytes accumulate with no delimiter seen, checked
// byte-by-byte so a peer that
// never sends a delimiter cannot grow the buffer unbounded.
func (d *Decoder) Next() (Message, error) {
	defer d.buf.Reset()
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return Message{}, err
		}
		if b == Fill {
			continue
		}
		if b == Delimiter {
			if d.buf.Len() == 0 {
				continue
			}
			break
		}
		if d.buf.Len() >= MaxIncomingSize {
			return Message{}, ErrBufferLimit
		}
		d.buf.WriteByte(b)
	}

	var m Message
	if err := json.Unmarshal(d.buf.Bytes(), &m); err != nil {
		return Message{}, fmt.Errorf("protocol: malformed frame: %w", err)
	}
	return m, nil
}
