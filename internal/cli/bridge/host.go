package bridge

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// maxMessageSize bounds one native-messaging frame in either direction.
// Browsers cap host->extension messages at 1 MiB.
const maxMessageSize = 1 << 20

// ReadFrame reads one native-messaging frame: a 4-byte little-endian length
// followed by that many bytes of JSON.
func ReadFrame(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size == 0 || size > maxMessageSize {
		return nil, fmt.Errorf("invalid frame size %d", size)
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read frame: %w", err)
	}
	return buf, nil
}

// WriteFrame writes payload as one native-messaging frame.
func WriteFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxMessageSize {
		return fmt.Errorf("frame too large: %d bytes", len(payload))
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(payload))); err != nil {
		return fmt.Errorf("failed to write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}
	return nil
}

// Serve runs the bridge as a native-messaging host, reading requests from r
// and writing responses to w until r is closed or ctx is done. Requests are
// handled one at a time, so responses come back in request order.
func (b *Bridge) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		frame, err := ReadFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				b.log.Debug().Msg("Extension closed the bridge")
				return nil
			}
			return fmt.Errorf("bridge read failed: %w", err)
		}

		var resp Response
		var msg Message
		if err := json.Unmarshal(frame, &msg); err != nil {
			b.log.Warn().Err(err).Msg("Malformed bridge message")
			resp = Response{Error: "malformed message"}
		} else {
			resp = b.Handle(ctx, msg)
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return fmt.Errorf("failed to encode bridge response: %w", err)
		}
		if err := WriteFrame(w, data); err != nil {
			return fmt.Errorf("bridge write failed: %w", err)
		}
	}
}
