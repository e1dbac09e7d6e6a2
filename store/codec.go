package store

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
	"github.com/vmihailenco/msgpack/v5"
)

// FrameKind identifies a websocket frame.
type FrameKind uint8

const (
	FrameReadAll FrameKind = iota + 1
	FrameRemove
	FrameWritePosition
	FrameReadUser
	FrameSubscribe
	FrameSubscribePlayers
	FrameReply
	FrameSwimmers
	FramePlayers
)

// Frame is the single message type exchanged between Client and Server.
// Requests carry a Seq that the matching FrameReply echoes.
type Frame struct {
	Kind     FrameKind       `msgpack:"k"`
	Seq      uint64          `msgpack:"q,omitempty"`
	ID       string          `msgpack:"id,omitempty"`
	X        float64         `msgpack:"x,omitempty"`
	Y        float64         `msgpack:"y,omitempty"`
	Swimmers []SwimmerRecord `msgpack:"s,omitempty"`
	Players  []PlayerRecord  `msgpack:"p,omitempty"`
	User     *UserAggregate  `msgpack:"u,omitempty"`
	Code     string          `msgpack:"c,omitempty"`
	Error    string          `msgpack:"e,omitempty"`
}

// Error codes carried in Frame.Code.
const (
	codeNotFound = "not_found"
	codeInternal = "internal"
)

const (
	flagRaw    byte = 0
	flagSnappy byte = 1
)

// compressThreshold is the encoded size above which frames are snappy-compressed.
const compressThreshold = 512

var errShortFrame = errors.New("store: empty frame")

// EncodeFrame serializes f with msgpack, compressing large payloads with snappy.
// The first byte of the result flags the compression.
func EncodeFrame(f Frame) ([]byte, error) {
	body, err := msgpack.Marshal(&f)
	if err != nil {
		return nil, fmt.Errorf("encoding frame: %w", err)
	}
	if len(body) <= compressThreshold {
		return append([]byte{flagRaw}, body...), nil
	}
	compressed := snappy.Encode(nil, body)
	return append([]byte{flagSnappy}, compressed...), nil
}

// DecodeFrame reverses EncodeFrame.
func DecodeFrame(data []byte) (Frame, error) {
	var f Frame
	if len(data) == 0 {
		return f, errShortFrame
	}
	body := data[1:]
	switch data[0] {
	case flagRaw:
	case flagSnappy:
		decoded, err := snappy.Decode(nil, body)
		if err != nil {
			return f, fmt.Errorf("decompressing frame: %w", err)
		}
		body = decoded
	default:
		return f, fmt.Errorf("store: unknown frame flag %d", data[0])
	}
	if err := msgpack.Unmarshal(body, &f); err != nil {
		return f, fmt.Errorf("decoding frame: %w", err)
	}
	return f, nil
}

// replyError converts an error into reply fields.
func replyError(f *Frame, err error) {
	if err == nil {
		return
	}
	f.Error = err.Error()
	f.Code = codeInternal
	if errors.Is(err, ErrNotFound) {
		f.Code = codeNotFound
	}
}

// frameError converts reply fields back into an error.
func frameError(f Frame) error {
	if f.Error == "" {
		return nil
	}
	if f.Code == codeNotFound {
		return fmt.Errorf("%s: %w", f.Error, ErrNotFound)
	}
	return errors.New(f.Error)
}
