// Package compress frames stored records with an optional compression
// layer. Every frame starts with a one byte algorithm tag followed by the
// uncompressed length as a uvarint.
package compress

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/runoshun/git-cob/internal/domain"
)

// Tag identifies the algorithm of a frame. Tags are written to storage
// and must not change.
type Tag uint8

// Frame tags.
const (
	TagNone Tag = 0
	TagLZ4  Tag = 1
	TagZstd Tag = 2
)

// MaxSize bounds the uncompressed size a frame may declare.
const MaxSize = 64 << 20

// ErrCorruptFrame is returned for frames that cannot be decoded.
var ErrCorruptFrame = errors.New("corrupt compressed frame")

func (t Tag) String() string {
	switch t {
	case TagNone:
		return domain.CompressionNone
	case TagLZ4:
		return domain.CompressionLZ4
	case TagZstd:
		return domain.CompressionZstd
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseTag maps a configured compression name to its tag. The empty name
// means no compression.
func ParseTag(name string) (Tag, error) {
	switch name {
	case "", domain.CompressionNone:
		return TagNone, nil
	case domain.CompressionLZ4:
		return TagLZ4, nil
	case domain.CompressionZstd:
		return TagZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}

// zstd encoders and decoders are safe for concurrent use.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compress: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxSize))
	if err != nil {
		panic("compress: zstd decoder initialization failed: " + err.Error())
	}
}

// Encode frames data with the tag's algorithm. Data that does not shrink
// is stored uncompressed.
func Encode(data []byte, tag Tag) ([]byte, error) {
	payload, used := data, TagNone
	switch tag {
	case TagNone:
	case TagLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compress: %w", err)
		}
		if n > 0 && n < len(data) {
			payload, used = dst[:n], TagLZ4
		}
	case TagZstd:
		if c := zstdEncoder.EncodeAll(data, nil); len(c) < len(data) {
			payload, used = c, TagZstd
		}
	default:
		return nil, fmt.Errorf("unsupported compression tag: %d", tag)
	}

	out := make([]byte, 0, 1+binary.MaxVarintLen64+len(payload))
	out = append(out, byte(used))
	out = binary.AppendUvarint(out, uint64(len(data)))
	return append(out, payload...), nil
}

// Decode reverses Encode.
func Decode(frame []byte) ([]byte, error) {
	if len(frame) < 2 {
		return nil, fmt.Errorf("%w: %d bytes", ErrCorruptFrame, len(frame))
	}
	tag := Tag(frame[0])
	size, n := binary.Uvarint(frame[1:])
	if n <= 0 || size > MaxSize {
		return nil, fmt.Errorf("%w: bad length", ErrCorruptFrame)
	}
	payload := frame[1+n:]

	switch tag {
	case TagNone:
		if uint64(len(payload)) != size {
			return nil, fmt.Errorf("%w: size %d, expected %d", ErrCorruptFrame, len(payload), size)
		}
		return payload, nil
	case TagLZ4:
		dst := make([]byte, size)
		read, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorruptFrame, err)
		}
		if uint64(read) != size {
			return nil, fmt.Errorf("%w: lz4 got %d bytes, expected %d", ErrCorruptFrame, read, size)
		}
		return dst, nil
	case TagZstd:
		out, err := zstdDecoder.DecodeAll(payload, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorruptFrame, err)
		}
		if uint64(len(out)) != size {
			return nil, fmt.Errorf("%w: zstd got %d bytes, expected %d", ErrCorruptFrame, len(out), size)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unknown tag %d", ErrCorruptFrame, tag)
	}
}
