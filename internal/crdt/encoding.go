package crdt

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/zeebo/blake3"

	"github.com/runoshun/git-cob/internal/codec"
)

// Chunk layout:
//
//	magic (4) | payload length (uvarint) | checksum (4) | payload
//
// The payload is the CBOR array of changes. The checksum is the first
// four bytes of the BLAKE3 digest of the payload. Chunks concatenate: a
// sequence of chunks is itself a valid encoding.
var chunkMagic = [4]byte{'c', 'o', 'b', 0x01}

const checksumSize = 4

// maxChunkPayload bounds the payload length read from a header.
const maxChunkPayload = 64 << 20

// EncodeChanges encodes changes as a single chunk.
func EncodeChanges(changes ...*Change) ([]byte, error) {
	payload, err := codec.Marshal(changes)
	if err != nil {
		return nil, fmt.Errorf("encode changes: %w", err)
	}
	sum := blake3.Sum256(payload)

	out := make([]byte, 0, len(chunkMagic)+binary.MaxVarintLen64+checksumSize+len(payload))
	out = append(out, chunkMagic[:]...)
	out = binary.AppendUvarint(out, uint64(len(payload)))
	out = append(out, sum[:checksumSize]...)
	out = append(out, payload...)
	return out, nil
}

// DecodeChanges decodes every chunk in data. Any malformed chunk fails the
// whole decode.
func DecodeChanges(data []byte) ([]*Change, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrCorruptChunk)
	}
	var changes []*Change
	for offset := 0; offset < len(data); {
		chunk, n, err := decodeChunk(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("chunk at offset %d: %w", offset, err)
		}
		changes = append(changes, chunk...)
		offset += n
	}
	return changes, nil
}

func decodeChunk(data []byte) ([]*Change, int, error) {
	payload, n, err := splitChunk(data)
	if err != nil {
		return nil, 0, err
	}
	var changes []*Change
	if err := codec.Unmarshal(payload, &changes); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrCorruptChunk, err)
	}
	for i, c := range changes {
		if c == nil {
			return nil, 0, fmt.Errorf("%w: null change at %d", ErrCorruptChunk, i)
		}
	}
	return changes, n, nil
}

// splitChunk checks the header and checksum of the chunk at the start of
// data and returns its payload and total length.
func splitChunk(data []byte) ([]byte, int, error) {
	if len(data) < len(chunkMagic) || !bytes.Equal(data[:len(chunkMagic)], chunkMagic[:]) {
		return nil, 0, fmt.Errorf("%w: bad magic", ErrCorruptChunk)
	}
	pos := len(chunkMagic)

	size, n := binary.Uvarint(data[pos:])
	if n <= 0 || size > maxChunkPayload {
		return nil, 0, fmt.Errorf("%w: bad length", ErrCorruptChunk)
	}
	pos += n

	if len(data) < pos+checksumSize+int(size) {
		return nil, 0, fmt.Errorf("%w: truncated", ErrCorruptChunk)
	}
	checksum := data[pos : pos+checksumSize]
	pos += checksumSize
	payload := data[pos : pos+int(size)]
	pos += int(size)

	sum := blake3.Sum256(payload)
	if !bytes.Equal(sum[:checksumSize], checksum) {
		return nil, 0, fmt.Errorf("%w: checksum mismatch", ErrCorruptChunk)
	}
	return payload, pos, nil
}

// ChunkPayloads returns the verified CBOR payload of every chunk in data.
func ChunkPayloads(data []byte) ([][]byte, error) {
	var payloads [][]byte
	for offset := 0; offset < len(data); {
		payload, n, err := splitChunk(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("chunk at offset %d: %w", offset, err)
		}
		payloads = append(payloads, payload)
		offset += n
	}
	return payloads, nil
}

// Save encodes the whole history as one chunk.
func (d *Document) Save() ([]byte, error) {
	data, err := EncodeChanges(d.history...)
	if err != nil {
		return nil, err
	}
	d.saved = len(d.history)
	return data, nil
}

// SaveIncremental encodes the changes applied since the last Save or
// SaveIncremental. It returns nil when there is nothing new.
func (d *Document) SaveIncremental() ([]byte, error) {
	if d.saved >= len(d.history) {
		return nil, nil
	}
	data, err := EncodeChanges(d.history[d.saved:]...)
	if err != nil {
		return nil, err
	}
	d.saved = len(d.history)
	return data, nil
}

// Load decodes an encoding produced by Save, SaveIncremental or
// EncodeChanges (or a concatenation of them) into a new document. Unlike
// Fold, a corrupt chunk or a rejected change fails the load.
func Load(data []byte) (*Document, error) {
	changes, err := DecodeChanges(data)
	if err != nil {
		return nil, err
	}
	d := New()
	if err := d.ApplyChanges(changes...); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	d.saved = len(d.history)
	return d, nil
}

// Fold builds a document by applying records in order. A record is applied
// whole or not at all: records that fail to decode or contain a rejected
// change are skipped, and the number of skipped records is returned
// alongside the document. Changes still waiting for dependencies are
// reported by Pending.
func Fold(records [][]byte) (*Document, int) {
	d := New()
	skipped := 0
	for _, record := range records {
		changes, err := DecodeChanges(record)
		if err != nil {
			skipped++
			continue
		}
		if err := d.applyAll(changes); err != nil {
			skipped++
		}
	}
	d.saved = len(d.history)
	return d, skipped
}
