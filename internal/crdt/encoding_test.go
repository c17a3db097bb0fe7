package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	doc := newIssueDoc(t, "alice")
	issue := lookupObj(t, doc, Key("issue"))
	_, err := doc.Transact("retitle", func(tx *Transaction) error {
		return tx.Put(issue, Key("title"), Str("Crash"))
	})
	require.NoError(t, err)

	data, err := doc.Save()
	require.NoError(t, err)

	loaded, err := Load(data)
	require.NoError(t, err)

	want, err := doc.Materialize(Root)
	require.NoError(t, err)
	got, err := loaded.Materialize(Root)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, doc.Heads(), loaded.Heads())
}

func TestSaveIncremental_Concatenates(t *testing.T) {
	doc := newIssueDoc(t, "alice")
	first, err := doc.Save()
	require.NoError(t, err)

	empty, err := doc.SaveIncremental()
	require.NoError(t, err)
	assert.Nil(t, empty)

	issue := lookupObj(t, doc, Key("issue"))
	_, err = doc.Transact("retitle", func(tx *Transaction) error {
		return tx.Put(issue, Key("title"), Str("Crash"))
	})
	require.NoError(t, err)
	second, err := doc.SaveIncremental()
	require.NoError(t, err)
	require.NotEmpty(t, second)

	changes, err := DecodeChanges(second)
	require.NoError(t, err)
	assert.Len(t, changes, 1)

	loaded, err := Load(append(append([]byte{}, first...), second...))
	require.NoError(t, err)
	title, err := loaded.Lookup(Key("issue"), Key("title"))
	require.NoError(t, err)
	assert.Equal(t, Str("Crash"), title.Scalar)
}

func TestChunkPayloads(t *testing.T) {
	doc := newIssueDoc(t, "alice")
	first, err := doc.Save()
	require.NoError(t, err)
	issue := lookupObj(t, doc, Key("issue"))
	_, err = doc.Transact("retitle", func(tx *Transaction) error {
		return tx.Put(issue, Key("title"), Str("Crash"))
	})
	require.NoError(t, err)
	second, err := doc.SaveIncremental()
	require.NoError(t, err)

	payloads, err := ChunkPayloads(append(append([]byte{}, first...), second...))
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	// Each payload is a CBOR array (major type 4).
	for _, p := range payloads {
		assert.Equal(t, byte(0x80), p[0]&0xe0)
	}

	_, err = ChunkPayloads(second[:len(second)-1])
	assert.ErrorIs(t, err, ErrCorruptChunk)
}

func TestDecodeChanges_HashStable(t *testing.T) {
	doc := newIssueDoc(t, "alice")
	data, err := EncodeChanges(doc.Changes()...)
	require.NoError(t, err)

	decoded, err := DecodeChanges(data)
	require.NoError(t, err)
	require.Len(t, decoded, 1)

	want, err := doc.Changes()[0].Hash()
	require.NoError(t, err)
	got, err := decoded[0].Hash()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecodeChanges_Corrupt(t *testing.T) {
	doc := newIssueDoc(t, "alice")
	data, err := doc.Save()
	require.NoError(t, err)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "empty", data: nil},
		{name: "bad magic", data: append([]byte("xxxx"), data[4:]...)},
		{name: "truncated", data: data[:len(data)-3]},
		{name: "flipped payload byte", data: func() []byte {
			b := append([]byte{}, data...)
			b[len(b)-1] ^= 0xff
			return b
		}()},
		{name: "trailing garbage", data: append(append([]byte{}, data...), 0x01, 0x02)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeChanges(tt.data)
			assert.ErrorIs(t, err, ErrCorruptChunk)

			_, err = Load(tt.data)
			assert.Error(t, err)
		})
	}
}

func TestFold_SkipsCorruptRecords(t *testing.T) {
	doc := newIssueDoc(t, "alice")
	first, err := doc.Save()
	require.NoError(t, err)

	issue := lookupObj(t, doc, Key("issue"))
	_, err = doc.Transact("retitle", func(tx *Transaction) error {
		return tx.Put(issue, Key("title"), Str("Crash"))
	})
	require.NoError(t, err)
	second, err := doc.SaveIncremental()
	require.NoError(t, err)

	folded, skipped := Fold([][]byte{first, []byte("garbage"), second})
	assert.Equal(t, 1, skipped)

	title, err := folded.Lookup(Key("issue"), Key("title"))
	require.NoError(t, err)
	assert.Equal(t, Str("Crash"), title.Scalar)
}

func TestFold_OutOfOrderRecords(t *testing.T) {
	doc := newIssueDoc(t, "alice")
	first, err := doc.Save()
	require.NoError(t, err)

	issue := lookupObj(t, doc, Key("issue"))
	_, err = doc.Transact("retitle", func(tx *Transaction) error {
		return tx.Put(issue, Key("title"), Str("Crash"))
	})
	require.NoError(t, err)
	second, err := doc.SaveIncremental()
	require.NoError(t, err)

	folded, skipped := Fold([][]byte{second, first})
	assert.Zero(t, skipped)
	assert.Zero(t, folded.Pending())

	title, err := folded.Lookup(Key("issue"), Key("title"))
	require.NoError(t, err)
	assert.Equal(t, Str("Crash"), title.Scalar)
}

func TestFold_RecordIsAllOrNothing(t *testing.T) {
	doc := newIssueDoc(t, "alice")
	first, err := doc.Save()
	require.NoError(t, err)

	issue := lookupObj(t, doc, Key("issue"))
	good := &Change{
		Actor:   "bob",
		Seq:     1,
		StartOp: 100,
		Deps:    doc.Heads(),
		Ops:     []Op{{Action: ActionSet, Obj: issue, Key: "title", Value: Str("Crash")}},
	}
	goodHash, err := good.Hash()
	require.NoError(t, err)
	bad := &Change{
		Actor:   "bob",
		Seq:     2,
		StartOp: 101,
		Deps:    []ChangeHash{goodHash},
		Ops:     []Op{{Action: ActionSet, Obj: OpID{Actor: "ghost", Counter: 9}, Key: "x", Value: Str("y")}},
	}
	mixed, err := EncodeChanges(good, bad)
	require.NoError(t, err)

	folded, skipped := Fold([][]byte{first, mixed})
	assert.Equal(t, 1, skipped)
	assert.False(t, folded.HasChange(goodHash))
	assert.Len(t, folded.Changes(), 1)
	assert.Equal(t, doc.Heads(), folded.Heads())

	title, err := folded.Lookup(Key("issue"), Key("title"))
	require.NoError(t, err)
	assert.Equal(t, Str("Bug"), title.Scalar)

	// Later local changes build on the surviving history only.
	issue = lookupObj(t, folded, Key("issue"))
	c, err := folded.Transact("retitle", func(tx *Transaction) error {
		return tx.Put(issue, Key("title"), Str("Later"))
	})
	require.NoError(t, err)
	assert.Equal(t, doc.Heads(), c.Deps)
}

func TestFold_RejectedRecordKeepsPendingQueue(t *testing.T) {
	doc := newIssueDoc(t, "alice")
	first, err := doc.Save()
	require.NoError(t, err)

	issue := lookupObj(t, doc, Key("issue"))
	_, err = doc.Transact("retitle", func(tx *Transaction) error {
		return tx.Put(issue, Key("title"), Str("Crash"))
	})
	require.NoError(t, err)
	second, err := doc.SaveIncremental()
	require.NoError(t, err)

	bad := &Change{
		Actor:   "mallory",
		Seq:     1,
		StartOp: 100,
		Ops:     []Op{{Action: ActionSet, Obj: OpID{Actor: "ghost", Counter: 9}, Key: "x", Value: Str("y")}},
	}
	rejected, err := EncodeChanges(bad)
	require.NoError(t, err)

	folded, skipped := Fold([][]byte{second, rejected, first})
	assert.Equal(t, 1, skipped)
	assert.Zero(t, folded.Pending())

	title, err := folded.Lookup(Key("issue"), Key("title"))
	require.NoError(t, err)
	assert.Equal(t, Str("Crash"), title.Scalar)
}
