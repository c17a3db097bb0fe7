package gitstore

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
	"gopkg.in/yaml.v3"

	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/infra/compress"
)

// Tree entry names of a history commit.
const (
	changeBlob   = "change"
	manifestBlob = "manifest"
	schemaBlob   = "schema.json"
)

// errMalformedEntry marks a commit whose entry cannot be read. Such
// entries are left out of the history; the commit graph stays intact.
var errMalformedEntry = errors.New("malformed entry")

// manifest describes the change blob of a commit.
type manifest struct {
	Type   domain.TypeName `yaml:"type"`
	Author domain.Identity `yaml:"author"`
	Sealed bool            `yaml:"sealed,omitempty"`
}

// writeEntry commits one history entry and returns the commit hash. The
// schema is written only on the root commit.
func (s *Store) writeEntry(author domain.Identity, typeName domain.TypeName, message string, record, schemaSrc []byte, parents []plumbing.Hash) (plumbing.Hash, error) {
	change, sealed, err := s.encodeRecord(record)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	manifestData, err := yaml.Marshal(manifest{Type: typeName, Author: author, Sealed: sealed})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("marshal manifest: %w", err)
	}

	blobs := map[string][]byte{
		changeBlob:   change,
		manifestBlob: manifestData,
	}
	if schemaSrc != nil {
		blobs[schemaBlob] = schemaSrc
	}

	entries := make([]object.TreeEntry, 0, len(blobs))
	for name, data := range blobs {
		hash, err := s.writeBlob(data)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Regular, Hash: hash})
	}
	treeHash, err := s.writeTree(entries)
	if err != nil {
		return plumbing.ZeroHash, err
	}

	parents = slices.Clone(parents)
	slices.SortFunc(parents, func(a, b plumbing.Hash) int { return bytes.Compare(a[:], b[:]) })

	sig := object.Signature{
		Name: author.String(),
		When: s.clock.Now(),
	}
	commit := &object.Commit{
		Author:       sig,
		Committer:    sig,
		Message:      message,
		TreeHash:     treeHash,
		ParentHashes: parents,
	}

	obj := s.repo.Storer.NewEncodedObject()
	if err := commit.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encode commit: %w", err)
	}
	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store commit: %w", err)
	}
	return hash, nil
}

// encodeRecord compresses and, when a sealer is configured, seals a record.
func (s *Store) encodeRecord(record []byte) ([]byte, bool, error) {
	frame, err := compress.Encode(record, s.compression)
	if err != nil {
		return nil, false, fmt.Errorf("compress record: %w", err)
	}
	if s.sealer == nil {
		return frame, false, nil
	}
	sealed, err := s.sealer.Seal(frame)
	if err != nil {
		return nil, false, fmt.Errorf("seal record: %w", err)
	}
	return sealed, true, nil
}

// decodeRecord reverses encodeRecord.
func (s *Store) decodeRecord(data []byte, sealed bool) ([]byte, error) {
	if sealed {
		if s.sealer == nil {
			return nil, domain.ErrSealedRecord
		}
		opened, err := s.sealer.Open(data)
		if err != nil {
			return nil, fmt.Errorf("open record: %w", err)
		}
		data = opened
	}
	record, err := compress.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decompress record: %w", err)
	}
	return record, nil
}

// readEntry reads the history entry stored in a commit. Errors in the
// commit's own content wrap errMalformedEntry.
func (s *Store) readEntry(c *object.Commit) (domain.Entry, error) {
	tree, err := c.Tree()
	if err != nil {
		return domain.Entry{}, fmt.Errorf("get tree of %s: %w", c.Hash, err)
	}

	manifestData, err := s.readFile(tree, manifestBlob)
	if err != nil {
		return domain.Entry{}, err
	}
	var m manifest
	if err := yaml.Unmarshal(manifestData, &m); err != nil {
		return domain.Entry{}, fmt.Errorf("%w: parse manifest of %s: %w", errMalformedEntry, c.Hash, err)
	}

	change, err := s.readFile(tree, changeBlob)
	if err != nil {
		return domain.Entry{}, err
	}
	record, err := s.decodeRecord(change, m.Sealed)
	if errors.Is(err, domain.ErrSealedRecord) {
		return domain.Entry{}, err
	}
	if err != nil {
		return domain.Entry{}, fmt.Errorf("%w: entry %s: %w", errMalformedEntry, c.Hash, err)
	}

	parents := make([]domain.RevisionID, len(c.ParentHashes))
	for i, p := range c.ParentHashes {
		parents[i] = domain.RevisionID(p.String())
	}
	return domain.Entry{
		Timestamp: c.Author.When,
		Author:    m.Author,
		ID:        domain.RevisionID(c.Hash.String()),
		Message:   strings.TrimSpace(c.Message),
		Parents:   parents,
		Record:    record,
	}, nil
}

// readSchema returns the schema stored on an object's root commit.
func (s *Store) readSchema(root *object.Commit) ([]byte, error) {
	tree, err := root.Tree()
	if err != nil {
		return nil, fmt.Errorf("get tree of %s: %w", root.Hash, err)
	}
	return s.readFile(tree, schemaBlob)
}

func (s *Store) readFile(tree *object.Tree, name string) ([]byte, error) {
	entry, err := tree.FindEntry(name)
	if err != nil {
		if errors.Is(err, object.ErrEntryNotFound) {
			return nil, fmt.Errorf("%w: %s missing from tree %s", errMalformedEntry, name, tree.Hash)
		}
		return nil, fmt.Errorf("find %s: %w", name, err)
	}
	return s.readBlob(entry.Hash)
}

// writeBlob writes data to a blob and returns the hash.
func (s *Store) writeBlob(data []byte) (plumbing.Hash, error) {
	obj := s.repo.Storer.NewEncodedObject()
	obj.SetType(plumbing.BlobObject)
	obj.SetSize(int64(len(data)))

	writer, err := obj.Writer()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("create blob writer: %w", err)
	}
	if _, writeErr := writer.Write(data); writeErr != nil {
		_ = writer.Close()
		return plumbing.ZeroHash, fmt.Errorf("write blob: %w", writeErr)
	}
	_ = writer.Close()

	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store blob: %w", err)
	}
	return hash, nil
}

func (s *Store) readBlob(hash plumbing.Hash) ([]byte, error) {
	blob, err := s.repo.BlobObject(hash)
	if err != nil {
		return nil, fmt.Errorf("get blob: %w", err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read blob data: %w", err)
	}
	return data, nil
}

// writeTree stores a tree with entries sorted by name.
func (s *Store) writeTree(entries []object.TreeEntry) (plumbing.Hash, error) {
	slices.SortFunc(entries, func(a, b object.TreeEntry) int {
		return strings.Compare(a.Name, b.Name)
	})

	tree := &object.Tree{Entries: entries}
	obj := s.repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("encode tree: %w", err)
	}
	hash, err := s.repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("store tree: %w", err)
	}
	return hash, nil
}
