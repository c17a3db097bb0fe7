// Package redisstore stores collaborative objects in Redis.
package redisstore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeebo/blake3"

	"github.com/runoshun/git-cob/internal/codec"
	"github.com/runoshun/git-cob/internal/domain"
	"github.com/runoshun/git-cob/internal/infra/compress"
	"github.com/runoshun/git-cob/internal/infra/crypto"
	"github.com/runoshun/git-cob/internal/schema"
)

// maxUpdateAttempts bounds optimistic retries when another writer appends
// to the same object between read and write.
const maxUpdateAttempts = 5

// Store implements domain.CollaborativeObjects on Redis.
//
// Keys:
//
//	<ns>:initialized
//	<ns>:cobs:<project>:<type-name>           → set of object ids
//	<ns>:cobs:<project>:<type-name>:<id>      → list of CBOR entries
//	<ns>:cobs:<project>:<type-name>:<id>:schema → schema source
//
// Ids are BLAKE3 digests truncated to 20 bytes. An object's id is the id of
// its first entry; every later entry names its predecessor as parent.
// Fields are ordered to minimize memory padding.
type Store struct {
	client      *redis.Client
	sealer      *crypto.Sealer
	clock       domain.Clock
	logger      domain.Logger
	namespace   string
	compression compress.Tag
}

// Options configure a Store. Logger receives a warning for every entry
// left out of a history because it cannot be read; nil disables it.
type Options struct {
	Sealer      *crypto.Sealer
	Clock       domain.Clock
	Logger      domain.Logger
	Namespace   string
	Compression compress.Tag
}

// Ensure Store implements domain.CollaborativeObjects.
var _ domain.CollaborativeObjects = (*Store)(nil)

// Ensure Store implements domain.StoreInitializer.
var _ domain.StoreInitializer = (*Store)(nil)

// entry is the stored form of one history entry.
type entry struct {
	ID        string   `cbor:"id"`
	Author    string   `cbor:"author"`
	Message   string   `cbor:"message"`
	Parents   []string `cbor:"parents"`
	Change    []byte   `cbor:"change"`
	Timestamp int64    `cbor:"ts"`
	Sealed    bool     `cbor:"sealed,omitempty"`
}

// New connects to the Redis server at url.
func New(url string, opts Options) (*Store, error) {
	redisOpts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return NewWithClient(client, opts), nil
}

// NewWithClient creates a store from an existing Redis client.
func NewWithClient(client *redis.Client, opts Options) *Store {
	ns := opts.Namespace
	if ns == "" {
		ns = domain.DefaultNamespace
	}
	clock := opts.Clock
	if clock == nil {
		clock = domain.RealClock{}
	}
	return &Store{
		client:      client,
		sealer:      opts.Sealer,
		clock:       clock,
		logger:      opts.Logger,
		namespace:   ns,
		compression: opts.Compression,
	}
}

// Close closes the Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) indexKey(project domain.Identity, typeName domain.TypeName) string {
	return s.namespace + ":cobs:" + project.String() + ":" + string(typeName)
}

func (s *Store) objectKey(project domain.Identity, typeName domain.TypeName, id domain.ObjectID) string {
	return s.indexKey(project, typeName) + ":" + string(id)
}

func (s *Store) initializedKey() string {
	return s.namespace + ":" + domain.InitMarkerName
}

// Create stores a new object whose history starts with spec.Record.
func (s *Store) Create(ctx context.Context, author, project domain.Identity, spec domain.NewObjectSpec) (domain.ObjectID, error) {
	if _, err := domain.ParseTypeName(string(spec.TypeName)); err != nil {
		return "", err
	}
	sch, err := schema.Compile(spec.Schema)
	if err != nil {
		return "", fmt.Errorf("compile schema: %w", err)
	}
	if err := sch.ValidateHistory([][]byte{spec.Record}); err != nil {
		return "", err
	}

	e, data, err := s.newEntry(author, spec.Message, spec.Record, "")
	if err != nil {
		return "", err
	}
	id := domain.ObjectID(e.ID)
	key := s.objectKey(project, spec.TypeName, id)

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, data)
		pipe.Set(ctx, key+":schema", spec.Schema, 0)
		pipe.SAdd(ctx, s.indexKey(project, spec.TypeName), string(id))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("store object: %w", err)
	}
	return id, nil
}

// Update appends spec.Record to the object's history. Concurrent appends
// to the same object are retried against the new tail.
func (s *Store) Update(ctx context.Context, author, project domain.Identity, spec domain.UpdateObjectSpec) (domain.RevisionID, error) {
	key := s.objectKey(project, spec.TypeName, spec.ObjectID)

	var rev domain.RevisionID
	txf := func(tx *redis.Tx) error {
		entries, err := s.readEntries(ctx, tx, key, spec.ObjectID)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			return fmt.Errorf("%w: %s", domain.ErrObjectNotFound, spec.ObjectID)
		}

		src, err := tx.Get(ctx, key+":schema").Bytes()
		if err != nil {
			return fmt.Errorf("get schema: %w", err)
		}
		sch, err := schema.Compile(src)
		if err != nil {
			return fmt.Errorf("compile schema: %w", err)
		}
		records := make([][]byte, 0, len(entries)+1)
		for _, e := range entries {
			records = append(records, e.Record)
		}
		if err := sch.ValidateHistory(append(records, spec.Record)); err != nil {
			return err
		}

		e, data, err := s.newEntry(author, spec.Message, spec.Record, string(entries[len(entries)-1].ID))
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.RPush(ctx, key, data)
			return nil
		})
		if err != nil {
			return err
		}
		rev = domain.RevisionID(e.ID)
		return nil
	}

	for range maxUpdateAttempts {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return rev, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return "", err
		}
	}
	return "", fmt.Errorf("update %s: too many concurrent writers", spec.ObjectID)
}

// Retrieve returns the object with its history, or nil if unknown.
func (s *Store) Retrieve(ctx context.Context, project domain.Identity, typeName domain.TypeName, id domain.ObjectID) (*domain.Object, error) {
	entries, err := s.readEntries(ctx, s.client, s.objectKey(project, typeName, id), id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &domain.Object{ID: id, TypeName: typeName, Entries: entries}, nil
}

// List returns the ids of all objects of a type, sorted.
func (s *Store) List(ctx context.Context, project domain.Identity, typeName domain.TypeName) ([]domain.ObjectID, error) {
	members, err := s.client.SMembers(ctx, s.indexKey(project, typeName)).Result()
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	ids := make([]domain.ObjectID, 0, len(members))
	for _, m := range members {
		ids = append(ids, domain.ObjectID(m))
	}
	slices.Sort(ids)
	return ids, nil
}

// Initialize sets the initialized marker.
func (s *Store) Initialize() error {
	if err := s.client.SetNX(context.Background(), s.initializedKey(), "1", 0).Err(); err != nil {
		return fmt.Errorf("set initialized marker: %w", err)
	}
	return nil
}

// IsInitialized checks if the store has been initialized.
func (s *Store) IsInitialized() bool {
	n, err := s.client.Exists(context.Background(), s.initializedKey()).Result()
	return err == nil && n == 1
}

// newEntry builds and encodes an entry following parent ("" for a root).
func (s *Store) newEntry(author domain.Identity, message string, record []byte, parent string) (entry, []byte, error) {
	change, sealed, err := s.encodeRecord(record)
	if err != nil {
		return entry{}, nil, err
	}
	e := entry{
		Author:    author.String(),
		Message:   message,
		Change:    change,
		Timestamp: s.clock.Now().UnixNano(),
		Sealed:    sealed,
	}
	if parent != "" {
		e.Parents = []string{parent}
	}

	// The id covers everything but itself.
	unsigned, err := codec.Marshal(e)
	if err != nil {
		return entry{}, nil, fmt.Errorf("encode entry: %w", err)
	}
	sum := blake3.Sum256(unsigned)
	e.ID = hex.EncodeToString(sum[:20])

	data, err := codec.Marshal(e)
	if err != nil {
		return entry{}, nil, fmt.Errorf("encode entry: %w", err)
	}
	return e, data, nil
}

// ranger is satisfied by both *redis.Client and *redis.Tx.
type ranger interface {
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// readEntries decodes the list at key. A missing key yields no entries.
// Entries that cannot be decoded or opened are logged and left out; if no
// entry is readable the object is reported as unreadable.
func (s *Store) readEntries(ctx context.Context, c ranger, key string, id domain.ObjectID) ([]domain.Entry, error) {
	raw, err := c.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	entries := make([]domain.Entry, 0, len(raw))
	for i, item := range raw {
		e, err := s.readEntry([]byte(item))
		if errors.Is(err, domain.ErrSealedRecord) {
			return nil, err
		}
		if err != nil {
			s.warn(id, fmt.Sprintf("skip entry %d: %v", i, err))
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) == 0 && len(raw) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnreadableObject, id)
	}
	return entries, nil
}

func (s *Store) readEntry(data []byte) (domain.Entry, error) {
	var e entry
	if err := codec.Unmarshal(data, &e); err != nil {
		return domain.Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	record, err := s.decodeRecord(e.Change, e.Sealed)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	author, err := domain.ParseIdentity(e.Author)
	if err != nil {
		return domain.Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
	}
	parents := make([]domain.RevisionID, len(e.Parents))
	for i, p := range e.Parents {
		parents[i] = domain.RevisionID(p)
	}
	return domain.Entry{
		Timestamp: time.Unix(0, e.Timestamp).UTC(),
		Author:    author,
		ID:        domain.RevisionID(e.ID),
		Message:   e.Message,
		Parents:   parents,
		Record:    record,
	}, nil
}

func (s *Store) warn(id domain.ObjectID, msg string) {
	if s.logger != nil {
		s.logger.Warn(id, "store", msg)
	}
}

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
