package redisstage

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/statekit/pkg/history"
	"github.com/dmitrymomot/statekit/pkg/state"
)

var _ history.Stager = (*Stager)(nil)

const (
	fieldDescription = "description"
	fieldProperties  = "properties"
	fieldKeepEmpty   = "keep_empty"
)

// Stager keeps staged metadata in one Redis hash per entity, so metadata
// staged by one process is consumed by whichever process commits the change.
//
// Only present values are written, which makes HSET itself the merge:
// a new description replaces the old one, a new property bag replaces the
// old bag, and absent values leave the hash untouched.
type Stager struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option configures a Stager.
type Option func(*Stager)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Stager) {
		s.prefix = prefix
	}
}

// WithTTL sets the expiry refreshed on every Stage. Zero disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(s *Stager) {
		s.ttl = ttl
	}
}

// WithConfig applies the prefix and TTL of cfg.
func WithConfig(cfg Config) Option {
	return func(s *Stager) {
		if cfg.KeyPrefix != "" {
			s.prefix = cfg.KeyPrefix
		}
		s.ttl = cfg.TTL
	}
}

// NewStager creates a Stager. It panics on a nil client.
func NewStager(client redis.UniversalClient, opts ...Option) *Stager {
	if client == nil {
		panic("redisstage: client cannot be nil")
	}
	s := &Stager{
		client: client,
		prefix: "statekit:stage:",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// key escapes both parts of ref so that separators inside a type or id
// cannot make two references share a hash.
func (s *Stager) key(ref state.ModelRef) string {
	return s.prefix + url.QueryEscape(string(ref.Type)) + ":" + url.QueryEscape(ref.ID)
}

func (s *Stager) Stage(ctx context.Context, ref state.ModelRef, md history.Metadata) error {
	if err := ref.Validate(); err != nil {
		return err
	}
	if md.IsEmpty() {
		return nil
	}

	fields := make(map[string]any, 3)
	if md.HasDescription() {
		fields[fieldDescription] = md.Description
	}
	if props := md.StoredProperties(); props != nil {
		b, err := json.Marshal(props)
		if err != nil {
			return err
		}
		fields[fieldProperties] = string(b)
	}
	if md.KeepEmpty {
		fields[fieldKeepEmpty] = "1"
	}

	key := s.key(ref)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	return err
}

func (s *Stager) Pending(ctx context.Context, ref state.ModelRef) (history.Metadata, error) {
	values, err := s.client.HGetAll(ctx, s.key(ref)).Result()
	if err != nil {
		return history.Metadata{}, err
	}
	return decode(values)
}

// ConsumeAndClear reads and deletes the hash in one MULTI/EXEC block.
func (s *Stager) ConsumeAndClear(ctx context.Context, ref state.ModelRef) (history.Metadata, error) {
	key := s.key(ref)
	var get *redis.MapStringStringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGetAll(ctx, key)
		pipe.Del(ctx, key)
		return nil
	})
	if err != nil {
		return history.Metadata{}, err
	}
	return decode(get.Val())
}

func decode(values map[string]string) (history.Metadata, error) {
	var md history.Metadata
	if len(values) == 0 {
		return md, nil
	}
	md.Description = values[fieldDescription]
	md.KeepEmpty = values[fieldKeepEmpty] == "1"
	if raw, ok := values[fieldProperties]; ok {
		md.Properties = map[string]any{}
		if err := json.Unmarshal([]byte(raw), &md.Properties); err != nil {
			return history.Metadata{}, errors.Join(ErrCorruptEntry, err)
		}
	}
	return md, nil
}
