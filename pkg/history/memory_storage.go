package history

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage keeps records in memory. It implements Storage and Counter.
type MemoryStorage struct {
	mu      sync.RWMutex
	records []Record
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// Store keeps a copy of rec. Custom properties go through a JSON round trip,
// the same encoding the SQL stores apply.
func (s *MemoryStorage) Store(_ context.Context, rec Record) error {
	stored, err := cloneRecord(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, stored)
	return nil
}

func (s *MemoryStorage) Query(_ context.Context, criteria Criteria) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0)
	for _, r := range s.records {
		if !criteria.Matches(r) {
			continue
		}
		c, err := cloneRecord(r)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b Record) int {
		c := a.CreatedAt.Compare(b.CreatedAt)
		if c == 0 {
			c = cmp.Compare(a.ID.String(), b.ID.String())
		}
		if criteria.Order == OrderDesc {
			return -c
		}
		return c
	})

	return paginate(out, criteria.Offset, criteria.Limit), nil
}

func (s *MemoryStorage) Count(_ context.Context, criteria Criteria) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, r := range s.records {
		if criteria.Matches(r) {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStorage) Annotate(_ context.Context, id uuid.UUID, md Metadata, at time.Time) error {
	props, err := jsonClone(md.StoredProperties())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].Description = md.StoredDescription()
			s.records[i].CustomProperties = props
			s.records[i].UpdatedAt = at
			return nil
		}
	}
	return ErrRecordNotFound
}

func paginate(list []Record, offset, limit int) []Record {
	if offset > 0 {
		if offset >= len(list) {
			return []Record{}
		}
		list = list[offset:]
	}
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}

func cloneRecord(r Record) (Record, error) {
	if r.Description != nil {
		d := *r.Description
		r.Description = &d
	}
	if r.CreatedBy != nil {
		c := *r.CreatedBy
		r.CreatedBy = &c
	}
	props, err := jsonClone(r.CustomProperties)
	if err != nil {
		return Record{}, err
	}
	r.CustomProperties = props
	return r, nil
}

func jsonClone(props map[string]any) (map[string]any, error) {
	if props == nil {
		return nil, nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("encode custom properties: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode custom properties: %w", err)
	}
	return out, nil
}
