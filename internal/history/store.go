package history

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StorageKey is the key the list is persisted under.
const StorageKey = "summaryHistory"

// ErrIndexOutOfRange is returned when a display index names no record.
var ErrIndexOutOfRange = errors.New("history: index out of range")

// KV is the persistence the store needs; store.FileStore satisfies it.
type KV interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// Store is the capacity-bounded summary log. The persisted list is in
// insertion order, newest first; display order is derived on every call.
type Store struct {
	KV    KV
	Now   func() time.Time
	NewID func() string

	mu sync.Mutex
}

// NewStore returns a Store over kv using the wall clock and random UUIDs.
func NewStore(kv KV) *Store {
	return &Store{KV: kv, Now: time.Now, NewID: uuid.NewString}
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

// load reads the stored list. Records written before ids existed get one
// here and the list is written back.
func (s *Store) load(ctx context.Context) ([]Record, error) {
	list := []Record{}
	if _, err := s.KV.Get(ctx, StorageKey, &list); err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	backfilled := 0
	for i := range list {
		if strings.TrimSpace(list[i].ID) == "" {
			list[i].ID = s.newID()
			backfilled++
		}
	}
	if backfilled > 0 {
		log.Debug().Int("records", backfilled).Msg("assigned ids to legacy history records")
		if err := s.save(ctx, list); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *Store) save(ctx context.Context, list []Record) error {
	if len(list) > Capacity {
		list = list[:Capacity]
	}
	if err := s.KV.Set(ctx, StorageKey, list); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

// Append records a new summary at the front of the list and drops whatever
// falls beyond Capacity.
func (s *Store) Append(ctx context.Context, title, summary string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(ctx)
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:      s.newID(),
		Title:   TruncateTitle(title),
		Summary: strings.TrimSpace(summary),
		Date:    FormatDate(s.now()),
	}
	list = append([]Record{rec}, list...)
	if err := s.save(ctx, list); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns the stored list in insertion order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// ListForDisplay returns the derived display order without touching storage order.
func (s *Store) ListForDisplay(ctx context.Context) ([]Record, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return SortForDisplay(list), nil
}

// resolve maps display index i to a position in list. The display order is
// recomputed from list every time and the record is located by id.
func resolve(list []Record, i int) (int, error) {
	sorted := SortForDisplay(list)
	if i < 0 || i >= len(sorted) {
		return -1, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(sorted))
	}
	id := sorted[i].ID
	for pos := range list {
		if list[pos].ID == id {
			return pos, nil
		}
	}
	return -1, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
}

// Get returns the record at display index i.
func (s *Store) Get(ctx context.Context, i int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(ctx)
	if err != nil {
		return Record{}, err
	}
	pos, err := resolve(list, i)
	if err != nil {
		return Record{}, err
	}
	return list[pos], nil
}

// TogglePin flips the pin state of the record at display index i and
// returns the updated record.
func (s *Store) TogglePin(ctx context.Context, i int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(ctx)
	if err != nil {
		return Record{}, err
	}
	pos, err := resolve(list, i)
	if err != nil {
		return Record{}, err
	}
	list[pos].IsPinned = !list[pos].IsPinned
	if err := s.save(ctx, list); err != nil {
		return Record{}, err
	}
	return list[pos], nil
}

// Delete removes the record at display index i and returns it.
func (s *Store) Delete(ctx context.Context, i int) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, err := s.load(ctx)
	if err != nil {
		return Record{}, err
	}
	pos, err := resolve(list, i)
	if err != nil {
		return Record{}, err
	}
	removed := list[pos]
	list = append(list[:pos], list[pos+1:]...)
	if err := s.save(ctx, list); err != nil {
		return Record{}, err
	}
	return removed, nil
}

// Clear empties the list unconditionally; confirmation is the caller's job.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, []Record{})
}
