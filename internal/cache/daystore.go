// Package cache keeps fetched calendar days in memory so that rooms sharing
// a calendar are served from a single fetch.
package cache

import (
	"container/list"
	"sync"
	"time"

	"github.com/dove-unipi/dove/internal/core"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultMaxItems = 256
)

type entry struct {
	key    string
	events []core.CalendarEvent
	exp    time.Time
	elem   *list.Element
}

// DayStore is an LRU of calendar days with a per-day TTL, safe for
// concurrent use. It implements core.DayStore.
type DayStore struct {
	mu       sync.Mutex
	items    map[string]*entry
	order    *list.List // MRU at front
	ttl      time.Duration
	maxItems int

	// Replaced in tests.
	now func() time.Time
}

var _ core.DayStore = (*DayStore)(nil)

// NewDayStore creates a store. ttl<=0 and maxItems<=0 select the defaults.
func NewDayStore(ttl time.Duration, maxItems int) *DayStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &DayStore{
		items:    make(map[string]*entry),
		order:    list.New(),
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
	}
}

// Key identifies a calendar day: the calendar id plus the date in day's
// own location.
func Key(calendarID string, day time.Time) string {
	return calendarID + "|" + day.Format(time.DateOnly)
}

func (s *DayStore) Day(calendarID string, day time.Time) ([]core.CalendarEvent, bool) {
	if s == nil {
		return nil, false
	}
	key := Key(calendarID, day)

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.exp) {
		s.removeLocked(key)
		return nil, false
	}
	s.order.MoveToFront(e.elem)
	return e.events, true
}

func (s *DayStore) SaveDay(calendarID string, day time.Time, events []core.CalendarEvent) {
	if s == nil {
		return
	}
	key := Key(calendarID, day)
	exp := s.now().Add(s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[key]; ok {
		e.events = events
		e.exp = exp
		s.order.MoveToFront(e.elem)
		return
	}
	e := &entry{key: key, events: events, exp: exp}
	e.elem = s.order.PushFront(e)
	s.items[key] = e
	for s.order.Len() > s.maxItems {
		s.evictLocked()
	}
}

// Forget drops one stored day, used by the "refresh" action.
func (s *DayStore) Forget(calendarID string, day time.Time) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.removeLocked(Key(calendarID, day))
	s.mu.Unlock()
}

// Purge removes expired days and returns how many were dropped.
func (s *DayStore) Purge() int {
	if s == nil {
		return 0
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, e := range s.items {
		if !now.Before(e.exp) {
			s.removeLocked(k)
			n++
		}
	}
	return n
}

func (s *DayStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// removeLocked removes key; caller must hold s.mu.
func (s *DayStore) removeLocked(key string) {
	if e, ok := s.items[key]; ok {
		s.order.Remove(e.elem)
		delete(s.items, key)
	}
}

// evictLocked removes the least recently used day; caller must hold s.mu.
func (s *DayStore) evictLocked() {
	back := s.order.Back()
	if back == nil {
		return
	}
	s.removeLocked(back.Value.(*entry).key)
}
