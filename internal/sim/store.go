package sim

import (
	"fmt"
	"sort"

	"github.com/san-kum/gravsim/internal/dynamo"
)

const defaultCapacity = 16

// Store is the authoritative set of live bodies. Bodies are kept in ID
// order, IDs are assigned on Add and never reused.
type Store struct {
	bodies []dynamo.Body
	nextID dynamo.BodyID
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Store{bodies: make([]dynamo.Body, 0, capacity), nextID: 1}
}

// Add validates b, assigns it a fresh ID and appends it. Any ID already on
// b is ignored.
func (s *Store) Add(b dynamo.Body) (dynamo.BodyID, error) {
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("add body: %w", err)
	}
	if s.nextID == 0 {
		s.nextID = 1
	}
	b.ID = s.nextID
	s.nextID++

	if len(s.bodies) == cap(s.bodies) {
		s.grow()
	}
	s.bodies = append(s.bodies, b)
	return b.ID, nil
}

func (s *Store) grow() {
	newCap := cap(s.bodies) * 2
	if newCap == 0 {
		newCap = defaultCapacity
	}
	grown := make([]dynamo.Body, len(s.bodies), newCap)
	copy(grown, s.bodies)
	s.bodies = grown
}

func (s *Store) Len() int { return len(s.bodies) }
func (s *Store) Cap() int { return cap(s.bodies) }

// Bodies returns the live slice. It is valid until the next Add or Remove.
func (s *Store) Bodies() []dynamo.Body { return s.bodies }

// Snapshot returns a copy of the live bodies.
func (s *Store) Snapshot() []dynamo.Body {
	out := make([]dynamo.Body, len(s.bodies))
	copy(out, s.bodies)
	return out
}

func (s *Store) Get(id dynamo.BodyID) (dynamo.Body, error) {
	i := s.indexOf(id)
	if i < 0 {
		return dynamo.Body{}, fmt.Errorf("body %d: %w", id, dynamo.ErrUnknownBody)
	}
	return s.bodies[i], nil
}

func (s *Store) indexOf(id dynamo.BodyID) int {
	i := sort.Search(len(s.bodies), func(i int) bool { return s.bodies[i].ID >= id })
	if i < len(s.bodies) && s.bodies[i].ID == id {
		return i
	}
	return -1
}

// Remove deletes the given bodies, keeping the rest in order, and returns
// how many were found.
func (s *Store) Remove(ids ...dynamo.BodyID) int {
	if len(ids) == 0 {
		return 0
	}
	drop := make(map[dynamo.BodyID]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	kept := s.bodies[:0]
	for _, b := range s.bodies {
		if _, ok := drop[b.ID]; !ok {
			kept = append(kept, b)
		}
	}
	removed := len(s.bodies) - len(kept)
	clear(s.bodies[len(kept):])
	s.bodies = kept
	return removed
}

func (s *Store) TotalMass() float64 {
	var m float64
	for _, b := range s.bodies {
		m += b.Mass
	}
	return m
}
