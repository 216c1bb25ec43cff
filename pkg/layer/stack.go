package layer

import (
	"github.com/matzehuels/mockup/pkg/errors"
)

// Stack is the ordered record sequence of one side. Order is z-order:
// the first record is drawn first.
type Stack struct {
	records  []Record
	index    map[string]int
	revision uint64
}

// NewStack creates an empty stack.
func NewStack() *Stack {
	return &Stack{index: make(map[string]int)}
}

// Add appends r. Ids must be unique within the stack.
func (s *Stack) Add(r Record) error {
	if err := r.Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeValidation, err, "add layer")
	}
	if _, ok := s.index[r.ID]; ok {
		return errors.New(errors.ErrCodeValidation, "duplicate layer id %s", r.ID)
	}
	s.index[r.ID] = len(s.records)
	s.records = append(s.records, r.Clone())
	s.revision++
	return nil
}

// Remove deletes the record with id and reports whether it existed.
func (s *Stack) Remove(id string) bool {
	i, ok := s.index[id]
	if !ok {
		return false
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	s.reindex()
	s.revision++
	return true
}

// Get returns a copy of the record with id.
func (s *Stack) Get(id string) (Record, bool) {
	i, ok := s.index[id]
	if !ok {
		return Record{}, false
	}
	return s.records[i].Clone(), true
}

// IndexOf returns the z-position of id, or -1.
func (s *Stack) IndexOf(id string) int {
	if i, ok := s.index[id]; ok {
		return i
	}
	return -1
}

// Replace overwrites the record with r.ID in place. found reports whether
// the id exists; wrote whether the record changed. An equal record leaves
// the stack and its revision untouched.
func (s *Stack) Replace(r Record) (found, wrote bool) {
	i, ok := s.index[r.ID]
	if !ok {
		return false, false
	}
	if s.records[i].Equal(r) {
		return true, false
	}
	s.records[i] = r.Clone()
	s.revision++
	return true, true
}

// Records returns a deep copy of the records in z-order.
func (s *Stack) Records() []Record {
	out := make([]Record, len(s.records))
	for i, r := range s.records {
		out[i] = r.Clone()
	}
	return out
}

// Len returns the number of records.
func (s *Stack) Len() int { return len(s.records) }

// Clear removes every record.
func (s *Stack) Clear() {
	if len(s.records) == 0 {
		return
	}
	s.records = nil
	s.index = make(map[string]int)
	s.revision++
}

// Load replaces the contents with records, in order.
func (s *Stack) Load(records []Record) error {
	next := NewStack()
	for _, r := range records {
		if err := next.Add(r); err != nil {
			return err
		}
	}
	s.records, s.index = next.records, next.index
	s.revision++
	return nil
}

// Revision increases on every write that changes the stack.
func (s *Stack) Revision() uint64 { return s.revision }

// Equal reports whether both stacks hold equal records in the same order.
func (s *Stack) Equal(o *Stack) bool {
	if s.Len() != o.Len() {
		return false
	}
	for i := range s.records {
		if !s.records[i].Equal(o.records[i]) {
			return false
		}
	}
	return true
}

func (s *Stack) reindex() {
	s.index = make(map[string]int, len(s.records))
	for i, r := range s.records {
		s.index[r.ID] = i
	}
}
