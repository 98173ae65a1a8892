package conductor

import "fmt"

// List is the ordered working collection of one calculation session.
// It is owned by its caller and is not safe for concurrent use.
type List struct {
	entries []Entry
}

func NewList(entries ...Entry) *List {
	return &List{entries: append([]Entry(nil), entries...)}
}

func (l *List) Add(e Entry) {
	l.entries = append(l.entries, e)
}

// Remove deletes the entry at position i (0-based), keeping the order of the rest.
func (l *List) Remove(i int) error {
	if i < 0 || i >= len(l.entries) {
		return fmt.Errorf("no conductor at position %d", i)
	}
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return nil
}

func (l *List) Clear() {
	l.entries = nil
}

func (l *List) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the collection in insertion order.
func (l *List) Entries() []Entry {
	return append([]Entry(nil), l.entries...)
}

// TotalCount is the number of conductors across all entries.
func (l *List) TotalCount() int {
	n := 0
	for _, e := range l.entries {
		n += e.Quantity
	}
	return n
}
