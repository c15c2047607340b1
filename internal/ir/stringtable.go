package ir

import (
	"fmt"
	"math"
)

// StringId is a dense, stable identifier assigned to an interned string.
type StringId uint32

// InvalidStringID is the sentinel value for "no string".
const InvalidStringID StringId = math.MaxUint32

// StringTable interns strings into dense ids. Id 0 is always the empty
// string. Interning is idempotent: the same content always yields the
// same id.
type StringTable struct {
	byString map[string]StringId
	byId     []string
	nextId   StringId
}

// NewStringTable constructs an empty table with the empty string
// already interned at id 0.
func NewStringTable() *StringTable {
	t := &StringTable{
		byString: make(map[string]StringId),
	}
	t.reset()
	return t
}

func (t *StringTable) reset() {
	t.byString = make(map[string]StringId)
	t.byId = t.byId[:0]
	t.byString[""] = 0
	t.byId = append(t.byId, "")
	t.nextId = 1
}

// Intern returns the id for str, assigning a new dense id the first
// time str is seen.
func (t *StringTable) Intern(str string) StringId {
	if str == "" {
		return 0
	}
	if id, ok := t.byString[str]; ok {
		return id
	}
	id := t.nextId
	t.nextId++
	t.byString[str] = id
	t.byId = append(t.byId, str)
	return id
}

// Get returns the interned string for id, or an out-of-range error.
// InvalidStringID is the exception: it yields "" with no error.
func (t *StringTable) Get(id StringId) (string, error) {
	if id == InvalidStringID {
		return "", nil
	}
	if int(id) >= len(t.byId) {
		return "", fmt.Errorf("%w: string id %d (table size %d)", ErrOutOfRange, id, len(t.byId))
	}
	return t.byId[id], nil
}

// MustGet panics instead of returning an error; useful for call sites
// that hold an id they know was produced by this exact table.
func (t *StringTable) MustGet(id StringId) string {
	s, err := t.Get(id)
	if err != nil {
		panic(err)
	}
	return s
}

// Contains reports whether str has already been interned.
func (t *StringTable) Contains(str string) bool {
	_, ok := t.byString[str]
	return ok
}

// Size returns the number of distinct strings currently interned
// (including the empty string).
func (t *StringTable) Size() int {
	return len(t.byId)
}

// Clear restores the table to just the empty-string entry and resets
// the next assigned id to 1.
func (t *StringTable) Clear() {
	t.reset()
}
