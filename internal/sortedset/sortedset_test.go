package sortedset

import "testing"

type item struct {
	id    int
	value string
}

func (i item) Less(o item) bool  { return i.id < o.id }
func (i item) Equal(o item) bool { return i.id == o.id }

func TestAddContains(t *testing.T) {
	s := New[item]()
	s.Add(item{3, "c"})
	s.Add(item{1, "a"})
	s.Add(item{2, "b"})

	if s.Len() != 3 {
		t.Fatalf("expected len 3, got %d", s.Len())
	}
	if !s.Contains(item{2, ""}) {
		t.Fatal("expected set to contain id 2")
	}

	got := s.Slice()
	for i := 1; i < len(got); i++ {
		if got[i-1].id > got[i].id {
			t.Fatalf("elements not sorted: %v", got)
		}
	}
}

func TestAddOverwritesEqual(t *testing.T) {
	s := New[item]()
	s.Add(item{1, "first"})
	s.Add(item{1, "second"})

	if s.Len() != 1 {
		t.Fatalf("expected add of equal element not to grow set, got len %d", s.Len())
	}
	got := s.Slice()
	if got[0].value != "second" {
		t.Fatalf("expected latest-added value to win, got %q", got[0].value)
	}
}

func TestUpdate(t *testing.T) {
	s := New[item]()
	s.Update([]item{{1, "a"}, {2, "b"}, {1, "a2"}})
	if s.Len() != 2 {
		t.Fatalf("expected len 2, got %d", s.Len())
	}
}

func TestContainsEmpty(t *testing.T) {
	s := New[item]()
	if s.Contains(item{1, ""}) {
		t.Fatal("empty set should not contain anything")
	}
}

// tieKeyed orders by key (a shared, colliding value) but identifies by
// id, mirroring crawl.Post: Less keyed on Time, Equal keyed on
// (Board, ThreadID, PostID).
type tieKeyed struct {
	key   int
	id    int
	value string
}

func (t tieKeyed) Less(o tieKeyed) bool  { return t.key < o.key }
func (t tieKeyed) Equal(o tieKeyed) bool { return t.id == o.id }

func TestAddOverwritesEqualWithinTiedRun(t *testing.T) {
	s := New[tieKeyed]()
	s.Add(tieKeyed{key: 1, id: 1, value: "a"})
	s.Add(tieKeyed{key: 1, id: 2, value: "b"})
	s.Add(tieKeyed{key: 1, id: 3, value: "c"})

	if s.Len() != 3 {
		t.Fatalf("expected len 3 before overwrite, got %d", s.Len())
	}

	// id 2 is not the leftmost member of the key=1 tied run; re-adding
	// it under the same key must overwrite in place, not append a
	// duplicate.
	s.Add(tieKeyed{key: 1, id: 2, value: "b2"})

	if s.Len() != 3 {
		t.Fatalf("expected add of equal element within a tied run not to grow set, got len %d", s.Len())
	}
	if !s.Contains(tieKeyed{key: 1, id: 2}) {
		t.Fatal("expected set to still contain id 2 after overwrite")
	}

	var got string
	for _, e := range s.Slice() {
		if e.id == 2 {
			got = e.value
		}
	}
	if got != "b2" {
		t.Fatalf("expected latest-added value for id 2 to win, got %q", got)
	}
}
