package store

import (
	"reflect"
	"testing"

	"github.com/zmirror/zmirror/internal/models"
)

func ids(vals ...int64) []models.MessageID {
	out := make([]models.MessageID, len(vals))
	for i, v := range vals {
		out[i] = models.MessageID(v)
	}
	return out
}

func TestSetUnionMergesInterleaved(t *testing.T) {
	got := SetUnion(ids(1, 3, 5), ids(2, 3, 6))
	want := ids(1, 2, 3, 5, 6)
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestSetUnionEmptySideReturnsOther(t *testing.T) {
	a := ids(1, 2)
	if got := SetUnion(a, nil); !sameSlice(got, a) {
		t.Fatal("expected a back unchanged")
	}
	if got := SetUnion(nil, a); !sameSlice(got, a) {
		t.Fatal("expected a back unchanged")
	}
}

func TestSetUnionDisjointFastPaths(t *testing.T) {
	got := SetUnion(ids(1, 2), ids(5, 6))
	if !reflect.DeepEqual(got, ids(1, 2, 5, 6)) {
		t.Fatalf("unexpected union %v", got)
	}
	got = SetUnion(ids(5, 6), ids(1, 2))
	if !reflect.DeepEqual(got, ids(1, 2, 5, 6)) {
		t.Fatalf("unexpected union %v", got)
	}
}

func TestSetAddTailAppendDoesNotMutateInput(t *testing.T) {
	a := ids(1, 2, 3)
	got := setAdd(a, 4)
	if !reflect.DeepEqual(got, ids(1, 2, 3, 4)) {
		t.Fatalf("unexpected result %v", got)
	}
	if !reflect.DeepEqual(a, ids(1, 2, 3)) {
		t.Fatalf("input mutated: %v", a)
	}
}

func TestSetAddOutOfOrder(t *testing.T) {
	got := setAdd(ids(2, 5), 3)
	if !reflect.DeepEqual(got, ids(2, 3, 5)) {
		t.Fatalf("unexpected result %v", got)
	}
	// Duplicate insert keeps the set a set.
	got = setAdd(ids(2, 3, 5), 3)
	if !reflect.DeepEqual(got, ids(2, 3, 5)) {
		t.Fatalf("unexpected result %v", got)
	}
}

func TestSetContains(t *testing.T) {
	s := ids(1, 4, 9, 16)
	for _, id := range s {
		if !setContains(s, id) {
			t.Fatalf("expected %d to be present", id)
		}
	}
	for _, id := range ids(0, 2, 17) {
		if setContains(s, id) {
			t.Fatalf("expected %d to be absent", id)
		}
	}
	if setContains(nil, 1) {
		t.Fatal("empty set contains nothing")
	}
}

func TestSetRemove(t *testing.T) {
	s := ids(1, 2, 3, 4)
	got := setRemove(s, ids(2, 4))
	if !reflect.DeepEqual(got, ids(1, 3)) {
		t.Fatalf("unexpected result %v", got)
	}
	if !reflect.DeepEqual(s, ids(1, 2, 3, 4)) {
		t.Fatalf("input mutated: %v", s)
	}
}

func TestSetRemoveNoChangeReturnsInput(t *testing.T) {
	s := ids(1, 2, 3)
	if got := setRemove(s, ids(9)); !sameSlice(got, s) {
		t.Fatal("expected identical slice back when nothing removed")
	}
}

func TestSortedUnique(t *testing.T) {
	got := sortedUnique(ids(5, 1, 3, 1, 5))
	if !reflect.DeepEqual(got, ids(1, 3, 5)) {
		t.Fatalf("unexpected result %v", got)
	}
	if sortedUnique(nil) != nil {
		t.Fatal("expected nil for empty input")
	}
}

// sameSlice reports whether two slices share the same backing array start
// and length, i.e. the reducer returned its input unchanged.
func sameSlice(a, b []models.MessageID) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
