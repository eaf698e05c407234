package sharded

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTreeOrderedAcrossShards(t *testing.T) {
	tr := NewTree[int, string](WithShardCount(4))
	for _, k := range []int{42, 7, 19, 3, 88, 61, 25} {
		tr.Insert(k, "v")
	}

	want := []int{3, 7, 19, 25, 42, 61, 88}
	if diff := cmp.Diff(want, tr.SortedKeys()); diff != "" {
		t.Errorf("SortedKeys mismatch (-want +got):\n%s", diff)
	}

	var got []int
	tr.Ascend(func(k int, _ string) bool {
		got = append(got, k)
		return len(got) < 3
	})
	if diff := cmp.Diff([]int{3, 7, 19}, got); diff != "" {
		t.Errorf("Ascend early stop mismatch (-want +got):\n%s", diff)
	}

	got = got[:0]
	tr.AscendRange(10, 61, func(k int, _ string) bool {
		got = append(got, k)
		return true
	})
	if diff := cmp.Diff([]int{19, 25, 42}, got); diff != "" {
		t.Errorf("AscendRange mismatch (-want +got):\n%s", diff)
	}
}

func TestTreeShardsAreBTrees(t *testing.T) {
	tr := NewTree[string, int]()
	g := tr.Write("x")
	defer g.Release()
	if _, ok := g.Collection().(*BTreeMap[string, int]); !ok {
		t.Errorf("tree shard collection = %T, want *BTreeMap", g.Collection())
	}
}

func TestTreeFromMap(t *testing.T) {
	tr := TreeFromMap(map[string]int{"b": 2, "a": 1, "c": 3}, WithShardCount(2))
	if diff := cmp.Diff([]string{"a", "b", "c"}, tr.SortedKeys()); diff != "" {
		t.Errorf("SortedKeys mismatch (-want +got):\n%s", diff)
	}
	if v, ok := tr.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = (%d, %v)", v, ok)
	}
	if v, ok := tr.Remove("a"); !ok || v != 1 {
		t.Errorf("Remove(a) = (%d, %v)", v, ok)
	}
}
