package sharded_test

import (
	"errors"
	"fmt"

	"github.com/yndnr/sharded-go/pkg/sharded"
)

func ExampleMap() {
	m := sharded.NewMap[string, int](sharded.WithShardCount(8))
	m.Insert("apples", 3)
	m.Update("apples", func(v int, _ bool) int { return v + 2 })

	v, ok := m.Get("apples")
	fmt.Println(v, ok)
	// Output: 5 true
}

func ExampleTable_TryWrite() {
	m := sharded.NewMap[string, int](sharded.WithShardCount(1))

	held := m.Write("a")
	_, err := m.TryWrite("b")
	fmt.Println(errors.Is(err, sharded.ErrWouldBlock))
	held.Release()

	g, err := m.TryWrite("b")
	fmt.Println(err)
	g.Release()
	// Output:
	// true
	// <nil>
}

func ExampleTable_WriteMany() {
	m := sharded.NewMap[string, int]()
	m.Insert("from", 10)

	g := m.WriteMany("from", "to")
	v, _ := g.Remove("from")
	g.Insert("to", v)
	g.Release()

	fmt.Println(m.Contains("from"), m.Contains("to"))
	// Output: false true
}

func ExampleTree_Ascend() {
	t := sharded.TreeFromMap(map[int]string{3: "c", 1: "a", 2: "b"})
	t.Ascend(func(k int, v string) bool {
		fmt.Println(k, v)
		return true
	})
	// Output:
	// 1 a
	// 2 b
	// 3 c
}
