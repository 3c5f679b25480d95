package perm_test

import (
	"fmt"

	"github.com/matzehuels/gauzecut/pkg/search/perm"
)

func ExampleGenerate() {
	for _, p := range perm.Generate(3, 0) {
		fmt.Println(p)
	}
	// Output:
	// [0 1 2]
	// [1 0 2]
	// [2 0 1]
	// [0 2 1]
	// [1 2 0]
	// [2 1 0]
}

func ExampleFactorialUpTo() {
	fmt.Println(perm.FactorialUpTo(4, 100))
	fmt.Println(perm.FactorialUpTo(20, 100))
	// Output:
	// 24
	// 101
}
