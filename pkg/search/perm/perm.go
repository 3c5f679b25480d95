// Package perm enumerates and samples orderings of segment indices.
//
// Exhaustive enumeration uses Heap's algorithm and always yields the
// identity ordering first. Sampling draws distinct shuffles from a seeded
// PCG source, so a fixed seed always produces the same orderings.
package perm

import (
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
)

// Seq returns [0, 1, ..., n-1]. For n <= 0 it returns an empty slice.
func Seq(n int) []int {
	out := make([]int, max(n, 0))
	for i := range out {
		out[i] = i
	}
	return out
}

// FactorialUpTo returns n! if it does not exceed limit, and limit+1
// otherwise. It never overflows, so callers can compare the ordering space
// of any segment count against a trial budget.
func FactorialUpTo(n, limit int) int {
	result := 1
	for i := 2; i <= n; i++ {
		if result > limit/i {
			return limit + 1
		}
		result *= i
	}
	return result
}

// Each calls fn with every permutation of [0, n) in Heap's order until fn
// returns false. The slice passed to fn is reused between calls; clone it
// to keep it.
func Each(n int, fn func([]int) bool) {
	p := Seq(n)
	if !fn(p) {
		return
	}
	state := make([]int, n)
	for i := 0; i < n; {
		if state[i] < i {
			if i&1 == 0 {
				p[0], p[i] = p[i], p[0]
			} else {
				p[state[i]], p[i] = p[i], p[state[i]]
			}
			if !fn(p) {
				return
			}
			state[i]++
			i = 0
		} else {
			state[i] = 0
			i++
		}
	}
}

// Generate returns up to limit permutations of [0, n) in Heap's order.
// limit <= 0 returns all n! of them, which is only sensible for small n.
func Generate(n, limit int) [][]int {
	capacity := limit
	if capacity <= 0 {
		capacity = FactorialUpTo(min(n, 10), 1<<22)
	}
	out := make([][]int, 0, capacity)
	Each(n, func(p []int) bool {
		out = append(out, slices.Clone(p))
		return limit <= 0 || len(out) < limit
	})
	return out
}

// Sample returns the identity followed by distinct seeded shuffles of
// [0, n), count orderings in total. It gives up after maxAttempts shuffles,
// so it may return fewer when the ordering space is nearly exhausted.
func Sample(n, count int, seed uint64, maxAttempts int) [][]int {
	if count <= 0 {
		return nil
	}
	rng := rand.New(rand.NewPCG(seed, seed^0xdeadbeef))
	first := Seq(n)
	out := [][]int{first}
	seen := map[string]struct{}{Key(first): {}}
	for attempt := 0; len(out) < count && attempt < maxAttempts; attempt++ {
		p := Seq(n)
		rng.Shuffle(n, func(i, j int) { p[i], p[j] = p[j], p[i] })
		k := Key(p)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// Key renders p as a comma-separated string, for use as a map key.
func Key(p []int) string {
	var b strings.Builder
	for i, v := range p {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}
