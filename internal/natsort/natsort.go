// Package natsort provides natural-order string comparison, so that
// "2" sorts before "10" and "Lesson 9" before "Lesson 10". File and
// directory listings across the server are ordered with it to keep
// scans deterministic.
package natsort

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Comparer performs natural-order, case-insensitive string comparison.
// Safe for concurrent use.
type Comparer struct {
	mu sync.Mutex
	c  *collate.Collator
}

// New returns a Comparer with numeric collation, so digit runs compare
// by value rather than lexically.
func New() *Comparer {
	return &Comparer{
		c: collate.New(language.Und, collate.Numeric, collate.IgnoreCase),
	}
}

// Compare returns -1, 0, or +1 depending on whether a sorts before,
// equal to, or after b.
func (cmp *Comparer) Compare(a, b string) int {
	cmp.mu.Lock()
	defer cmp.mu.Unlock()
	return cmp.c.CompareString(a, b)
}

// Less reports whether a sorts before b.
func (cmp *Comparer) Less(a, b string) bool {
	return cmp.Compare(a, b) < 0
}

// Sort sorts ss in place in natural order. The sort is stable so equal
// keys keep their input order, which keeps repeated scans of the same
// directory deterministic.
func (cmp *Comparer) Sort(ss []string) {
	sort.SliceStable(ss, func(i, j int) bool {
		return cmp.Less(ss[i], ss[j])
	})
}

// SortFunc sorts a slice of n elements in place using the key function
// to extract the string each element sorts by.
func SortFunc[T any](cmp *Comparer, items []T, key func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		return cmp.Less(key(items[i]), key(items[j]))
	})
}

// Package-level comparer for callers that don't need their own.
var std = New()

// Compare compares a and b in natural order using the shared comparer.
func Compare(a, b string) int { return std.Compare(a, b) }

// Less reports whether a sorts before b using the shared comparer.
func Less(a, b string) bool { return std.Less(a, b) }

// Sort sorts ss in place using the shared comparer.
func Sort(ss []string) { std.Sort(ss) }

// SortBy sorts items in place by their key string, using the shared
// comparer.
func SortBy[T any](items []T, key func(T) string) { SortFunc(std, items, key) }
