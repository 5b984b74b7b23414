package natsort

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSort_NumericOrder(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "digit runs compare by value",
			input:    []string{"10.mp4", "2.mp4", "1.mp4"},
			expected: []string{"1.mp4", "2.mp4", "10.mp4"},
		},
		{
			name:     "embedded numbers",
			input:    []string{"Lesson 10", "Lesson 9", "Lesson 1"},
			expected: []string{"Lesson 1", "Lesson 9", "Lesson 10"},
		},
		{
			name:     "plain lexical fallback",
			input:    []string{"cherry", "apple", "banana"},
			expected: []string{"apple", "banana", "cherry"},
		},
		{
			name:     "case insensitive",
			input:    []string{"Beta", "alpha", "GAMMA"},
			expected: []string{"alpha", "Beta", "GAMMA"},
		},
		{
			name:     "mixed sections",
			input:    []string{"12. Deployment", "2. Basics", "1. Intro"},
			expected: []string{"1. Intro", "2. Basics", "12. Deployment"},
		},
		{
			name:     "empty slice",
			input:    []string{},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Sort(tt.input)
			assert.Equal(t, tt.expected, tt.input)
		})
	}
}

func TestSort_Idempotent(t *testing.T) {
	input := []string{"10. Wrap Up", "2. Setup", "2. setup", "1. Intro", "1.1 Intro"}

	first := make([]string, len(input))
	copy(first, input)
	Sort(first)

	// Sorting again must not reorder anything.
	second := make([]string, len(first))
	copy(second, first)
	Sort(second)
	assert.Equal(t, first, second)

	// And the order must not depend on input permutation beyond ties.
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]string, len(input))
		copy(shuffled, input)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		Sort(shuffled)
		// Compare case-insensitively equal neighbours by set membership.
		assert.ElementsMatch(t, first, shuffled)
	}
}

func TestCompare(t *testing.T) {
	assert.Negative(t, Compare("2", "10"))
	assert.Positive(t, Compare("10", "2"))
	assert.Zero(t, Compare("3", "3"))
}

func TestLess(t *testing.T) {
	assert.True(t, Less("9. Review", "10. Final"))
	assert.False(t, Less("10. Final", "9. Review"))
}

func TestSortFunc(t *testing.T) {
	type entry struct{ Name string }
	items := []entry{{"3. Advanced"}, {"1. Intro"}, {"11. Extras"}, {"2. Basics"}}

	cmp := New()
	SortFunc(cmp, items, func(e entry) string { return e.Name })

	got := make([]string, len(items))
	for i, e := range items {
		got[i] = e.Name
	}
	assert.Equal(t, []string{"1. Intro", "2. Basics", "3. Advanced", "11. Extras"}, got)
}

func TestComparer_ConcurrentUse(t *testing.T) {
	cmp := New()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				_ = cmp.Compare("Lesson 2", "Lesson 10")
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
