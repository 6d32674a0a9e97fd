package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasAllergenConflict(t *testing.T) {
	testCases := []struct {
		name      string
		allergies []string
		allergens []string
		expected  bool
	}{
		{"no allergies", nil, []string{"milk"}, false},
		{"no declared allergens", []string{"milk"}, nil, false},
		{"direct match", []string{"milk"}, []string{"soy", "milk"}, true},
		{"case and whitespace folded", []string{" Milk "}, []string{"MILK"}, true},
		{"disjoint", []string{"peanuts"}, []string{"soy", "milk"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, hasAllergenConflict(tc.allergies, tc.allergens))
		})
	}
}
