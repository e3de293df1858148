package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tramita/internal/process/models"
)

func TestAllowed(t *testing.T) {
	table := Default()

	tests := []struct {
		name string
		from string
		to   string
		want bool
	}{
		{"identical codes always valid", models.StatusCodeApproved, models.StatusCodeApproved, true},
		{"identical unknown codes valid", "mystery", "mystery", true},
		{"preparation to filed", models.StatusCodePreparation, models.StatusCodeFiled, true},
		{"filed to under review", models.StatusCodeFiled, models.StatusCodeUnderReview, true},
		{"under review to approved", models.StatusCodeUnderReview, models.StatusCodeApproved, true},
		{"no skipping ahead", models.StatusCodePreparation, models.StatusCodeApproved, false},
		{"no going backwards", models.StatusCodeUnderReview, models.StatusCodePreparation, false},
		{"reopen approved case", models.StatusCodeApproved, models.StatusCodeUnderReview, true},
		{"reopen archived case", models.StatusCodeArchived, models.StatusCodePreparation, true},
		{"unknown code rejects everything", "mystery", models.StatusCodeFiled, false},
		{"known code rejects unknown target", models.StatusCodeFiled, "mystery", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, table.Allowed(tt.from, tt.to))
		})
	}
}

func TestNext(t *testing.T) {
	table := Default()

	next := table.Next(models.StatusCodeUnderReview)
	assert.ElementsMatch(t, []string{
		models.StatusCodeUnderReview,
		models.StatusCodeRequirement,
		models.StatusCodeApproved,
		models.StatusCodeDenied,
	}, next)

	// A code with no configured edges still allows the no-op transition.
	assert.Equal(t, []string{"mystery"}, table.Next("mystery"))
}

func TestCustomTable(t *testing.T) {
	table := New(map[string][]string{"a": {"b"}})

	assert.True(t, table.Allowed("a", "b"))
	assert.False(t, table.Allowed("b", "a"))
}
