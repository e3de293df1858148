// Package transition holds the workflow status transition table. The table
// is data, not logic: new statuses are additive map entries, and the engine
// never branches on individual codes here.
package transition

import "tramita/internal/process/models"

// Table maps a status code to the set of codes it may move to. A code with
// no entry rejects every transition; identical codes are always allowed.
type Table struct {
	edges map[string][]string
}

// New builds a table from an edge map. The map is copied.
func New(edges map[string][]string) *Table {
	copied := make(map[string][]string, len(edges))
	for from, to := range edges {
		copied[from] = append([]string(nil), to...)
	}
	return &Table{edges: copied}
}

// Default returns the production workflow. Forward-only edges, plus the
// explicit reopen edges that model real-world reversals: an approved or
// denied case can go back under review, an archived one back to
// preparation.
func Default() *Table {
	return New(map[string][]string{
		models.StatusCodePreparation: {
			models.StatusCodeAwaitingDocs,
			models.StatusCodeFiled,
			models.StatusCodeArchived,
		},
		models.StatusCodeAwaitingDocs: {
			models.StatusCodePreparation,
			models.StatusCodeFiled,
			models.StatusCodeArchived,
		},
		models.StatusCodeFiled: {
			models.StatusCodeUnderReview,
			models.StatusCodeArchived,
		},
		models.StatusCodeUnderReview: {
			models.StatusCodeRequirement,
			models.StatusCodeApproved,
			models.StatusCodeDenied,
		},
		models.StatusCodeRequirement: {
			models.StatusCodeUnderReview,
			models.StatusCodeArchived,
		},
		models.StatusCodeApproved: {
			models.StatusCodeUnderReview,
		},
		models.StatusCodeDenied: {
			models.StatusCodeUnderReview,
		},
		models.StatusCodeArchived: {
			models.StatusCodePreparation,
		},
	})
}

// Allowed reports whether a case currently in `from` may move to `to`.
func (t *Table) Allowed(from, to string) bool {
	if from == to {
		return true
	}
	for _, next := range t.edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Next returns a copy of the outgoing set for a code, including the code
// itself (the no-op transition). Used by the bulk preview helper.
func (t *Table) Next(from string) []string {
	out := []string{from}
	for _, next := range t.edges[from] {
		if next != from {
			out = append(out, next)
		}
	}
	return out
}
