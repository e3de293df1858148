// Package access enforces tenant-scoped visibility: admins see everything,
// clients only cases whose group belongs to their own company.
package access

import (
	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/requestcontext"
)

// Visible reports whether the caller may see or mutate a case belonging to
// the given company (resolved from the case's group; nil for ungrouped
// cases). Returns a domain error for misconfigured client accounts.
func Visible(caller requestcontext.Caller, companyID id.CompanyID) (bool, error) {
	if caller.IsAdmin() {
		return true, nil
	}
	if caller.CompanyID.IsNil() {
		// A client account must never be usable without a tenant.
		return false, dErrors.New(dErrors.CodeConfiguration, "client caller has no company assigned")
	}
	if companyID.IsNil() {
		// Ungrouped cases have no tenant; only admins see them.
		return false, nil
	}
	return companyID == caller.CompanyID, nil
}

// Check is the single-record precondition: it converts invisibility into
// AccessDenied.
func Check(caller requestcontext.Caller, companyID id.CompanyID) error {
	ok, err := Visible(caller, companyID)
	if err != nil {
		return err
	}
	if !ok {
		return dErrors.New(dErrors.CodeForbidden, "case belongs to another company")
	}
	return nil
}

// Narrow filters a broadly-fetched list down to what the caller may see.
// The lookup maps an item to the company owning it.
func Narrow[T any](caller requestcontext.Caller, items []T, companyOf func(T) id.CompanyID) ([]T, error) {
	if caller.IsAdmin() {
		return items, nil
	}
	if caller.CompanyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeConfiguration, "client caller has no company assigned")
	}
	visible := make([]T, 0, len(items))
	for _, item := range items {
		if companyOf(item) == caller.CompanyID {
			visible = append(visible, item)
		}
	}
	return visible, nil
}
