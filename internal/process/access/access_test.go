package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tramita/pkg/domain"
	dErrors "tramita/pkg/domain-errors"
	"tramita/pkg/requestcontext"
)

func admin() requestcontext.Caller {
	return requestcontext.Caller{ActorID: id.UserID(uuid.New()), Role: requestcontext.RoleAdmin}
}

func client(company id.CompanyID) requestcontext.Caller {
	return requestcontext.Caller{ActorID: id.UserID(uuid.New()), Role: requestcontext.RoleClient, CompanyID: company}
}

func TestVisible(t *testing.T) {
	companyA := id.CompanyID(uuid.New())
	companyB := id.CompanyID(uuid.New())

	t.Run("admin sees any company", func(t *testing.T) {
		ok, err := Visible(admin(), companyA)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("admin sees ungrouped cases", func(t *testing.T) {
		ok, err := Visible(admin(), id.CompanyID{})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("client sees own company only", func(t *testing.T) {
		ok, err := Visible(client(companyA), companyA)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = Visible(client(companyA), companyB)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("client never sees ungrouped cases", func(t *testing.T) {
		ok, err := Visible(client(companyA), id.CompanyID{})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("client without company is a configuration error", func(t *testing.T) {
		_, err := Visible(client(id.CompanyID{}), companyA)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}

func TestCheck(t *testing.T) {
	companyA := id.CompanyID(uuid.New())
	companyB := id.CompanyID(uuid.New())

	require.NoError(t, Check(client(companyA), companyA))

	err := Check(client(companyA), companyB)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
}

func TestNarrow(t *testing.T) {
	companyA := id.CompanyID(uuid.New())
	companyB := id.CompanyID(uuid.New())

	type row struct {
		name    string
		company id.CompanyID
	}
	rows := []row{
		{"a1", companyA},
		{"b1", companyB},
		{"a2", companyA},
		{"none", id.CompanyID{}},
	}
	companyOf := func(r row) id.CompanyID { return r.company }

	t.Run("admin keeps everything", func(t *testing.T) {
		got, err := Narrow(admin(), rows, companyOf)
		require.NoError(t, err)
		assert.Len(t, got, 4)
	})

	t.Run("client keeps own company", func(t *testing.T) {
		got, err := Narrow(client(companyA), rows, companyOf)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a1", got[0].name)
		assert.Equal(t, "a2", got[1].name)
	})

	t.Run("client without company errors", func(t *testing.T) {
		_, err := Narrow(client(id.CompanyID{}), rows, companyOf)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeConfiguration))
	})
}
