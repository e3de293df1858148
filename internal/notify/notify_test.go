package notify_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tramita/internal/notify"
	id "tramita/pkg/domain"
)

func TestMemoryDispatcherRecords(t *testing.T) {
	d := notify.NewMemoryDispatcher()
	companyID := id.CompanyID(uuid.New())

	d.Dispatch(context.Background(), notify.Notification{
		CompanyID: companyID,
		Title:     "Case status updated",
	})

	sent := d.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, companyID, sent[0].CompanyID)

	// Sent returns a copy; mutating it must not affect the dispatcher.
	sent[0].Title = "changed"
	assert.Equal(t, "Case status updated", d.Sent()[0].Title)
}

func TestNoopDispatcherDiscards(t *testing.T) {
	assert.NotPanics(t, func() {
		notify.NoopDispatcher{}.Dispatch(context.Background(), notify.Notification{})
	})
}
