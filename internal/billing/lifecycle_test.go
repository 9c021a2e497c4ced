package billing_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nlorenzo/facturo/internal/billing"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to billing.Status }{
		{billing.StatusDraft, billing.StatusPending},
		{billing.StatusPending, billing.StatusPaid},
		{billing.StatusPending, billing.StatusCancelled},
		{billing.StatusPending, billing.StatusOverdue},
		{billing.StatusOverdue, billing.StatusPaid},
		{billing.StatusOverdue, billing.StatusCancelled},
	}

	for _, tr := range allowed {
		assert.True(t, billing.CanTransition(tr.from, tr.to), "%s -> %s should be allowed", tr.from, tr.to)
	}

	denied := []struct{ from, to billing.Status }{
		{billing.StatusDraft, billing.StatusPaid},
		{billing.StatusDraft, billing.StatusCancelled},
		{billing.StatusDraft, billing.StatusOverdue},
		{billing.StatusPending, billing.StatusDraft},
		{billing.StatusOverdue, billing.StatusPending},
		{billing.StatusPaid, billing.StatusPending},
		{billing.StatusPaid, billing.StatusCancelled},
		{billing.StatusCancelled, billing.StatusPending},
		{billing.StatusCancelled, billing.StatusPaid},
	}

	for _, tr := range denied {
		assert.False(t, billing.CanTransition(tr.from, tr.to), "%s -> %s should be denied", tr.from, tr.to)
	}
}

func TestDocument_CanEditLines(t *testing.T) {
	tests := []struct {
		status billing.Status
		want   bool
	}{
		{billing.StatusDraft, true},
		{billing.StatusPending, true},
		{billing.StatusOverdue, false},
		{billing.StatusPaid, false},
		{billing.StatusCancelled, false},
	}

	for _, tt := range tests {
		doc := &billing.Document{Status: tt.status}
		assert.Equal(t, tt.want, doc.CanEditLines(), "status %s", tt.status)
	}
}
