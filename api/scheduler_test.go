package api

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hearthledger/budget-engine/ledger"
)

func TestSchedulerDue_LeadWindow(t *testing.T) {
	ms := NewMonthScheduler(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Default lead of 3: the 28th of a 31-day month opens the window.
	assert.False(t, ms.due(ledger.NewDate(2025, time.January, 27)))
	assert.True(t, ms.due(ledger.NewDate(2025, time.January, 28)))
	assert.True(t, ms.due(ledger.NewDate(2025, time.January, 31)))

	// February 2025 has 28 days, so the window opens on the 25th.
	assert.False(t, ms.due(ledger.NewDate(2025, time.February, 24)))
	assert.True(t, ms.due(ledger.NewDate(2025, time.February, 25)))
}
