/*
scheduler.go - Automated month generation

PURPOSE:
  Periodically checks whether the upcoming month's ledger exists and
  generates it a few days before the month starts, so the user opens the
  app on the 1st to a populated month.

DESIGN:
  - Background goroutine with a configurable check interval
  - Generates month M+1 once local today is within LeadDays of month end
  - ErrMonthExists is the normal steady state and is not an error
  - Never touches existing months; generation only, no sync

USAGE:
  sched := api.NewMonthScheduler(svc, log)
  sched.Start()
  defer sched.Stop()

SEE ALSO:
  - budget/service.go: GenerateMonth
  - cmd/server/main.go: wiring and shutdown
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/hearthledger/budget-engine/budget"
	"github.com/hearthledger/budget-engine/ledger"
)

// MonthScheduler generates the next month's ledger ahead of time.
type MonthScheduler struct {
	Service       *budget.Service
	CheckInterval time.Duration
	// LeadDays is how many days before month end the next month is
	// generated. 3 means generation on the 28th of a 31-day month.
	LeadDays int

	log    *slog.Logger
	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewMonthScheduler creates a scheduler with hourly checks and a
// three-day lead.
func NewMonthScheduler(svc *budget.Service, log *slog.Logger) *MonthScheduler {
	if log == nil {
		log = slog.Default()
	}
	return &MonthScheduler{
		Service:       svc,
		CheckInterval: time.Hour,
		LeadDays:      3,
		log:           log.With("component", "scheduler"),
		stop:          make(chan struct{}),
	}
}

// Start begins the background check loop.
func (ms *MonthScheduler) Start() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.ticker != nil {
		return // already running
	}
	ms.ticker = time.NewTicker(ms.CheckInterval)
	ms.wg.Add(1)
	go ms.run()
	ms.log.Info("scheduler started", "interval", ms.CheckInterval.String(), "lead_days", ms.LeadDays)
}

// Stop halts the loop and waits for any in-flight check.
func (ms *MonthScheduler) Stop() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.ticker == nil {
		return
	}
	ms.ticker.Stop()
	close(ms.stop)
	ms.wg.Wait()
	ms.ticker = nil
	ms.log.Info("scheduler stopped")
}

func (ms *MonthScheduler) run() {
	defer ms.wg.Done()
	ms.check()
	for {
		select {
		case <-ms.ticker.C:
			ms.check()
		case <-ms.stop:
			return
		}
	}
}

// RunNow triggers an immediate check (admin/testing hook).
func (ms *MonthScheduler) RunNow() { ms.check() }

// due reports whether today is within LeadDays of month end, the
// window in which the next month gets generated.
func (ms *MonthScheduler) due(today ledger.Date) bool {
	current := ledger.MonthOfDate(today)
	return current.Last().DaysSince(today) <= ms.LeadDays
}

func (ms *MonthScheduler) check() {
	today := ledger.Today()
	if !ms.due(today) {
		return // too early in the month
	}

	next := ledger.MonthOfDate(today).AddMonths(1)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := ms.Service.GenerateMonth(ctx, next)
	switch {
	case err == nil:
		ms.log.Info("generated upcoming month", "month", next.String())
	case errors.Is(err, ledger.ErrMonthExists):
		// Steady state: already generated (by us or by the user).
	default:
		ms.log.Error("failed to generate upcoming month", "month", next.String(), "err", err)
	}
}
