// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lifecycle runs the period state machine and the operations it gates.

# States

Periods progress through three states: open → quantify → closed

	CreatePeriod                 → open
	CreatePraise                 (open only)
	SetPeriodSetting             (open only)
	StartQuantification          open → quantify (assigns quantifiers once)
	RedoAssignment               (quantify only, replaces pending rows)
	SubmitQuantification         (quantify only)
	ClosePeriod                  quantify → closed (terminal)
	Results                      (closed only)

# Concurrency

The period version is the optimistic lock. Every write that depends on
period state bumps it inside the store's transaction. ClosePeriod reads the
version first, computes results in memory, and commits conditioned on that
version, retrying on conflict:

	svc := lifecycle.NewService(store, lifecycle.WithCloseRetries(3))
	resp, err := svc.ClosePeriod(ctx, periodID)
	if errors.Is(err, lifecycle.ErrPeriodLockConflict) {
		// retry later
	}

Concurrent ClosePeriod calls for the same period share one execution.

# Errors

Validation errors (ErrInvalidScore, ErrSelfQuantification, ErrNotAssigned,
ErrInvalidDuplicate) are never persisted. State errors leave the period
where it was. duplicates.ErrAmbiguousDuplicateStatus from ClosePeriod keeps
the period in quantify until the markings are fixed.
*/
package lifecycle
