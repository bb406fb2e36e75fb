package models

import (
	"time"

	"github.com/moogmodular/asksats-sub000/internal/money"
)

// TemporalAskStatus is the time-derived view of an ask, computed on every
// read from timestamps and relational facts.
type TemporalAskStatus string

const (
	TemporalActive            TemporalAskStatus = "ACTIVE"
	TemporalPendingAcceptance TemporalAskStatus = "PENDING_ACCEPTANCE"
	TemporalExpired           TemporalAskStatus = "EXPIRED"
	TemporalSettled           TemporalAskStatus = "SETTLED"
	TemporalCanceled          TemporalAskStatus = "CANCELED"
	// TemporalNoStatus marks a derivation hole; it is unreachable given the
	// rules below and treated as a defect in tests.
	TemporalNoStatus TemporalAskStatus = "NO_STATUS"
)

// TemporalStatus derives an ask's time-based status. The caller supplies now
// explicitly; missing timestamps are a caller defect, never defaulted here.
//
// Precedence: a favourite offer is a terminal fact and wins outright, then
// ACTIVE while the deadline has not passed, then PENDING_ACCEPTANCE during
// the acceptance window if at least one offer exists, otherwise EXPIRED.
func TemporalStatus(deadlineAt, acceptedDeadlineAt time.Time, hasOffers, hasFavourite bool, now time.Time) TemporalAskStatus {
	switch {
	case hasFavourite:
		return TemporalSettled
	case now.Before(deadlineAt):
		return TemporalActive
	case now.Before(acceptedDeadlineAt) && hasOffers:
		return TemporalPendingAcceptance
	case !hasOffers || !now.Before(acceptedDeadlineAt):
		return TemporalExpired
	}
	return TemporalNoStatus
}

// EffectiveStatus folds the persisted owner-action status into the temporal
// derivation. CANCELED and SETTLED short-circuit: a canceled ask is never
// reported ACTIVE no matter what its timestamps say.
func EffectiveStatus(status AskStatus, deadlineAt, acceptedDeadlineAt time.Time, hasOffers, hasFavourite bool, now time.Time) TemporalAskStatus {
	switch status {
	case AskStatusCanceled:
		return TemporalCanceled
	case AskStatusSettled:
		return TemporalSettled
	}
	return TemporalStatus(deadlineAt, acceptedDeadlineAt, hasOffers, hasFavourite, now)
}

// MinBump returns the smallest bump an ask will accept given its current
// bump sum. BUMP_PUBLIC asks scale the floor with the running bounty so late
// bumps cannot cheaply dilute early stakers; a fresh BUMP_PUBLIC ask with a
// zero sum therefore has a zero floor.
func MinBump(kind AskKind, currentSum money.Msat) money.Msat {
	if kind == AskKindBumpPublic {
		return currentSum / money.BumpPublicFactorDiv
	}
	return money.FromSat(money.GlobalMinBumpSat)
}

// DeadlinePolicy names the run length of an ask. The acceptance grace window
// after the deadline is a fixed day.
type DeadlinePolicy string

const (
	DeadlineOneDay    DeadlinePolicy = "ONE_DAY"
	DeadlineThreeDays DeadlinePolicy = "THREE_DAYS"
	DeadlineSevenDays DeadlinePolicy = "SEVEN_DAYS"
)

const acceptedAfterClosed = 24 * time.Hour

// Durations resolves the policy to (untilClosed, acceptedAfterClosed).
func (p DeadlinePolicy) Durations() (time.Duration, time.Duration, bool) {
	switch p {
	case DeadlineOneDay:
		return 24 * time.Hour, acceptedAfterClosed, true
	case DeadlineThreeDays:
		return 72 * time.Hour, acceptedAfterClosed, true
	case DeadlineSevenDays:
		return 168 * time.Hour, acceptedAfterClosed, true
	}
	return 0, 0, false
}
