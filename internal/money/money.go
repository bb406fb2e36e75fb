package money

import (
	"fmt"
	"time"
)

// Msat is a monetary amount in millisatoshi, the smallest unit the ledger
// tracks. All arithmetic is integer-only.
type Msat int64

// MsatPerSat is the fixed divisor between stored minor units and display units.
const MsatPerSat Msat = 1000

// FromSat converts whole satoshi to millisatoshi.
func FromSat(sat int64) Msat {
	return Msat(sat) * MsatPerSat
}

// Sat converts to whole satoshi, rounding down.
func (m Msat) Sat() int64 {
	return int64(m / MsatPerSat)
}

func (m Msat) String() string {
	return fmt.Sprintf("%dmsat", int64(m))
}

// Policy constants for bumps, payouts and external transactions.
const (
	// GlobalMinBumpSat is the fixed bump floor for PUBLIC and PRIVATE asks.
	GlobalMinBumpSat = 10

	// BumpPublicFactorDiv scales the bump floor for BUMP_PUBLIC asks:
	// the minimum is currentBumpSum / BumpPublicFactorDiv, floor-rounded.
	BumpPublicFactorDiv = 10

	// BankCutPercent is the platform's share of a settled bounty.
	BankCutPercent = 9

	// SpaceOwnerSharePercent is the space owner's share of a settled bounty,
	// paid out of the platform cut, not the offerer's payout.
	SpaceOwnerSharePercent = 1

	// SingleTransactionCapSat caps a single deposit or withdrawal.
	SingleTransactionCapSat = 1_000_000

	// MaxPendingTransactions is the per-user, per-kind limit on live
	// deposit/withdrawal attempts.
	MaxPendingTransactions = 3

	// WithdrawalFeeCapSat is the routing fee ceiling passed to the node.
	WithdrawalFeeCapSat = 50
)

const (
	// SettledCooldown is the minimum gap after a settled transaction before
	// the next one of the same kind may be created.
	SettledCooldown = 90 * time.Second

	// TransactionMaxAge is how long a pending transaction counts against the
	// pending limit, and the expiry handed to the node.
	TransactionMaxAge = 300 * time.Second
)

// Payout is the share of an ask's bump sum credited to the winning offerer.
func Payout(bumpSum Msat) Msat {
	return bumpSum * (100 - BankCutPercent) / 100
}

// SpaceOwnerCut is the additional credit to the space owner on settlement.
func SpaceOwnerCut(bounty Msat) Msat {
	return bounty * SpaceOwnerSharePercent / 100
}
