// Package epochreward aggregates per-epoch election reward totals and the
// named epoch token transfers into stable reporting shapes.
package epochreward

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/carbonscan/carbonscan/pkg/tokens"
)

// EpochSize is the protocol's fixed epoch length in blocks.
const EpochSize = 17280

// IsEpochBlock reports whether rewards are settled at the given height.
func IsEpochBlock(height uint64) bool {
	return height > 0 && height%EpochSize == 0
}

// RewardType is one of the protocol's closed set of election reward types.
type RewardType string

const (
	RewardVoter            RewardType = "voter"
	RewardValidator        RewardType = "validator"
	RewardValidatorGroup   RewardType = "group"
	RewardDelegatedPayment RewardType = "delegated_payment"
)

// AllRewardTypes returns every member of the closed reward type set.
func AllRewardTypes() []RewardType {
	return []RewardType{RewardVoter, RewardValidator, RewardValidatorGroup, RewardDelegatedPayment}
}

// Totals maps every enumerated reward type to its total for one epoch.
// Consumers never need to special-case absent types.
type Totals map[RewardType]decimal.Decimal

// AggregateTotals densifies a sparse per-type mapping, filling every
// enumerated type missing from the input with zero.
func AggregateTotals(sparse map[RewardType]decimal.Decimal) Totals {
	dense := make(Totals, len(AllRewardTypes()))
	for _, rt := range AllRewardTypes() {
		if amount, ok := sparse[rt]; ok {
			dense[rt] = amount
		} else {
			dense[rt] = decimal.Zero
		}
	}
	return dense
}

// ElectionReward is one account's reward of one type at one epoch block.
type ElectionReward struct {
	BlockNumber       uint64
	Type              RewardType
	Account           common.Address
	AssociatedAccount common.Address
	Amount            decimal.Decimal
}

// Epoch transfer slot names, as stored and as rendered.
const (
	SlotReserveBolster   = "reserve_bolster_transfer"
	SlotCommunity        = "community_transfer"
	SlotCarbonOffsetting = "carbon_offsetting_transfer"
)

// EpochRecord holds the up-to-three token transfers settled at an epoch
// block. Slots with no transfer are nil.
type EpochRecord struct {
	BlockNumber      uint64
	ReserveBolster   *tokens.Transfer
	Community        *tokens.Transfer
	CarbonOffsetting *tokens.Transfer
}

// EpochTransfers is the fixed three-slot reporting shape. Absent slots
// marshal as explicit nulls, never disappear.
type EpochTransfers struct {
	ReserveBolster   *tokens.RenderedTransfer `json:"reserve_bolster_transfer"`
	Community        *tokens.RenderedTransfer `json:"community_transfer"`
	CarbonOffsetting *tokens.RenderedTransfer `json:"carbon_offsetting_transfer"`
}

// AggregateEpochTransfers renders an epoch record into the fixed three-slot
// shape. A nil record yields nil for the whole result, not a partial one.
func AggregateEpochTransfers(rec *EpochRecord, infos map[common.Address]tokens.DisplayInfo) *EpochTransfers {
	if rec == nil {
		return nil
	}
	out := &EpochTransfers{}
	if rec.ReserveBolster != nil {
		rendered := tokens.RenderTransfer(*rec.ReserveBolster, infos)
		out.ReserveBolster = &rendered
	}
	if rec.Community != nil {
		rendered := tokens.RenderTransfer(*rec.Community, infos)
		out.Community = &rendered
	}
	if rec.CarbonOffsetting != nil {
		rendered := tokens.RenderTransfer(*rec.CarbonOffsetting, infos)
		out.CarbonOffsetting = &rendered
	}
	return out
}
