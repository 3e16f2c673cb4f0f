// Package basefee computes how a block's base transaction fee was disposed
// of: burnt and forwarded to the carbon-offsetting beneficiary by the fee
// handler, or fully retained by the governance treasury under the older
// protocol version. Resolution is always anchored to the queried block
// height, never to the latest on-chain values.
package basefee

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// BurnAddress is the fixed protocol burn address. It is a constant of the
// protocol, not derived from chain state.
var BurnAddress = common.HexToAddress("0x000000000000000000000000000000000000dEaD")

// Regime identifies which historical fee-disposal policy applied at a block.
type Regime int

const (
	// RegimeUnknown means neither policy could be resolved for the height.
	// This is distinct from a resolved distribution with nothing burnt.
	RegimeUnknown Regime = iota
	// RegimeFeeHandler splits the fee between the burn address and the
	// carbon-offsetting beneficiary per the governed burn fraction.
	RegimeFeeHandler
	// RegimeGovernance retains the whole fee in the governance treasury.
	RegimeGovernance
)

func (r Regime) String() string {
	switch r {
	case RegimeFeeHandler:
		return "fee_handler"
	case RegimeGovernance:
		return "governance"
	default:
		return "unknown"
	}
}

// BreakdownEntry is one leg of a fee split.
type BreakdownEntry struct {
	Address    common.Address
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// Distribution describes where a block's base fee went. An empty Breakdown
// means the recipient retained the full amount with no split.
type Distribution struct {
	Recipient   common.Address
	TotalAmount decimal.Decimal
	Breakdown   []BreakdownEntry
}

// Result is the outcome of a fee distribution computation. Distribution is
// nil exactly when Regime is RegimeUnknown.
type Result struct {
	Regime       Regime
	Distribution *Distribution
}

// Known reports whether a regime was resolved for the queried height.
func (r Result) Known() bool {
	return r.Regime != RegimeUnknown
}

// RenderedBreakdownEntry is the JSON shape of one split leg.
type RenderedBreakdownEntry struct {
	Address    string `json:"address"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage"`
}

// RenderedDistribution is the stable JSON shape of a resolved distribution.
// Breakdown always marshals as an array, empty for full retention.
type RenderedDistribution struct {
	Recipient   string                   `json:"recipient"`
	TotalAmount string                   `json:"total_amount"`
	Breakdown   []RenderedBreakdownEntry `json:"breakdown"`
}

// Render formats the result for output. Unknown renders as nil so callers
// omit the field entirely instead of asserting a zero split.
func (r Result) Render() *RenderedDistribution {
	if !r.Known() {
		return nil
	}
	d := r.Distribution
	rendered := &RenderedDistribution{
		Recipient:   d.Recipient.Hex(),
		TotalAmount: d.TotalAmount.String(),
		Breakdown:   make([]RenderedBreakdownEntry, 0, len(d.Breakdown)),
	}
	for _, e := range d.Breakdown {
		rendered.Breakdown = append(rendered.Breakdown, RenderedBreakdownEntry{
			Address:    e.Address.Hex(),
			Amount:     e.Amount.String(),
			Percentage: e.Percentage.String(),
		})
	}
	return rendered
}

// BlockFeeReport is the per-block reporting shape consumed by callers.
type BlockFeeReport struct {
	BlockNumber         uint64                `json:"block_number"`
	BaseFeeDistribution *RenderedDistribution `json:"base_fee_distribution,omitempty"`
}
