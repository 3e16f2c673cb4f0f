package basefee

import (
	"errors"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/carbonscan/carbonscan/pkg/fixidec"
	"github.com/carbonscan/carbonscan/pkg/metrics"
	"github.com/carbonscan/carbonscan/pkg/registry"
)

var hundred = decimal.NewFromInt(100)

// Resolver answers as-of parameter queries. Implemented by registry.Snapshot.
type Resolver interface {
	AddressAt(name string, height uint64) (common.Address, bool)
	LatestEventAt(contract, kind string, height uint64) (*registry.GovernanceEvent, bool)
}

type CalculatorConfig struct {
	Logger   *slog.Logger
	Resolver Resolver
}

func (cfg *CalculatorConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Resolver == nil {
		return errors.New("resolver is required")
	}
	return nil
}

// Calculator resolves the fee-disposal regime for historical blocks.
type Calculator struct {
	log *slog.Logger
	cfg CalculatorConfig
}

func NewCalculator(cfg CalculatorConfig) (*Calculator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// Compute resolves the base fee distribution for a block. The fee handler
// split is tried first; if any of its three parameters is absent at the
// height, the governance retention policy is tried; if that contract is also
// undeployed the result is unknown. Absence of parameters is expected for
// heights that predate the relevant deployments and governance events.
func (c *Calculator) Compute(baseFee decimal.Decimal, height uint64) Result {
	if dist, ok := c.computeFeeHandlerSplit(baseFee, height); ok {
		metrics.FeeDistributionsComputedTotal.WithLabelValues(RegimeFeeHandler.String()).Inc()
		return Result{Regime: RegimeFeeHandler, Distribution: dist}
	}

	if governance, ok := c.cfg.Resolver.AddressAt(registry.ContractGovernance, height); ok {
		metrics.FeeDistributionsComputedTotal.WithLabelValues(RegimeGovernance.String()).Inc()
		return Result{
			Regime: RegimeGovernance,
			Distribution: &Distribution{
				Recipient:   governance,
				TotalAmount: baseFee,
				Breakdown:   []BreakdownEntry{},
			},
		}
	}

	c.log.Debug("basefee: no regime resolvable", "height", height)
	metrics.FeeDistributionsComputedTotal.WithLabelValues(RegimeUnknown.String()).Inc()
	return Result{Regime: RegimeUnknown}
}

func (c *Calculator) computeFeeHandlerSplit(baseFee decimal.Decimal, height uint64) (*Distribution, bool) {
	handler, ok := c.cfg.Resolver.AddressAt(registry.ContractFeeHandler, height)
	if !ok {
		c.log.Debug("basefee: fee handler not deployed", "height", height)
		return nil, false
	}

	beneficiary, ok := c.cfg.Resolver.LatestEventAt(registry.ContractFeeHandler, registry.EventFeeBeneficiarySet, height)
	if !ok {
		c.log.Debug("basefee: no fee beneficiary set yet", "height", height)
		return nil, false
	}

	fractionEvent, ok := c.cfg.Resolver.LatestEventAt(registry.ContractFeeHandler, registry.EventBurnFractionSet, height)
	if !ok {
		c.log.Debug("basefee: no burn fraction set yet", "height", height)
		return nil, false
	}

	fraction := fixidec.ToFraction(fractionEvent.Value)
	if fraction.IsNegative() || fraction.GreaterThan(decimal.NewFromInt(1)) {
		// On-chain truth is propagated as-is; a value outside [0, 1] is a
		// protocol anomaly worth surfacing, not correcting.
		c.log.Warn("basefee: burn fraction outside [0, 1]",
			"height", height, "fraction", fraction.String(), "tx_hash", fractionEvent.TxHash.Hex())
		metrics.BurnFractionOutOfRangeTotal.Inc()
	}

	burntAmount := baseFee.Mul(fraction)
	burntPercentage := fixidec.ToPercentage(fraction)

	// Remainders are computed by subtraction from the totals so the sum
	// invariants hold exactly.
	remainderAmount := baseFee.Sub(burntAmount)
	remainderPercentage := hundred.Sub(burntPercentage)

	return &Distribution{
		Recipient:   handler,
		TotalAmount: baseFee,
		Breakdown: []BreakdownEntry{
			{Address: BurnAddress, Amount: burntAmount, Percentage: burntPercentage},
			{Address: beneficiary.Address, Amount: remainderAmount, Percentage: remainderPercentage},
		},
	}, true
}
