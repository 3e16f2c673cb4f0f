package epochreward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/carbonscan/carbonscan/pkg/tokens"
)

// RewardData is the reward storage surface the aggregator reads from.
// Implemented by Store.
type RewardData interface {
	FetchElectionRewardTotals(ctx context.Context, height uint64) (map[RewardType]decimal.Decimal, error)
	FetchEpochRecord(ctx context.Context, height uint64) (*EpochRecord, bool, error)
}

type AggregatorConfig struct {
	Logger      *slog.Logger
	Data        RewardData
	AddressBook tokens.AddressBook
}

func (cfg *AggregatorConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Data == nil {
		return errors.New("reward data is required")
	}
	if cfg.AddressBook == nil {
		cfg.AddressBook = tokens.NopAddressBook{}
	}
	return nil
}

// Aggregator shapes stored epoch reward data for reporting.
type Aggregator struct {
	log *slog.Logger
	cfg AggregatorConfig
}

func NewAggregator(cfg AggregatorConfig) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Aggregator{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

// ElectionRewardTotalsAt returns the dense per-type reward totals for an
// epoch block. For heights that are not epoch boundaries it returns
// (nil, false, nil): "no rewards because this is not an epoch block" is
// distinct from an epoch block with zero rewards.
func (a *Aggregator) ElectionRewardTotalsAt(ctx context.Context, height uint64) (Totals, bool, error) {
	if !IsEpochBlock(height) {
		return nil, false, nil
	}
	sparse, err := a.cfg.Data.FetchElectionRewardTotals(ctx, height)
	if err != nil {
		return nil, false, fmt.Errorf("failed to fetch election reward totals: %w", err)
	}
	return AggregateTotals(sparse), true, nil
}

// EpochTransfersAt returns the fixed three-slot transfer shape for an epoch
// block, or (nil, nil) when no record exists at the height.
func (a *Aggregator) EpochTransfersAt(ctx context.Context, height uint64) (*EpochTransfers, error) {
	rec, ok, err := a.cfg.Data.FetchEpochRecord(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch epoch record: %w", err)
	}
	if !ok {
		return nil, nil
	}

	infos, err := a.lookupParties(ctx, rec)
	if err != nil {
		// Enrichment is best-effort; the transfers themselves still render.
		a.log.Warn("epochreward: address lookup failed", "height", height, "error", err)
		infos = map[common.Address]tokens.DisplayInfo{}
	}
	return AggregateEpochTransfers(rec, infos), nil
}

func (a *Aggregator) lookupParties(ctx context.Context, rec *EpochRecord) (map[common.Address]tokens.DisplayInfo, error) {
	seen := make(map[common.Address]struct{})
	var addrs []common.Address
	for _, t := range []*tokens.Transfer{rec.ReserveBolster, rec.Community, rec.CarbonOffsetting} {
		if t == nil {
			continue
		}
		for _, addr := range []common.Address{t.From, t.To} {
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			addrs = append(addrs, addr)
		}
	}
	return a.cfg.AddressBook.Lookup(ctx, addrs)
}
