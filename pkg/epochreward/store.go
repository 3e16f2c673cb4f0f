package epochreward

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/carbonscan/carbonscan/pkg/clickhouse"
	"github.com/carbonscan/carbonscan/pkg/metrics"
	"github.com/carbonscan/carbonscan/pkg/tokens"
)

type StoreConfig struct {
	Logger     *slog.Logger
	ClickHouse clickhouse.Client
}

func (cfg *StoreConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ClickHouse == nil {
		return errors.New("clickhouse connection is required")
	}
	return nil
}

// Store persists election rewards and epoch transfers in ClickHouse.
type Store struct {
	log *slog.Logger
	cfg StoreConfig
}

func NewStore(cfg StoreConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		log: cfg.Logger,
		cfg: cfg,
	}, nil
}

func (s *Store) AppendElectionRewards(ctx context.Context, rewards []ElectionReward) error {
	s.log.Debug("epochreward/store: appending election rewards", "count", len(rewards))
	if len(rewards) == 0 {
		return nil
	}

	conn, err := s.cfg.ClickHouse.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get ClickHouse connection: %w", err)
	}

	batch, err := conn.PrepareBatch(ctx, "INSERT INTO election_rewards (block_number, reward_type, account, associated_account, amount)")
	if err != nil {
		return fmt.Errorf("failed to prepare election rewards batch: %w", err)
	}
	for _, r := range rewards {
		if err := batch.Append(r.BlockNumber, string(r.Type), r.Account.Hex(), r.AssociatedAccount.Hex(), r.Amount); err != nil {
			return fmt.Errorf("failed to append election reward at block %d: %w", r.BlockNumber, err)
		}
	}
	if err := batch.Send(); err != nil {
		metrics.DatabaseQueriesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to write election rewards: %w", err)
	}
	metrics.DatabaseQueriesTotal.WithLabelValues("success").Inc()
	return nil
}

func (s *Store) AppendEpochRecord(ctx context.Context, rec EpochRecord) error {
	s.log.Debug("epochreward/store: appending epoch record", "block", rec.BlockNumber)

	conn, err := s.cfg.ClickHouse.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get ClickHouse connection: %w", err)
	}

	batch, err := conn.PrepareBatch(ctx, "INSERT INTO epoch_transfers (block_number, slot, from_address, to_address, amount, tx_hash, log_index)")
	if err != nil {
		return fmt.Errorf("failed to prepare epoch transfers batch: %w", err)
	}
	slots := []struct {
		name     string
		transfer *tokens.Transfer
	}{
		{SlotReserveBolster, rec.ReserveBolster},
		{SlotCommunity, rec.Community},
		{SlotCarbonOffsetting, rec.CarbonOffsetting},
	}
	for _, slot := range slots {
		if slot.transfer == nil {
			continue
		}
		t := slot.transfer
		if err := batch.Append(rec.BlockNumber, slot.name, t.From.Hex(), t.To.Hex(), t.Amount, t.TxHash.Hex(), t.LogIndex); err != nil {
			return fmt.Errorf("failed to append %s at block %d: %w", slot.name, rec.BlockNumber, err)
		}
	}
	if err := batch.Send(); err != nil {
		metrics.DatabaseQueriesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to write epoch transfers: %w", err)
	}
	metrics.DatabaseQueriesTotal.WithLabelValues("success").Inc()
	return nil
}

// FetchElectionRewardTotals returns the per-type reward totals observed at
// one block. Types with no rewards are absent from the result; densifying is
// the aggregator's job.
func (s *Store) FetchElectionRewardTotals(ctx context.Context, height uint64) (map[RewardType]decimal.Decimal, error) {
	conn, err := s.cfg.ClickHouse.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ClickHouse connection: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT reward_type, sum(amount)
		FROM election_rewards FINAL
		WHERE block_number = ?
		GROUP BY reward_type`, height)
	if err != nil {
		metrics.DatabaseQueriesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to query election reward totals: %w", err)
	}
	defer rows.Close()
	metrics.DatabaseQueriesTotal.WithLabelValues("success").Inc()

	sparse := make(map[RewardType]decimal.Decimal)
	for rows.Next() {
		var (
			rewardType string
			amount     decimal.Decimal
		)
		if err := rows.Scan(&rewardType, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan election reward total: %w", err)
		}
		sparse[RewardType(rewardType)] = amount
	}
	return sparse, rows.Err()
}

// FetchEpochRecord returns the epoch transfer record stored at one block, or
// false if no transfers were recorded there.
func (s *Store) FetchEpochRecord(ctx context.Context, height uint64) (*EpochRecord, bool, error) {
	conn, err := s.cfg.ClickHouse.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get ClickHouse connection: %w", err)
	}

	rows, err := conn.Query(ctx, `SELECT slot, from_address, to_address, amount, tx_hash, log_index
		FROM epoch_transfers FINAL
		WHERE block_number = ?`, height)
	if err != nil {
		metrics.DatabaseQueriesTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("failed to query epoch transfers: %w", err)
	}
	defer rows.Close()
	metrics.DatabaseQueriesTotal.WithLabelValues("success").Inc()

	rec := &EpochRecord{BlockNumber: height}
	found := false
	for rows.Next() {
		var (
			slot, fromAddress, toAddress, txHash string
			amount                               decimal.Decimal
			logIndex                             uint32
		)
		if err := rows.Scan(&slot, &fromAddress, &toAddress, &amount, &txHash, &logIndex); err != nil {
			return nil, false, fmt.Errorf("failed to scan epoch transfer: %w", err)
		}
		transfer := &tokens.Transfer{
			From:        common.HexToAddress(fromAddress),
			To:          common.HexToAddress(toAddress),
			Amount:      amount,
			TxHash:      common.HexToHash(txHash),
			LogIndex:    logIndex,
			BlockNumber: height,
		}
		switch slot {
		case SlotReserveBolster:
			rec.ReserveBolster = transfer
		case SlotCommunity:
			rec.Community = transfer
		case SlotCarbonOffsetting:
			rec.CarbonOffsetting = transfer
		default:
			s.log.Warn("epochreward/store: unknown epoch transfer slot", "slot", slot, "block", height)
			continue
		}
		found = true
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return rec, true, nil
}
