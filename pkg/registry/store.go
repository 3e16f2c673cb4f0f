package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/carbonscan/carbonscan/pkg/clickhouse"
	"github.com/carbonscan/carbonscan/pkg/metrics"
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

// Store persists contract deployments and governance events in ClickHouse
// and loads them back as an as-of snapshot.
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

func (s *Store) ReplaceDeployments(ctx context.Context, deployments []ContractDeployment) error {
	s.log.Debug("registry/store: replacing deployments", "count", len(deployments))
	if len(deployments) == 0 {
		return nil
	}

	conn, err := s.cfg.ClickHouse.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get ClickHouse connection: %w", err)
	}

	batch, err := conn.PrepareBatch(ctx, "INSERT INTO contract_deployments (name, address, from_block, to_block)")
	if err != nil {
		return fmt.Errorf("failed to prepare deployments batch: %w", err)
	}
	for _, d := range deployments {
		if err := batch.Append(d.Name, d.Address.Hex(), d.FromBlock, d.ToBlock); err != nil {
			return fmt.Errorf("failed to append deployment %s@%d: %w", d.Name, d.FromBlock, err)
		}
	}
	if err := batch.Send(); err != nil {
		metrics.DatabaseQueriesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to write deployments: %w", err)
	}
	metrics.DatabaseQueriesTotal.WithLabelValues("success").Inc()
	return nil
}

func (s *Store) AppendEvents(ctx context.Context, events []GovernanceEvent) error {
	s.log.Debug("registry/store: appending governance events", "count", len(events))
	if len(events) == 0 {
		return nil
	}

	conn, err := s.cfg.ClickHouse.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get ClickHouse connection: %w", err)
	}

	batch, err := conn.PrepareBatch(ctx, "INSERT INTO governance_events (contract, kind, block_number, address, value, tx_hash, log_index)")
	if err != nil {
		return fmt.Errorf("failed to prepare events batch: %w", err)
	}
	for _, e := range events {
		value := decimal.Zero
		if e.Value != nil {
			value = decimal.NewFromBigInt(e.Value, 0)
		}
		if err := batch.Append(e.Contract, e.Kind, e.BlockNumber, e.Address.Hex(), value, e.TxHash.Hex(), e.LogIndex); err != nil {
			return fmt.Errorf("failed to append event %s/%s@%d: %w", e.Contract, e.Kind, e.BlockNumber, err)
		}
	}
	if err := batch.Send(); err != nil {
		metrics.DatabaseQueriesTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to write governance events: %w", err)
	}
	metrics.DatabaseQueriesTotal.WithLabelValues("success").Inc()
	return nil
}

// LoadSnapshot reads the full deployment and event history into an in-memory
// as-of index. The history is small (tens of deployments, hundreds of
// governance events over a chain's lifetime), so a full load per refresh is
// cheaper than per-block queries.
func (s *Store) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	conn, err := s.cfg.ClickHouse.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get ClickHouse connection: %w", err)
	}

	deployments, err := s.loadDeployments(ctx, conn)
	if err != nil {
		return nil, err
	}
	events, err := s.loadEvents(ctx, conn)
	if err != nil {
		return nil, err
	}

	s.log.Debug("registry/store: loaded snapshot", "deployments", len(deployments), "events", len(events))
	return NewSnapshot(deployments, events), nil
}

func (s *Store) loadDeployments(ctx context.Context, conn clickhouse.Connection) ([]ContractDeployment, error) {
	rows, err := conn.Query(ctx, `SELECT name, address, from_block, to_block
		FROM contract_deployments FINAL
		ORDER BY name, from_block`)
	if err != nil {
		metrics.DatabaseQueriesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to query deployments: %w", err)
	}
	defer rows.Close()
	metrics.DatabaseQueriesTotal.WithLabelValues("success").Inc()

	var deployments []ContractDeployment
	for rows.Next() {
		var (
			name, address string
			fromBlock     uint64
			toBlock       *uint64
		)
		if err := rows.Scan(&name, &address, &fromBlock, &toBlock); err != nil {
			return nil, fmt.Errorf("failed to scan deployment: %w", err)
		}
		deployments = append(deployments, ContractDeployment{
			Name:      name,
			Address:   common.HexToAddress(address),
			FromBlock: fromBlock,
			ToBlock:   toBlock,
		})
	}
	return deployments, rows.Err()
}

func (s *Store) loadEvents(ctx context.Context, conn clickhouse.Connection) ([]GovernanceEvent, error) {
	rows, err := conn.Query(ctx, `SELECT contract, kind, block_number, address, value, tx_hash, log_index
		FROM governance_events FINAL
		ORDER BY contract, kind, block_number, log_index`)
	if err != nil {
		metrics.DatabaseQueriesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to query governance events: %w", err)
	}
	defer rows.Close()
	metrics.DatabaseQueriesTotal.WithLabelValues("success").Inc()

	var events []GovernanceEvent
	for rows.Next() {
		var (
			contract, kind, address, txHash string
			blockNumber                     uint64
			value                           decimal.Decimal
			logIndex                        uint32
		)
		if err := rows.Scan(&contract, &kind, &blockNumber, &address, &value, &txHash, &logIndex); err != nil {
			return nil, fmt.Errorf("failed to scan governance event: %w", err)
		}
		events = append(events, GovernanceEvent{
			Contract:    contract,
			Kind:        kind,
			BlockNumber: blockNumber,
			Address:     common.HexToAddress(address),
			Value:       value.BigInt(),
			TxHash:      common.HexToHash(txHash),
			LogIndex:    logIndex,
		})
	}
	return events, rows.Err()
}
