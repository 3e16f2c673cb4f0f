package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/carbonscan/carbonscan/pkg/basefee"
	"github.com/carbonscan/carbonscan/pkg/clickhouse"
	"github.com/carbonscan/carbonscan/pkg/epochreward"
	"github.com/carbonscan/carbonscan/pkg/logger"
	"github.com/carbonscan/carbonscan/pkg/metrics"
	"github.com/carbonscan/carbonscan/pkg/registry"
	"github.com/carbonscan/carbonscan/pkg/server"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	verboseFlag := flag.Bool("verbose", false, "enable verbose (debug) logging")

	// ClickHouse configuration
	clickhouseAddrFlag := flag.String("clickhouse-addr", "", "ClickHouse address (host:port) (or set CLICKHOUSE_ADDR_TCP env var)")
	clickhouseDatabaseFlag := flag.String("clickhouse-database", clickhouse.DefaultDatabase, "ClickHouse database name (or set CLICKHOUSE_DATABASE env var)")
	clickhouseUsernameFlag := flag.String("clickhouse-username", "default", "ClickHouse username (or set CLICKHOUSE_USERNAME env var)")
	clickhousePasswordFlag := flag.String("clickhouse-password", "", "ClickHouse password (or set CLICKHOUSE_PASSWORD env var)")
	clickhouseSecureFlag := flag.Bool("clickhouse-secure", false, "Enable TLS for ClickHouse Cloud (or set CLICKHOUSE_SECURE=true env var)")

	// Commands
	migrateFlag := flag.Bool("clickhouse-migrate", false, "Run ClickHouse database migrations using goose")
	migrateStatusFlag := flag.Bool("clickhouse-migrate-status", false, "Show ClickHouse database migration status")
	blockReportFlag := flag.Int64("block-report", -1, "Print the fee disposal and epoch reward report for one block and exit")
	baseFeeFlag := flag.String("base-fee", "0", "Base fee amount for --block-report")

	// Serve options
	listenAddrFlag := flag.String("listen-addr", ":8080", "HTTP listen address for health and metrics endpoints")
	refreshIntervalFlag := flag.Duration("refresh-interval", 5*time.Minute, "Registry snapshot refresh interval")

	flag.Parse()

	log := logger.New(*verboseFlag)

	// Override ClickHouse flags with environment variables if set
	if envClickhouseAddr := os.Getenv("CLICKHOUSE_ADDR_TCP"); envClickhouseAddr != "" {
		*clickhouseAddrFlag = envClickhouseAddr
	}
	if envClickhouseDatabase := os.Getenv("CLICKHOUSE_DATABASE"); envClickhouseDatabase != "" {
		*clickhouseDatabaseFlag = envClickhouseDatabase
	}
	if envClickhouseUsername := os.Getenv("CLICKHOUSE_USERNAME"); envClickhouseUsername != "" {
		*clickhouseUsernameFlag = envClickhouseUsername
	}
	if envClickhousePassword := os.Getenv("CLICKHOUSE_PASSWORD"); envClickhousePassword != "" {
		*clickhousePasswordFlag = envClickhousePassword
	}
	if os.Getenv("CLICKHOUSE_SECURE") == "true" {
		*clickhouseSecureFlag = true
	}

	if *clickhouseAddrFlag == "" {
		return fmt.Errorf("--clickhouse-addr is required")
	}

	migrationConfig := clickhouse.MigrationConfig{
		Addr:     *clickhouseAddrFlag,
		Database: *clickhouseDatabaseFlag,
		Username: *clickhouseUsernameFlag,
		Password: *clickhousePasswordFlag,
		Secure:   *clickhouseSecureFlag,
	}

	if *migrateFlag {
		return clickhouse.RunMigrations(context.Background(), log, migrationConfig)
	}
	if *migrateStatusFlag {
		return clickhouse.MigrationStatus(context.Background(), log, migrationConfig)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := clickhouse.NewClient(ctx, log, *clickhouseAddrFlag, *clickhouseDatabaseFlag, *clickhouseUsernameFlag, *clickhousePasswordFlag, *clickhouseSecureFlag)
	if err != nil {
		return err
	}
	defer db.Close()

	registryStore, err := registry.NewStore(registry.StoreConfig{
		Logger:     log,
		ClickHouse: db,
	})
	if err != nil {
		return fmt.Errorf("failed to create registry store: %w", err)
	}

	registryView, err := registry.NewView(registry.ViewConfig{
		Logger:          log,
		Loader:          registryStore,
		RefreshInterval: *refreshIntervalFlag,
	})
	if err != nil {
		return fmt.Errorf("failed to create registry view: %w", err)
	}

	if *blockReportFlag >= 0 {
		return blockReport(ctx, log, db, registryView, uint64(*blockReportFlag), *baseFeeFlag)
	}

	metrics.BuildInfo.WithLabelValues(version, commit, date).Set(1)

	srv, err := server.New(log, server.Config{
		ListenAddr:        *listenAddrFlag,
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		VersionInfo: server.VersionInfo{
			Version: version,
			Commit:  commit,
			Date:    date,
		},
		RegistryView: registryView,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return srv.Run(ctx)
}

// blockReportOutput is the one-shot CLI report shape.
type blockReportOutput struct {
	basefee.BlockFeeReport
	ElectionRewards epochreward.Totals          `json:"election_rewards,omitempty"`
	EpochTransfers  *epochreward.EpochTransfers `json:"epoch_transfers,omitempty"`
}

// blockReport resolves one block's fee disposal and epoch reward data and
// prints it as JSON.
func blockReport(ctx context.Context, log *slog.Logger, db clickhouse.Client, view *registry.View, height uint64, baseFeeStr string) error {
	baseFee, err := decimal.NewFromString(baseFeeStr)
	if err != nil {
		return fmt.Errorf("invalid --base-fee %q: %w", baseFeeStr, err)
	}

	if err := view.Refresh(ctx); err != nil {
		return err
	}
	snapshot, ok := view.Current()
	if !ok {
		return fmt.Errorf("registry snapshot unavailable")
	}

	calculator, err := basefee.NewCalculator(basefee.CalculatorConfig{
		Logger:   log,
		Resolver: snapshot,
	})
	if err != nil {
		return fmt.Errorf("failed to create calculator: %w", err)
	}

	rewardStore, err := epochreward.NewStore(epochreward.StoreConfig{
		Logger:     log,
		ClickHouse: db,
	})
	if err != nil {
		return fmt.Errorf("failed to create reward store: %w", err)
	}
	aggregator, err := epochreward.NewAggregator(epochreward.AggregatorConfig{
		Logger: log,
		Data:   rewardStore,
	})
	if err != nil {
		return fmt.Errorf("failed to create aggregator: %w", err)
	}

	out := blockReportOutput{
		BlockFeeReport: basefee.BlockFeeReport{
			BlockNumber:         height,
			BaseFeeDistribution: calculator.Compute(baseFee, height).Render(),
		},
	}

	// The two epoch lookups are independent reads; fetch them concurrently.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		totals, ok, err := aggregator.ElectionRewardTotalsAt(gctx, height)
		if err != nil {
			return err
		}
		if ok {
			out.ElectionRewards = totals
		}
		return nil
	})
	g.Go(func() error {
		transfers, err := aggregator.EpochTransfersAt(gctx, height)
		if err != nil {
			return err
		}
		out.EpochTransfers = transfers
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
