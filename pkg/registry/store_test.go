package registry

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/carbonscan/carbonscan/pkg/clickhouse"
	"github.com/carbonscan/carbonscan/pkg/testutil"
)

func TestCarbonscan_Registry_Store_NewStore(t *testing.T) {
	t.Parallel()

	t.Run("returns error when config validation fails", func(t *testing.T) {
		t.Parallel()

		t.Run("missing logger", func(t *testing.T) {
			t.Parallel()
			store, err := NewStore(StoreConfig{})
			require.Error(t, err)
			require.Nil(t, store)
			require.Contains(t, err.Error(), "logger is required")
		})

		t.Run("missing clickhouse", func(t *testing.T) {
			t.Parallel()
			store, err := NewStore(StoreConfig{
				Logger: testutil.NewLogger(),
			})
			require.Error(t, err)
			require.Nil(t, store)
			require.Contains(t, err.Error(), "clickhouse connection is required")
		})
	})

	t.Run("returns store when config is valid", func(t *testing.T) {
		t.Parallel()

		db := testClient(t)

		store, err := NewStore(StoreConfig{
			Logger:     testutil.NewLogger(),
			ClickHouse: db,
		})
		require.NoError(t, err)
		require.NotNil(t, store)
	})
}

func TestCarbonscan_Registry_Store_LoadSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("round trips deployments and events", func(t *testing.T) {
		t.Parallel()

		db := testClient(t)
		ctx := clickhouse.ContextWithSyncInsert(t.Context())

		store, err := NewStore(StoreConfig{
			Logger:     testutil.NewLogger(),
			ClickHouse: db,
		})
		require.NoError(t, err)

		endBlock := uint64(999)
		err = store.ReplaceDeployments(ctx, []ContractDeployment{
			{Name: ContractGovernance, Address: governanceAddr, FromBlock: 100},
			{Name: ContractFeeHandler, Address: feeHandlerAddr, FromBlock: 1000},
			{Name: "Reserve", Address: beneficiary1, FromBlock: 50, ToBlock: &endBlock},
		})
		require.NoError(t, err)

		fraction, ok := new(big.Int).SetString("800000000000000000000000", 10)
		require.True(t, ok)
		err = store.AppendEvents(ctx, []GovernanceEvent{
			{
				Contract:    ContractFeeHandler,
				Kind:        EventBurnFractionSet,
				BlockNumber: 1200,
				Value:       fraction,
				TxHash:      common.HexToHash("0x63d0631a7bd55e717adbfe5b14a77b4ad2eede128d0e4b4e1a7e100ccde171f2"),
				LogIndex:    4,
			},
			{
				Contract:    ContractFeeHandler,
				Kind:        EventFeeBeneficiarySet,
				BlockNumber: 1200,
				Address:     beneficiary1,
				TxHash:      common.HexToHash("0x63d0631a7bd55e717adbfe5b14a77b4ad2eede128d0e4b4e1a7e100ccde171f2"),
				LogIndex:    5,
			},
		})
		require.NoError(t, err)

		snapshot, err := store.LoadSnapshot(ctx)
		require.NoError(t, err)

		addr, found := snapshot.AddressAt(ContractGovernance, 150)
		require.True(t, found)
		require.Equal(t, governanceAddr, addr)

		_, found = snapshot.AddressAt("Reserve", 1000)
		require.False(t, found, "closed range should end the deployment")

		event, found := snapshot.LatestEventAt(ContractFeeHandler, EventBurnFractionSet, 5000)
		require.True(t, found)
		require.Equal(t, fraction.String(), event.Value.String(), "24-digit fixed point value must survive the round trip exactly")
		require.Equal(t, uint32(4), event.LogIndex)

		event, found = snapshot.LatestEventAt(ContractFeeHandler, EventFeeBeneficiarySet, 5000)
		require.True(t, found)
		require.Equal(t, beneficiary1, event.Address)

		_, found = snapshot.LatestEventAt(ContractFeeHandler, EventBurnFractionSet, 1199)
		require.False(t, found)
	})

	t.Run("empty history yields only absences", func(t *testing.T) {
		t.Parallel()

		db := testClient(t)

		store, err := NewStore(StoreConfig{
			Logger:     testutil.NewLogger(),
			ClickHouse: db,
		})
		require.NoError(t, err)

		snapshot, err := store.LoadSnapshot(t.Context())
		require.NoError(t, err)

		_, found := snapshot.AddressAt(ContractGovernance, 1_000_000)
		require.False(t, found)
		_, found = snapshot.LatestEventAt(ContractFeeHandler, EventBurnFractionSet, 1_000_000)
		require.False(t, found)
	})
}
