package registry

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	feeHandlerAddr = common.HexToAddress("0xcD437749E43A154C07F3553504c68fBfD56B8778")
	governanceAddr = common.HexToAddress("0xD533Ca259b330c7A88f74E000a3FaEa2d63B7972")
	beneficiary1   = common.HexToAddress("0x5A0b54D5dc17e0AadC383d2db43B0a0D3E029c4c")
	beneficiary2   = common.HexToAddress("0x1B6A64F1ad9c0cC2C8b0C283f9a1bC40a3a9C353")
)

func testSnapshot() *Snapshot {
	deployments := []ContractDeployment{
		{Name: ContractGovernance, Address: governanceAddr, FromBlock: 100},
		{Name: ContractFeeHandler, Address: feeHandlerAddr, FromBlock: 1000},
	}
	events := []GovernanceEvent{
		{Contract: ContractFeeHandler, Kind: EventFeeBeneficiarySet, BlockNumber: 1100, Address: beneficiary1},
		{Contract: ContractFeeHandler, Kind: EventFeeBeneficiarySet, BlockNumber: 2000, Address: beneficiary2},
		{Contract: ContractFeeHandler, Kind: EventBurnFractionSet, BlockNumber: 1100, Value: big.NewInt(1)},
		{Contract: ContractFeeHandler, Kind: EventBurnFractionSet, BlockNumber: 1500, Value: big.NewInt(2)},
	}
	return NewSnapshot(deployments, events)
}

func TestCarbonscan_Registry_Snapshot_AddressAt(t *testing.T) {
	t.Parallel()

	s := testSnapshot()

	t.Run("absent before first deployment", func(t *testing.T) {
		t.Parallel()
		_, ok := s.AddressAt(ContractGovernance, 99)
		require.False(t, ok)
	})

	t.Run("present from deployment height onward", func(t *testing.T) {
		t.Parallel()
		addr, ok := s.AddressAt(ContractGovernance, 100)
		require.True(t, ok)
		require.Equal(t, governanceAddr, addr)

		addr, ok = s.AddressAt(ContractGovernance, 1_000_000)
		require.True(t, ok)
		require.Equal(t, governanceAddr, addr)
	})

	t.Run("unknown contract is absent, not an error", func(t *testing.T) {
		t.Parallel()
		_, ok := s.AddressAt("SortedOracles", 5000)
		require.False(t, ok)
	})

	t.Run("closed effective range ends the deployment", func(t *testing.T) {
		t.Parallel()
		to := uint64(500)
		s := NewSnapshot([]ContractDeployment{
			{Name: ContractGovernance, Address: governanceAddr, FromBlock: 100, ToBlock: &to},
		}, nil)

		_, ok := s.AddressAt(ContractGovernance, 500)
		require.True(t, ok)
		_, ok = s.AddressAt(ContractGovernance, 501)
		require.False(t, ok)
	})

	t.Run("redeployment supersedes at its from block", func(t *testing.T) {
		t.Parallel()
		newAddr := common.HexToAddress("0x000000000000000000000000000000000000beef")
		to := uint64(499)
		s := NewSnapshot([]ContractDeployment{
			{Name: ContractFeeHandler, Address: feeHandlerAddr, FromBlock: 100, ToBlock: &to},
			{Name: ContractFeeHandler, Address: newAddr, FromBlock: 500},
		}, nil)

		addr, ok := s.AddressAt(ContractFeeHandler, 499)
		require.True(t, ok)
		require.Equal(t, feeHandlerAddr, addr)

		addr, ok = s.AddressAt(ContractFeeHandler, 500)
		require.True(t, ok)
		require.Equal(t, newAddr, addr)
	})
}

func TestCarbonscan_Registry_Snapshot_LatestEventAt(t *testing.T) {
	t.Parallel()

	s := testSnapshot()

	t.Run("absent before first event", func(t *testing.T) {
		t.Parallel()
		_, ok := s.LatestEventAt(ContractFeeHandler, EventBurnFractionSet, 1099)
		require.False(t, ok)
	})

	t.Run("event at exactly the query height is effective", func(t *testing.T) {
		t.Parallel()
		e, ok := s.LatestEventAt(ContractFeeHandler, EventBurnFractionSet, 1100)
		require.True(t, ok)
		require.Equal(t, int64(1), e.Value.Int64())
	})

	t.Run("as-of value is stable between consecutive events", func(t *testing.T) {
		t.Parallel()
		for _, height := range []uint64{1100, 1200, 1499} {
			e, ok := s.LatestEventAt(ContractFeeHandler, EventBurnFractionSet, height)
			require.True(t, ok, "height %d", height)
			require.Equal(t, int64(1), e.Value.Int64(), "height %d", height)
		}
		for _, height := range []uint64{1500, 9999} {
			e, ok := s.LatestEventAt(ContractFeeHandler, EventBurnFractionSet, height)
			require.True(t, ok, "height %d", height)
			require.Equal(t, int64(2), e.Value.Int64(), "height %d", height)
		}
	})

	t.Run("strictly later events are never considered", func(t *testing.T) {
		t.Parallel()
		e, ok := s.LatestEventAt(ContractFeeHandler, EventFeeBeneficiarySet, 1999)
		require.True(t, ok)
		require.Equal(t, beneficiary1, e.Address)
	})

	t.Run("unknown kind is absent", func(t *testing.T) {
		t.Parallel()
		_, ok := s.LatestEventAt(ContractFeeHandler, "OwnerSet", 5000)
		require.False(t, ok)
	})

	t.Run("same-height events resolve to the highest log index", func(t *testing.T) {
		t.Parallel()
		s := NewSnapshot(nil, []GovernanceEvent{
			{Contract: ContractFeeHandler, Kind: EventBurnFractionSet, BlockNumber: 10, LogIndex: 3, Value: big.NewInt(7)},
			{Contract: ContractFeeHandler, Kind: EventBurnFractionSet, BlockNumber: 10, LogIndex: 1, Value: big.NewInt(5)},
		})
		e, ok := s.LatestEventAt(ContractFeeHandler, EventBurnFractionSet, 10)
		require.True(t, ok)
		require.Equal(t, int64(7), e.Value.Int64())
	})
}
