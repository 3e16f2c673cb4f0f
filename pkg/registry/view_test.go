package registry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/carbonscan/carbonscan/pkg/testutil"
)

type mockLoader struct {
	loadSnapshotFunc func(ctx context.Context) (*Snapshot, error)
}

func (m *mockLoader) LoadSnapshot(ctx context.Context) (*Snapshot, error) {
	if m.loadSnapshotFunc != nil {
		return m.loadSnapshotFunc(ctx)
	}
	return NewSnapshot(nil, nil), nil
}

func TestCarbonscan_Registry_View_Validate(t *testing.T) {
	t.Parallel()

	t.Run("missing loader", func(t *testing.T) {
		t.Parallel()
		view, err := NewView(ViewConfig{
			Logger:          testutil.NewLogger(),
			RefreshInterval: time.Second,
		})
		require.Error(t, err)
		require.Nil(t, view)
		require.Contains(t, err.Error(), "snapshot loader is required")
	})

	t.Run("missing refresh interval", func(t *testing.T) {
		t.Parallel()
		view, err := NewView(ViewConfig{
			Logger: testutil.NewLogger(),
			Loader: &mockLoader{},
		})
		require.Error(t, err)
		require.Nil(t, view)
		require.Contains(t, err.Error(), "refresh interval")
	})
}

func TestCarbonscan_Registry_View_Refresh(t *testing.T) {
	t.Parallel()

	t.Run("not ready before first refresh", func(t *testing.T) {
		t.Parallel()

		view, err := NewView(ViewConfig{
			Logger:          testutil.NewLogger(),
			Clock:           clockwork.NewFakeClock(),
			Loader:          &mockLoader{},
			RefreshInterval: time.Second,
		})
		require.NoError(t, err)

		require.False(t, view.Ready())
		_, ok := view.Current()
		require.False(t, ok)
	})

	t.Run("ready with snapshot after successful refresh", func(t *testing.T) {
		t.Parallel()

		loader := &mockLoader{
			loadSnapshotFunc: func(ctx context.Context) (*Snapshot, error) {
				return NewSnapshot([]ContractDeployment{
					{Name: ContractGovernance, Address: governanceAddr, FromBlock: 1},
				}, nil), nil
			},
		}
		view, err := NewView(ViewConfig{
			Logger:          testutil.NewLogger(),
			Clock:           clockwork.NewFakeClock(),
			Loader:          loader,
			RefreshInterval: time.Second,
		})
		require.NoError(t, err)

		require.NoError(t, view.Refresh(t.Context()))
		require.True(t, view.Ready())

		snapshot, ok := view.Current()
		require.True(t, ok)
		addr, found := snapshot.AddressAt(ContractGovernance, 10)
		require.True(t, found)
		require.Equal(t, governanceAddr, addr)
	})

	t.Run("failed refresh keeps the previous snapshot", func(t *testing.T) {
		t.Parallel()

		calls := 0
		loader := &mockLoader{
			loadSnapshotFunc: func(ctx context.Context) (*Snapshot, error) {
				calls++
				if calls > 1 {
					return nil, errors.New("store unavailable")
				}
				return NewSnapshot([]ContractDeployment{
					{Name: ContractGovernance, Address: governanceAddr, FromBlock: 1},
				}, nil), nil
			},
		}
		view, err := NewView(ViewConfig{
			Logger:          testutil.NewLogger(),
			Clock:           clockwork.NewFakeClock(),
			Loader:          loader,
			RefreshInterval: time.Second,
		})
		require.NoError(t, err)

		require.NoError(t, view.Refresh(t.Context()))
		require.Error(t, view.Refresh(t.Context()))

		snapshot, ok := view.Current()
		require.True(t, ok, "previous snapshot should survive a failed refresh")
		_, found := snapshot.AddressAt(ContractGovernance, 10)
		require.True(t, found)
	})

	t.Run("wait ready respects context cancellation", func(t *testing.T) {
		t.Parallel()

		view, err := NewView(ViewConfig{
			Logger:          testutil.NewLogger(),
			Clock:           clockwork.NewFakeClock(),
			Loader:          &mockLoader{},
			RefreshInterval: time.Second,
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		require.Error(t, view.WaitReady(ctx))
	})
}
