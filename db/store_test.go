package db

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInsertAndListSwaps(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	swap, err := store.InsertSwap(ctx, InsertSwapParams{
		Wallet:     "0x1111111111111111111111111111111111111111",
		ChainID:    146,
		Provider:   "okx",
		FromSymbol: "SONIC",
		ToSymbol:   "USDC",
		FromAmount: "10",
		ToAmount:   "12.3628",
	})
	require.NoError(t, err)
	require.NotZero(t, swap.ID)
	require.Len(t, swap.ShortID, 8)
	require.Equal(t, "pending", swap.Status)

	recent, err := store.ListRecentSwaps(ctx, "0x1111111111111111111111111111111111111111", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, swap.ShortID, recent[0].ShortID)

	// Other wallets see nothing.
	recent, err = store.ListRecentSwaps(ctx, "0x2222222222222222222222222222222222222222", 10)
	require.NoError(t, err)
	require.Empty(t, recent)
}

func TestUpdateSwapResult(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	swap, err := store.InsertSwap(ctx, InsertSwapParams{
		Wallet: "0x1111111111111111111111111111111111111111", ChainID: 146,
		Provider: "okx", FromSymbol: "SONIC", ToSymbol: "USDC",
		FromAmount: "10", ToAmount: "12.3628",
	})
	require.NoError(t, err)

	err = store.UpdateSwapResult(ctx, UpdateSwapResultParams{
		ID:        swap.ID,
		Status:    "completed",
		TxHash:    "0xabc",
		Simulated: true,
		Reason:    "credentials not configured",
	})
	require.NoError(t, err)

	recent, err := store.ListRecentSwaps(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, "completed", recent[0].Status)
	require.True(t, recent[0].Simulated)
	require.Equal(t, "credentials not configured", recent[0].Reason)
}

func TestListPendingSwapsExcludesSimulated(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	insert := func() Swap {
		swap, err := store.InsertSwap(ctx, InsertSwapParams{
			Wallet: "0x1111111111111111111111111111111111111111", ChainID: 146,
			Provider: "okx", FromSymbol: "SONIC", ToSymbol: "USDC",
			FromAmount: "10", ToAmount: "12.3628",
		})
		require.NoError(t, err)
		return swap
	}

	// Pending but unsent: no tx hash yet, not trackable.
	insert()

	// Simulated and closed out at execution time: never tracked.
	simulated := insert()
	require.NoError(t, store.UpdateSwapResult(ctx, UpdateSwapResultParams{
		ID: simulated.ID, Status: "completed", TxHash: "0xsim", Simulated: true,
	}))

	// Real pending swap with a tx hash: this is the tracker's work queue.
	tracked := insert()
	require.NoError(t, store.UpdateSwapResult(ctx, UpdateSwapResultParams{
		ID: tracked.ID, Status: "pending", TxHash: "0xreal",
	}))

	pending, err := store.ListPendingSwaps(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, tracked.ID, pending[0].ID)
}

func TestAPIRequestLog(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.InsertAPIRequest(ctx, InsertAPIRequestParams{
		Provider:       "okx",
		Method:         "GET",
		Url:            "https://web3.okx.com/api/v5/dex/aggregator/quote",
		ResponseStatus: sql.NullInt64{Int64: 200, Valid: true},
		DurationMs:     sql.NullInt64{Int64: 42, Valid: true},
	})
	require.NoError(t, err)

	err = store.InsertAPIRequest(ctx, InsertAPIRequestParams{
		Provider: "okx",
		Method:   "GET",
		Url:      "https://web3.okx.com/api/v5/dex/aggregator/swap",
		Error:    sql.NullString{String: "connection refused", Valid: true},
	})
	require.NoError(t, err)

	total, err := store.CountAPIRequests(ctx, "okx", false)
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	failed, err := store.CountAPIRequests(ctx, "okx", true)
	require.NoError(t, err)
	require.Equal(t, int64(1), failed)

	other, err := store.CountAPIRequests(ctx, "openocean", false)
	require.NoError(t, err)
	require.Zero(t, other)
}
