package postgres

import (
	"math/big"
	"os"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"
	"github.com/wallkanda/exchange-svc/internal/assets"
	"github.com/wallkanda/exchange-svc/internal/data"
	"github.com/wallkanda/exchange-svc/internal/types"
	"gitlab.com/distributed_lab/kit/pgdb"
)

// openTestDB connects to the database named by EXCHANGE_TEST_DB_URL and
// migrates it up.
func openTestDB(t *testing.T) *pgdb.DB {
	url := os.Getenv("EXCHANGE_TEST_DB_URL")
	if url == "" {
		t.Skip("EXCHANGE_TEST_DB_URL is not set")
	}
	db, err := pgdb.Open(pgdb.Opts{URL: url, MaxOpenConnections: 8, MaxIdleConnections: 8})
	require.NoError(t, err)

	_, err = migrate.Exec(db.RawDB(), "postgres", &migrate.EmbedFileSystemMigrationSource{
		FileSystem: assets.Migrations,
		Root:       "migrations",
	}, migrate.Up)
	require.NoError(t, err)
	return db
}

// freshKey returns a key no other run has used.
func freshKey(t *testing.T) types.OrderKey {
	k, err := crypto.GenerateKey()
	require.NoError(t, err)
	return types.OrderKey{
		Schema:   types.SchemaV1,
		Exchange: common.HexToAddress("0xe0"),
		Maker:    crypto.PubkeyToAddress(k.PublicKey),
		Nonce:    big.NewInt(1),
	}
}

func TestSettleConcurrentFirstFills(t *testing.T) {
	db := openTestDB(t)
	fills := NewFills(db)
	key := freshKey(t)

	const buyers = 4
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		settled int
	)
	errs := make([]error, buyers)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = fills.Settle(key, big.NewInt(2), big.NewInt(3), func(*big.Int) error {
				mu.Lock()
				settled++
				mu.Unlock()
				return nil
			})
		}(i)
	}
	wg.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			require.Equal(t, data.ErrFillExceeded, err)
			failed++
		}
	}
	require.Equal(t, buyers-1, failed)
	require.Equal(t, 1, settled)

	f, err := fills.Get(key)
	require.NoError(t, err)
	require.Equal(t, int64(2), f.Filled.Int64())
	require.False(t, f.Closed)
}

func TestSettleRejectionLeavesNoRow(t *testing.T) {
	fills := NewFills(openTestDB(t))
	key := freshKey(t)

	_, err := fills.Settle(key, big.NewInt(4), big.NewInt(3), func(*big.Int) error { return nil })
	require.Equal(t, data.ErrFillExceeded, err)

	f, err := fills.Get(key)
	require.NoError(t, err)
	require.Nil(t, f)
}

func TestRecordSkipsReplayedLogs(t *testing.T) {
	fills := NewFills(openTestDB(t))
	key := freshKey(t)
	log := data.LogID{TxHash: common.BytesToHash(key.Maker.Bytes()), Index: 3}

	require.NoError(t, fills.Record(key, big.NewInt(3), log))
	require.NoError(t, fills.Record(key, big.NewInt(3), log))
	require.NoError(t, fills.Record(key, big.NewInt(1), data.LogID{TxHash: log.TxHash, Index: 4}))

	f, err := fills.Get(key)
	require.NoError(t, err)
	require.Equal(t, int64(4), f.Filled.Int64())
}
