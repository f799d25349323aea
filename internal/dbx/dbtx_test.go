package dbx

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:dbx_test?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(2)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS items (id INTEGER PRIMARY KEY, v TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM items`)
	require.NoError(t, err)
	return db
}

// insertAndCount is a stand-in for repository code written against DBTX.
func insertAndCount(ctx context.Context, db DBTX, v string) (int, error) {
	if _, err := db.ExecContext(ctx, `INSERT INTO items (v) VALUES (?)`, v); err != nil {
		return 0, err
	}
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n)
	return n, err
}

func TestDBTX_SatisfiedByDB(t *testing.T) {
	db := setupDB(t)

	n, err := insertAndCount(context.Background(), db, "a")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestDBTX_SatisfiedByTx(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)

	n, err := insertAndCount(ctx, tx, "a")
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// Rolled back, so the insert never becomes visible outside the tx.
	require.NoError(t, tx.Rollback())

	var after int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&after))
	require.Equal(t, 0, after)
}
