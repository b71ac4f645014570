package infrastructure

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

var errCommitLost = errors.New("connection lost during commit")

// commitFailDriver hands out transactions whose Commit always fails, to
// verify the failure reaches WithTransaction's caller.
type commitFailDriver struct{}

func (commitFailDriver) Open(string) (driver.Conn, error) { return &commitFailConn{}, nil }

type commitFailConn struct{}

func (*commitFailConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}
func (*commitFailConn) Close() error              { return nil }
func (*commitFailConn) Begin() (driver.Tx, error) { return commitFailTx{}, nil }

type commitFailTx struct{}

func (commitFailTx) Commit() error   { return errCommitLost }
func (commitFailTx) Rollback() error { return nil }

func init() {
	sql.Register("commitfail", commitFailDriver{})
}

func TestWithTransaction_CommitFailurePropagates(t *testing.T) {
	db, err := sql.Open("commitfail", "")
	require.NoError(t, err)
	defer db.Close()

	err = WithTransaction(db, context.Background(), func(*sql.Tx) error {
		return nil
	})
	require.ErrorIs(t, err, errCommitLost)
}

func TestWithTransaction_OperationErrorRollsBack(t *testing.T) {
	db, err := sql.Open("commitfail", "")
	require.NoError(t, err)
	defer db.Close()

	opErr := errors.New("operation failed")
	err = WithTransaction(db, context.Background(), func(*sql.Tx) error {
		return opErr
	})
	require.ErrorIs(t, err, opErr)
	require.NotErrorIs(t, err, errCommitLost)
}

func TestMapPQError_PassesThroughUnknownErrors(t *testing.T) {
	require.NoError(t, MapPQError(nil))

	plain := errors.New("some storage fault")
	require.Equal(t, plain, MapPQError(plain))
	require.NotErrorIs(t, MapPQError(plain), ErrDuplicateKey)
}
