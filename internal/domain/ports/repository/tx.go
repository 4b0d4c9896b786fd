package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an alias so repository implementations may spell the parameter
// `qx any` and still satisfy the port interfaces.
type Tx = any

var NoTX Tx

// TransactionManager runs a function inside a database transaction, handing the
// transaction to repositories through the opaque Tx parameter. Use-case code
// stays free of storage types; repositories accept a nil Tx for the
// non-transactional path and a concrete handle (pgx.Tx for Postgres) inside
// WithTx callbacks.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
