package storage

import "errors"

var (
	// ErrAlreadyInTx is returned by operations that must run on the base
	// handle, such as Begin or migrations, when called on a transaction.
	ErrAlreadyInTx = errors.New("already in tx")
	// ErrNotInTx is returned by Commit or Rollback on the base handle.
	ErrNotInTx = errors.New("not in tx")
)
