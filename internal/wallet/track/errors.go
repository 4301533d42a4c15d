package track

import "errors"

var (
	// ErrDuplicateTransaction reports a submit of an already-known
	// transaction. The existing record is returned alongside it.
	ErrDuplicateTransaction = errors.New("duplicate transaction")

	// ErrUnknownTransaction reports a query for a txid the ledger has never
	// observed.
	ErrUnknownTransaction = errors.New("unknown transaction")

	// ErrChainViewViolation reports a block event contradicting the current
	// chain view. The caller must disconnect the conflicting state first.
	ErrChainViewViolation = errors.New("chain view violation")

	// ErrInconsistentConflictGroup reports two mined members in one conflict
	// group after resolution. The offending pass is aborted without applying
	// any state change.
	ErrInconsistentConflictGroup = errors.New("inconsistent conflict group")
)
