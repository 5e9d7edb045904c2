package attribution

import "errors"

// Sentinel errors for the attribution engine's fatal paths. Everything
// else (missing bundle entry, unreadable source, empty code, truncated
// bytecode) is a warning logged by the collaborator that discovered it and
// does not stop the run.
var (
	// ErrRPCFailure wraps any chain-collaborator failure; the run cannot
	// proceed without the transaction, receipt, or trace.
	ErrRPCFailure = errors.New("attribution: rpc failure")

	// ErrEntryNotAContract is returned when the transaction's entry target
	// has no deployed code. This is a clean, non-fatal exit: there is
	// simply nothing to profile.
	ErrEntryNotAContract = errors.New("attribution: entry address is not a contract")

	// ErrTraceTruncated is returned when a CALL-family instruction with a
	// resolvable target is the last step of the trace, so whether it pushed
	// a frame can never be known. A CREATE that never re-emerges at the
	// caller's depth has no target address and pushes no frame instead of
	// returning this error. The source is silent on this case; treated here
	// as a malformed-trace fatal error.
	ErrTraceTruncated = errors.New("attribution: trace truncated mid-call")
)
