package core

import (
	"errors"
	"fmt"

	errorsmod "cosmossdk.io/errors"
)

// Codespace is the error codespace shared by every adapter in this module.
const Codespace = "hyperlane"

// Sentinel errors. Callers classify failures with errors.Is.
var (
	// ErrChainCommunication is a transport or RPC failure. It is retryable by the caller.
	ErrChainCommunication = errorsmod.Register(Codespace, 2, "chain communication error")
	// ErrBatchingFailed signals that an adapter cannot submit several messages atomically.
	// It is a capability-negotiation signal: callers fall back to sequential processing.
	ErrBatchingFailed = errorsmod.Register(Codespace, 3, "batching not supported")
	// ErrDecode is a malformed or out-of-range response. It is never retryable.
	ErrDecode = errorsmod.Register(Codespace, 4, "decode error")
	// ErrUnsupportedCapability is returned when a chain family does not implement a capability.
	ErrUnsupportedCapability = errorsmod.Register(Codespace, 5, "capability not supported by chain family")
	// ErrUnknownProtocol is returned by the factory for an unregistered chain family tag.
	ErrUnknownProtocol = errorsmod.Register(Codespace, 6, "unknown chain protocol")
	// ErrInvalidConfig is returned for configuration that cannot produce a working adapter.
	ErrInvalidConfig = errorsmod.Register(Codespace, 7, "invalid configuration")
	// ErrNoSubmitter is returned by write operations when no transaction submitter was configured.
	ErrNoSubmitter = errorsmod.Register(Codespace, 8, "no transaction submitter configured")
	// ErrTxRejected is a transaction the chain refused before inclusion, such as one with an
	// insufficient fee. Resubmitting the same transaction fails the same way.
	ErrTxRejected = errorsmod.Register(Codespace, 9, "transaction rejected")
)

// CommunicationError marks err as a chain communication failure of op.
func CommunicationError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrChainCommunication, op, err)
}

// DecodeError marks err as a decode failure of op.
func DecodeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDecode, op, err)
}

// IsRetryable reports whether err is a transport failure the orchestrator may retry.
// Decode failures and rejected transactions are never retryable, even when they surface
// through a communication path.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, ErrDecode) || errors.Is(err, ErrTxRejected) {
		return false
	}
	return errors.Is(err, ErrChainCommunication)
}

// InvariantViolation is the panic value raised when an adapter observes on-chain data its
// model of the contract does not allow. It indicates stale adapter assumptions and is not
// meant to be recovered and retried.
type InvariantViolation struct {
	Contract string
	Detail   string
}

func (v InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation in %s: %s", v.Contract, v.Detail)
}
