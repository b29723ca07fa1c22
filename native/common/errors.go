package common

import "fmt"

// Error pairs a stable numeric code with a human-readable message so callers
// and off-chain tooling can match failures without string comparison. Protocol
// modules declare their conditions as package-level *Error values, which keeps
// them usable with errors.Is.
type Error struct {
	code    uint32
	message string
}

// NewError constructs a coded protocol error.
func NewError(code uint32, message string) *Error {
	return &Error{code: code, message: message}
}

// Code returns the stable numeric identifier for the condition.
func (e *Error) Code() uint32 {
	if e == nil {
		return 0
	}
	return e.code
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("[%d] %s", e.code, e.message)
}

// Stable condition codes shared across protocol modules. The numbering follows
// the platform's published error table and must never be reordered.
const (
	CodeNotEnoughSigners uint32 = iota
	CodeOverflow
	CodeDuplicateOwner
	CodeAlreadyExecuted
	CodeInvalidThreshold
	CodeMultisigInitialized
	CodeInvalidOwner
	CodeInvalidOwnersLen
	CodeMathOverflow
	CodeInsufficientFunds
	CodeUnableToCancel
	CodeMaxBorrowExceeded
	CodeInvalidAccount
	CodeInvalidStatus
	CodeLoanEnded
	CodeLoanDefaulted
	CodeCantRefreshLoan
	CodeFeeAlreadyWithdrawn
	CodeFeeAlreadyCollected
	CodeInvalidLoanState
	CodeOverpayment
	CodeAlreadyWithdrawn
	CodeEscrowNotEmpty
	CodeNotFound
	CodeAlreadyApproved
)
