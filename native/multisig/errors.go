package multisig

import "nftlend/native/common"

// Coded conditions surfaced by the multisig module. Codes are stable; messages
// are the published human-readable descriptions.
var (
	ErrNotEnoughSigners   = common.NewError(common.CodeNotEnoughSigners, "not enough owners signed this transaction")
	ErrSeqnoOverflow      = common.NewError(common.CodeOverflow, "sequence number overflow")
	ErrDuplicateOwner     = common.NewError(common.CodeDuplicateOwner, "owners must be unique")
	ErrAlreadyExecuted    = common.NewError(common.CodeAlreadyExecuted, "the given transaction has already been executed")
	ErrInvalidThreshold   = common.NewError(common.CodeInvalidThreshold, "threshold must be at least one and at most the number of owners")
	ErrAlreadyInitialized = common.NewError(common.CodeMultisigInitialized, "the multisig is already initialized")
	ErrInvalidOwner       = common.NewError(common.CodeInvalidOwner, "the given owner is not part of this multisig")
	ErrInvalidOwnersLen   = common.NewError(common.CodeInvalidOwnersLen, "owners list must not be empty")
	ErrAlreadyApproved    = common.NewError(common.CodeAlreadyApproved, "owner has already approved this transaction")
	ErrNotFound           = common.NewError(common.CodeNotFound, "record not found")
)
