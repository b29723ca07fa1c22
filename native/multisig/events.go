package multisig

import (
	"encoding/hex"
	"strconv"

	"nftlend/core/types"
)

const (
	EventTypeInitialized = "multisig.initialized"
	EventTypeProposed    = "multisig.transaction.proposed"
	EventTypeApproved    = "multisig.transaction.approved"
	EventTypeExecuted    = "multisig.transaction.executed"
)

// NewInitializedEvent returns the payload emitted when the singleton multisig
// record is created.
func NewInitializedEvent(m *Multisig) *types.Event {
	attrs := make(map[string]string)
	if m != nil {
		attrs["owners"] = strconv.Itoa(len(m.Owners))
		attrs["threshold"] = strconv.FormatUint(m.Threshold, 10)
	}
	return &types.Event{Type: EventTypeInitialized, Attributes: attrs}
}

// NewProposedEvent returns the payload emitted when an owner submits a
// transaction.
func NewProposedEvent(tx *Transaction) *types.Event {
	attrs := txAttrs(tx)
	if tx != nil {
		attrs["proposer"] = hex.EncodeToString(tx.Proposer[:])
	}
	return &types.Event{Type: EventTypeProposed, Attributes: attrs}
}

// NewApprovedEvent returns the payload emitted when an owner signs a pending
// transaction.
func NewApprovedEvent(tx *Transaction, owner [20]byte) *types.Event {
	attrs := txAttrs(tx)
	attrs["owner"] = hex.EncodeToString(owner[:])
	return &types.Event{Type: EventTypeApproved, Attributes: attrs}
}

// NewExecutedEvent returns the payload emitted when a transaction reaches
// quorum and its instruction is applied.
func NewExecutedEvent(tx *Transaction) *types.Event {
	return &types.Event{Type: EventTypeExecuted, Attributes: txAttrs(tx)}
}

func txAttrs(tx *Transaction) map[string]string {
	attrs := make(map[string]string)
	if tx == nil {
		return attrs
	}
	attrs["id"] = hex.EncodeToString(tx.ID[:])
	attrs["seqno"] = strconv.FormatUint(tx.Seqno, 10)
	attrs["program"] = tx.Program
	attrs["approvals"] = strconv.Itoa(len(tx.Approvals))
	return attrs
}
