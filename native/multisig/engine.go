package multisig

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"nftlend/core/events"
	"nftlend/core/types"
	"nftlend/crypto"
)

var errNilState = errors.New("multisig engine: state not configured")

var (
	seedMultisig    = []byte("multisig")
	seedTransaction = []byte("multisig_transaction")
)

type multisigEvent struct {
	evt *types.Event
}

func (e multisigEvent) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e multisigEvent) Event() *types.Event { return e.evt }

type engineState interface {
	MultisigGet() (*Multisig, bool, error)
	MultisigPut(m *Multisig) error
	MultisigGetTransaction(id [32]byte) (*Transaction, bool, error)
	MultisigPutTransaction(tx *Transaction) error
}

// Engine runs the propose/approve/execute pipeline gating every privileged
// operation. Owner-set mutations are applied by the engine itself; all other
// instructions dispatch through the wired registry.
type Engine struct {
	state    engineState
	registry *Registry
	emitter  events.Emitter
}

// NewEngine constructs a multisig engine with an empty registry and a no-op
// emitter.
func NewEngine() *Engine {
	return &Engine{
		registry: NewRegistry(),
		emitter:  events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// Registry exposes the handler registry so hosts can bind privileged
// operations before the engine executes transactions.
func (e *Engine) Registry() *Registry {
	if e == nil {
		return nil
	}
	return e.registry
}

func (e *Engine) emit(event *types.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(multisigEvent{evt: event})
}

func (e *Engine) requireState() (engineState, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state, nil
}

// AuthorityAddress returns the multisig's derived authority account. No
// private key exists for it; escrows and privileged records are owned by this
// address.
func AuthorityAddress() ([20]byte, error) {
	addr, _, err := crypto.DeriveAddress(seedMultisig)
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Raw(), nil
}

// TransactionID returns the identifier for the proposal stamped with the
// given sequence number.
func TransactionID(seqno uint64) [32]byte {
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], seqno)
	return crypto.DeriveRecordID(seedTransaction, nonce[:])
}

func validateOwnerSet(owners [][20]byte, threshold uint64) error {
	if len(owners) == 0 {
		return ErrInvalidOwnersLen
	}
	seen := make(map[[20]byte]struct{}, len(owners))
	for _, owner := range owners {
		if _, dup := seen[owner]; dup {
			return ErrDuplicateOwner
		}
		seen[owner] = struct{}{}
	}
	if threshold == 0 || threshold > uint64(len(owners)) {
		return ErrInvalidThreshold
	}
	return nil
}

// Initialize creates the singleton multisig record. It can only ever succeed
// once; owner-set changes afterwards go through the transaction pipeline.
func (e *Engine) Initialize(owners [][20]byte, threshold uint64) (*Multisig, error) {
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	if _, exists, err := state.MultisigGet(); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrAlreadyInitialized
	}
	if err := validateOwnerSet(owners, threshold); err != nil {
		return nil, err
	}
	m := &Multisig{
		Owners:    append([][20]byte(nil), owners...),
		Threshold: threshold,
	}
	if err := state.MultisigPut(m); err != nil {
		return nil, err
	}
	e.emit(NewInitializedEvent(m))
	return m.Clone(), nil
}

// Multisig loads the singleton record.
func (e *Engine) Multisig() (*Multisig, error) {
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	m, ok, err := state.MultisigGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	return m.Clone(), nil
}

// CreateTransaction records a proposal from a current owner. The proposal is
// stamped with the multisig's seqno, the seqno advances, and the proposer's
// approval is implicit.
func (e *Engine) CreateTransaction(proposer [20]byte, program string, accounts []TransactionAccount, payload []byte) (*Transaction, error) {
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	m, ok, err := state.MultisigGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if !m.IsOwner(proposer) {
		return nil, ErrInvalidOwner
	}
	if m.Seqno == math.MaxUint64 {
		return nil, ErrSeqnoOverflow
	}

	tx := &Transaction{
		ID:        TransactionID(m.Seqno),
		Proposer:  proposer,
		Program:   program,
		Accounts:  append([]TransactionAccount(nil), accounts...),
		Payload:   append([]byte(nil), payload...),
		Approvals: [][20]byte{proposer},
		Seqno:     m.Seqno,
	}
	m.Seqno++
	if err := state.MultisigPutTransaction(tx); err != nil {
		return nil, err
	}
	if err := state.MultisigPut(m); err != nil {
		return nil, err
	}
	e.emit(NewProposedEvent(tx))
	return tx.Clone(), nil
}

// Approve adds a distinct current owner's signature to a pending proposal.
// Re-approval is refused rather than double-counted.
func (e *Engine) Approve(owner [20]byte, txID [32]byte) (*Transaction, error) {
	state, err := e.requireState()
	if err != nil {
		return nil, err
	}
	m, ok, err := state.MultisigGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if !m.IsOwner(owner) {
		return nil, ErrInvalidOwner
	}
	tx, ok, err := state.MultisigGetTransaction(txID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	if tx.DidExecute {
		return nil, ErrAlreadyExecuted
	}
	if tx.ApprovedBy(owner) {
		return nil, ErrAlreadyApproved
	}
	tx.Approvals = append(tx.Approvals, owner)
	if err := state.MultisigPutTransaction(tx); err != nil {
		return nil, err
	}
	e.emit(NewApprovedEvent(tx, owner))
	return tx.Clone(), nil
}

// currentApprovals counts recorded approvals that still belong to current
// owners, so signatures from since-removed owners never count toward quorum.
func currentApprovals(m *Multisig, tx *Transaction) uint64 {
	var count uint64
	for _, a := range tx.Approvals {
		if m.IsOwner(a) {
			count++
		}
	}
	return count
}

// ExecuteTransaction applies a proposal once quorum is reached. Account
// entries matching the derived authority are rewritten to carry the signer
// capability before the payload is dispatched. Execution is terminal.
func (e *Engine) ExecuteTransaction(txID [32]byte) error {
	state, err := e.requireState()
	if err != nil {
		return err
	}
	m, ok, err := state.MultisigGet()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	tx, ok, err := state.MultisigGetTransaction(txID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	if tx.DidExecute {
		return ErrAlreadyExecuted
	}
	if currentApprovals(m, tx) < m.Threshold {
		return ErrNotEnoughSigners
	}
	payload, err := decodePayload(tx.Payload)
	if err != nil {
		return err
	}

	authority, err := AuthorityAddress()
	if err != nil {
		return err
	}
	accounts := append([]TransactionAccount(nil), tx.Accounts...)
	for i := range accounts {
		if accounts[i].Address == authority {
			accounts[i].IsSigner = true
		}
	}

	switch payload.Method {
	case MethodSetOwners, MethodSetOwnersAndThreshold, MethodChangeThreshold:
		if err := e.applyOwnerMutation(state, m, payload); err != nil {
			return err
		}
	default:
		if err := e.registry.dispatch(Authority{Address: authority}, accounts, payload); err != nil {
			return err
		}
	}

	tx.DidExecute = true
	if err := state.MultisigPutTransaction(tx); err != nil {
		return err
	}
	e.emit(NewExecutedEvent(tx))
	return nil
}

// OwnersParams carries a replacement owner set, bech32-encoded.
type OwnersParams struct {
	Owners []string `json:"owners"`
}

// OwnersAndThresholdParams replaces the owner set and threshold atomically.
type OwnersAndThresholdParams struct {
	Owners    []string `json:"owners"`
	Threshold uint64   `json:"threshold"`
}

// ThresholdParams carries a new approval threshold.
type ThresholdParams struct {
	Threshold uint64 `json:"threshold"`
}

func decodeOwners(encoded []string) ([][20]byte, error) {
	owners := make([][20]byte, 0, len(encoded))
	for _, raw := range encoded {
		addr, err := crypto.DecodeAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("multisig: decode owner %q: %w", raw, err)
		}
		owners = append(owners, addr.Raw())
	}
	return owners, nil
}

func (e *Engine) applyOwnerMutation(state engineState, m *Multisig, payload Payload) error {
	switch payload.Method {
	case MethodSetOwners:
		var params OwnersParams
		if err := json.Unmarshal(payload.Params, &params); err != nil {
			return fmt.Errorf("multisig: decode set_owners params: %w", err)
		}
		owners, err := decodeOwners(params.Owners)
		if err != nil {
			return err
		}
		// The threshold is clamped down when the new owner set shrinks
		// below it.
		threshold := m.Threshold
		if threshold > uint64(len(owners)) {
			threshold = uint64(len(owners))
		}
		if err := validateOwnerSet(owners, threshold); err != nil {
			return err
		}
		m.Owners = owners
		m.Threshold = threshold
	case MethodSetOwnersAndThreshold:
		var params OwnersAndThresholdParams
		if err := json.Unmarshal(payload.Params, &params); err != nil {
			return fmt.Errorf("multisig: decode set_owners_and_threshold params: %w", err)
		}
		owners, err := decodeOwners(params.Owners)
		if err != nil {
			return err
		}
		if err := validateOwnerSet(owners, params.Threshold); err != nil {
			return err
		}
		m.Owners = owners
		m.Threshold = params.Threshold
	case MethodChangeThreshold:
		var params ThresholdParams
		if err := json.Unmarshal(payload.Params, &params); err != nil {
			return fmt.Errorf("multisig: decode change_threshold params: %w", err)
		}
		if err := validateOwnerSet(m.Owners, params.Threshold); err != nil {
			return err
		}
		m.Threshold = params.Threshold
	default:
		return fmt.Errorf("multisig: unsupported owner mutation %q", payload.Method)
	}
	return state.MultisigPut(m)
}
