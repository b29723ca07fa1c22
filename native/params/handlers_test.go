package params

import (
	"testing"

	"github.com/stretchr/testify/require"

	"nftlend/native/multisig"
)

type memMultisigState struct {
	record *multisig.Multisig
	txs    map[[32]byte]*multisig.Transaction
}

func newMemMultisigState() *memMultisigState {
	return &memMultisigState{txs: make(map[[32]byte]*multisig.Transaction)}
}

func (m *memMultisigState) MultisigGet() (*multisig.Multisig, bool, error) {
	if m.record == nil {
		return nil, false, nil
	}
	return m.record.Clone(), true, nil
}

func (m *memMultisigState) MultisigPut(record *multisig.Multisig) error {
	m.record = record.Clone()
	return nil
}

func (m *memMultisigState) MultisigGetTransaction(id [32]byte) (*multisig.Transaction, bool, error) {
	tx, ok := m.txs[id]
	if !ok {
		return nil, false, nil
	}
	return tx.Clone(), true, nil
}

func (m *memMultisigState) MultisigPutTransaction(tx *multisig.Transaction) error {
	m.txs[tx.ID] = tx.Clone()
	return nil
}

// The platform fee record only moves when a transaction clears quorum.
func TestSetPlatformFeesThroughPipeline(t *testing.T) {
	store := NewStore(newMemParamState())
	require.NoError(t, store.SetPlatformFees(PlatformFees{FeePercentage: 30, InterestRate: 50, LTV: 800}))

	eng := multisig.NewEngine()
	eng.SetState(newMemMultisigState())
	require.NoError(t, RegisterHandlers(eng.Registry(), store))

	var ownerA, ownerB, ownerC [20]byte
	ownerA[0], ownerB[0], ownerC[0] = 1, 2, 3
	_, err := eng.Initialize([][20]byte{ownerA, ownerB, ownerC}, 2)
	require.NoError(t, err)

	next := PlatformFees{FeePercentage: 25, InterestRate: 40, LTV: 700}
	payload, err := multisig.EncodePayload(multisig.MethodSetPlatformFees, next)
	require.NoError(t, err)
	tx, err := eng.CreateTransaction(ownerA, "params", nil, payload)
	require.NoError(t, err)

	require.ErrorIs(t, eng.ExecuteTransaction(tx.ID), multisig.ErrNotEnoughSigners)
	current, ok, err := store.PlatformFees()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(30), current.FeePercentage, "fees must not change before quorum")

	_, err = eng.Approve(ownerB, tx.ID)
	require.NoError(t, err)
	require.NoError(t, eng.ExecuteTransaction(tx.ID))

	updated, ok, err := store.PlatformFees()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, next, updated)
}

// Out-of-range parameters bounce inside the handler, leaving the proposal
// unexecuted and the stored record untouched.
func TestSetPlatformFeesRejectsInvalid(t *testing.T) {
	store := NewStore(newMemParamState())
	eng := multisig.NewEngine()
	eng.SetState(newMemMultisigState())
	require.NoError(t, RegisterHandlers(eng.Registry(), store))

	var owner [20]byte
	owner[0] = 1
	_, err := eng.Initialize([][20]byte{owner}, 1)
	require.NoError(t, err)

	payload, err := multisig.EncodePayload(multisig.MethodSetPlatformFees, PlatformFees{FeePercentage: 1500})
	require.NoError(t, err)
	tx, err := eng.CreateTransaction(owner, "params", nil, payload)
	require.NoError(t, err)
	require.Error(t, eng.ExecuteTransaction(tx.ID))

	_, ok, err := store.PlatformFees()
	require.NoError(t, err)
	require.False(t, ok)
}
