package state

import (
	"nftlend/native/multisig"
)

var (
	multisigRecordKey = []byte("multisig/record")
	multisigTxPrefix  = []byte("multisig/tx:")
)

// MultisigGet loads the singleton multisig record.
func (m *Manager) MultisigGet() (*multisig.Multisig, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.multisigGet()
}

func (m *Manager) multisigGet() (*multisig.Multisig, bool, error) {
	record := new(multisig.Multisig)
	ok, err := m.loadRecord(prefixedKey(multisigRecordKey), record)
	if err != nil || !ok {
		return nil, false, err
	}
	return record, true, nil
}

// MultisigPut persists the singleton multisig record.
func (m *Manager) MultisigPut(record *multisig.Multisig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeRecord(prefixedKey(multisigRecordKey), record)
}

// MultisigGetTransaction loads a proposal by identifier.
func (m *Manager) MultisigGetTransaction(id [32]byte) (*multisig.Transaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := new(multisig.Transaction)
	ok, err := m.loadRecord(prefixedKey(multisigTxPrefix, id[:]), tx)
	if err != nil || !ok {
		return nil, false, err
	}
	return tx, true, nil
}

// MultisigPutTransaction persists a proposal.
func (m *Manager) MultisigPutTransaction(tx *multisig.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeRecord(prefixedKey(multisigTxPrefix, tx.ID[:]), tx)
}

// MultisigOwners returns the current owner set, or an empty set before the
// multisig is initialised. The lending module snapshots this list into each
// loan's fee record at grant time.
func (m *Manager) MultisigOwners() ([][20]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok, err := m.multisigGet()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return record.Owners, nil
}
