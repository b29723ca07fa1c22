package state

import (
	"nftlend/native/lending"
)

var (
	lendingRequestPrefix = []byte("lending/request:")
	lendingGrantPrefix   = []byte("lending/grant:")
	lendingLoanPrefix    = []byte("lending/loan:")
	lendingFeePrefix     = []byte("lending/fee:")
	lendingEscrowPrefix  = []byte("lending/escrow:")
)

// LendingGetRequest loads a loan request by identifier.
func (m *Manager) LendingGetRequest(id [32]byte) (*lending.LoanRequest, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request := new(lending.LoanRequest)
	ok, err := m.loadRecord(prefixedKey(lendingRequestPrefix, id[:]), request)
	if err != nil || !ok {
		return nil, false, err
	}
	return request, true, nil
}

// LendingPutRequest persists a loan request.
func (m *Manager) LendingPutRequest(request *lending.LoanRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeRecord(prefixedKey(lendingRequestPrefix, request.ID[:]), request)
}

// LendingDeleteRequest removes a cancelled request; later lookups fail, which
// is the proof of closure.
func (m *Manager) LendingDeleteRequest(id [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Delete(prefixedKey(lendingRequestPrefix, id[:]))
}

// LendingGetGrant loads a grant record by identifier.
func (m *Manager) LendingGetGrant(id [32]byte) (*lending.GrantLoan, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	grant := new(lending.GrantLoan)
	ok, err := m.loadRecord(prefixedKey(lendingGrantPrefix, id[:]), grant)
	if err != nil || !ok {
		return nil, false, err
	}
	return grant, true, nil
}

// LendingPutGrant persists a grant record.
func (m *Manager) LendingPutGrant(grant *lending.GrantLoan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeRecord(prefixedKey(lendingGrantPrefix, grant.ID[:]), grant)
}

// LendingGetLoan loads a loan by identifier.
func (m *Manager) LendingGetLoan(id [32]byte) (*lending.Loan, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan := new(lending.Loan)
	ok, err := m.loadRecord(prefixedKey(lendingLoanPrefix, id[:]), loan)
	if err != nil || !ok {
		return nil, false, err
	}
	return loan, true, nil
}

// LendingPutLoan persists a loan.
func (m *Manager) LendingPutLoan(loan *lending.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeRecord(prefixedKey(lendingLoanPrefix, loan.ID[:]), loan)
}

// LendingGetFee loads a loan fee record by identifier.
func (m *Manager) LendingGetFee(id [32]byte) (*lending.LoanFee, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fee := new(lending.LoanFee)
	ok, err := m.loadRecord(prefixedKey(lendingFeePrefix, id[:]), fee)
	if err != nil || !ok {
		return nil, false, err
	}
	return fee, true, nil
}

// LendingPutFee persists a loan fee record.
func (m *Manager) LendingPutFee(fee *lending.LoanFee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeRecord(prefixedKey(lendingFeePrefix, fee.ID[:]), fee)
}

// LendingGetEscrow loads an open escrow record.
func (m *Manager) LendingGetEscrow(id [32]byte) (*lending.Escrow, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	escrow := new(lending.Escrow)
	ok, err := m.loadRecord(prefixedKey(lendingEscrowPrefix, id[:]), escrow)
	if err != nil || !ok {
		return nil, false, err
	}
	return escrow, true, nil
}

// LendingPutEscrow persists an escrow record.
func (m *Manager) LendingPutEscrow(escrow *lending.Escrow) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.storeRecord(prefixedKey(lendingEscrowPrefix, escrow.ID[:]), escrow)
}

// LendingDeleteEscrow removes a closed escrow record.
func (m *Manager) LendingDeleteEscrow(id [32]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Delete(prefixedKey(lendingEscrowPrefix, id[:]))
}
