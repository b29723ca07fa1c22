package multisig

// Multisig is the singleton authority record. Owners are unique and
// order-preserving; Seqno is both the nonce for transaction addressing and
// the sequence number of the next proposal.
type Multisig struct {
	Owners    [][20]byte
	Threshold uint64
	Seqno     uint64
}

// IsOwner reports whether the address is a current owner.
func (m *Multisig) IsOwner(addr [20]byte) bool {
	if m == nil {
		return false
	}
	for _, owner := range m.Owners {
		if owner == addr {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe for the caller to mutate.
func (m *Multisig) Clone() *Multisig {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Owners = append([][20]byte(nil), m.Owners...)
	return &clone
}

// TransactionAccount is one entry of a proposal's ordered account list. An
// entry matching the multisig authority is rewritten with a capability grant
// during execution; no private key for the authority exists.
type TransactionAccount struct {
	Address    [20]byte
	IsWritable bool
	IsSigner   bool
}

// Transaction is a single proposal moving through propose, approve and
// execute. A transaction is never reused: DidExecute is terminal and the
// seqno it was stamped with is never reassigned.
type Transaction struct {
	ID         [32]byte
	Proposer   [20]byte
	Program    string
	Accounts   []TransactionAccount
	Payload    []byte
	Approvals  [][20]byte
	Seqno      uint64
	DidExecute bool
}

// ApprovedBy reports whether the owner has already signed the proposal.
func (t *Transaction) ApprovedBy(owner [20]byte) bool {
	if t == nil {
		return false
	}
	for _, a := range t.Approvals {
		if a == owner {
			return true
		}
	}
	return false
}

// Clone returns a deep copy safe for the caller to mutate.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Accounts = append([]TransactionAccount(nil), t.Accounts...)
	clone.Payload = append([]byte(nil), t.Payload...)
	clone.Approvals = append([][20]byte(nil), t.Approvals...)
	return &clone
}
