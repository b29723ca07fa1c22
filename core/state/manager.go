package state

import (
	"errors"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"nftlend/core/types"
	"nftlend/storage"
)

// Manager is the ledger state layer shared by every protocol engine. It keeps
// fungible balances, single-supply NFT ownership, protocol records and the
// governance parameter store in one key-value backend, serialising access
// behind a single lock.
type Manager struct {
	mu sync.Mutex
	db storage.Database
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

var (
	balancePrefix = []byte("balance:")
	nftPrefix     = []byte("nft:")
	paramPrefix   = []byte("params:")
)

// Ledger keys are keccak digests of a typed prefix plus the raw identifier,
// so distinct namespaces can never collide.
func prefixedKey(prefix []byte, parts ...[]byte) []byte {
	buf := append([]byte(nil), prefix...)
	for _, part := range parts {
		buf = append(buf, part...)
		buf = append(buf, ':')
	}
	return ethcrypto.Keccak256(buf)
}

func balanceKey(token types.TokenID, addr [20]byte) []byte {
	return prefixedKey(balancePrefix, token[:], addr[:])
}

func (m *Manager) getRaw(key []byte) ([]byte, bool, error) {
	value, err := m.db.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (m *Manager) loadRecord(key []byte, out interface{}) (bool, error) {
	raw, ok, err := m.getRaw(key)
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, fmt.Errorf("state: decode record: %w", err)
	}
	return true, nil
}

func (m *Manager) storeRecord(key []byte, record interface{}) error {
	encoded, err := rlp.EncodeToBytes(record)
	if err != nil {
		return fmt.Errorf("state: encode record: %w", err)
	}
	return m.db.Put(key, encoded)
}

func (m *Manager) loadBalance(key []byte) (uint64, error) {
	raw, ok, err := m.getRaw(key)
	if err != nil || !ok {
		return 0, err
	}
	var amount uint64
	if err := rlp.DecodeBytes(raw, &amount); err != nil {
		return 0, fmt.Errorf("state: decode balance: %w", err)
	}
	return amount, nil
}

func (m *Manager) storeBalance(key []byte, amount uint64) error {
	if amount == 0 {
		return m.db.Delete(key)
	}
	encoded, err := rlp.EncodeToBytes(amount)
	if err != nil {
		return err
	}
	return m.db.Put(key, encoded)
}

// Balance returns the fungible balance held by an address; unset balances are
// zero.
func (m *Manager) Balance(token types.TokenID, addr [20]byte) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadBalance(balanceKey(token, addr))
}

// Transfer moves funds between two addresses within one token ledger.
func (m *Manager) Transfer(token types.TokenID, from, to [20]byte, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if from == to || amount == 0 {
		return nil
	}
	fromKey := balanceKey(token, from)
	fromBalance, err := m.loadBalance(fromKey)
	if err != nil {
		return err
	}
	if fromBalance < amount {
		return fmt.Errorf("state: balance %d below transfer amount %d", fromBalance, amount)
	}
	toKey := balanceKey(token, to)
	toBalance, err := m.loadBalance(toKey)
	if err != nil {
		return err
	}
	if toBalance+amount < toBalance {
		return fmt.Errorf("state: balance overflow")
	}
	if err := m.storeBalance(fromKey, fromBalance-amount); err != nil {
		return err
	}
	return m.storeBalance(toKey, toBalance+amount)
}

// Credit mints new units of a fungible token to an address. Used by genesis
// and the faucet tooling; protocol engines only ever move existing funds.
func (m *Manager) Credit(token types.TokenID, addr [20]byte, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := balanceKey(token, addr)
	balance, err := m.loadBalance(key)
	if err != nil {
		return err
	}
	if balance+amount < balance {
		return fmt.Errorf("state: balance overflow")
	}
	return m.storeBalance(key, balance+amount)
}

// NFTOwner returns the owner of a mint. The boolean reports whether the mint
// exists; burned mints do not.
func (m *Manager) NFTOwner(mint types.MintID) ([20]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nftOwner(mint)
}

func (m *Manager) nftOwner(mint types.MintID) ([20]byte, bool, error) {
	raw, ok, err := m.getRaw(prefixedKey(nftPrefix, mint[:]))
	if err != nil || !ok {
		return [20]byte{}, false, err
	}
	var owner [20]byte
	if len(raw) != len(owner) {
		return [20]byte{}, false, fmt.Errorf("state: malformed nft owner record")
	}
	copy(owner[:], raw)
	return owner, true, nil
}

// NFTMint creates a supply-one mint owned by the given address. Minting an
// existing mint is refused.
func (m *Manager) NFTMint(mint types.MintID, owner [20]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := prefixedKey(nftPrefix, mint[:])
	if _, exists, err := m.getRaw(key); err != nil {
		return err
	} else if exists {
		return fmt.Errorf("state: mint %s already exists", mint)
	}
	return m.db.Put(key, owner[:])
}

// NFTTransfer reassigns a mint from its current owner.
func (m *Manager) NFTTransfer(mint types.MintID, from, to [20]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	owner, ok, err := m.nftOwner(mint)
	if err != nil {
		return err
	}
	if !ok || owner != from {
		return fmt.Errorf("state: %x does not own mint %s", from, mint)
	}
	return m.db.Put(prefixedKey(nftPrefix, mint[:]), to[:])
}

// NFTBurn destroys a mint held by the given owner.
func (m *Manager) NFTBurn(mint types.MintID, owner [20]byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok, err := m.nftOwner(mint)
	if err != nil {
		return err
	}
	if !ok || current != owner {
		return fmt.Errorf("state: %x does not own mint %s", owner, mint)
	}
	return m.db.Delete(prefixedKey(nftPrefix, mint[:]))
}

// ParamStoreSet writes a named governance parameter.
func (m *Manager) ParamStoreSet(name string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.db.Put(prefixedKey(paramPrefix, []byte(name)), value)
}

// ParamStoreGet reads a named governance parameter. The boolean reports
// whether the parameter has been set.
func (m *Manager) ParamStoreGet(name string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getRaw(prefixedKey(paramPrefix, []byte(name)))
}
