package params

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ParamsKeyPlatformFees is the canonical parameter-store key for the global
// platform fee record.
const ParamsKeyPlatformFees = "platform_fees"

// PlatformFees is the multisig-owned singleton of global risk parameters. All
// three values are per-mille integers: divide by 1000 to obtain the fraction
// (e.g. LTV 800 is 80%).
type PlatformFees struct {
	FeePercentage uint32 `json:"feePercentage"`
	InterestRate  uint32 `json:"interestRate"`
	LTV           uint32 `json:"ltv"`
}

// Validate rejects fee and LTV values above 100%. The interest rate is not
// bounded: governance may configure rates above 100% APR.
func (f PlatformFees) Validate() error {
	if f.FeePercentage > 1000 {
		return fmt.Errorf("params: fee percentage %d exceeds 1000 per-mille", f.FeePercentage)
	}
	if f.LTV > 1000 {
		return fmt.Errorf("params: ltv %d exceeds 1000 per-mille", f.LTV)
	}
	return nil
}

// StoreState captures the subset of state manager capabilities required by the
// parameter helpers.
type StoreState interface {
	ParamStoreSet(name string, value []byte) error
	ParamStoreGet(name string) ([]byte, bool, error)
}

// Store provides typed accessors for governance-controlled parameters.
type Store struct {
	state StoreState
}

// NewStore constructs a parameter store wrapper using the supplied state
// backend.
func NewStore(state StoreState) *Store {
	return &Store{state: state}
}

func (s *Store) withState() (StoreState, error) {
	if s == nil || s.state == nil {
		return nil, fmt.Errorf("params: state not configured")
	}
	return s.state, nil
}

// SetPlatformFees persists the platform fee record under the canonical
// parameter-store key. Values are marshalled as JSON to align with multisig
// instruction payloads.
func (s *Store) SetPlatformFees(fees PlatformFees) error {
	state, err := s.withState()
	if err != nil {
		return err
	}
	if err := fees.Validate(); err != nil {
		return err
	}
	encoded, err := json.Marshal(fees)
	if err != nil {
		return fmt.Errorf("params: encode platform fees: %w", err)
	}
	return state.ParamStoreSet(ParamsKeyPlatformFees, encoded)
}

// PlatformFees loads the persisted platform fee record. The second return
// value reports whether the record has been initialised.
func (s *Store) PlatformFees() (PlatformFees, bool, error) {
	state, err := s.withState()
	if err != nil {
		return PlatformFees{}, false, err
	}
	raw, ok, err := state.ParamStoreGet(ParamsKeyPlatformFees)
	if err != nil {
		return PlatformFees{}, false, err
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return PlatformFees{}, false, nil
	}
	var fees PlatformFees
	if err := json.Unmarshal(raw, &fees); err != nil {
		return PlatformFees{}, false, fmt.Errorf("params: decode platform fees: %w", err)
	}
	return fees, true, nil
}
