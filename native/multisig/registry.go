package multisig

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Privileged methods understood by the execution pipeline. The owner-set
// mutations are handled by the engine itself; everything else dispatches
// through the registry.
const (
	MethodSetPlatformFees       = "set_platform_fees"
	MethodSetOwners             = "set_owners"
	MethodSetOwnersAndThreshold = "set_owners_and_threshold"
	MethodChangeThreshold       = "change_threshold"
)

// Payload is the canonical encoding of a privileged instruction: a method
// name routing to a registered handler and method-specific parameters.
type Payload struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

// EncodePayload builds the wire form of a privileged instruction.
func EncodePayload(method string, params interface{}) ([]byte, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("multisig: encode params: %w", err)
	}
	return json.Marshal(Payload{Method: method, Params: raw})
}

func decodePayload(data []byte) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return Payload{}, fmt.Errorf("multisig: decode payload: %w", err)
	}
	payload.Method = strings.TrimSpace(payload.Method)
	if payload.Method == "" {
		return Payload{}, fmt.Errorf("multisig: payload method must not be empty")
	}
	return payload, nil
}

// Authority is the capability granted to handlers running under an executed
// transaction. It proves quorum was reached; handlers never see a key.
type Authority struct {
	// Address is the multisig's derived authority account.
	Address [20]byte
}

// HandlerFunc applies one privileged instruction. The account list is the
// proposal's, with authority entries rewritten as signers.
type HandlerFunc func(auth Authority, accounts []TransactionAccount, params json.RawMessage) error

// Registry is the closed set of privileged operations the executor can
// invoke. Dispatch is by method name; unknown methods are refused rather
// than ignored.
type Registry struct {
	handlers map[string]HandlerFunc
}

// NewRegistry constructs an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register binds a handler to a method name. Re-registering a method is a
// programming error and is refused.
func (r *Registry) Register(method string, fn HandlerFunc) error {
	method = strings.TrimSpace(method)
	if method == "" {
		return fmt.Errorf("multisig: method name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("multisig: handler for %q must not be nil", method)
	}
	if _, exists := r.handlers[method]; exists {
		return fmt.Errorf("multisig: method %q already registered", method)
	}
	r.handlers[method] = fn
	return nil
}

// Methods lists the registered method names in sorted order.
func (r *Registry) Methods() []string {
	methods := make([]string, 0, len(r.handlers))
	for m := range r.handlers {
		methods = append(methods, m)
	}
	sort.Strings(methods)
	return methods
}

func (r *Registry) dispatch(auth Authority, accounts []TransactionAccount, payload Payload) error {
	if r == nil {
		return fmt.Errorf("multisig: no registry configured")
	}
	fn, ok := r.handlers[payload.Method]
	if !ok {
		return fmt.Errorf("multisig: unknown method %q", payload.Method)
	}
	return fn(auth, accounts, payload.Params)
}
