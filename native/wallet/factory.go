package wallet

import (
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"creditledger/native/token"
)

// Factory creates and rebinds wallet instances. Attach exists so a restarted
// process can rehydrate wallets recorded in the registry without re-deriving
// state.
type Factory interface {
	Create(id [32]byte) (Wallet, error)
	Attach(id [32]byte, addr [20]byte) Wallet
	UpgradeImplementation(addr [20]byte, implementation [20]byte) error
}

// DeterministicFactory derives wallet addresses from the identifier so the
// registry stays reproducible across restarts. The implementation registry
// stands in for the on-chain proxy logic pointer.
type DeterministicFactory struct {
	mu              sync.Mutex
	token           token.Token
	controller      [20]byte
	implementations map[[20]byte][20]byte
}

// NewDeterministicFactory builds a factory minting wallets controlled by the
// supplied controller address.
func NewDeterministicFactory(tok token.Token, controller [20]byte) *DeterministicFactory {
	return &DeterministicFactory{
		token:           tok,
		controller:      controller,
		implementations: make(map[[20]byte][20]byte),
	}
}

// DeriveAddress computes the deterministic wallet address for an identifier.
func DeriveAddress(id [32]byte) [20]byte {
	digest := ethcrypto.Keccak256([]byte("creditledger/wallet"), id[:])
	var addr [20]byte
	copy(addr[:], digest[12:])
	return addr
}

// Create mints a fresh wallet for the identifier.
func (f *DeterministicFactory) Create(id [32]byte) (Wallet, error) {
	return f.Attach(id, DeriveAddress(id)), nil
}

// Attach rebinds an existing registry entry to a live wallet instance.
func (f *DeterministicFactory) Attach(id [32]byte, addr [20]byte) Wallet {
	return NewTokenWallet(id, addr, f.controller, f.token)
}

// UpgradeImplementation records the logic implementation backing a wallet.
func (f *DeterministicFactory) UpgradeImplementation(addr [20]byte, implementation [20]byte) error {
	f.mu.Lock()
	f.implementations[addr] = implementation
	f.mu.Unlock()
	return nil
}

// Implementation returns the recorded logic implementation for a wallet, if
// it has ever been upgraded.
func (f *DeterministicFactory) Implementation(addr [20]byte) ([20]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	impl, ok := f.implementations[addr]
	return impl, ok
}
