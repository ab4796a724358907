package common

import "sync"

// Roles is a static authorization predicate set. Role management proper lives
// outside the ledger core; engines only ever ask yes/no questions about a
// caller address.
type Roles struct {
	mu        sync.RWMutex
	owner     [20]byte
	operators map[[20]byte]bool
	networks  map[[20]byte]bool
}

// NewRoles builds a predicate set with the supplied owner. The owner is
// implicitly an operator.
func NewRoles(owner [20]byte) *Roles {
	return &Roles{
		owner:     owner,
		operators: make(map[[20]byte]bool),
		networks:  make(map[[20]byte]bool),
	}
}

// Owner returns the configured owner address.
func (r *Roles) Owner() [20]byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.owner
}

// SetOwner reassigns contract ownership.
func (r *Roles) SetOwner(owner [20]byte) {
	r.mu.Lock()
	r.owner = owner
	r.mu.Unlock()
}

// GrantOperator marks the address as an operator.
func (r *Roles) GrantOperator(addr [20]byte) {
	r.mu.Lock()
	r.operators[addr] = true
	r.mu.Unlock()
}

// GrantNetwork marks the address as an authorized fee-collecting network.
func (r *Roles) GrantNetwork(addr [20]byte) {
	r.mu.Lock()
	r.networks[addr] = true
	r.mu.Unlock()
}

// IsOwner reports whether the address is the owner.
func (r *Roles) IsOwner(addr [20]byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return addr == r.owner
}

// IsOperator reports whether the address is an operator or the owner.
func (r *Roles) IsOperator(addr [20]byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return addr == r.owner || r.operators[addr]
}

// IsNetwork reports whether the address is an authorized network.
func (r *Roles) IsNetwork(addr [20]byte) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.networks[addr]
}
