package credit

import (
	"math/big"
	"sync"
	"time"

	"creditledger/native/token"
)

type lineKey struct {
	network [20]byte
	member  [20]byte
}

type lineEntry struct {
	line        CreditLine
	underwriter [20]byte
	hasUW       bool
}

// StaticManager is an in-process Manager implementation backed by
// operator-maintained maps. The production credit manager lives outside this
// module; StaticManager serves local deployments and tests.
type StaticManager struct {
	mu        sync.RWMutex
	lines     map[lineKey]lineEntry
	validLTV  map[[20]byte]bool
	needed    map[lineKey]*big.Int
	expiryTTL time.Duration
	nowFn     func() time.Time
}

// NewStaticManager creates an empty manager. Credit lines expire for
// collection purposes once ttl has elapsed since their issue date; a zero ttl
// disables expiry.
func NewStaticManager(ttl time.Duration) *StaticManager {
	return &StaticManager{
		lines:     make(map[lineKey]lineEntry),
		validLTV:  make(map[[20]byte]bool),
		needed:    make(map[lineKey]*big.Int),
		expiryTTL: ttl,
		nowFn:     time.Now,
	}
}

// SetNowFunc overrides the time source, primarily for tests.
func (m *StaticManager) SetNowFunc(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	m.mu.Lock()
	m.nowFn = now
	m.mu.Unlock()
}

// PutCreditLine registers or replaces a member's credit line.
func (m *StaticManager) PutCreditLine(network, member [20]byte, line CreditLine, underwriter [20]byte, hasUnderwriter bool) {
	m.mu.Lock()
	m.lines[lineKey{network: network, member: member}] = lineEntry{line: line, underwriter: underwriter, hasUW: hasUnderwriter}
	m.mu.Unlock()
}

// SetPoolLTVValid marks whether a pool currently satisfies the required
// loan-to-value.
func (m *StaticManager) SetPoolLTVValid(pool [20]byte, valid bool) {
	m.mu.Lock()
	m.validLTV[pool] = valid
	m.mu.Unlock()
}

// SetNeededCollateral records the collateral shortfall for a member's line.
func (m *StaticManager) SetNeededCollateral(network, member [20]byte, amount *big.Int) {
	m.mu.Lock()
	if amount == nil {
		delete(m.needed, lineKey{network: network, member: member})
	} else {
		m.needed[lineKey{network: network, member: member}] = new(big.Int).Set(amount)
	}
	m.mu.Unlock()
}

// CalculatePercentInCollateral implements Manager using plain PPM math; the
// collateral token is the fee denomination here, so no conversion applies.
func (m *StaticManager) CalculatePercentInCollateral(_ [20]byte, ppm uint32, amount *big.Int) *big.Int {
	return PercentOf(amount, ppm)
}

// CreditLine implements Manager.
func (m *StaticManager) CreditLine(network, member [20]byte) (CreditLine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.lines[lineKey{network: network, member: member}]
	return entry.line, ok
}

// CreditLineUnderwriter implements Manager.
func (m *StaticManager) CreditLineUnderwriter(network, member [20]byte) ([20]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.lines[lineKey{network: network, member: member}]
	if !ok || !entry.hasUW {
		return [20]byte{}, false
	}
	return entry.underwriter, true
}

// IsPoolValidLTV implements Manager.
func (m *StaticManager) IsPoolValidLTV(_ [20]byte, pool [20]byte) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.validLTV[pool]
}

// NeededCollateral implements Manager.
func (m *StaticManager) NeededCollateral(network, member [20]byte) *big.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if amount, ok := m.needed[lineKey{network: network, member: member}]; ok {
		return new(big.Int).Set(amount)
	}
	return big.NewInt(0)
}

// VerifyCreditLineExpiration implements Request: a line is expired once the
// configured ttl has elapsed since its issue date.
func (m *StaticManager) VerifyCreditLineExpiration(network, member [20]byte, _ *big.Int) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.expiryTTL <= 0 {
		return nil
	}
	entry, ok := m.lines[lineKey{network: network, member: member}]
	if !ok {
		return ErrCreditLineExpired
	}
	issued := time.Unix(entry.line.IssueDate, 0)
	if m.nowFn().Sub(issued) > m.expiryTTL {
		return ErrCreditLineExpired
	}
	return nil
}

// StakePool is an in-process Pool implementation that pulls staked collateral
// out of the fee manager's custody via the standing allowance.
type StakePool struct {
	mu      sync.RWMutex
	addr    [20]byte
	source  [20]byte
	token   token.Token
	stakes  map[[20]byte]*big.Int
	rewards *big.Int
}

// NewStakePool creates a pool at the given address pulling funds from source.
func NewStakePool(addr, source [20]byte, tok token.Token) *StakePool {
	return &StakePool{
		addr:    addr,
		source:  source,
		token:   tok,
		stakes:  make(map[[20]byte]*big.Int),
		rewards: big.NewInt(0),
	}
}

// Address implements Pool.
func (p *StakePool) Address() [20]byte { return p.addr }

// StakeFor implements Pool: collateral moves from the fee manager's custody
// into the pool and is credited to the staker.
func (p *StakePool) StakeFor(staker [20]byte, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := p.token.TransferFrom(p.addr, p.source, p.addr, amount); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.stakes[staker]; ok {
		p.stakes[staker] = new(big.Int).Add(existing, amount)
	} else {
		p.stakes[staker] = new(big.Int).Set(amount)
	}
	return nil
}

// NotifyRewardAmount implements Pool: leftover fees fund general rewards.
func (p *StakePool) NotifyRewardAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if err := p.token.TransferFrom(p.addr, p.source, p.addr, amount); err != nil {
		return err
	}
	p.mu.Lock()
	p.rewards = new(big.Int).Add(p.rewards, amount)
	p.mu.Unlock()
	return nil
}

// BalanceOf implements Pool.
func (p *StakePool) BalanceOf(account [20]byte) *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if stake, ok := p.stakes[account]; ok {
		return new(big.Int).Set(stake)
	}
	return big.NewInt(0)
}

// TotalSupply implements Pool.
func (p *StakePool) TotalSupply() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	total := big.NewInt(0)
	for _, stake := range p.stakes {
		total = total.Add(total, stake)
	}
	return total
}

// Rewards returns the cumulative reward amount notified to the pool.
func (p *StakePool) Rewards() *big.Int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.rewards)
}

// PoolSet is a map-backed pool registry.
type PoolSet struct {
	mu    sync.RWMutex
	pools map[[20]byte]Pool
}

// NewPoolSet creates an empty registry.
func NewPoolSet() *PoolSet {
	return &PoolSet{pools: make(map[[20]byte]Pool)}
}

// Add registers a pool under its address.
func (s *PoolSet) Add(pool Pool) {
	if pool == nil {
		return
	}
	s.mu.Lock()
	s.pools[pool.Address()] = pool
	s.mu.Unlock()
}

// PoolAt implements the registry interface consumed by the engine.
func (s *PoolSet) PoolAt(addr [20]byte) (Pool, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pool, ok := s.pools[addr]
	return pool, ok
}
