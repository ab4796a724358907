package credit

import (
	"errors"
	"math/big"
	"sync"

	"creditledger/core/events"
	nativecommon "creditledger/native/common"
	"creditledger/native/token"
)

const moduleName = "credit"

// engineState persists the accrual buckets and the tunable fee percent. The
// fee manager is the sole writer.
type engineState interface {
	AccruedFee(network, member [20]byte) (*big.Int, error)
	SetAccruedFee(network, member [20]byte, amount *big.Int) error
	UnderwriterFeePPM() (uint32, bool, error)
	SetUnderwriterFeePPM(ppm uint32) error
}

type authorizer interface {
	IsOperator(addr [20]byte) bool
	IsNetwork(addr [20]byte) bool
}

// Engine is the credit fee manager: it collects per-transaction fees into
// accrual buckets and distributes them to underwriters and pools.
type Engine struct {
	mu       sync.RWMutex
	lock     nativecommon.Lock
	state    engineState
	manager  Manager
	request  Request
	roles    authorizer
	token    token.Token
	emitter  events.Emitter
	pauses   nativecommon.PauseView
	custody  [20]byte
	feePPM   uint32
	maxBatch int

	poolResolver poolRegistry
}

// NewEngine constructs a fee manager holding collateral custody at the
// supplied address with the given initial fee percent.
func NewEngine(custody [20]byte, feePPM uint32) *Engine {
	return &Engine{
		custody: custody,
		feePPM:  feePPM,
		emitter: events.NoopEmitter{},
	}
}

// SetState wires the accrual persistence layer. Any previously persisted fee
// percent overrides the constructor value.
func (e *Engine) SetState(state engineState) error {
	e.state = state
	if state == nil {
		return nil
	}
	ppm, ok, err := state.UnderwriterFeePPM()
	if err != nil {
		return err
	}
	if ok {
		e.mu.Lock()
		e.feePPM = ppm
		e.mu.Unlock()
	}
	return nil
}

// SetManager wires the credit-line registry collaborator.
func (e *Engine) SetManager(m Manager) { e.manager = m }

// SetRequest wires the credit-line expiration verifier.
func (e *Engine) SetRequest(r Request) { e.request = r }

// SetRoles wires the authorization predicates.
func (e *Engine) SetRoles(r authorizer) { e.roles = r }

// SetToken wires the collateral token ledger.
func (e *Engine) SetToken(t token.Token) { e.token = t }

// SetPauses wires the pause gate.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetMaxBatch bounds the member count accepted by DistributeFees. Zero
// disables the bound.
func (e *Engine) SetMaxBatch(n int) { e.maxBatch = n }

// SetEmitter configures the event emitter. Passing nil resets to a no-op.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(evt)
}

func (e *Engine) ready() error {
	if e.state == nil {
		return errNilState
	}
	if e.manager == nil {
		return errNilManager
	}
	if e.token == nil {
		return errNilToken
	}
	return nil
}

// UnderwriterFeePPM returns the current fee percent in parts per million.
func (e *Engine) UnderwriterFeePPM() uint32 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.feePPM
}

// Custody returns the fee manager's collateral custody address.
func (e *Engine) Custody() [20]byte { return e.custody }

// CalculateFees computes the credit fee owed on a transaction without
// touching state.
func (e *Engine) CalculateFees(network [20]byte, transactionAmount *big.Int) *big.Int {
	if e.manager == nil {
		return PercentOf(transactionAmount, e.UnderwriterFeePPM())
	}
	return e.manager.CalculatePercentInCollateral(network, e.UnderwriterFeePPM(), transactionAmount)
}

// AccruedFee returns the undistributed fee bucket for one member.
func (e *Engine) AccruedFee(network, member [20]byte) (*big.Int, error) {
	if e.state == nil {
		return nil, errNilState
	}
	return e.state.AccruedFee(network, member)
}

// AccruedFees sums the undistributed buckets across a list of members.
func (e *Engine) AccruedFees(network [20]byte, members [][20]byte) (*big.Int, error) {
	if e.state == nil {
		return nil, errNilState
	}
	total := big.NewInt(0)
	for _, member := range members {
		fee, err := e.state.AccruedFee(network, member)
		if err != nil {
			return nil, err
		}
		total = total.Add(total, fee)
	}
	return total, nil
}

// CollectFees pulls the percentage fee for one member transaction into the
// accrual bucket. The fee is pulled from the member's collateral balance
// before the credit line expiration check runs; the check failing rejects the
// whole operation, so the pull does not survive an expired line here even
// though the observable ordering matches the original.
func (e *Engine) CollectFees(caller, network, member [20]byte, transactionAmount *big.Int) (*big.Int, error) {
	if e.roles == nil || !e.roles.IsNetwork(caller) {
		return nil, ErrNotNetwork
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}
	if transactionAmount == nil || transactionAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := e.lock.Enter(); err != nil {
		return nil, err
	}
	defer e.lock.Exit()
	creditFee := e.manager.CalculatePercentInCollateral(network, e.UnderwriterFeePPM(), transactionAmount)
	if creditFee.Sign() <= 0 {
		return big.NewInt(0), nil
	}
	if err := e.token.TransferFrom(e.custody, member, e.custody, creditFee); err != nil {
		if errors.Is(err, token.ErrInsufficientAllowance) {
			return nil, ErrTransferNotApproved
		}
		return nil, err
	}
	if e.request != nil {
		if err := e.request.VerifyCreditLineExpiration(network, member, transactionAmount); err != nil {
			// Refund the pull so the rejection leaves no state change.
			if refundErr := e.token.Transfer(e.custody, member, creditFee); refundErr != nil {
				return nil, refundErr
			}
			return nil, ErrCreditLineExpired
		}
	}
	accrued, err := e.state.AccruedFee(network, member)
	if err != nil {
		return nil, err
	}
	if err := e.state.SetAccruedFee(network, member, new(big.Int).Add(accrued, creditFee)); err != nil {
		return nil, err
	}
	e.emit(events.FeesCollected{Network: network, Member: member, Fee: creditFee})
	return creditFee, nil
}

// DistributeFees walks the member batch in order, zeroing each accrual bucket
// and routing it to the member's underwriter. Members with an empty bucket
// are skipped. A member with no underwriter aborts the remainder of the batch
// without error: later members keep their accruals untouched. A member whose
// line points at an unregistered pool is skipped with a DistributionSkipped
// event and the batch continues. Any caller may trigger distribution.
func (e *Engine) DistributeFees(network [20]byte, members [][20]byte) error {
	if err := e.ready(); err != nil {
		return err
	}
	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return err
	}
	if e.maxBatch > 0 && len(members) > e.maxBatch {
		return ErrBatchTooLarge
	}
	if err := e.lock.Enter(); err != nil {
		return err
	}
	defer e.lock.Exit()
	for _, member := range members {
		fee, err := e.state.AccruedFee(network, member)
		if err != nil {
			return err
		}
		if fee.Sign() == 0 {
			continue
		}
		// Zero the bucket before any external call so a re-entrant
		// distribution cannot double-pay the same accrual.
		if err := e.state.SetAccruedFee(network, member, big.NewInt(0)); err != nil {
			return err
		}
		underwriter, ok := e.manager.CreditLineUnderwriter(network, member)
		if !ok {
			return nil
		}
		line, ok := e.manager.CreditLine(network, member)
		if !ok {
			return nil
		}
		pool := e.poolAt(line.Pool)
		if pool == nil {
			// The zeroed bucket stays in custody until the pool is
			// registered and the accrual re-collected.
			e.emit(events.DistributionSkipped{Network: network, Member: member, Pool: line.Pool, Amount: fee})
			continue
		}
		leftover, err := e.stakeNeededCollateralInPool(network, member, line.Pool, pool, underwriter, fee)
		if err != nil {
			return err
		}
		if leftover.Sign() > 0 {
			if err := e.notifyPoolReward(line.Pool, pool, leftover); err != nil {
				return err
			}
		}
	}
	return nil
}

// stakeNeededCollateralInPool stakes just enough of the fee to restore the
// pool's loan-to-value, capped at the fee itself, and returns whatever is
// left for general pool rewards.
func (e *Engine) stakeNeededCollateralInPool(network, member, poolAddr [20]byte, pool Pool, underwriter [20]byte, fee *big.Int) (*big.Int, error) {
	if e.manager.IsPoolValidLTV(network, poolAddr) {
		return fee, nil
	}
	needed := e.manager.NeededCollateral(network, member)
	if needed == nil || needed.Sign() == 0 {
		return fee, nil
	}
	stake := fee
	if needed.Cmp(fee) < 0 {
		stake = needed
	}
	if err := pool.StakeFor(underwriter, stake); err != nil {
		return nil, err
	}
	e.emit(events.UnderwriterRewardsStaked{Underwriter: underwriter, Amount: stake})
	return new(big.Int).Sub(fee, stake), nil
}

func (e *Engine) notifyPoolReward(poolAddr [20]byte, pool Pool, amount *big.Int) error {
	if err := pool.NotifyRewardAmount(amount); err != nil {
		return err
	}
	e.emit(events.PoolRewardsUpdated{Pool: poolAddr, Amount: amount})
	return nil
}

// pools is the registry of live pool collaborators keyed by address.
type poolRegistry interface {
	PoolAt(addr [20]byte) (Pool, bool)
}

// SetPoolRegistry wires the resolver mapping pool addresses in credit lines
// to live Pool collaborators.
func (e *Engine) SetPoolRegistry(r poolRegistry) {
	e.mu.Lock()
	e.poolResolver = r
	e.mu.Unlock()
}

func (e *Engine) poolAt(addr [20]byte) Pool {
	e.mu.RLock()
	resolver := e.poolResolver
	e.mu.RUnlock()
	if resolver == nil {
		return nil
	}
	pool, ok := resolver.PoolAt(addr)
	if !ok {
		return nil
	}
	return pool
}

// UpdateUnderwriterFeePercent retunes the fee rate, bounded to [0, MaxPPM].
// An out-of-range value is rejected with the existing percent unchanged.
func (e *Engine) UpdateUnderwriterFeePercent(caller [20]byte, ppm uint32) error {
	if e.roles == nil || !e.roles.IsOperator(caller) {
		return ErrNotOperator
	}
	if ppm > MaxPPM {
		return ErrPercentOutOfRange
	}
	e.mu.Lock()
	previous := e.feePPM
	e.feePPM = ppm
	e.mu.Unlock()
	if e.state != nil {
		if err := e.state.SetUnderwriterFeePPM(ppm); err != nil {
			e.mu.Lock()
			e.feePPM = previous
			e.mu.Unlock()
			return err
		}
	}
	e.emit(events.UnderwriterFeePercentUpdated{PreviousPPM: previous, CurrentPPM: ppm})
	return nil
}

// ApproveCreditPool grants a pool a standing allowance over the fee manager's
// collateral custody so StakeFor and NotifyRewardAmount can pull funds.
func (e *Engine) ApproveCreditPool(caller [20]byte, pool Pool) error {
	if e.roles == nil || !e.roles.IsOperator(caller) {
		return ErrNotOperator
	}
	if e.token == nil {
		return errNilToken
	}
	if pool == nil {
		return ErrInvalidAmount
	}
	// Effectively unlimited: 2^255.
	max := new(big.Int).Lsh(big.NewInt(1), 255)
	return e.token.Approve(e.custody, pool.Address(), max)
}

// RecoverToken sweeps the fee manager's custody balance of an arbitrary token
// to the caller. Operator-only escape hatch.
func (e *Engine) RecoverToken(caller [20]byte, tok token.Token) error {
	if e.roles == nil || !e.roles.IsOperator(caller) {
		return ErrNotOperator
	}
	if tok == nil {
		return errNilToken
	}
	balance := tok.BalanceOf(e.custody)
	if balance.Sign() == 0 {
		return nil
	}
	return tok.Transfer(e.custody, caller, balance)
}
