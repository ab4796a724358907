// Package state persists the ledger's keyed records (identifier registry,
// accrual buckets, pause flags, fee policy) behind the storage.Database
// interface. All mutation goes through the Store accessors; the engines are
// the only writers.
package state

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"creditledger/storage"
)

const (
	prefixRegistryID    = "registry/id/"
	prefixRegistryIndex = "registry/ix/"
	keyRegistryCount    = "registry/count"
	prefixAccrued       = "credit/accrued/"
	keyFeePPM           = "credit/feeppm"
	prefixPause         = "pause/"
	keyRedemption       = "policy/redemption"
)

var errCorruptRecord = errors.New("state: corrupt record")

// Store is the single-writer keyed store shared by the controller and credit
// engines.
type Store struct {
	mu sync.Mutex
	db storage.Database
}

// NewStore wraps a database handle.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

type walletRecord struct {
	Address string `json:"address"`
	Index   uint64 `json:"index"`
}

func idKey(id [32]byte) []byte {
	return []byte(prefixRegistryID + hex.EncodeToString(id[:]))
}

func indexKey(index uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], index)
	return []byte(prefixRegistryIndex + hex.EncodeToString(buf[:]))
}

// WalletPut records a new identifier registration. The entry also joins the
// enumeration index so WalletAt can walk the registry in insertion order.
func (s *Store) WalletPut(id [32]byte, addr [20]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exists, err := s.db.Has(idKey(id))
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("state: identifier already registered")
	}
	count, err := s.walletCount()
	if err != nil {
		return err
	}
	record := walletRecord{Address: hex.EncodeToString(addr[:]), Index: count}
	blob, err := json.Marshal(record)
	if err != nil {
		return err
	}
	if err := s.db.Put(idKey(id), blob); err != nil {
		return err
	}
	if err := s.db.Put(indexKey(count), id[:]); err != nil {
		return err
	}
	return s.putUint(keyRegistryCount, count+1)
}

// WalletGet resolves an identifier to its wallet address.
func (s *Store) WalletGet(id [32]byte) ([20]byte, bool, error) {
	blob, err := s.db.Get(idKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return [20]byte{}, false, nil
	}
	if err != nil {
		return [20]byte{}, false, err
	}
	var record walletRecord
	if err := json.Unmarshal(blob, &record); err != nil {
		return [20]byte{}, false, err
	}
	raw, err := hex.DecodeString(record.Address)
	if err != nil || len(raw) != 20 {
		return [20]byte{}, false, errCorruptRecord
	}
	var addr [20]byte
	copy(addr[:], raw)
	return addr, true, nil
}

// WalletCount returns the number of registered identifiers.
func (s *Store) WalletCount() (uint64, error) {
	return s.getUint(keyRegistryCount)
}

func (s *Store) walletCount() (uint64, error) {
	return s.getUint(keyRegistryCount)
}

// WalletAt returns the identifier and wallet address at the insertion index.
func (s *Store) WalletAt(index uint64) ([32]byte, [20]byte, error) {
	blob, err := s.db.Get(indexKey(index))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return [32]byte{}, [20]byte{}, fmt.Errorf("state: no wallet at index %d", index)
	}
	if err != nil {
		return [32]byte{}, [20]byte{}, err
	}
	if len(blob) != 32 {
		return [32]byte{}, [20]byte{}, errCorruptRecord
	}
	var id [32]byte
	copy(id[:], blob)
	addr, ok, err := s.WalletGet(id)
	if err != nil {
		return [32]byte{}, [20]byte{}, err
	}
	if !ok {
		return [32]byte{}, [20]byte{}, errCorruptRecord
	}
	return id, addr, nil
}

func accruedKey(network, member [20]byte) []byte {
	return []byte(prefixAccrued + hex.EncodeToString(network[:]) + "/" + hex.EncodeToString(member[:]))
}

// AccruedFee returns the undistributed fee bucket for a (network, member)
// pair. Missing buckets read as zero.
func (s *Store) AccruedFee(network, member [20]byte) (*big.Int, error) {
	blob, err := s.db.Get(accruedKey(network, member))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	amount, ok := new(big.Int).SetString(string(blob), 10)
	if !ok || amount.Sign() < 0 {
		return nil, errCorruptRecord
	}
	return amount, nil
}

// SetAccruedFee overwrites the accrual bucket. Zero amounts remove the key.
func (s *Store) SetAccruedFee(network, member [20]byte, amount *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount == nil || amount.Sign() == 0 {
		return s.db.Delete(accruedKey(network, member))
	}
	if amount.Sign() < 0 {
		return fmt.Errorf("state: accrued fee cannot be negative")
	}
	return s.db.Put(accruedKey(network, member), []byte(amount.String()))
}

// UnderwriterFeePPM reads the persisted fee percent; ok is false when no
// value has ever been stored.
func (s *Store) UnderwriterFeePPM() (uint32, bool, error) {
	v, err := s.getUint(keyFeePPM)
	if err != nil {
		return 0, false, err
	}
	exists, err := s.db.Has([]byte(keyFeePPM))
	if err != nil {
		return 0, false, err
	}
	return uint32(v), exists, nil
}

// SetUnderwriterFeePPM persists the fee percent.
func (s *Store) SetUnderwriterFeePPM(ppm uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putUint(keyFeePPM, uint64(ppm))
}

// IsPaused implements the pause gate consumed by the engines.
func (s *Store) IsPaused(module string) bool {
	blob, err := s.db.Get([]byte(prefixPause + module))
	if err != nil {
		return false
	}
	return len(blob) == 1 && blob[0] == 1
}

// SetPaused flips the pause flag for a module.
func (s *Store) SetPaused(module string, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !paused {
		return s.db.Delete([]byte(prefixPause + module))
	}
	return s.db.Put([]byte(prefixPause+module), []byte{1})
}

type redemptionRecord struct {
	Numerator   string `json:"numerator"`
	Denominator string `json:"denominator"`
	MinimumFee  string `json:"minimumFee"`
}

// PutRedemptionPolicy persists the redemption fee policy so it survives
// restarts.
func (s *Store) PutRedemptionPolicy(numerator, denominator, minimum *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record := redemptionRecord{
		Numerator:   numerator.String(),
		Denominator: denominator.String(),
		MinimumFee:  minimum.String(),
	}
	blob, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Put([]byte(keyRedemption), blob)
}

// RedemptionPolicy reads the persisted policy; ok is false when none has been
// stored yet.
func (s *Store) RedemptionPolicy() (numerator, denominator, minimum *big.Int, ok bool, err error) {
	blob, err := s.db.Get([]byte(keyRedemption))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, nil, false, err
	}
	var record redemptionRecord
	if err := json.Unmarshal(blob, &record); err != nil {
		return nil, nil, nil, false, err
	}
	numerator, okN := new(big.Int).SetString(record.Numerator, 10)
	denominator, okD := new(big.Int).SetString(record.Denominator, 10)
	minimum, okM := new(big.Int).SetString(record.MinimumFee, 10)
	if !okN || !okD || !okM {
		return nil, nil, nil, false, errCorruptRecord
	}
	return numerator, denominator, minimum, true, nil
}

func (s *Store) putUint(key string, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return s.db.Put([]byte(key), buf[:])
}

func (s *Store) getUint(key string) (uint64, error) {
	blob, err := s.db.Get([]byte(key))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(blob) != 8 {
		return 0, errCorruptRecord
	}
	return binary.BigEndian.Uint64(blob), nil
}
