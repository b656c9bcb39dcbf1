package tokens

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stableamm/core/types"
)

var (
	ErrInvalidCurrency     = errors.New("tokens: currency required")
	ErrInsufficientBalance = errors.New("tokens: insufficient balance")
	ErrBalanceOverflow     = errors.New("tokens: balance overflow")
)

// Storage abstracts the key-value view balances are persisted into.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
}

var (
	balancePrefix  = []byte("tokens/balance/")
	issuancePrefix = []byte("tokens/issuance/")
)

// maxAmount bounds every balance and issuance to 128 bits.
var maxAmount = new(uint256.Int).SubUint64(new(uint256.Int).Lsh(uint256.NewInt(1), 128), 1)

type storedAmount struct {
	Amount string
}

// Ledger is a multi-asset balance book keyed by (currency, account). Free
// balance is the only balance class; there are no locks or reserves.
type Ledger struct {
	store Storage
}

// NewLedger wraps the provided key-value view.
func NewLedger(store Storage) *Ledger { return &Ledger{store: store} }

func balanceKey(currency types.CurrencyID, who common.Address) []byte {
	buf := make([]byte, 0, len(balancePrefix)+len(currency)+1+common.AddressLength)
	buf = append(buf, balancePrefix...)
	buf = append(buf, currency...)
	buf = append(buf, '/')
	return append(buf, who.Bytes()...)
}

func issuanceKey(currency types.CurrencyID) []byte {
	buf := make([]byte, len(issuancePrefix)+len(currency))
	copy(buf, issuancePrefix)
	copy(buf[len(issuancePrefix):], currency)
	return buf
}

func (l *Ledger) load(key []byte) (*uint256.Int, error) {
	var stored storedAmount
	ok, err := l.store.KVGet(key, &stored)
	if err != nil {
		return nil, err
	}
	if !ok || stored.Amount == "" {
		return new(uint256.Int), nil
	}
	amount, err := uint256.FromDecimal(stored.Amount)
	if err != nil {
		return nil, fmt.Errorf("tokens: decode amount: %w", err)
	}
	return amount, nil
}

func (l *Ledger) save(key []byte, amount *uint256.Int) error {
	return l.store.KVPut(key, storedAmount{Amount: amount.Dec()})
}

// FreeBalance returns the spendable balance of who in currency.
func (l *Ledger) FreeBalance(currency types.CurrencyID, who common.Address) (*uint256.Int, error) {
	if currency == "" {
		return nil, ErrInvalidCurrency
	}
	return l.load(balanceKey(currency, who))
}

// TotalIssuance returns the amount of currency in existence.
func (l *Ledger) TotalIssuance(currency types.CurrencyID) (*uint256.Int, error) {
	if currency == "" {
		return nil, ErrInvalidCurrency
	}
	return l.load(issuanceKey(currency))
}

// Transfer moves amount of currency from one account to another.
func (l *Ledger) Transfer(currency types.CurrencyID, from, to common.Address, amount *uint256.Int) error {
	if currency == "" {
		return ErrInvalidCurrency
	}
	if amount == nil || amount.IsZero() || from == to {
		return nil
	}
	fromBal, err := l.FreeBalance(currency, from)
	if err != nil {
		return err
	}
	if fromBal.Lt(amount) {
		return ErrInsufficientBalance
	}
	toBal, err := l.FreeBalance(currency, to)
	if err != nil {
		return err
	}
	credited, overflow := new(uint256.Int).AddOverflow(toBal, amount)
	if overflow || credited.Gt(maxAmount) {
		return ErrBalanceOverflow
	}
	if err := l.save(balanceKey(currency, from), new(uint256.Int).Sub(fromBal, amount)); err != nil {
		return err
	}
	return l.save(balanceKey(currency, to), credited)
}

// Deposit mints amount of currency to who.
func (l *Ledger) Deposit(currency types.CurrencyID, to common.Address, amount *uint256.Int) error {
	if currency == "" {
		return ErrInvalidCurrency
	}
	if amount == nil || amount.IsZero() {
		return nil
	}
	issuance, err := l.TotalIssuance(currency)
	if err != nil {
		return err
	}
	newIssuance, overflow := new(uint256.Int).AddOverflow(issuance, amount)
	if overflow || newIssuance.Gt(maxAmount) {
		return ErrBalanceOverflow
	}
	bal, err := l.FreeBalance(currency, to)
	if err != nil {
		return err
	}
	if err := l.save(balanceKey(currency, to), new(uint256.Int).Add(bal, amount)); err != nil {
		return err
	}
	return l.save(issuanceKey(currency), newIssuance)
}

// Withdraw burns amount of currency from who.
func (l *Ledger) Withdraw(currency types.CurrencyID, from common.Address, amount *uint256.Int) error {
	if currency == "" {
		return ErrInvalidCurrency
	}
	if amount == nil || amount.IsZero() {
		return nil
	}
	bal, err := l.FreeBalance(currency, from)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	issuance, err := l.TotalIssuance(currency)
	if err != nil {
		return err
	}
	if issuance.Lt(amount) {
		return ErrInsufficientBalance
	}
	if err := l.save(balanceKey(currency, from), new(uint256.Int).Sub(bal, amount)); err != nil {
		return err
	}
	return l.save(issuanceKey(currency), new(uint256.Int).Sub(issuance, amount))
}
