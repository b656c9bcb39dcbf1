package stableamm

import (
	"github.com/ethereum/go-ethereum/common"
)

// CurrencyRegistry is a static CurrencyValidator backed by two disjoint sets:
// currencies that may be pooled and currencies reserved for LP tokens.
type CurrencyRegistry struct {
	pooled map[CurrencyID]struct{}
	lp     map[CurrencyID]struct{}
}

// NewCurrencyRegistry builds a registry. A currency listed in both sets is
// treated as an LP currency only.
func NewCurrencyRegistry(pooled, lp []CurrencyID) *CurrencyRegistry {
	r := &CurrencyRegistry{
		pooled: make(map[CurrencyID]struct{}, len(pooled)),
		lp:     make(map[CurrencyID]struct{}, len(lp)),
	}
	for _, id := range lp {
		r.lp[id] = struct{}{}
	}
	for _, id := range pooled {
		if _, reserved := r.lp[id]; reserved {
			continue
		}
		r.pooled[id] = struct{}{}
	}
	return r
}

// ValidatePooledCurrency accepts at least two distinct registered pooled
// currencies.
func (r *CurrencyRegistry) ValidatePooledCurrency(ids []CurrencyID) bool {
	if r == nil || len(ids) < 2 {
		return false
	}
	seen := make(map[CurrencyID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := r.pooled[id]; !ok {
			return false
		}
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}

// ValidatePoolLpCurrency accepts registered LP currencies.
func (r *CurrencyRegistry) ValidatePoolLpCurrency(id CurrencyID) bool {
	if r == nil {
		return false
	}
	_, ok := r.lp[id]
	return ok
}

// AdminSet authorises a fixed set of administrator accounts.
type AdminSet map[common.Address]struct{}

// NewAdminSet builds an AdminSet from addrs.
func NewAdminSet(addrs ...common.Address) AdminSet {
	set := make(AdminSet, len(addrs))
	for _, addr := range addrs {
		set[addr] = struct{}{}
	}
	return set
}

// EnsureAdmin fails with ErrUnauthorized unless who is an administrator.
func (s AdminSet) EnsureAdmin(who common.Address) error {
	if _, ok := s[who]; !ok {
		return ErrUnauthorized
	}
	return nil
}
