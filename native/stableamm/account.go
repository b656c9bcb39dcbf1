package stableamm

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
	"lukechampine.com/blake3"
)

var poolAccountDomain = []byte("stableamm/pool-account")

// PoolAccount derives the custodial ledger account of a pool. The mapping is
// deterministic and distinct pool identifiers never share an account.
func PoolAccount(id PoolID) common.Address {
	buf := make([]byte, len(poolAccountDomain)+4)
	copy(buf, poolAccountDomain)
	binary.BigEndian.PutUint32(buf[len(poolAccountDomain):], uint32(id))
	sum := blake3.Sum256(buf)
	return common.BytesToAddress(sum[12:])
}
