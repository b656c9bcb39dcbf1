package stableamm

import "strconv"

var (
	poolRecordPrefix = []byte("stableamm/pool/")
	poolNextIDKey    = []byte("stableamm/pool-next-id")
	lpCurrencyPrefix = []byte("stableamm/lp/")
)

func poolRecordKey(id PoolID) []byte {
	suffix := strconv.FormatUint(uint64(id), 10)
	buf := make([]byte, len(poolRecordPrefix)+len(suffix))
	copy(buf, poolRecordPrefix)
	copy(buf[len(poolRecordPrefix):], suffix)
	return buf
}

func lpCurrencyKey(lp CurrencyID) []byte {
	buf := make([]byte, len(lpCurrencyPrefix)+len(lp))
	copy(buf, lpCurrencyPrefix)
	copy(buf[len(lpCurrencyPrefix):], lp)
	return buf
}
