package bulk

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// fingerprint computes an order-independent hash over all start, end and
// relationship property values. Two triples carrying the same values under
// the same keys produce the same fingerprint regardless of map iteration
// order, which is what makes it usable as a client-side dedup key.
func fingerprint(start, end, props map[string]any) uint64 {
	return hashMap("s", start) ^ hashMap("e", end) ^ hashMap("r", props)
}

func hashMap(role string, m map[string]any) uint64 {
	// XOR-combining per-entry hashes is commutative, so iteration order
	// cannot leak into the result. The role prefix keeps identical values in
	// different positions (start vs end) from cancelling out.
	acc := xxhash.Sum64String(role) ^ uint64(len(m))
	for k, v := range m {
		acc ^= xxhash.Sum64String(fmt.Sprintf("%s\x00%s\x00%v", role, k, v))
	}
	return acc
}
