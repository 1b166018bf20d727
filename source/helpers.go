package source

import "hash/fnv"

// PathID derives a stable non-negative entry id from a path, for
// sources that have no natural integer identifier of their own. Within
// one context the path is unique, so the derived id is too (modulo hash
// collisions, which the browse layer tolerates as it keys on paths).
func PathID(path string) int64 {
	h := fnv.New64a()
	h.Write([]byte(path))

	return int64(h.Sum64() &^ (1 << 63))
}
