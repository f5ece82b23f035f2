package store

import (
	"fmt"
	"sort"

	"github.com/minio/highwayhash"
)

var fingerprintKey = []byte("orphan-unused-export-fingerprint")

// ComputeFingerprint hashes a set of unused paths. Order does not matter;
// the result is a 16-digit hex string.
func ComputeFingerprint(paths []string) (string, error) {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	sort.Strings(sorted)

	h, err := highwayhash.New64(fingerprintKey)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	for _, p := range sorted {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64()), nil
}
