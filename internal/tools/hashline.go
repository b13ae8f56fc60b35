package tools

import "fmt"

// LineHash fingerprints one line of text so a later edit can detect that
// the line changed in the meantime. FNV-style: multiply then xor over the
// raw bytes, masked to 12 bits. Identical content always hashes the same
// regardless of position; the hash authenticates content, not location.
//
// The rendering is at least 2 lowercase hex digits but grows to 3 for
// values >= 0x100, so callers must not assume a fixed width.
func LineHash(line string) string {
	hash := uint32(2166136261)
	for i := 0; i < len(line); i++ {
		hash *= 16777619
		hash ^= uint32(line[i])
	}
	return fmt.Sprintf("%02x", hash&0xFFF)
}
