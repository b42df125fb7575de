package ledger

import (
	"encoding/binary"
	"unicode/utf16"
)

// MemoHash is the 64-bit rolling hash h = h*31 + unit (mod 2^64) over the
// UTF-16 code units of s. Overflow wraps, which is the modulus.
func MemoHash(s string) uint64 {
	var h uint64
	for _, unit := range utf16.Encode([]rune(s)) {
		h = h*31 + uint64(unit)
	}
	return h
}

// MemoFromFormID packs the form id hash as 8 little-endian bytes.
func MemoFromFormID(formID string) Blob {
	memo := make(Blob, 8)
	binary.LittleEndian.PutUint64(memo, MemoHash(formID))
	return memo
}
