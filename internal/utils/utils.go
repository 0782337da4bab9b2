package utils

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// URL-safe alphabet used for player ids and room keys.
const safeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const (
	PlayerIdLength = 21
	RoomKeyLength  = 5
)

// GenerateId returns a cryptographically random URL-safe string of length n.
func GenerateId(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken
		panic(fmt.Sprintf("utils: reading random bytes: %v", err))
	}
	for i, b := range buf {
		buf[i] = safeAlphabet[int(b)%len(safeAlphabet)]
	}
	return string(buf)
}

// RandomSeed draws an OS-random seed, for seeding per-room RNGs.
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(fmt.Sprintf("utils: reading random bytes: %v", err))
	}
	return int64(binary.LittleEndian.Uint64(buf[:]))
}
