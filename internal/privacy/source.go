package privacy

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand/v2"
)

// NewSource returns a PCG random source seeded from the operating system's
// cryptographic random generator. One source serves one obfuscation call
// chain; it is not safe for concurrent use.
func NewSource() rand.Source {
	var seed [16]byte
	// crypto/rand.Read never returns an error.
	crand.Read(seed[:])
	return rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	)
}
