package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math"
)

// SelectionAlgorithmV1 identifies the winner derivation below. The version
// string is persisted with every execution record so a result stays
// verifiable even if the algorithm changes later.
const SelectionAlgorithmV1 = "hmac-sha256-rejection/v1"

// NewSeed returns 32 bytes of CSPRNG entropy, hex encoded.
func NewSeed() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}

// WinningNumbers derives count distinct numbers in [1, total] from the seed.
// The derivation is a counter-mode HMAC-SHA256 stream with rejection
// sampling, so the same seed and total always produce the same numbers.
func WinningNumbers(seed string, total, count int) ([]int, error) {
	if total <= 0 {
		return nil, errors.New("total must be positive")
	}
	if count <= 0 || count > total {
		return nil, errors.New("count must be in [1, total]")
	}

	key, err := hex.DecodeString(seed)
	if err != nil {
		return nil, errors.New("seed is not hex encoded")
	}

	n := uint64(total)

	// Reject draws in the tail of the uint64 range that would bias the
	// modulo. rem is 2^64 mod n.
	rem := (math.MaxUint64%n + 1) % n

	selected := map[int]bool{}
	numbers := []int{}
	var counter uint64
	for len(numbers) < count {
		var block [8]byte
		binary.BigEndian.PutUint64(block[:], counter)
		counter++

		mac := hmac.New(sha256.New, key)
		mac.Write(block[:])
		draw := binary.BigEndian.Uint64(mac.Sum(nil)[:8])

		if rem != 0 && draw > math.MaxUint64-rem {
			continue
		}

		number := int(draw%n) + 1
		if selected[number] {
			continue
		}

		selected[number] = true
		numbers = append(numbers, number)
	}

	return numbers, nil
}
