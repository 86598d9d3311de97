package core

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/holiman/uint256"
)

// NarrowUint32 converts an on-chain integer to uint32. Negative values and values that do
// not fit are decode failures; nothing is truncated.
func NarrowUint32(v *big.Int) (uint32, error) {
	u, err := NarrowUint64(v)
	if err != nil {
		return 0, err
	}
	return NarrowUint32FromUint64(u)
}

// NarrowUint64 converts an on-chain integer to uint64 with the same rules as NarrowUint32.
func NarrowUint64(v *big.Int) (uint64, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing integer value", ErrDecode)
	}
	if v.Sign() < 0 {
		return 0, fmt.Errorf("%w: negative value %s", ErrDecode, v)
	}
	word, overflow := uint256.FromBig(v)
	if overflow || !word.IsUint64() {
		return 0, fmt.Errorf("%w: value %s exceeds 64 bits", ErrDecode, v)
	}
	return word.Uint64(), nil
}

// NarrowUint32FromUint64 narrows a uint64 height or index to uint32.
func NarrowUint32FromUint64(v uint64) (uint32, error) {
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("%w: value %d exceeds 32 bits", ErrDecode, v)
	}
	return uint32(v), nil
}

// ParseUint32 parses a decimal string attribute into uint32.
func ParseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a uint32: %w", ErrDecode, s, err)
	}
	return uint32(v), nil
}

// LagBlock resolves the height lag blocks behind tip, clamped to genesis.
func LagBlock(tip, lag uint64) uint64 {
	if lag > tip {
		return 0
	}
	return tip - lag
}

// BlockRange is an inclusive range of heights.
type BlockRange struct {
	From uint32
	To   uint32
}

// RangeChunks splits [from, to] into inclusive windows of at most chunk heights.
// A zero chunk returns the whole range.
func RangeChunks(from, to, chunk uint32) []BlockRange {
	if from > to {
		return nil
	}
	if chunk == 0 {
		return []BlockRange{{From: from, To: to}}
	}

	var ranges []BlockRange
	for start := uint64(from); start <= uint64(to); start += uint64(chunk) {
		end := start + uint64(chunk) - 1
		if end > uint64(to) {
			end = uint64(to)
		}
		ranges = append(ranges, BlockRange{From: uint32(start), To: uint32(end)})
	}
	return ranges
}
