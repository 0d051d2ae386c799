package entities

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// addrSize is the byte length of an encoded token address
	addrSize = common.AddressLength
	// feeSize is the byte length of an encoded fee tier (uint24, big-endian)
	feeSize = 3
	// hopOffset is the distance between consecutive token addresses in a path
	hopOffset = addrSize + feeSize
	// minPathSize is the encoded size of a single-hop path
	minPathSize = addrSize + hopOffset
)

// ErrMalformedPath is returned when path bytes do not describe a whole
// number of hops.
var ErrMalformedPath = errors.New("malformed path")

// Hop is one exchange leg between two tokens at a given fee tier. The pool
// serving a hop is identified deterministically by the unordered token pair
// and the fee tier.
type Hop struct {
	TokenIn  common.Address `json:"tokenIn"`
	TokenOut common.Address `json:"tokenOut"`
	Fee      uint32         `json:"fee"` // hundredths of a bip (3000 = 0.30%)
}

// Path is a compact byte encoding of an ordered hop sequence:
// tokenA (20 bytes) ++ fee (3 bytes) ++ tokenB (20 bytes) ++ fee ++ tokenC ...
// Exact-output routes encode their hops in reverse trade order.
type Path []byte

// EncodePath encodes a non-empty hop sequence. Adjacent hops must be
// contiguous: hop[i].TokenOut == hop[i+1].TokenIn.
func EncodePath(hops []Hop) (Path, error) {
	if len(hops) == 0 {
		return nil, ErrMalformedPath
	}

	p := make(Path, 0, addrSize+len(hops)*hopOffset)
	p = append(p, hops[0].TokenIn.Bytes()...)
	prev := hops[0].TokenIn

	for _, hop := range hops {
		if hop.TokenIn != prev {
			return nil, ErrMalformedPath
		}
		p = append(p, byte(hop.Fee>>16), byte(hop.Fee>>8), byte(hop.Fee))
		p = append(p, hop.TokenOut.Bytes()...)
		prev = hop.TokenOut
	}

	return p, nil
}

// Validate checks that the byte length matches 1 + 2n token/fee fields for
// some n >= 1.
func (p Path) Validate() error {
	if len(p) < minPathSize || (len(p)-addrSize)%hopOffset != 0 {
		return ErrMalformedPath
	}
	return nil
}

// NumHops returns the hop count of a valid path.
func (p Path) NumHops() int {
	return (len(p) - addrSize) / hopOffset
}

// HasMultipleHops reports whether the path crosses more than one pool.
func (p Path) HasMultipleHops() bool {
	return len(p) >= minPathSize+hopOffset
}

// FirstHop decodes the leading hop. The path must be valid.
func (p Path) FirstHop() Hop {
	return Hop{
		TokenIn:  common.BytesToAddress(p[:addrSize]),
		Fee:      uint32(p[addrSize])<<16 | uint32(p[addrSize+1])<<8 | uint32(p[addrSize+2]),
		TokenOut: common.BytesToAddress(p[hopOffset : hopOffset+addrSize]),
	}
}

// LastHop decodes the trailing hop. The path must be valid.
func (p Path) LastHop() Hop {
	return Path(p[len(p)-minPathSize:]).FirstHop()
}

// FirstHopPath returns the encoding of the leading hop alone.
func (p Path) FirstHopPath() Path {
	return p[:minPathSize:minPathSize]
}

// SkipHop drops the leading hop, keeping its output token as the new head.
func (p Path) SkipHop() Path {
	return p[hopOffset:]
}

// DropLastHop drops the trailing hop.
func (p Path) DropLastHop() Path {
	return p[:len(p)-hopOffset]
}

// Hops decodes the full hop sequence, rejecting malformed byte lengths.
func (p Path) Hops() ([]Hop, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	hops := make([]Hop, 0, p.NumHops())
	rest := p
	for {
		hops = append(hops, rest.FirstHop())
		if !rest.HasMultipleHops() {
			return hops, nil
		}
		rest = rest.SkipHop()
	}
}

// Reverse returns the path with its hop order flipped, as stored for
// exact-output routes.
func (p Path) Reverse() Path {
	n := len(p)
	out := make(Path, 0, n)
	for i := n - addrSize; i >= 0; i -= hopOffset {
		out = append(out, p[i:i+addrSize]...)
		if i >= hopOffset {
			out = append(out, p[i-feeSize:i]...)
		}
	}
	return out
}
