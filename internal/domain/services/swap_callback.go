package services

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-router/internal/domain/entities"
)

// callbackData is the opaque context blob carried through a pool swap and
// handed back to the settlement callback. It names the remaining path for
// the chain and the account funding it; a zero payer marks a hop that was
// pre-funded by pool-to-pool delivery.
type callbackData struct {
	Path  entities.Path
	Payer common.Address
}

// encode packs the blob as payer (20 bytes) ++ path.
func (d callbackData) encode() []byte {
	out := make([]byte, 0, common.AddressLength+len(d.Path))
	out = append(out, d.Payer.Bytes()...)
	out = append(out, d.Path...)
	return out
}

func decodeCallbackData(raw []byte) (callbackData, error) {
	if len(raw) < common.AddressLength {
		return callbackData{}, entities.ErrMalformedPath
	}
	d := callbackData{
		Payer: common.BytesToAddress(raw[:common.AddressLength]),
		Path:  entities.Path(raw[common.AddressLength:]),
	}
	if err := d.Path.Validate(); err != nil {
		return callbackData{}, err
	}
	return d, nil
}

// SwapCallback is the settlement entrypoint a pool invokes mid-swap. The
// caller must be the pool derived from the hop at the head of the callback
// context; anything else is rejected before the deltas are even read. For
// exact-input hops it pays the known input; for exact-output hops it either
// chains the preceding hop with the pool awaiting payment as recipient, or,
// at the first hop, records the realized input and pays it from the
// original payer.
func (r *SwapRouter) SwapCallback(sender common.Address, amount0Delta, amount1Delta *big.Int, raw []byte) error {
	data, err := decodeCallbackData(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnauthorizedCallback, err)
	}

	hop := data.Path.FirstHop()
	expected := r.pools.PoolAddress(hop.TokenIn, hop.TokenOut, hop.Fee)
	if sender != expected {
		return fmt.Errorf("%w: caller %s is not pool %s", ErrUnauthorizedCallback, sender.Hex(), expected.Hex())
	}

	if (amount0Delta == nil || amount0Delta.Sign() <= 0) && (amount1Delta == nil || amount1Delta.Sign() <= 0) {
		return fmt.Errorf("%w: no amount owed", ErrUnauthorizedCallback)
	}

	p, err := r.pools.GetPool(hop.TokenIn, hop.TokenOut, hop.Fee)
	if err != nil {
		return err
	}

	owedToken, owed := p.Token0(), amount0Delta
	if amount1Delta != nil && amount1Delta.Sign() > 0 {
		owedToken, owed = p.Token1(), amount1Delta
	}

	// Exact-input contexts encode paths trade-order first, so the owed
	// token matching the path head identifies the direction.
	if owedToken == hop.TokenIn {
		if data.Payer == (common.Address{}) {
			// Pre-funded by the previous hop's pool-to-pool delivery.
			return nil
		}
		return r.pay(hop.TokenIn, data.Payer, sender, owed)
	}

	if data.Path.HasMultipleHops() {
		// Chain the preceding hop; its output settles this pool's debt.
		_, err := r.exactOutputInternal(context.Background(), owed, sender, nil, callbackData{
			Path:  data.Path.SkipHop(),
			Payer: data.Payer,
		})
		return err
	}

	// Terminal step of a backward chain: the owed amount is the chain's
	// realized input, recovered by the entry point after unwinding.
	r.setPendingPayment(owed)
	return r.pay(hop.TokenOut, data.Payer, sender, owed)
}
