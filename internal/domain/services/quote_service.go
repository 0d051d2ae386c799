package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/bimakw/swap-router/internal/domain/entities"
	"github.com/bimakw/swap-router/internal/infrastructure/cache"
	"github.com/bimakw/swap-router/internal/infrastructure/pool"
)

// QuoteService prices a path without executing it, walking the same hops
// the router would drive.
type QuoteService struct {
	pools    pool.Source
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewQuoteService(pools pool.Source, c cache.Cache) *QuoteService {
	return &QuoteService{
		pools:    pools,
		cache:    c,
		cacheTTL: 10 * time.Second, // reserves move with every swap
	}
}

// QuoteExactInput simulates a forward traversal: each hop's output becomes
// the next hop's input.
func (s *QuoteService) QuoteExactInput(ctx context.Context, path entities.Path, amountIn *big.Int) (*entities.Quote, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}

	cacheKey := cache.QuoteCacheKey("in", path, amountIn)
	if s.cache != nil {
		if cached, err := s.cache.GetQuote(ctx, cacheKey); err == nil && cached != nil {
			return cached, nil
		}
	}

	hops, err := path.Hops()
	if err != nil {
		return nil, err
	}

	amount := new(big.Int).Set(amountIn)
	for _, hop := range hops {
		q, err := s.quoter(hop)
		if err != nil {
			return nil, err
		}
		amount, err = q.QuoteOut(hop.TokenIn, amount)
		if err != nil {
			return nil, err
		}
	}

	quote := &entities.Quote{
		Path:        path,
		AmountIn:    new(big.Int).Set(amountIn),
		AmountOut:   amount,
		GasEstimate: estimateGas(len(hops)),
		UpdatedAt:   time.Now().Unix(),
	}
	if s.cache != nil {
		_ = s.cache.SetQuote(ctx, cacheKey, quote, s.cacheTTL)
	}
	return quote, nil
}

// QuoteExactOutput simulates a backward traversal over a reversed path:
// each hop's required input becomes the preceding hop's requested output.
func (s *QuoteService) QuoteExactOutput(ctx context.Context, path entities.Path, amountOut *big.Int) (*entities.Quote, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}

	cacheKey := cache.QuoteCacheKey("out", path, amountOut)
	if s.cache != nil {
		if cached, err := s.cache.GetQuote(ctx, cacheKey); err == nil && cached != nil {
			return cached, nil
		}
	}

	hops, err := path.Hops()
	if err != nil {
		return nil, err
	}

	// Reversed encoding: each hop's head is its output side.
	amount := new(big.Int).Set(amountOut)
	for _, hop := range hops {
		q, err := s.quoter(hop)
		if err != nil {
			return nil, err
		}
		amount, err = q.QuoteIn(hop.TokenIn, amount)
		if err != nil {
			return nil, err
		}
	}

	quote := &entities.Quote{
		Path:        path,
		AmountIn:    amount,
		AmountOut:   new(big.Int).Set(amountOut),
		GasEstimate: estimateGas(len(hops)),
		UpdatedAt:   time.Now().Unix(),
	}
	if s.cache != nil {
		_ = s.cache.SetQuote(ctx, cacheKey, quote, s.cacheTTL)
	}
	return quote, nil
}

func (s *QuoteService) quoter(hop entities.Hop) (pool.Quoter, error) {
	p, err := s.pools.GetPool(hop.TokenIn, hop.TokenOut, hop.Fee)
	if err != nil {
		return nil, err
	}
	q, ok := p.(pool.Quoter)
	if !ok {
		return nil, fmt.Errorf("pool %s cannot quote", p.Address().Hex())
	}
	return q, nil
}

// estimateGas approximates execution cost from the hop count.
func estimateGas(hops int) uint64 {
	baseGas := uint64(21000)
	gasPerHop := uint64(100000)
	return baseGas + uint64(hops)*gasPerHop
}
