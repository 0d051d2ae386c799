package handlers

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-router/internal/infrastructure/token"
)

// FaucetHandler seeds demo accounts so swaps can be exercised end to end.
// Minted balances come with an allowance for the router.
type FaucetHandler struct {
	tokens  *token.Registry
	wrapped *token.WrappedNative
	router  common.Address
}

// NewFaucetHandler creates a new faucet handler
func NewFaucetHandler(tokens *token.Registry, wrapped *token.WrappedNative, router common.Address) *FaucetHandler {
	return &FaucetHandler{
		tokens:  tokens,
		wrapped: wrapped,
		router:  router,
	}
}

// FaucetRequest represents a faucet request. Native credits the account's
// unwrapped balance instead of a token ledger.
type FaucetRequest struct {
	Token  string `json:"token,omitempty"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Native bool   `json:"native,omitempty"`
}

// FaucetResponse represents a faucet response
type FaucetResponse struct {
	To      string `json:"to"`
	Balance string `json:"balance"`
}

type minter interface {
	Mint(to common.Address, amount *big.Int)
}

// Drip handles POST /api/v1/faucet
func (h *FaucetHandler) Drip(w http.ResponseWriter, r *http.Request) {
	var req FaucetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	if !common.IsHexAddress(req.To) {
		writeError(w, http.StatusBadRequest, "invalid_recipient", "to is not a valid address")
		return
	}
	to := common.HexToAddress(req.To)

	amount, ok := parseAmount(req.Amount)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amount must be a positive integer")
		return
	}

	if req.Native {
		h.wrapped.MintNative(to, amount)
		writeJSON(w, http.StatusOK, FaucetResponse{
			To:      to.Hex(),
			Balance: h.wrapped.NativeBalanceOf(to).String(),
		})
		return
	}

	if !common.IsHexAddress(req.Token) {
		writeError(w, http.StatusBadRequest, "invalid_token", "token is not a valid address")
		return
	}
	ledger, err := h.tokens.Get(common.HexToAddress(req.Token))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown_token", err.Error())
		return
	}
	m, ok := ledger.(minter)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "unknown_token", "token does not support minting")
		return
	}

	m.Mint(to, amount)
	ledger.Approve(to, h.router, ledger.BalanceOf(to))

	writeJSON(w, http.StatusOK, FaucetResponse{
		To:      to.Hex(),
		Balance: ledger.BalanceOf(to).String(),
	})
}
