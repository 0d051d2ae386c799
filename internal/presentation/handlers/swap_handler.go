package handlers

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bimakw/swap-router/internal/domain/entities"
	"github.com/bimakw/swap-router/internal/domain/services"
	"github.com/bimakw/swap-router/internal/infrastructure/pool"
)

// SwapHandler handles swap execution requests
type SwapHandler struct {
	router *services.SwapRouter
}

// NewSwapHandler creates a new swap handler
func NewSwapHandler(router *services.SwapRouter) *SwapHandler {
	return &SwapHandler{router: router}
}

// SwapRequest represents a swap request. Tokens are listed in trade order;
// fees[i] is the tier of the hop from tokens[i] to tokens[i+1].
type SwapRequest struct {
	Tokens    []string `json:"tokens"`
	Fees      []uint32 `json:"fees"`
	Payer     string   `json:"payer"`
	Recipient string   `json:"recipient"`
	Deadline  int64    `json:"deadline"`

	// Exact-input fields
	AmountIn         string `json:"amountIn,omitempty"`
	AmountOutMinimum string `json:"amountOutMinimum,omitempty"`

	// Exact-output fields
	AmountOut       string `json:"amountOut,omitempty"`
	AmountInMaximum string `json:"amountInMaximum,omitempty"`
}

// SwapResponse represents a swap response
type SwapResponse struct {
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
	Recipient string `json:"recipient"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ExactInput handles POST /api/v1/swap/exact-input
func (h *SwapHandler) ExactInput(w http.ResponseWriter, r *http.Request) {
	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	path, payer, recipient, ok := h.parseCommon(w, &req)
	if !ok {
		return
	}

	amountIn, ok := parseAmount(req.AmountIn)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amountIn must be a positive integer")
		return
	}
	minOut, ok := parseBound(req.AmountOutMinimum)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amountOutMinimum must be a non-negative integer")
		return
	}

	amountOut, err := h.router.ExactInput(r.Context(), entities.ExactInputParams{
		Path:             path,
		Payer:            payer,
		Recipient:        recipient,
		Deadline:         req.Deadline,
		AmountIn:         amountIn,
		AmountOutMinimum: minOut,
	})
	if err != nil {
		writeSwapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SwapResponse{
		AmountIn:  amountIn.String(),
		AmountOut: amountOut.String(),
		Recipient: recipient.Hex(),
	})
}

// ExactOutput handles POST /api/v1/swap/exact-output
func (h *SwapHandler) ExactOutput(w http.ResponseWriter, r *http.Request) {
	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body is not valid JSON")
		return
	}

	path, payer, recipient, ok := h.parseCommon(w, &req)
	if !ok {
		return
	}

	amountOut, ok := parseAmount(req.AmountOut)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amountOut must be a positive integer")
		return
	}
	maxIn, ok := parseAmount(req.AmountInMaximum)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amountInMaximum must be a positive integer")
		return
	}

	amountIn, err := h.router.ExactOutput(r.Context(), entities.ExactOutputParams{
		Path:            path.Reverse(),
		Payer:           payer,
		Recipient:       recipient,
		Deadline:        req.Deadline,
		AmountOut:       amountOut,
		AmountInMaximum: maxIn,
	})
	if err != nil {
		writeSwapError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SwapResponse{
		AmountIn:  amountIn.String(),
		AmountOut: amountOut.String(),
		Recipient: recipient.Hex(),
	})
}

// parseCommon validates the shared request fields and encodes the path in
// trade order. It writes the error response itself on failure.
func (h *SwapHandler) parseCommon(w http.ResponseWriter, req *SwapRequest) (entities.Path, common.Address, common.Address, bool) {
	var zero common.Address

	path, err := buildPath(req.Tokens, req.Fees)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return nil, zero, zero, false
	}
	if !common.IsHexAddress(req.Payer) {
		writeError(w, http.StatusBadRequest, "invalid_payer", "payer is not a valid address")
		return nil, zero, zero, false
	}
	if !common.IsHexAddress(req.Recipient) {
		writeError(w, http.StatusBadRequest, "invalid_recipient", "recipient is not a valid address")
		return nil, zero, zero, false
	}
	return path, common.HexToAddress(req.Payer), common.HexToAddress(req.Recipient), true
}

// buildPath assembles a trade-order path from parallel token and fee lists.
func buildPath(tokens []string, fees []uint32) (entities.Path, error) {
	if len(tokens) < 2 || len(fees) != len(tokens)-1 {
		return nil, errors.New("tokens must list n+1 addresses for n fees")
	}

	hops := make([]entities.Hop, len(fees))
	for i := range fees {
		if !common.IsHexAddress(tokens[i]) {
			return nil, errors.New("tokens contains an invalid address")
		}
		if !common.IsHexAddress(tokens[i+1]) {
			return nil, errors.New("tokens contains an invalid address")
		}
		hops[i] = entities.Hop{
			TokenIn:  common.HexToAddress(tokens[i]),
			TokenOut: common.HexToAddress(tokens[i+1]),
			Fee:      fees[i],
		}
	}
	return entities.EncodePath(hops)
}

func parseAmount(s string) (*big.Int, bool) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() <= 0 {
		return nil, false
	}
	return v, true
}

// parseBound parses an optional non-negative bound, defaulting to zero.
func parseBound(s string) (*big.Int, bool) {
	if s == "" {
		return big.NewInt(0), true
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, false
	}
	return v, true
}

// writeSwapError maps router errors onto HTTP statuses
func writeSwapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrDeadlineExpired):
		writeError(w, http.StatusBadRequest, "deadline_expired", err.Error())
	case errors.Is(err, entities.ErrMalformedPath):
		writeError(w, http.StatusBadRequest, "invalid_path", err.Error())
	case errors.Is(err, services.ErrInvalidAmount):
		writeError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, services.ErrInsufficientOutput),
		errors.Is(err, services.ErrExcessiveInput):
		writeError(w, http.StatusUnprocessableEntity, "slippage_exceeded", err.Error())
	case errors.Is(err, pool.ErrPoolNotFound):
		writeError(w, http.StatusNotFound, "pool_not_found", err.Error())
	case errors.Is(err, pool.ErrInsufficientLiquidity):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_liquidity", err.Error())
	case errors.Is(err, services.ErrSwapInProgress):
		writeError(w, http.StatusConflict, "swap_in_progress", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "swap_failed", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: message,
	})
}
