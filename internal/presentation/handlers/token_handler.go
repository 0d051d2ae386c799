package handlers

import (
	"net/http"

	"github.com/bimakw/swap-router/internal/domain/entities"
)

// TokenHandler lists the tokens the venue knows about
type TokenHandler struct {
	tokens []entities.Token
}

// NewTokenHandler creates a new token handler
func NewTokenHandler(tokens []entities.Token) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// TokensResponse represents the token list response
type TokensResponse struct {
	Tokens []entities.Token `json:"tokens"`
}

// ListTokens handles GET /api/v1/tokens
func (h *TokenHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, TokensResponse{Tokens: h.tokens})
}
