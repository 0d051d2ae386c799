package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bimakw/swap-router/internal/domain/services"
)

// QuoteHandler handles quote requests
type QuoteHandler struct {
	quoteService *services.QuoteService
}

// NewQuoteHandler creates a new quote handler
func NewQuoteHandler(quoteService *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{quoteService: quoteService}
}

// QuoteResponse represents a quote response
type QuoteResponse struct {
	Tokens      []string `json:"tokens"`
	Fees        []uint32 `json:"fees"`
	AmountIn    string   `json:"amountIn"`
	AmountOut   string   `json:"amountOut"`
	GasEstimate uint64   `json:"gasEstimate"`
	UpdatedAt   int64    `json:"updatedAt"`
}

// GetQuote handles GET /api/v1/quote
//
// Query parameters: tokens (comma-separated addresses in trade order),
// fees (comma-separated tiers, one per hop), and exactly one of amountIn
// or amountOut.
func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	tokensParam := r.URL.Query().Get("tokens")
	feesParam := r.URL.Query().Get("fees")
	amountInStr := r.URL.Query().Get("amountIn")
	amountOutStr := r.URL.Query().Get("amountOut")

	if tokensParam == "" || feesParam == "" {
		writeError(w, http.StatusBadRequest, "missing_params", "tokens and fees are required")
		return
	}
	if (amountInStr == "") == (amountOutStr == "") {
		writeError(w, http.StatusBadRequest, "missing_params", "exactly one of amountIn or amountOut is required")
		return
	}

	tokens := strings.Split(tokensParam, ",")
	fees, err := parseFees(feesParam)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_fees", err.Error())
		return
	}

	path, err := buildPath(tokens, fees)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_path", err.Error())
		return
	}

	if amountInStr != "" {
		amountIn, ok := parseAmount(amountInStr)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_amount", "amountIn must be a positive integer")
			return
		}
		quote, err := h.quoteService.QuoteExactInput(r.Context(), path, amountIn)
		if err != nil {
			writeSwapError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, QuoteResponse{
			Tokens:      tokens,
			Fees:        fees,
			AmountIn:    quote.AmountIn.String(),
			AmountOut:   quote.AmountOut.String(),
			GasEstimate: quote.GasEstimate,
			UpdatedAt:   quote.UpdatedAt,
		})
		return
	}

	amountOut, ok := parseAmount(amountOutStr)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_amount", "amountOut must be a positive integer")
		return
	}
	quote, err := h.quoteService.QuoteExactOutput(r.Context(), path.Reverse(), amountOut)
	if err != nil {
		writeSwapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, QuoteResponse{
		Tokens:      tokens,
		Fees:        fees,
		AmountIn:    quote.AmountIn.String(),
		AmountOut:   quote.AmountOut.String(),
		GasEstimate: quote.GasEstimate,
		UpdatedAt:   quote.UpdatedAt,
	})
}

func parseFees(param string) ([]uint32, error) {
	parts := strings.Split(param, ",")
	fees := make([]uint32, len(parts))
	for i, part := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(part), 10, 24)
		if err != nil {
			return nil, err
		}
		fees[i] = uint32(v)
	}
	return fees, nil
}
