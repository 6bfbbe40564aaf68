// HTTP handler for hat ERC-721 lookups.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
)

// HatReader answers hat ownership and metadata lookups on-chain.
type HatReader interface {
	OwnsToken(ctx context.Context, wearer common.Address) (bool, error)
	HatURI(ctx context.Context, wearer common.Address) (string, error)
}

// HatHandler serves hat lookups for wearer addresses.
type HatHandler struct {
	reader HatReader
}

// NewHatHandler creates a new HatHandler instance.
func NewHatHandler(reader HatReader) *HatHandler {
	return &HatHandler{reader: reader}
}

// HatResponse is the response body for a hat lookup.
type HatResponse struct {
	Address string `json:"address"`
	Owns    bool   `json:"owns"`
	URI     string `json:"uri,omitempty"`
}

// GetHat handles GET /api/v1/hats/{address}
func (h *HatHandler) GetHat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := chi.URLParam(r, "address")
	if !common.IsHexAddress(raw) {
		writeError(w, http.StatusBadRequest, "address must be a hex ethereum address")
		return
	}
	wearer := common.HexToAddress(raw)

	owns, err := h.reader.OwnsToken(ctx, wearer)
	if err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("hat lookup failed: %v", err))
		return
	}

	resp := HatResponse{Address: wearer.Hex(), Owns: owns}
	if owns {
		uri, uriErr := h.reader.HatURI(ctx, wearer)
		if uriErr != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("hat lookup failed: %v", uriErr))
			return
		}
		resp.URI = uri
	}

	writeJSON(w, http.StatusOK, resp)
}
