// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	service "github.com/gallerist/curio/internal/app"
	"github.com/gallerist/curio/internal/evaluate"
)

// maxBatchImages bounds how many images a single batch request may carry.
const maxBatchImages = 200

// batchImage is one image within a batch request.
type batchImage struct {
	ID        string `json:"id"`
	MediaType string `json:"media_type"`
	DataB64   string `json:"data_b64"`
}

// batchRequest mirrors the HTTP schema for POST /batches.
type batchRequest struct {
	Persona string       `json:"persona"`
	TopN    int          `json:"top_n"`
	Images  []batchImage `json:"images"`
}

func (b batchRequest) validate() error {
	if len(b.Images) == 0 {
		return errors.New("missing images")
	}
	if len(b.Images) > maxBatchImages {
		return fmt.Errorf("too many images; max %d", maxBatchImages)
	}
	seen := make(map[string]struct{}, len(b.Images))
	for i, img := range b.Images {
		if strings.TrimSpace(img.ID) == "" {
			return fmt.Errorf("image %d: missing id", i)
		}
		if _, dup := seen[img.ID]; dup {
			return fmt.Errorf("duplicate image id %q", img.ID)
		}
		seen[img.ID] = struct{}{}
		if strings.TrimSpace(img.DataB64) == "" {
			return fmt.Errorf("image %q: missing data_b64", img.ID)
		}
	}
	return nil
}

// BatchesHandler handles synchronous batch evaluation requests.
type BatchesHandler struct {
	deps Dependencies
}

// NewBatchesHandler creates a new batches handler.
func NewBatchesHandler(deps Dependencies) *BatchesHandler {
	return &BatchesHandler{deps: deps}
}

// HandlePostBatch handles POST /batches requests. The whole batch is
// evaluated, normalized and ranked before the response is written.
func (h *BatchesHandler) HandlePostBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}

	images := make([]evaluate.Image, len(req.Images))
	for i, img := range req.Images {
		data, err := base64.StdEncoding.DecodeString(img.DataB64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request",
				fmt.Errorf("%w: image %q: invalid data_b64: %w", ErrBadRequest, img.ID, err))
			return
		}
		images[i] = evaluate.Image{ID: img.ID, Bytes: data, MediaType: img.MediaType}
	}

	result, err := h.deps.EvaluateBatch(r.Context(), req.Persona, images, req.TopN)
	if err != nil {
		if errors.Is(err, service.ErrUnknownPersona) {
			writeError(w, http.StatusBadRequest, "unknown_persona", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
