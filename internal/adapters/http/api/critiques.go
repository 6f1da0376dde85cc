// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gallerist/curio/internal/adapters/repository"
	"github.com/gallerist/curio/internal/domain/model"
)

// critiqueRequest mirrors the HTTP schema for POST /critiques.
type critiqueRequest struct {
	SubmissionID string `json:"submission_id"`
	Persona      string `json:"persona"`
	ImageID      string `json:"image_id"`
	MediaType    string `json:"media_type"`
	ImageB64     string `json:"image_b64"`
}

func (c critiqueRequest) validate() error {
	switch {
	case strings.TrimSpace(c.SubmissionID) == "":
		return errors.New("missing submission_id")
	case strings.TrimSpace(c.ImageID) == "":
		return errors.New("missing image_id")
	case strings.TrimSpace(c.MediaType) == "":
		return errors.New("missing media_type")
	case strings.TrimSpace(c.ImageB64) == "":
		return errors.New("missing image_b64")
	}
	return nil
}

// CritiquesHandler handles critique submission and listing.
type CritiquesHandler struct {
	deps     Dependencies
	maxLimit int
}

// NewCritiquesHandler creates a new critiques handler.
func NewCritiquesHandler(deps Dependencies, maxLimit int) *CritiquesHandler {
	return &CritiquesHandler{deps: deps, maxLimit: maxLimit}
}

// HandleCritiques dispatches POST (submit) and GET (list) on /critiques.
func (h *CritiquesHandler) HandleCritiques(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *CritiquesHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req critiqueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: %w", ErrBadRequest, err))
		return
	}
	imageData, err := base64.StdEncoding.DecodeString(req.ImageB64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%w: invalid image_b64: %w", ErrBadRequest, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), req.SubmissionID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	sub := model.Submission{
		SubmissionID: req.SubmissionID,
		Persona:      req.Persona,
		ImageID:      req.ImageID,
		MediaType:    req.MediaType,
		ImageData:    imageData,
		ReceivedAt:   time.Now().UTC(),
	}
	if ok := h.deps.Enqueue(r.Context(), sub); !ok {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), req.SubmissionID)
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}

func (h *CritiquesHandler) handleList(w http.ResponseWriter, r *http.Request) {
	limit := h.maxLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
			return
		}
		if n > h.maxLimit {
			writeError(w, http.StatusBadRequest, "limit_exceeded", ErrBadRequest)
			return
		}
		limit = n
	}
	records, err := h.deps.ListCritiques(r.Context(), r.URL.Query().Get("persona"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// HandleGetCritique handles GET /critiques/{submission_id} requests.
func (h *CritiquesHandler) HandleGetCritique(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameter after /critiques/
	id := strings.TrimPrefix(r.URL.Path, "/critiques/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	rec, err := h.deps.GetCritique(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
