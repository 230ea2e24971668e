// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"

	"github.com/danielhkuo/clubcard/middleware"
	"github.com/danielhkuo/clubcard/models"
	"github.com/danielhkuo/clubcard/service"
)

type CardHandler struct {
	cards    *service.CardService
	validate *middleware.Validator
}

func NewCardHandler(svc *service.CardService, v *middleware.Validator) *CardHandler {
	return &CardHandler{cards: svc, validate: v}
}

// ListCards handles GET /api/cards
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	cards, err := h.cards.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, cards)
}

// GetCard handles GET /api/cards/{id}
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	card, err := h.cards.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, card)
}

// GetCardByNumber handles GET /api/cards/number/{value}
func (h *CardHandler) GetCardByNumber(w http.ResponseWriter, r *http.Request) {
	card, err := h.cards.GetByNumber(r.Context(), r.PathValue("value"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, card)
}

// ListUserCards handles GET /api/cards/user/{userId}
func (h *CardHandler) ListUserCards(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}
	cards, err := h.cards.ListByUser(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, cards)
}

// ListTransactions handles GET /api/cards/{id}/transactions
func (h *CardHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	txs, err := h.cards.Transactions(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, txs)
}

// CreateCard handles POST /api/cards
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCardRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	card, err := h.cards.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusCreated, card)
}

// UpdateCard handles PUT /api/cards/{id}
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.UpdateCardRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	card, err := h.cards.Update(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, card)
}

// DeleteCard handles DELETE /api/cards/{id}
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.cards.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.DeleteResponse{Deleted: id})
}

// AddPoints handles POST /api/cards/{id}/add
func (h *CardHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	h.changePoints(w, r, h.cards.AddPoints)
}

// DeductPoints handles POST /api/cards/{id}/deduct
func (h *CardHandler) DeductPoints(w http.ResponseWriter, r *http.Request) {
	h.changePoints(w, r, h.cards.DeductPoints)
}

func (h *CardHandler) changePoints(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, id int64, req models.PointsRequest) (models.Card, error)) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req models.PointsRequest
	if !decodeBody(w, r, h.validate, &req) {
		return
	}
	card, err := apply(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, card)
}

// BlockCard handles POST /api/cards/{id}/block
func (h *CardHandler) BlockCard(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.CardBlocked)
}

// UnblockCard handles POST /api/cards/{id}/unblock
func (h *CardHandler) UnblockCard(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.CardActive)
}

func (h *CardHandler) setStatus(w http.ResponseWriter, r *http.Request, status string) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	card, err := h.cards.SetStatus(r.Context(), id, status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, card)
}
