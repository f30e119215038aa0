package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type ScanRequest struct {
	Code string `json:"qrcode" validate:"required"`
}

type StartParcoursRequest struct {
	MerchantIDs []int64 `json:"merchantIds" validate:"min=1,unique,dive,gt=0"`
}

func handleScan(store Store, rw rewarder, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScanRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Code = strings.TrimSpace(req.Code)
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		userID := userFrom(r)
		_, out, err := store.RecordScan(r.Context(), userID, req.Code, now())
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "unknown QR code")
			return
		case errors.Is(err, ErrInactive):
			writeError(w, http.StatusGone, "QR code is no longer active")
			return
		case errors.Is(err, ErrConflict):
			writeError(w, http.StatusConflict, "QR code already scanned")
			return
		case err != nil:
			rw.logger.Error("recording scan", "user_id", userID, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		msg := fmt.Sprintf("QR code scanné : +%d points !", out.Points)
		writeJSON(w, http.StatusOK, rw.announce(r.Context(), userID, out, msg))
	}
}

func handleActiveDefis(store Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ActiveDefis(r.Context(), now())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func handleGetDefi(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid defi id")
			return
		}
		d, err := store.Defi(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "defi not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func handleCompleteDefi(store Store, rw rewarder, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid defi id")
			return
		}

		userID := userFrom(r)
		d, out, err := store.CompleteDefi(r.Context(), userID, id, now())
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "defi not found")
			return
		case errors.Is(err, ErrInactive):
			writeError(w, http.StatusUnprocessableEntity, "defi is not open")
			return
		case errors.Is(err, ErrConflict):
			writeError(w, http.StatusConflict, "defi already completed")
			return
		case err != nil:
			rw.logger.Error("completing defi", "user_id", userID, "defi_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		msg := fmt.Sprintf("Défi « %s » réussi : +%d points !", d.Title, out.Points)
		writeJSON(w, http.StatusOK, rw.announce(r.Context(), userID, out, msg))
	}
}

func handleStartParcours(store Store, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StartParcoursRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}

		p, err := store.StartParcours(r.Context(), userFrom(r), req.MerchantIDs, now())
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

func handleCompleteParcours(store Store, rw rewarder, now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid parcours id")
			return
		}

		userID := userFrom(r)
		_, out, err := store.CompleteParcours(r.Context(), userID, id, now())
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "parcours not found")
			return
		case errors.Is(err, ErrForbidden):
			writeError(w, http.StatusForbidden, "parcours belongs to another user")
			return
		case errors.Is(err, ErrConflict):
			writeError(w, http.StatusConflict, "parcours is not in progress")
			return
		case err != nil:
			rw.logger.Error("completing parcours", "user_id", userID, "parcours_id", id, "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		msg := fmt.Sprintf("Parcours terminé : +%d points !", out.Points)
		writeJSON(w, http.StatusOK, rw.announce(r.Context(), userID, out, msg))
	}
}

func handleActiveParcours(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ActiveParcours(r.Context(), userFrom(r))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
