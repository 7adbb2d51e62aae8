package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"tablebook/internal/database"
	"tablebook/internal/models"
	"tablebook/internal/rules"
)

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createReservation(w, r)
	case http.MethodGet:
		s.listReservations(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleReservationPath(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/reservations/")
	if len(segments) == 0 {
		s.handleReservations(w, r)
		return
	}

	if segments[0] == "export" && len(segments) == 1 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.exportReservations(w, r)
		return
	}

	id := segments[0]
	switch {
	case len(segments) == 1 && r.Method == http.MethodGet:
		s.getReservation(w, r, id)
	case len(segments) == 1 && r.Method == http.MethodPut:
		s.updateReservation(w, r, id)
	case len(segments) == 2 && segments[1] == "status" && r.Method == http.MethodPut:
		s.updateReservationStatus(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) createReservation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data *rules.ReservationInput `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Data == nil {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}

	created, err := s.reservations.Create(r.Context(), *body.Data)
	if err != nil {
		s.respondServiceError(w, err, nil)
		return
	}
	writeData(w, http.StatusCreated, created)
}

func (s *HTTPServer) listReservations(w http.ResponseWriter, r *http.Request) {
	if date := r.URL.Query().Get("date"); date != "" {
		listed, err := s.reservations.ListByDate(r.Context(), date)
		if err != nil {
			s.respondServiceError(w, err, nil)
			return
		}
		writeData(w, http.StatusOK, listed)
		return
	}

	if mobile := r.URL.Query().Get("mobile_number"); mobile != "" {
		found, err := s.reservations.SearchByMobile(r.Context(), mobile)
		if err != nil {
			s.respondServiceError(w, err, nil)
			return
		}
		writeData(w, http.StatusOK, found)
		return
	}

	writeData(w, http.StatusOK, []models.Reservation{})
}

func (s *HTTPServer) getReservation(w http.ResponseWriter, r *http.Request, id string) {
	reservationID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Reservation Id: %s cannot be found.", id))
		return
	}

	found, err := s.reservations.Get(r.Context(), reservationID)
	if err != nil {
		s.respondServiceError(w, err, map[error]string{
			database.ErrReservationNotFound: fmt.Sprintf("Reservation Id: %s cannot be found.", id),
		})
		return
	}
	writeData(w, http.StatusOK, found)
}

func (s *HTTPServer) updateReservation(w http.ResponseWriter, r *http.Request, id string) {
	reservationID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Reservation Id: %s cannot be found.", id))
		return
	}

	var body struct {
		Data *rules.ReservationInput `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Data == nil {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}

	updated, err := s.reservations.Update(r.Context(), reservationID, *body.Data)
	if err != nil {
		s.respondServiceError(w, err, map[error]string{
			database.ErrReservationNotFound: fmt.Sprintf("Reservation Id: %s cannot be found.", id),
		})
		return
	}
	writeData(w, http.StatusOK, updated)
}

func (s *HTTPServer) updateReservationStatus(w http.ResponseWriter, r *http.Request, id string) {
	reservationID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Reservation Id: %s cannot be found.", id))
		return
	}

	var body struct {
		Data *struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Data == nil {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}

	status, err := s.reservations.UpdateStatus(r.Context(), reservationID, body.Data.Status)
	if err != nil {
		s.respondServiceError(w, err, map[error]string{
			database.ErrReservationNotFound: fmt.Sprintf("Reservation Id: %s cannot be found.", id),
		})
		return
	}
	writeData(w, http.StatusOK, map[string]string{"status": status})
}

func (s *HTTPServer) exportReservations(w http.ResponseWriter, r *http.Request) {
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "export is not configured")
		return
	}

	now := time.Now()
	start := now
	end := now.AddDate(0, 0, 30)
	if raw := r.URL.Query().Get("start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s is not a valid date", raw))
			return
		}
		start = parsed
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("%s is not a valid date", raw))
			return
		}
		end = parsed
	}

	listed, err := s.reservations.GetByDateRange(r.Context(), start, end)
	if err != nil {
		s.respondServiceError(w, err, nil)
		return
	}

	filePath, err := s.exporter.Export(listed, start, end)
	if err != nil {
		s.logger.Error().Err(err).Msg("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", filepath.Base(filePath)))
	w.Header().Set("Content-Type",
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	http.ServeFile(w, r, filePath)
}
