package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"tablebook/internal/database"
	"tablebook/internal/rules"
)

func (s *HTTPServer) handleTables(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createTable(w, r)
	case http.MethodGet:
		s.listTables(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleTablePath(w http.ResponseWriter, r *http.Request) {
	segments := pathSegments(r.URL.Path, "/tables/")
	if len(segments) == 0 {
		s.handleTables(w, r)
		return
	}

	id := segments[0]
	switch {
	case len(segments) == 1 && r.Method == http.MethodGet:
		s.getTable(w, r, id)
	case len(segments) == 2 && segments[1] == "seat" && r.Method == http.MethodPut:
		s.seatTable(w, r, id)
	case len(segments) == 2 && segments[1] == "seat" && r.Method == http.MethodDelete:
		s.finishTable(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) createTable(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data *rules.TableInput `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Data == nil {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}

	created, err := s.tables.Create(r.Context(), *body.Data)
	if err != nil {
		s.respondServiceError(w, err, nil)
		return
	}
	writeData(w, http.StatusCreated, created)
}

func (s *HTTPServer) listTables(w http.ResponseWriter, r *http.Request) {
	listed, err := s.tables.List(r.Context())
	if err != nil {
		s.respondServiceError(w, err, nil)
		return
	}
	writeData(w, http.StatusOK, listed)
}

func (s *HTTPServer) getTable(w http.ResponseWriter, r *http.Request, id string) {
	tableID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Table Id: %s cannot be found.", id))
		return
	}

	found, err := s.tables.Get(r.Context(), tableID)
	if err != nil {
		s.respondServiceError(w, err, map[error]string{
			database.ErrTableNotFound: fmt.Sprintf("Table Id: %s cannot be found.", id),
		})
		return
	}
	writeData(w, http.StatusOK, found)
}

func (s *HTTPServer) seatTable(w http.ResponseWriter, r *http.Request, id string) {
	tableID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Table Id: %s cannot be found.", id))
		return
	}

	var body struct {
		Data *struct {
			ReservationID *int64 `json:"reservation_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Data == nil {
		writeError(w, http.StatusBadRequest, "Missing data")
		return
	}
	if body.Data.ReservationID == nil {
		writeError(w, http.StatusBadRequest, "Missing reservation_id")
		return
	}
	reservationID := *body.Data.ReservationID

	seated, err := s.tables.Seat(r.Context(), tableID, reservationID)
	if err != nil {
		s.respondServiceError(w, err, map[error]string{
			database.ErrReservationNotFound: fmt.Sprintf("%v does not exist", reservationID),
			database.ErrTableNotFound:       fmt.Sprintf("Table Id: %s cannot be found.", id),
		})
		return
	}
	writeData(w, http.StatusOK, seated)
}

func (s *HTTPServer) finishTable(w http.ResponseWriter, r *http.Request, id string) {
	tableID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Table Id: %s cannot be found.", id))
		return
	}

	finished, err := s.tables.Finish(r.Context(), tableID)
	if err != nil {
		s.respondServiceError(w, err, map[error]string{
			database.ErrTableNotFound: fmt.Sprintf("Table Id: %s cannot be found.", id),
		})
		return
	}
	writeData(w, http.StatusOK, finished)
}
