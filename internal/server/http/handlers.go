package internalhttp

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lomoval/murinahi/internal/app"
	log "github.com/sirupsen/logrus"
)

const maxBodySize = 1 << 20

const (
	errEventNotFound       = "event not found"
	errServiceUnavailable  = "service temporarily unavailable"
	errInternalServerError = "internal server error"
	errIncorrectBody       = "incorrect request body"
)

type createEventRequest struct {
	Title     string `json:"title"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type createEventResponse struct {
	ID string `json:"id"`
}

type updateParticipantRequest struct {
	NgDates        []string `json:"ng_dates"`
	Name           string   `json:"name"`
	InputCompleted *bool    `json:"inputCompleted"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req createEventRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	id, err := s.app.CreateEvent(r.Context(), app.CreateEventParams{
		Title:     req.Title,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createEventResponse{ID: id})
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	e, err := s.app.GetEvent(r.Context(), pathParams["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if e == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errEventNotFound})
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) updateParticipant(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	var req updateParticipantRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	res, err := s.app.UpdateParticipant(r.Context(), app.UpdateParticipantParams{
		EventID:        pathParams["id"],
		ParticipantID:  pathParams["participantId"],
		NgDates:        req.NgDates,
		Name:           req.Name,
		InputCompleted: req.InputCompleted,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	summary, err := s.app.Summary(r.Context(), pathParams["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) exportICal(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	data, err := s.app.ExportICal(r.Context(), pathParams["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pathParams["id"]+".ics"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%s: %w", errIncorrectBody, err)
	}
	return nil
}

func writeError(w http.ResponseWriter, err error) {
	switch app.KindOf(err) {
	case app.KindInvalid:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case app.KindNotFound:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: errEventNotFound})
	case app.KindUnavailable:
		log.Warnf("store unavailable: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: errServiceUnavailable})
	default:
		log.Errorf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: errInternalServerError})
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}
