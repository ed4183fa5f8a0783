package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/echomapapp/echomap-server/internal/domain"
	"github.com/echomapapp/echomap-server/internal/http/response"
	"github.com/echomapapp/echomap-server/internal/service"
)

// RecordPlayLogResponse acknowledges a stored play log.
type RecordPlayLogResponse struct {
	Ok  bool              `json:"ok"`
	Log *domain.PlayEvent `json:"log"`
}

// PlayLogHistoryResponse carries a user's recent play events, newest
// first.
type PlayLogHistoryResponse struct {
	Total int                 `json:"total"`
	Items []*domain.PlayEvent `json:"items"`
}

// handleRecordPlayLog stores a client-supplied play log as a popular
// channel event.
func (s *Server) handleRecordPlayLog(w http.ResponseWriter, r *http.Request) {
	var req service.RecordRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	event, err := s.playLogService.Record(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, RecordPlayLogResponse{Ok: true, Log: event}, s.logger)
}

// handlePlayLogHistory returns the caller's recent play events.
func (s *Server) handlePlayLogHistory(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	limit := queryInt(r, "limit")

	events, err := s.playLogService.History(r.Context(), userID, limit)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, PlayLogHistoryResponse{
		Total: len(events),
		Items: events,
	}, s.logger)
}
