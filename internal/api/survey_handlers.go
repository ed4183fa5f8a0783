package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/echomapapp/echomap-server/internal/domain"
	"github.com/echomapapp/echomap-server/internal/http/response"
	"github.com/echomapapp/echomap-server/internal/service"
)

// SubmitSurveyResponse acknowledges a stored questionnaire.
type SubmitSurveyResponse struct {
	Ok     bool           `json:"ok"`
	Survey *domain.Survey `json:"survey"`
}

// handleSubmitSurvey stores a taste questionnaire response.
func (s *Server) handleSubmitSurvey(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitSurveyRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	survey, err := s.surveyService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Created(w, SubmitSurveyResponse{Ok: true, Survey: survey}, s.logger)
}
