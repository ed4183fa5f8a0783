package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/echomapapp/echomap-server/internal/http/response"
	"github.com/echomapapp/echomap-server/internal/service"
)

// handleWeatherRecommend recommends tracks matching the current
// weather, validated against the catalog.
func (s *Server) handleWeatherRecommend(w http.ResponseWriter, r *http.Request) {
	var req service.WeatherRecommendRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	resp, err := s.recommendService.WeatherRecommend(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, resp, s.logger)
}

// handleChat runs one turn of the mood recommendation chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req service.ChatRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	resp, err := s.recommendService.Chat(r.Context(), req)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, resp, s.logger)
}
