package api

import (
	"encoding/json/v2"
	"net/http"

	"github.com/echomapapp/echomap-server/internal/domain"
	"github.com/echomapapp/echomap-server/internal/http/response"
	"github.com/echomapapp/echomap-server/internal/service"
)

// handleCurrentlyPlayingQuery resolves the caller's current Spotify
// playback from query parameters and logs it as a popular event.
func (s *Server) handleCurrentlyPlayingQuery(w http.ResponseWriter, r *http.Request) {
	lat, err := requireCoord(r, "lat")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	lng, err := requireCoord(r, "lng")
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	req := service.CaptureNowRequest{
		AccessToken: r.URL.Query().Get("accessToken"),
		UserID:      r.URL.Query().Get("userId"),
		UserName:    r.URL.Query().Get("userName"),
		Lat:         &lat,
		Lng:         &lng,
	}

	s.captureNow(w, r, req, domain.ChannelPopular)
}

// handleCurrentlyPlaying resolves current playback from a JSON body
// and logs it as a popular event.
func (s *Server) handleCurrentlyPlaying(w http.ResponseWriter, r *http.Request) {
	var req service.CaptureNowRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	s.captureNow(w, r, req, domain.ChannelPopular)
}

// handleLiveNow publishes a live-presence beacon from the caller's
// current playback.
func (s *Server) handleLiveNow(w http.ResponseWriter, r *http.Request) {
	var req service.CaptureNowRequest
	if err := json.UnmarshalRead(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger)
		return
	}

	s.captureNow(w, r, req, domain.ChannelLive)
}

func (s *Server) captureNow(w http.ResponseWriter, r *http.Request, req service.CaptureNowRequest, channel domain.Channel) {
	resp, err := s.liveService.CaptureNow(r.Context(), req, channel)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	// Nothing playing is a normal outcome, still a 200.
	response.Success(w, resp, s.logger)
}
