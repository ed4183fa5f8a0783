package api

import (
	"net/http"

	"github.com/echomapapp/echomap-server/internal/http/response"
	"github.com/echomapapp/echomap-server/internal/service"
)

// handlePopularNearby answers the popular-nearby aggregation query.
func (s *Server) handlePopularNearby(w http.ResponseWriter, r *http.Request) {
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

	resp, err := s.statsService.PopularNear(r.Context(), service.PopularNearRequest{
		Lat:      lat,
		Lng:      lng,
		RadiusKm: queryFloat(r, "radius_km"),
		WindowD:  queryInt(r, "window_d"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, resp, s.logger)
}

// handleLiveNearby answers the who-is-listening-nearby feed query.
func (s *Server) handleLiveNearby(w http.ResponseWriter, r *http.Request) {
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

	resp, err := s.liveService.LiveNear(r.Context(), service.LiveNearRequest{
		Lat:      lat,
		Lng:      lng,
		RadiusKm: queryFloat(r, "radius_km"),
		WindowS:  queryInt(r, "window_s"),
		Limit:    queryInt(r, "limit"),
	})
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, resp, s.logger)
}
