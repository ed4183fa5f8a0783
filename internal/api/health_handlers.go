package api

import (
	"net/http"

	"github.com/echomapapp/echomap-server/internal/http/response"
)

// HealthResponse is the liveness probe payload.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// handleHealthCheck reports service liveness.
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	response.Success(w, HealthResponse{
		Status:  "ok",
		Service: "echomap-server",
	}, s.logger)
}
