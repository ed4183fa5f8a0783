package api

import (
	"net/http"

	"github.com/echomapapp/echomap-server/internal/http/response"
)

// handleChartTop50 proxies the Korean daily top-50 chart.
func (s *Server) handleChartTop50(w http.ResponseWriter, r *http.Request) {
	resp, err := s.chartService.Top50(r.Context())
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	response.Success(w, resp, s.logger)
}
