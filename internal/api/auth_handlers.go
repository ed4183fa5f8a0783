package api

import (
	"net/http"

	"github.com/echomapapp/echomap-server/internal/http/response"
)

// handleLogin redirects the browser to the Spotify authorize page.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.authService.LoginURL(), http.StatusFound)
}

// handleCallback completes the authorization-code exchange and sends
// the browser back to the frontend with its session parameters.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		response.Unauthorized(w, "spotify authorization denied: "+errMsg, s.logger)
		return
	}

	redirect, err := s.authService.HandleCallback(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}

	http.Redirect(w, r, redirect, http.StatusFound)
}
