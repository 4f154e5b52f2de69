package handler

import "net/http"

// GetSession handles GET /session.
func (s *Server) GetSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.session.State())
}

// Login handles POST /session/login. On failure the body is the error and
// the session keeps the message as its last error. A successful login loads
// the records; a failed load still answers 200 and shows up as last_error.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Login(r.Context()); err != nil {
		s.writeError(w, r, err, "session")
		return
	}
	if n, err := s.records.Refresh(r.Context()); err != nil {
		s.logger.WarnContext(r.Context(), "refresh after login failed", "error", err)
	} else {
		s.logger.InfoContext(r.Context(), "records loaded", "count", n)
	}
	writeJSON(w, http.StatusOK, s.session.State())
}

// Logout handles POST /session/logout.
func (s *Server) Logout(w http.ResponseWriter, _ *http.Request) {
	s.session.Logout()
	writeJSON(w, http.StatusOK, s.session.State())
}
