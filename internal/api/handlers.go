package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
	})
}

// handleOnlineTime serves GET /api/v1/online-time?pes_id=...
func (s *Server) handleOnlineTime(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("pes_id")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "pes_id is required")
		return
	}
	subjectID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "pes_id must be an integer")
		return
	}

	s.computeOnlineTime(w, r, subjectID)
}

// handleSubjectOnlineTime serves GET /api/v1/subjects/{id}/online-time
func (s *Server) handleSubjectOnlineTime(w http.ResponseWriter, r *http.Request) {
	subjectID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid subject id")
		return
	}

	s.computeOnlineTime(w, r, subjectID)
}

func (s *Server) computeOnlineTime(w http.ResponseWriter, r *http.Request, subjectID int64) {
	req, err := s.parseRequest(r.URL.Query(), subjectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := s.service.ComputeOnlineTime(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.logger.Error().Err(err).Int64("subject_id", subjectID).Msg("Online time computation failed")
		}
		writeError(w, status, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, NewOnlineTimeResponse(summary, s.config.DateLayout))
}

// handleListSubjects serves GET /api/v1/subjects
func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.subjects.List(r.Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list subjects")
		writeError(w, http.StatusInternalServerError, "failed to list subjects")
		return
	}

	resp := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		resp = append(resp, SubjectResponse{
			ExternalID: subject.ExternalID,
			UserID:     subject.UserID,
			FullName:   subject.FullName(),
		})
	}

	WriteJSON(w, http.StatusOK, resp)
}
