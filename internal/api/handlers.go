package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/Divas-Gupta30/interview-agent/internal/ingestion"
	"github.com/Divas-Gupta30/interview-agent/internal/interview"
)

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, map[string]string{"message": "AI面试助手服务运行中"})
}

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	sess, err := s.svc.Start(nil)
	if err != nil {
		s.logger.Error("starting session failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}
	writeJSONResponse(w, map[string]string{
		"session_id": sess.ID,
		"message":    "面试会话已创建",
	})
}

func (s *Server) handleUploadPDF(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if _, err := s.svc.Session(id); err != nil {
		writeError(w, http.StatusNotFound, "会话不存在")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()
	s.logger.Info("resume upload received", "session_id", id, "filename", header.Filename)

	parsed, err := s.svc.IngestResume(r.Context(), id, header.Filename, file)
	switch {
	case err == nil:
	case errors.Is(err, interview.ErrNotPDF):
		s.logger.Warn("rejected upload", "session_id", id, "filename", header.Filename)
		writeError(w, http.StatusBadRequest, "只支持PDF文件")
		return
	case errors.Is(err, interview.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "会话不存在")
		return
	case errors.Is(err, ingestion.ErrMalformedResume), errors.Is(err, ingestion.ErrUnsupported):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	default:
		s.logger.Error("resume parsing failed", "session_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSONResponse(w, map[string]interface{}{
		"success":       true,
		"filename":      header.Filename,
		"parsed_resume": json.RawMessage(parsed.Raw),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, ok := s.svc.Status(r.Context(), mux.Vars(r)["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	writeJSONResponse(w, st)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ex, ok := s.exchange(w, id)
	if !ok {
		return
	}
	since := 0
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid since parameter")
			return
		}
		since = n
	}

	msgs, pending, waiting := ex.Messages(since)
	st, _ := s.svc.Status(r.Context(), id)
	writeJSONResponse(w, map[string]interface{}{
		"messages": msgs,
		"pending":  pending,
		"waiting":  waiting,
		"status":   st.Status,
	})
}

type answerRequest struct {
	Answer string `json:"answer"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.exchange(w, mux.Vars(r)["id"])
	if !ok {
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := ex.Answer(req.Answer); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"accepted": true})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.svc.Reports(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, interview.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read reports")
		return
	}
	writeJSONResponse(w, map[string]interface{}{"reports": reports})
}

func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Abort(mux.Vars(r)["id"]); err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			s.logger.Warn("health check failed", "dependency", name, "error", err)
			writeError(w, http.StatusServiceUnavailable, name+" connection failed")
			return
		}
	}
	writeJSONResponse(w, map[string]string{"status": "healthy"})
}

func (s *Server) exchange(w http.ResponseWriter, id string) (*interview.Exchange, bool) {
	ex, err := s.svc.Exchange(id)
	switch {
	case err == nil:
		return ex, true
	case errors.Is(err, interview.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	default:
		writeError(w, http.StatusConflict, err.Error())
	}
	return nil, false
}
