package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/critterbyte/arcade-api/src/app/highscores"
	"github.com/critterbyte/arcade-api/src/domain/score"
)

const storeFailureMessage = "internal server error"

type ScoreEntryResponse struct {
	ID        int64     `json:"id"`
	Initials  string    `json:"initials"`
	Score     int64     `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

func entryResponse(entry *score.Entry) ScoreEntryResponse {
	return ScoreEntryResponse{
		ID:        int64(entry.ID),
		Initials:  entry.Initials,
		Score:     entry.Score,
		CreatedAt: entry.CreatedAt,
	}
}

func (s *Server) handleGetTopScores(w http.ResponseWriter, r *http.Request) {
	entries, err := s.cfg.HighScores.GetTop10(r.Context())
	if err != nil {
		s.logStoreFailure(r, "fetch high scores", err)
		s.writeError(w, http.StatusInternalServerError, storeFailureMessage)
		return
	}

	out := make([]ScoreEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entryResponse(entry))
	}
	s.writeJSON(w, http.StatusOK, out)
}

type SubmitScoreRequest struct {
	Initials string      `json:"initials"`
	Score    json.Number `json:"score"`
	Email    *string     `json:"email"`
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req SubmitScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	// The wire value must be an integer-valued number; "12.5" and "abc"
	// both fail here before the service sees anything.
	value, err := req.Score.Int64()
	if err != nil {
		s.writeError(w, http.StatusBadRequest, score.ErrInvalidScore.Error())
		return
	}

	entry, err := s.cfg.HighScores.Submit(r.Context(), highscores.SubmitCommand{
		Initials: req.Initials,
		Score:    value,
		Email:    req.Email,
	})
	if err != nil {
		if isInvalidInput(err) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logStoreFailure(r, "create high score", err)
		s.writeError(w, http.StatusInternalServerError, storeFailureMessage)
		return
	}
	s.writeJSON(w, http.StatusOK, entryResponse(entry))
}

type CheckHighScoreResponse struct {
	IsTopTen bool `json:"isTopTen"`
}

func (s *Server) handleCheckHighScore(w http.ResponseWriter, r *http.Request) {
	raw := mux.Vars(r)["score"]
	candidate, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || candidate < 0 {
		s.writeError(w, http.StatusBadRequest, score.ErrInvalidScore.Error())
		return
	}

	qualifies, err := s.cfg.HighScores.CheckQualifies(r.Context(), candidate)
	if err != nil {
		if isInvalidInput(err) {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logStoreFailure(r, "check high score", err)
		s.writeError(w, http.StatusInternalServerError, storeFailureMessage)
		return
	}
	s.writeJSON(w, http.StatusOK, CheckHighScoreResponse{IsTopTen: qualifies})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.cfg.HealthCheck != nil {
		if err := s.cfg.HealthCheck(r.Context()); err != nil {
			s.logStoreFailure(r, "health check", err)
			s.writeError(w, http.StatusServiceUnavailable, "store unreachable")
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func isInvalidInput(err error) bool {
	return errors.Is(err, score.ErrInvalidInitials) ||
		errors.Is(err, score.ErrInvalidScore) ||
		errors.Is(err, score.ErrInvalidEmail)
}

// logStoreFailure records the real error server-side; the client only ever
// sees a generic message.
func (s *Server) logStoreFailure(r *http.Request, op string, err error) {
	s.cfg.Logger.Error("store operation failed",
		zap.String("op", op),
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.Error(err),
	)
}
