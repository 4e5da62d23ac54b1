package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/reeezaw1/rzarmndrv01/internal/domain"
	"github.com/reeezaw1/rzarmndrv01/internal/store"
	"github.com/reeezaw1/rzarmndrv01/web"
)

const (
	headerTelegramID  = "X-Telegram-ID"
	headerSecretToken = "X-Secret-Token"
)

// Server is the read-only web API over stored reminders plus the embedded
// front-end page.
type Server struct {
	repo store.Repo
	log  *zap.Logger
	srv  *http.Server
}

// New builds the HTTP server with its routes and middleware.
func New(addr string, repo store.Repo, log *zap.Logger) *Server {
	s := &Server{repo: repo, log: log}

	r := mux.NewRouter()
	r.HandleFunc("/api/reminders", s.handleReminders).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.Use(Logging(log))

	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{headerTelegramID, headerSecretToken},
	})

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      c.Handler(r),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

// ListenAndServe runs the server until Shutdown.
func (s *Server) ListenAndServe() error {
	return s.srv.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the configured handler for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(web.IndexHTML)
}

// reminderView is the API projection of a reminder.
type reminderView struct {
	ID           int64           `json:"id"`
	TaskName     string          `json:"task_name"`
	Description  string          `json:"description,omitempty"`
	ScheduleType string          `json:"schedule_type"`
	ScheduleData json.RawMessage `json:"schedule_data"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"created_at"`
}

// handleReminders returns the caller's reminders, authenticated by the
// X-Telegram-ID and X-Secret-Token headers.
func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	idHeader := r.Header.Get(headerTelegramID)
	token := r.Header.Get(headerSecretToken)
	if idHeader == "" || token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Missing headers"})
		return
	}
	telegramID, err := strconv.ParseInt(idHeader, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid Telegram ID"})
		return
	}

	u, err := s.repo.GetUser(r.Context(), telegramID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		s.log.Error("get user failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}
	if u.SecretToken != token {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	reminders, err := s.repo.ListUserReminders(r.Context(), telegramID)
	if err != nil {
		s.log.Error("list reminders failed", zap.Int64("telegram_id", telegramID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal error"})
		return
	}
	if len(reminders) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No reminders found"})
		return
	}

	views := make([]reminderView, 0, len(reminders))
	for i := range reminders {
		rem := &reminders[i]
		views = append(views, reminderView{
			ID:           rem.ID,
			TaskName:     rem.TaskName,
			Description:  rem.Description,
			ScheduleType: string(rem.ScheduleType),
			ScheduleData: rem.ScheduleData,
			Status:       string(rem.Status),
			CreatedAt:    rem.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"reminders": views})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
