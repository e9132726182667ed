package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"go.uber.org/zap"

	"library/internal/catalog"
	"library/internal/circulation"
	"library/internal/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
	MemberID string `json:"member_id,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Failed to decode request body", zap.Error(err))
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" {
		http.Error(w, `{"error":"Missing required fields"}`, http.StatusBadRequest)
		return
	}

	role, ok := s.core.Authenticate(r.Context(), req.Username, req.Password)
	if !ok {
		http.Error(w, `{"error":"Invalid credentials"}`, http.StatusUnauthorized)
		return
	}

	token := s.newSession(role)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	resp := LoginResponse{Token: token, Username: req.Username, Role: role.Name()}
	if member, ok := models.AsMember(role); ok {
		resp.MemberID = member.MemberID
	}
	s.logger.Info("HTTP login", zap.String("username", req.Username), zap.String("role", role.Name()))
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		s.endSession(token)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

// handleSearch returns the book with the given title
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		http.Error(w, `{"error":"Missing title"}`, http.StatusBadRequest)
		return
	}

	book, found := s.core.SearchBook(r.Context(), title)
	if !found {
		http.Error(w, `{"error":"Book not found"}`, http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, book)
}

// AddBookRequest represents the request body for adding a book
type AddBookRequest struct {
	Title    string `json:"title"`
	ISBN     string `json:"isbn"`
	Author   string `json:"author"`
	Year     string `json:"year"`
	Category string `json:"category"`
}

func (s *Server) handleAddBook(w http.ResponseWriter, r *http.Request) {
	var req AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.logger.Warn("Failed to decode request body", zap.Error(err))
		http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
		return
	}
	if slices.Contains([]string{req.Title, req.ISBN, req.Author, req.Year}, "") {
		http.Error(w, `{"error":"Missing required fields"}`, http.StatusBadRequest)
		return
	}

	id, err := s.core.CreateBook(r.Context(), catalog.NewBook{
		Title:    req.Title,
		ISBN:     req.ISBN,
		Author:   req.Author,
		Year:     req.Year,
		Category: req.Category,
	})
	switch {
	case errors.Is(err, catalog.ErrInvalidYear):
		http.Error(w, `{"error":"Year must be a number"}`, http.StatusBadRequest)
		return
	case err != nil:
		s.logger.Error("Failed to add book", zap.Error(err), zap.String("title", req.Title))
		http.Error(w, `{"error":"Failed to add book"}`, http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "success", "id": id})
}

func (s *Server) handleRemoveBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.core.RemoveBook(r.Context(), id) {
		http.Error(w, `{"error":"Failed to remove book"}`, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (s *Server) handleBorrow(w http.ResponseWriter, r *http.Request) {
	member, _ := models.AsMember(roleFrom(r.Context()))
	id := r.PathValue("id")

	ok, msg := s.core.BorrowBook(r.Context(), id, member)
	if ok {
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": msg})
		return
	}

	status := http.StatusInternalServerError
	switch msg {
	case circulation.MsgNotAvailable:
		status = http.StatusConflict
	case circulation.MsgMemberNotFound:
		status = http.StatusNotFound
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.core.ListAllTransactions(r.Context()))
}
