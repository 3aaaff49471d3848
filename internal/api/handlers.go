package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/notamil/notamil-api/internal/auth"
	"github.com/notamil/notamil-api/internal/core"
	"github.com/notamil/notamil-api/internal/store"
)

type APIHandler struct {
	dbStore            *store.SQLiteStore
	correctionService  *core.CorrectionService
	analyticsService   *core.AnalyticsService
	achievementService *core.AchievementService
}

func NewAPIHandler(db *store.SQLiteStore, cs *core.CorrectionService, as *core.AnalyticsService, achs *core.AchievementService) *APIHandler {
	return &APIHandler{
		dbStore:            db,
		correctionService:  cs,
		analyticsService:   as,
		achievementService: achs,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		userID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.dbStore.GetUserByID(userID)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for user %d: %v", userID, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}

		if user == nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", user.ID)
		ctx = context.WithValue(ctx, "user", user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *store.User `json:"user"`
	Token string      `json:"token"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	existing, err := h.dbStore.GetUserByEmail(req.Email)
	if err != nil {
		log.Printf("Error checking email %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "A user with this email already exists", http.StatusConflict)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for %s: %v", req.Email, err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.dbStore.CreateUser(req.Email, req.Name, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		log.Printf("Error generating JWT for user %d: %v", user.ID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{User: user, Token: token})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.dbStore.GetUserByEmail(req.Email)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.Email, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(user.ID)
	if err != nil {
		log.Printf("Error generating JWT for user %d: %v", user.ID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(AuthResponse{User: user, Token: token})
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	user := r.Context().Value("user").(*store.User)
	json.NewEncoder(w).Encode(user)
}

type UpdateMeRequest struct {
	Name string `json:"name"`
}

func (h *APIHandler) UpdateMeHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req UpdateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name cannot be empty", http.StatusBadRequest)
		return
	}

	user, err := h.dbStore.UpdateUserName(userID, req.Name)
	if err != nil || user == nil {
		log.Printf("Error updating user %d: %v", userID, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(user)
}

type SubmitEssayRequest struct {
	Topic string `json:"topic"`
	Text  string `json:"text"`
}

func (h *APIHandler) SubmitEssayHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req SubmitEssayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.correctionService.Submit(r.Context(), userID, req.Topic, req.Text)
	if err != nil {
		h.writeSubmitError(w, userID, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(result)
}

// writeSubmitError maps pipeline failures to status codes. Upstream failures
// surface as 502 with a message that tells blocked content apart from a plain
// failure; format failures stay generic, their details live in the server log.
func (h *APIHandler) writeSubmitError(w http.ResponseWriter, userID int64, err error) {
	var validationErr *core.ValidationError
	var upstreamErr *core.UpstreamError
	var formatErr *core.GradeFormatError

	switch {
	case errors.As(err, &validationErr):
		http.Error(w, validationErr.Error(), http.StatusBadRequest)
	case errors.As(err, &upstreamErr):
		log.Printf("Upstream grading failure for user %d: %v", userID, err)
		if upstreamErr.Blocked {
			http.Error(w, "Essay content was blocked by the grading provider", http.StatusBadGateway)
		} else {
			http.Error(w, "Grading service is unavailable, please try again later", http.StatusBadGateway)
		}
	case errors.As(err, &formatErr):
		http.Error(w, "Failed to process grading response", http.StatusInternalServerError)
	default:
		log.Printf("Error submitting essay for user %d: %v", userID, err)
		http.Error(w, "Failed to submit essay", http.StatusInternalServerError)
	}
}

func (h *APIHandler) ListEssaysHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	history, err := h.correctionService.History(userID)
	if err != nil {
		log.Printf("Error listing essays for user %d: %v", userID, err)
		http.Error(w, "Failed to list essays", http.StatusInternalServerError)
		return
	}
	if history == nil {
		history = []store.EssayWithCorrection{}
	}
	json.NewEncoder(w).Encode(history)
}

type EssayDetailResponse struct {
	Essay       *store.Essay       `json:"essay"`
	Corrections []store.Correction `json:"corrections"`
}

func (h *APIHandler) GetEssayHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	essayID := chi.URLParam(r, "essayID")

	essay, corrections, err := h.correctionService.EssayDetail(essayID, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			http.Error(w, "Essay not found", http.StatusNotFound)
			return
		}
		log.Printf("Error getting essay %s for user %d: %v", essayID, userID, err)
		http.Error(w, "Failed to get essay", http.StatusInternalServerError)
		return
	}
	if corrections == nil {
		corrections = []store.Correction{}
	}
	json.NewEncoder(w).Encode(EssayDetailResponse{Essay: essay, Corrections: corrections})
}

func (h *APIHandler) AnalyticsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	snapshot, err := h.analyticsService.Analyze(userID)
	if err != nil {
		log.Printf("Error computing analytics for user %d: %v", userID, err)
		http.Error(w, "Failed to compute analytics", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(snapshot)
}

func (h *APIHandler) AchievementsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	achievements, err := h.achievementService.Evaluate(userID)
	if err != nil {
		log.Printf("Error evaluating achievements for user %d: %v", userID, err)
		http.Error(w, "Failed to evaluate achievements", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(achievements)
}
