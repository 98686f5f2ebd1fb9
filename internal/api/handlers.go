package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"pulsewatch.io/sentiment-api/internal/auth"
	"pulsewatch.io/sentiment-api/internal/core"
	"pulsewatch.io/sentiment-api/internal/store"
)

type contextKey string

const userContextKey contextKey = "user"

type APIHandler struct {
	tokens           *auth.TokenManager
	userService      *core.UserService
	sentimentService *core.SentimentService
	trendService     *core.TrendService
	trackingService  *core.TrackingService
	crawlService     *core.CrawlService
	reportService    *core.ReportService
}

func NewAPIHandler(
	tokens *auth.TokenManager,
	users *core.UserService,
	sentiments *core.SentimentService,
	trends *core.TrendService,
	tracking *core.TrackingService,
	crawls *core.CrawlService,
	reports *core.ReportService,
) *APIHandler {
	return &APIHandler{
		tokens:           tokens,
		userService:      users,
		sentimentService: sentiments,
		trendService:     trends,
		trackingService:  tracking,
		crawlService:     crawls,
		reportService:    reports,
	}
}

// JWTAuthMiddleware resolves the bearer token to a full user identity via
// the profile cache and stores it on the request context.
func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		email, err := h.tokens.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.userService.GetByEmail(email)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for %s: %v", email, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}
		if user == nil {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func currentUser(r *http.Request) *store.User {
	return r.Context().Value(userContextKey).(*store.User)
}

// RequireEnterprise gates a route to enterprise or admin accounts.
func (h *APIHandler) RequireEnterprise(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user.Role != store.RoleEnterprise && user.Role != store.RoleAdmin {
			http.Error(w, "Enterprise access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates a route to admin accounts.
func (h *APIHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := currentUser(r)
		if user.Role != store.RoleAdmin {
			http.Error(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	Password        string `json:"password"`
	Role            string `json:"role"`
	CompanyName     string `json:"company_name"`
	BusinessAddress string `json:"business_address"`
	TaxID           string `json:"tax_id"`
}

func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Username == "" || req.Password == "" {
		http.Error(w, "Email, username and password are required", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = store.RoleNormal
	}
	if req.Role != store.RoleNormal && req.Role != store.RoleEnterprise {
		http.Error(w, "Role must be 'normal' or 'enterprise'", http.StatusBadRequest)
		return
	}
	if req.Role == store.RoleEnterprise && (req.CompanyName == "" || req.BusinessAddress == "" || req.TaxID == "") {
		http.Error(w, "Enterprise accounts require company_name, business_address and tax_id", http.StatusBadRequest)
		return
	}

	user, err := h.userService.Register(core.RegisterParams{
		Email:           req.Email,
		Username:        req.Username,
		Password:        req.Password,
		Role:            req.Role,
		CompanyName:     req.CompanyName,
		BusinessAddress: req.BusinessAddress,
		TaxID:           req.TaxID,
	})
	if err != nil {
		if errors.Is(err, core.ErrDuplicateUser) {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		log.Printf("Error registering user %s: %v", req.Email, err)
		http.Error(w, "Failed to register user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
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

	user, err := h.userService.Authenticate(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
			return
		}
		log.Printf("Error authenticating %s: %v", req.Email, err)
		http.Error(w, "Failed to authenticate", http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.GenerateJWT(user.Email)
	if err != nil {
		log.Printf("Error generating JWT for %s: %v", user.Email, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"access_token": token, "token_type": "bearer"})
}

func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	// The cache entry must be gone before we acknowledge the logout.
	if err := h.userService.Logout(user.Email); err != nil {
		log.Printf("Error invalidating cached profile for %s: %v", user.Email, err)
		http.Error(w, "Failed to log out", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{
		"msg": "User '" + user.Username + "' logged out (client must discard token).",
	})
}

func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(currentUser(r))
}

type UpdateProfileRequest struct {
	Username        string `json:"username"`
	CompanyName     string `json:"company_name"`
	BusinessAddress string `json:"business_address"`
	TaxID           string `json:"tax_id"`
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.userService.UpdateProfile(user.Email, req.Username, req.CompanyName, req.BusinessAddress, req.TaxID)
	if err != nil {
		log.Printf("Error updating profile for %s: %v", user.Email, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(updated)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *APIHandler) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		http.Error(w, "Old and new passwords are required", http.StatusBadRequest)
		return
	}

	if err := h.userService.ChangePassword(user.Email, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			http.Error(w, "Old password is incorrect", http.StatusUnauthorized)
			return
		}
		log.Printf("Error changing password for %s: %v", user.Email, err)
		http.Error(w, "Failed to change password", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"msg": "Password updated successfully"})
}

func (h *APIHandler) ModelReportsHandler(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reportService.LatestModelReports()
	if err != nil {
		log.Printf("Error fetching model reports: %v", err)
		http.Error(w, "Failed to fetch reports", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(reports)
}
