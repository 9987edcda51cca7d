package api

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"golang.org/x/crypto/bcrypt"

	"github.com/pagecraft/pagecraft/internal/database/queries"
)

type GitHubUser struct {
	ID        int    `json:"id"`
	Login     string `json:"login"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar_url"`
}

type GitHubAccessTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Scope       string `json:"scope"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// handleRegister creates a new account with an email and password
func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		http.Error(w, "name, email, and password are required", http.StatusBadRequest)
		return
	}
	at := strings.IndexByte(req.Email, '@')
	if at <= 0 || at == len(req.Email)-1 {
		http.Error(w, "invalid email address", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		http.Error(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}
	if req.Username == "" {
		req.Username = req.Email[:at]
	}

	// Reject duplicate emails before hashing
	_, err := s.db.UserFindByEmail(ctx, req.Email)
	if err == nil {
		http.Error(w, "An account with this email already exists", http.StatusConflict)
		return
	}
	if err != pgx.ErrNoRows {
		s.logger.Error("Failed to check existing user", "error", err)
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", "error", err)
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	user, err := s.db.UserCreate(ctx, &queries.UserCreateParams{
		Name:         req.Name,
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: pgtype.Text{String: string(hash), Valid: true},
	})
	if err != nil {
		// A concurrent register can win the race between the pre-check and
		// the insert; the unique index reports it here.
		if isUniqueViolation(err) {
			http.Error(w, "An account with this email already exists", http.StatusConflict)
			return
		}
		s.logger.Error("Failed to create user", "error", err)
		http.Error(w, "Failed to create account", http.StatusInternalServerError)
		return
	}

	s.issueSession(w, r, user, http.StatusCreated)
}

// handleLogin authenticates an email/password pair
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	user, err := s.db.UserFindByEmail(ctx, req.Email)
	if err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if !user.PasswordHash.Valid {
		// Social login account without a password
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash.String), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	s.issueSession(w, r, user, http.StatusOK)
}

// issueSession creates a session row and returns a signed JWT
func (s *Service) issueSession(w http.ResponseWriter, r *http.Request, user *queries.User, status int) {
	ctx := r.Context()

	jwtToken, err := s.createJWTToken(user.ID)
	if err != nil {
		s.logger.Error("Failed to create JWT token", "error", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	_, err = s.db.SessionCreate(ctx, &queries.SessionCreateParams{
		UserID:    user.ID,
		Token:     generateSessionToken(),
		ExpiresAt: pgtype.Timestamptz{Time: time.Now().Add(s.config.SessionTTL), Valid: true},
	})
	if err != nil {
		s.logger.Error("Failed to create session", "error", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	writeJSON(w, status, AuthResponse{
		Token: jwtToken,
		User:  userToResponse(user),
	})
}

// handleGitHubAuth initiates the GitHub OAuth flow
func (s *Service) handleGitHubAuth(w http.ResponseWriter, r *http.Request) {
	if s.config.GitHubClientID == "" {
		http.Error(w, "GitHub login is not configured", http.StatusNotImplemented)
		return
	}

	// Generate state for CSRF protection
	state := generateState()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600, // 10 minutes
	})

	params := url.Values{}
	params.Add("client_id", s.config.GitHubClientID)
	params.Add("redirect_uri", s.config.BaseURL+"/v1/auth/github/callback")
	params.Add("scope", "read:user user:email")
	params.Add("state", state)

	authURL := fmt.Sprintf("https://github.com/login/oauth/authorize?%s", params.Encode())
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// handleGitHubCallback handles the GitHub OAuth callback
func (s *Service) handleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie("oauth_state")
	if err != nil || cookie.Value != state {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "Missing authorization code", http.StatusBadRequest)
		return
	}

	token, err := s.exchangeCodeForToken(code)
	if err != nil {
		s.logger.Error("Failed to exchange code for token", "error", err)
		http.Error(w, "Authentication failed", http.StatusInternalServerError)
		return
	}

	githubUser, err := s.getGitHubUser(token)
	if err != nil {
		s.logger.Error("Failed to get GitHub user", "error", err)
		http.Error(w, "Failed to get user information", http.StatusInternalServerError)
		return
	}

	user, err := s.createOrUpdateUser(ctx, githubUser)
	if err != nil {
		s.logger.Error("Failed to create/update user", "error", err)
		http.Error(w, "Failed to process user", http.StatusInternalServerError)
		return
	}

	s.issueSession(w, r, user, http.StatusOK)
}

// handleLogout deletes the caller's sessions
func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFromContext(ctx)

	err := s.db.SessionDeleteByUser(ctx, userID)
	if err != nil && err != pgx.ErrNoRows {
		s.logger.Error("Failed to delete session", "error", err)
		http.Error(w, "Failed to logout", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// exchangeCodeForToken exchanges a GitHub authorization code for an access token
func (s *Service) exchangeCodeForToken(code string) (string, error) {
	params := url.Values{}
	params.Add("client_id", s.config.GitHubClientID)
	params.Add("client_secret", s.config.GitHubSecret)
	params.Add("code", code)

	req, err := http.NewRequest("POST", "https://github.com/login/oauth/access_token", nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")
	req.URL.RawQuery = params.Encode()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var tokenResp GitHubAccessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", err
	}

	return tokenResp.AccessToken, nil
}

// getGitHubUser gets user information from GitHub
func (s *Service) getGitHubUser(token string) (*GitHubUser, error) {
	req, err := http.NewRequest("GET", "https://api.github.com/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var user GitHubUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

// createOrUpdateUser creates or updates a user from a GitHub profile
func (s *Service) createOrUpdateUser(ctx context.Context, githubUser *GitHubUser) (*queries.User, error) {
	if githubUser.Email == "" {
		return nil, fmt.Errorf("GitHub account has no public email")
	}

	user, err := s.db.UserFindByEmail(ctx, githubUser.Email)
	if err != nil && err != pgx.ErrNoRows {
		return nil, err
	}

	name := githubUser.Name
	if name == "" {
		name = githubUser.Login
	}

	if err == pgx.ErrNoRows {
		return s.db.UserCreate(ctx, &queries.UserCreateParams{
			Name:         name,
			Email:        githubUser.Email,
			Username:     githubUser.Login,
			GithubUserID: pgtype.Int4{Int32: int32(githubUser.ID), Valid: true},
		})
	}

	return s.db.UserUpdate(ctx, &queries.UserUpdateParams{
		ID:           user.ID,
		Name:         name,
		Username:     githubUser.Login,
		GithubUserID: pgtype.Int4{Int32: int32(githubUser.ID), Valid: true},
	})
}

// createJWTToken creates a JWT token for the user
func (s *Service) createJWTToken(userID pgtype.UUID) (string, error) {
	claims := jwt.MapClaims{
		"user_id": uuid.UUID(userID.Bytes).String(),
		"exp":     time.Now().Add(s.config.SessionTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// validateToken validates a JWT token and the backing session
func (s *Service) validateToken(ctx context.Context, tokenString string) (pgtype.UUID, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})

	if err != nil {
		return pgtype.UUID{}, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return pgtype.UUID{}, fmt.Errorf("invalid token")
	}

	userIDStr, ok := claims["user_id"].(string)
	if !ok {
		return pgtype.UUID{}, fmt.Errorf("user_id not found in token")
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return pgtype.UUID{}, err
	}

	// Verify session exists
	session, err := s.db.SessionFindByUserAndNotExpired(ctx, pgtype.UUID{Bytes: userID, Valid: true})
	if err != nil {
		return pgtype.UUID{}, fmt.Errorf("session not found or expired")
	}

	return session.UserID, nil
}

// generateState generates a random state for CSRF protection
func generateState() string {
	b := make([]byte, 32)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}

// generateSessionToken generates a random session token
func generateSessionToken() string {
	b := make([]byte, 64)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)
}
