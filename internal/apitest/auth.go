package apitest

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/argon2"

	"github.com/and161185/nullscape-admin/internal/model"
)

// Argon2id parameters, light enough for a development fake.
const (
	argonTime    uint32 = 1
	argonMemory  uint32 = 8 * 1024
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32
)

type account struct {
	user model.User
	salt []byte
	hash []byte
}

func hashPassword(password, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

func (a *account) verify(password string) bool {
	return subtle.ConstantTimeCompare(hashPassword([]byte(password), a.salt), a.hash) == 1
}

// AddUser registers an account. An empty ID gets a fresh one.
func (s *Server) AddUser(u model.User, password string) (model.User, error) {
	if u.Email == "" || password == "" {
		return model.User{}, errors.New("empty email/password")
	}
	if u.ID == "" {
		id, err := uuid.NewV4()
		if err != nil {
			return model.User{}, err
		}
		u.ID = id.String()
	}
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return model.User{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Email)
	if _, ok := s.accounts[key]; ok {
		return model.User{}, fmt.Errorf("user %s already exists", u.Email)
	}
	s.accounts[key] = &account{user: u, salt: salt, hash: hashPassword([]byte(password), salt)}
	return u, nil
}

// ExpireAccessTokens invalidates every issued access token; refresh tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	s.live = make(map[string]string)
	s.mu.Unlock()
}

// issueTokensLocked creates a signed HS256 access token and an opaque refresh token.
// Callers hold s.mu.
func (s *Server) issueTokensLocked(userID string) (model.Tokens, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, err
	}
	now := s.now()
	claims := jwt.RegisteredClaims{
		ID:        jti.String(),
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	if err != nil {
		return model.Tokens{}, err
	}
	rt, err := uuid.NewV4()
	if err != nil {
		return model.Tokens{}, err
	}
	s.live[jti.String()] = userID
	s.refresh[rt.String()] = userID
	return model.Tokens{AccessToken: access, RefreshToken: rt.String()}, nil
}

// verifyAccess checks an HS256 token and returns the user it was issued to.
func (s *Server) verifyAccess(tok string) (model.User, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return model.User{}, errors.New("invalid token")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if uid, ok := s.live[claims.ID]; !ok || uid != claims.Subject {
		return model.User{}, errors.New("token revoked")
	}
	for _, a := range s.accounts {
		if a.user.ID == claims.Subject {
			return a.user, nil
		}
	}
	return model.User{}, errors.New("unknown subject")
}

func bearerToken(r *http.Request) (string, error) {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		if t := strings.TrimSpace(v[7:]); t != "" {
			return t, nil
		}
	}
	return "", errors.New("no bearer token")
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		u, err := s.verifyAccess(tok)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUser(r.Context(), u)))
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	key := strings.ToLower(strings.TrimSpace(req.Email))
	if ok, retry := s.throttle.Allow(key); !ok {
		w.Header().Set("Retry-After", fmt.Sprint(int(retry.Round(time.Second).Seconds())))
		writeError(w, http.StatusTooManyRequests, "Too many login attempts")
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[key]
	s.mu.Unlock()
	if !ok || !a.verify(req.Password) {
		if blocked, _ := s.throttle.Failure(key); blocked {
			writeError(w, http.StatusTooManyRequests, "Too many login attempts")
			return
		}
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	s.throttle.Success(key)

	s.mu.Lock()
	tokens, err := s.issueTokensLocked(a.user.ID)
	s.mu.Unlock()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": a.user, "tokens": tokens})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	uid, ok := s.refresh[req.RefreshToken]
	if !ok {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(s.refresh, req.RefreshToken)
	tokens, err := s.issueTokensLocked(uid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.refreshes++
	writeJSON(w, http.StatusOK, map[string]any{"tokens": tokens})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, _ := userFromCtx(r.Context())
	writeJSON(w, http.StatusOK, u)
}
