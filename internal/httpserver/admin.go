// internal/httpserver/admin.go
//
// Admin API, mounted under /api/admin only when ADMIN_PASSWORD_HASH is set.
//   - POST   /api/admin/login             → {token, expiresAt} for valid credentials
//   - GET    /api/admin/sessions          → {count}
//   - DELETE /api/admin/sessions          → {cleared}
//   - POST   /api/admin/sessions/cleanup  → {removed} (runs the expiry sweep now)
//   - GET    /api/admin/sessions/{id}     → {exists}
//
// The password is checked with bcrypt against the configured hash; tokens are
// HS256 JWTs carrying role=admin, sent back as "Authorization: Bearer <jwt>".

package httpserver

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const adminRole = "admin"

type adminAuth struct {
	user    string
	hash    []byte
	secret  []byte
	expires time.Duration
}

// newAdminAuth falls back to a random per-process secret when none is configured;
// tokens then stop working on restart.
func newAdminAuth(user, hash, secret string, expires time.Duration) *adminAuth {
	a := &adminAuth{user: user, hash: []byte(hash), secret: []byte(secret), expires: expires}
	if len(a.secret) == 0 {
		a.secret = make([]byte, 32)
		if _, err := rand.Read(a.secret); err != nil {
			log.Fatal().Err(err).Msg("generate jwt secret")
		}
		log.Warn().Msg("JWT_SECRET not set; admin tokens are valid for this process only")
	}
	if a.expires <= 0 {
		a.expires = 12 * time.Hour
	}
	return a
}

// checkCredentials always runs bcrypt so unknown users cost the same.
func (a *adminAuth) checkCredentials(user, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(a.user)) == 1
	pwOK := bcrypt.CompareHashAndPassword(a.hash, []byte(password)) == nil
	return userOK && pwOK
}

func (a *adminAuth) sign(now time.Time) (string, time.Time, error) {
	exp := now.Add(a.expires)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  a.user,
		"role": adminRole,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	})
	ss, err := token.SignedString(a.secret)
	return ss, exp, err
}

func (a *adminAuth) verify(tokenStr string) bool {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return false
	}
	role, _ := claims["role"].(string)
	return role == adminRole
}

func bearerToken(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

func (s *Server) mountAdmin(r chi.Router) {
	auth := newAdminAuth(s.cfg.AdminUser, s.cfg.AdminPasswordHash, s.cfg.JWTSecret, s.cfg.JWTExpires)
	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", s.handleAdminLogin(auth))
		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin(auth))
			r.Get("/sessions", s.handleSessionCount)
			r.Delete("/sessions", s.handleSessionClear)
			r.Post("/sessions/cleanup", s.handleSessionCleanup)
			r.Get("/sessions/{id}", s.handleSessionExists)
		})
	})
}

// requireAdmin enforces a valid admin JWT.
func (s *Server) requireAdmin(auth *adminAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				s.writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			if !auth.verify(tok) {
				s.writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type adminLoginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type adminLoginRes struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s *Server) handleAdminLogin(auth *adminAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body adminLoginReq
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if !auth.checkCredentials(strings.TrimSpace(body.Username), body.Password) {
			log.Warn().Str("username", body.Username).Msg("admin login failed")
			s.writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		tok, exp, err := auth.sign(s.now())
		if err != nil {
			log.Error().Err(err).Msg("sign admin token")
			s.writeError(w, http.StatusInternalServerError, "Failed to sign token")
			return
		}
		s.writeJSON(w, http.StatusOK, adminLoginRes{Token: tok, ExpiresAt: exp})
	}
}

func (s *Server) handleSessionCount(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]int{"count": s.store.Count(r.Context())})
}

func (s *Server) handleSessionClear(w http.ResponseWriter, r *http.Request) {
	n := s.store.ClearAll(r.Context())
	log.Info().Int("cleared", n).Msg("all sessions cleared by admin")
	s.writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func (s *Server) handleSessionCleanup(w http.ResponseWriter, r *http.Request) {
	n := s.store.Cleanup(r.Context())
	log.Info().Int("removed", n).Msg("expired sessions removed by admin")
	s.writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) handleSessionExists(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.writeJSON(w, http.StatusOK, map[string]bool{"exists": s.store.Has(r.Context(), id)})
}
