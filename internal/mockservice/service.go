// Package mockservice is an in-process stand-in for the remote auth service.
// It mirrors the remote contract (paths, status codes, detail codes, success
// markers) closely enough to drive the client end to end in tests and demos.
package mockservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MrEthical07/goAuthClient/internal"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/google/uuid"
)

// Options configures a Service.
type Options struct {
	// Secret signs HS256 access tokens. A random one is generated when empty.
	Secret []byte
	// TokenTTL is the lifetime of issued tokens. Defaults to one hour.
	TokenTTL time.Duration
	// OTPTTL bounds how long a verification code is accepted. Defaults to 10 minutes.
	OTPTTL time.Duration
	// ProviderURL is the base of the fake provider consent page.
	ProviderURL string
	// RedirectURI is sent to the provider as the post-consent target.
	RedirectURI string
	// CallbackEmail, when set, is returned in the callback body as "email".
	// When empty the client must introspect.
	CallbackEmail bool
	// RevealCodes logs issued verification codes in place of e-mailing them.
	RevealCodes bool
	Now         func() time.Time
	Logger      *slog.Logger
}

type user struct {
	ID       string
	Email    string
	Password string
	Active   bool
	Verified bool
	OTP      string
	OTPUntil time.Time
}

type oauthState struct {
	Code  string
	Email string
}

// Service is the fake remote service.
type Service struct {
	opts    Options
	tokens  *jwt.Manager
	handler http.Handler

	mu       sync.Mutex
	users    map[string]*user
	revoked  map[string]struct{}
	states   map[string]*oauthState
	codes    map[string]string
	calls    map[string]int
	failNext map[string]int
}

// New builds a Service.
func New(opts Options) (*Service, error) {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Hour
	}
	if opts.OTPTTL <= 0 {
		opts.OTPTTL = 10 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.ProviderURL == "" {
		opts.ProviderURL = "https://accounts.example.test/o/oauth2/v2/auth"
	}
	if len(opts.Secret) == 0 {
		opts.Secret = []byte(uuid.NewString() + uuid.NewString())
	}

	tokens, err := jwt.NewManager(jwt.Config{
		AccessTTL:     opts.TokenTTL,
		SigningMethod: jwt.MethodHS256,
		PrivateKey:    opts.Secret,
		Audience:      jwt.DefaultAudience,
	})
	if err != nil {
		return nil, fmt.Errorf("mockservice: %w", err)
	}

	s := &Service{
		opts:     opts,
		tokens:   tokens,
		users:    make(map[string]*user),
		revoked:  make(map[string]struct{}),
		states:   make(map[string]*oauthState),
		codes:    make(map[string]string),
		calls:    make(map[string]int),
		failNext: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", s.handleLogin)
	mux.HandleFunc("GET /users/me", s.handleMe)
	mux.HandleFunc("POST /auth/register-json", s.handleRegister)
	mux.HandleFunc("POST /auth/register", s.handleRegister)
	mux.HandleFunc("POST /auth/request-verify-token", s.handleRequestVerifyToken)
	mux.HandleFunc("POST /auth/verify-otp", s.handleVerifyOTP)
	mux.HandleFunc("GET /auth/{provider}/authorize", s.handleAuthorize)
	mux.HandleFunc("GET /auth/{provider}/callback", s.handleCallback)
	mux.HandleFunc("POST /auth/jwt/logout", s.handleLogout)
	s.handler = s.count(mux)
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Service) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// AddUser seeds an account. Verified accounts can log in immediately.
func (s *Service) AddUser(email, password string, verified bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.ToLower(email)] = &user{
		ID:       uuid.NewString(),
		Email:    email,
		Password: password,
		Active:   true,
		Verified: verified,
	}
}

// Deactivate marks an account inactive.
func (s *Service) Deactivate(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.users[strings.ToLower(email)]; u != nil {
		u.Active = false
	}
}

// PendingOTP returns the outstanding verification code for email.
func (s *Service) PendingOTP(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[strings.ToLower(email)]
	if u == nil || u.OTP == "" {
		return "", false
	}
	return u.OTP, true
}

// Calls returns how many requests reached path (no query string).
func (s *Service) Calls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// FailNext makes the next n requests to path answer 500.
func (s *Service) FailNext(path string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[path] = n
}

// IssueToken mints a token for email as if it had logged in.
func (s *Service) IssueToken(email string) (string, error) {
	s.mu.Lock()
	u := s.users[strings.ToLower(email)]
	s.mu.Unlock()
	if u == nil {
		return "", errors.New("mockservice: unknown user")
	}
	return s.tokens.CreateAccess(u.ID, u.Email)
}

// IssueExpiredToken mints a token for email that expired an hour ago.
func (s *Service) IssueExpiredToken(email string) (string, error) {
	s.mu.Lock()
	u := s.users[strings.ToLower(email)]
	s.mu.Unlock()
	if u == nil {
		return "", errors.New("mockservice: unknown user")
	}
	return s.tokens.CreateAccessAt(u.ID, u.Email, s.opts.Now().Add(-s.opts.TokenTTL-time.Hour))
}

// ApproveOAuth simulates the user granting consent at the provider for the
// given state. It returns the authorization code the provider would append to
// the redirect. The email becomes (or matches) a verified account.
func (s *Service) ApproveOAuth(state, email string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.states[state]
	if st == nil {
		return "", errors.New("mockservice: unknown state")
	}
	key := strings.ToLower(email)
	if s.users[key] == nil {
		s.users[key] = &user{ID: uuid.NewString(), Email: email, Active: true, Verified: true}
	}
	code := uuid.NewString()
	st.Code = code
	st.Email = email
	s.codes[code] = state
	return code, nil
}

func (s *Service) count(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[r.URL.Path]++
		fail := s.failNext[r.URL.Path] > 0
		if fail {
			s.failNext[r.URL.Path]--
		}
		s.mu.Unlock()

		s.opts.Logger.Debug("mockservice request", slog.String("method", r.Method), slog.String("path", r.URL.Path))
		if fail {
			writeDetail(w, http.StatusInternalServerError, "INTERNAL_ERROR")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	u := s.users[strings.ToLower(req.Email)]
	s.mu.Unlock()

	switch {
	case u == nil:
		writeDetail(w, http.StatusNotFound, "USER_NOT_FOUND")
		return
	case !u.Active:
		writeDetail(w, http.StatusBadRequest, "USER_INACTIVE")
		return
	case !u.Verified:
		writeDetail(w, http.StatusBadRequest, "USER_NOT_VERIFIED")
		return
	case u.Password != req.Password:
		writeDetail(w, http.StatusBadRequest, "INVALID_PASSWORD")
		return
	}

	token, err := s.tokens.CreateAccess(u.ID, u.Email)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "token_type": "bearer"})
}

func (s *Service) handleMe(w http.ResponseWriter, r *http.Request) {
	u, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":          u.ID,
		"email":       u.Email,
		"is_active":   u.Active,
		"is_verified": u.Verified,
	})
}

func (s *Service) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body", "email"}, "msg": "value is not a valid email address"}},
		})
		return
	}

	key := strings.ToLower(req.Email)
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.users[key] != nil {
		writeDetail(w, http.StatusBadRequest, "REGISTER_USER_ALREADY_EXISTS")
		return
	}
	if len(req.Password) < 8 || strings.Contains(req.Password, req.Email) {
		writeDetail(w, http.StatusBadRequest, "INVALID_PASSWORD")
		return
	}

	u := &user{ID: uuid.NewString(), Email: req.Email, Password: req.Password, Active: true}
	s.issueOTPLocked(u)
	s.users[key] = u
	writeJSON(w, http.StatusCreated, map[string]string{"id": u.ID, "email": u.Email})
}

func (s *Service) handleRequestVerifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	if u := s.users[strings.ToLower(req.Email)]; u != nil && u.Active && !u.Verified {
		s.issueOTPLocked(u)
	}
	s.mu.Unlock()

	// Always 202 so account existence does not leak.
	writeJSON(w, http.StatusAccepted, nil)
}

func (s *Service) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[strings.ToLower(req.Email)]
	if u == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if u.OTP == "" || u.OTP != req.OTP || !s.opts.Now().Before(u.OTPUntil) {
		writeDetail(w, http.StatusBadRequest, "Invalid or expired OTP")
		return
	}
	u.OTP = ""
	u.OTPUntil = time.Time{}
	u.Verified = true
	writeDetail(w, http.StatusOK, "OTP_VERIFIED")
}

func (s *Service) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	s.mu.Lock()
	s.states[state] = &oauthState{}
	s.mu.Unlock()

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", "mockservice")
	query.Set("scope", "openid email profile")
	query.Set("state", state)
	if s.opts.RedirectURI != "" {
		query.Set("redirect_uri", s.opts.RedirectURI)
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"authorization_url": s.opts.ProviderURL + "?" + query.Encode(),
	})
}

func (s *Service) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		writeDetail(w, http.StatusBadRequest, "OAUTH_CALLBACK_INCOMPLETE")
		return
	}

	s.mu.Lock()
	issuedState, ok := s.codes[code]
	delete(s.codes, code)
	st := s.states[state]
	if ok && issuedState == state {
		delete(s.states, state)
	}
	var u *user
	if st != nil {
		u = s.users[strings.ToLower(st.Email)]
	}
	s.mu.Unlock()

	if !ok || issuedState != state || u == nil {
		writeDetail(w, http.StatusBadRequest, "OAUTH_INVALID_STATE")
		return
	}

	token, err := s.tokens.CreateAccess(u.ID, u.Email)
	if err != nil {
		writeDetail(w, http.StatusInternalServerError, "TOKEN_ISSUE_FAILED")
		return
	}
	body := map[string]string{"access_token": token, "token_type": "bearer"}
	if s.opts.CallbackEmail {
		body["email"] = u.Email
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Service) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if _, ok := s.authenticate(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	s.mu.Lock()
	s.revoked[token] = struct{}{}
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) authenticate(r *http.Request) (*user, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return nil, false
	}
	claims, err := s.tokens.ParseAccess(token)
	if err != nil {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, revoked := s.revoked[token]; revoked {
		return nil, false
	}
	u := s.users[strings.ToLower(claims.Email)]
	if u == nil || u.ID != claims.Subject || !u.Active {
		return nil, false
	}
	return u, true
}

func (s *Service) issueOTPLocked(u *user) {
	code, err := internal.NewOTP(4)
	if err != nil {
		s.opts.Logger.Error("mockservice could not generate verification code", slog.Any("error", err))
		return
	}
	u.OTP = code
	u.OTPUntil = s.opts.Now().Add(s.opts.OTPTTL)
	attrs := []any{slog.String("email", u.Email)}
	if s.opts.RevealCodes {
		attrs = append(attrs, slog.String("code", code))
	}
	s.opts.Logger.Info("mockservice issued verification code", attrs...)
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "INVALID_BODY")
		return false
	}
	return true
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		_, _ = w.Write([]byte("null"))
		return
	}
	_ = json.NewEncoder(w).Encode(body)
}

// ConsentHandler stands in for the provider's consent page: every visit is
// approved as email and redirected to redirect_uri with code and state.
func (s *Service) ConsentHandler(email string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := r.URL.Query().Get("state")
		redirect := r.URL.Query().Get("redirect_uri")
		if redirect == "" {
			redirect = s.opts.RedirectURI
		}
		target, err := url.Parse(redirect)
		if err != nil || redirect == "" {
			http.Error(w, "missing redirect_uri", http.StatusBadRequest)
			return
		}

		code, err := s.ApproveOAuth(state, email)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		query := target.Query()
		query.Set("code", code)
		query.Set("state", state)
		target.RawQuery = query.Encode()
		http.Redirect(w, r, target.String(), http.StatusFound)
	})
}
