package http

import (
	"fmt"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/modelgate/adapters/auth"
	"github.com/artpar/modelgate/adapters/hasher"
	"github.com/artpar/modelgate/core/query"
	"github.com/artpar/modelgate/core/service"
	"github.com/artpar/modelgate/pkg/jsonapi"
	"github.com/artpar/modelgate/ports"
)

// Columns a user model needs for the auth endpoints.
const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldToken    = "token"
	FieldVerified = "verified"
)

// AuthPath is where the auth endpoints are mounted under the base path. No
// model may be served there.
const AuthPath = "/auth"

// AuthOptions configures the auth endpoints.
type AuthOptions struct {
	Users  *service.Service
	Tokens ports.TokenIssuer
	Hasher ports.Hasher
	Mailer ports.EmailSender
	Logger zerolog.Logger
}

// AuthHandler serves register, login and verify for the user model.
type AuthHandler struct {
	users  *service.Service
	tokens ports.TokenIssuer
	hasher ports.Hasher
	mailer ports.EmailSender
	logger zerolog.Logger
}

// NewAuthHandler checks that the user schema carries the auth columns.
func NewAuthHandler(opts AuthOptions) (*AuthHandler, error) {
	s := opts.Users.Schema()
	if s == nil {
		return nil, fmt.Errorf("auth: user model has no schema")
	}
	for _, name := range []string{FieldEmail, FieldPassword, FieldToken, FieldVerified} {
		if _, ok := s.Column(name); !ok {
			return nil, fmt.Errorf("auth: %s model has no %q property", s.Name, name)
		}
	}
	return &AuthHandler{
		users:  opts.Users,
		tokens: opts.Tokens,
		hasher: opts.Hasher,
		mailer: opts.Mailer,
		logger: opts.Logger.With().Str("component", "auth").Logger(),
	}, nil
}

// Routes returns the auth routes.
func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/verify", h.handleVerify)
	return r
}

var (
	errBadCredentials = jsonapi.NewError(http.StatusUnauthorized, "bad_credentials", "Unauthorized").
				Detail("Username or password wrong.").Build()
	errBadEmail = jsonapi.NewError(http.StatusUnprocessableEntity, "bad_email", "Unprocessable Entity").
			Detail("Please use a valid e-mail address, e.g.: name@domain.tld").Build()
	errBadPassword = jsonapi.NewError(http.StatusUnprocessableEntity, "bad_password", "Unprocessable Entity").
			Detail(hasher.ErrWeakPassword.Error()).Build()
)

func authError(status int, code, detail string) jsonapi.Error {
	return jsonapi.NewError(status, code, http.StatusText(status)).Detail(detail).Build()
}

// handleRegister creates an unverified user and mails a verification code.
func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeAuthBody(w, r)
	if !ok {
		return
	}
	email, _ := body[FieldEmail].(string)
	password, _ := body[FieldPassword].(string)

	if !validEmail(email) {
		jsonapi.WriteError(w, errBadEmail)
		return
	}
	if err := hasher.CheckPassword(password); err != nil {
		jsonapi.WriteError(w, errBadPassword)
		return
	}

	existing, err := h.findByEmail(r, email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if existing != nil {
		jsonapi.WriteError(w, authError(http.StatusBadRequest, "bad_email", "User already exists."))
		return
	}

	hashed, err := h.hasher.Hash(password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	code, err := hasher.VerificationCode()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	hashedCode, err := h.hasher.Hash(code)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	body[FieldPassword] = string(hashed)
	body[FieldToken] = string(hashedCode)
	body[FieldVerified] = false

	user, err := h.users.Create(r.Context(), body)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	sent := true
	if err := h.mailer.SendVerification(r.Context(), email, code); err != nil {
		sent = false
		h.logger.Warn().Err(err).Str("email", email).Msg("verification mail not sent")
	}

	out := h.public(user)
	out["verification"] = map[string]any{"success": sent, "to": email}
	jsonapi.WriteJSON(w, http.StatusOK, out)
}

// handleLogin issues an access token to a verified user.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeAuthBody(w, r)
	if !ok {
		return
	}
	email, _ := body[FieldEmail].(string)
	password, _ := body[FieldPassword].(string)

	if email == "" || password == "" {
		jsonapi.WriteError(w, errBadCredentials)
		return
	}
	if !validEmail(email) {
		jsonapi.WriteError(w, errBadEmail)
		return
	}

	user, err := h.findByEmail(r, email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	stored, _ := user[FieldPassword].(string)
	if user == nil || stored == "" {
		jsonapi.WriteError(w, errBadCredentials)
		return
	}
	if verified, _ := user[FieldVerified].(bool); !verified {
		jsonapi.WriteError(w, authError(http.StatusUnauthorized, "bad_verification",
			"Email address not verified, please verify your email address!"))
		return
	}
	if !h.hasher.Compare([]byte(stored), password) {
		jsonapi.WriteError(w, errBadCredentials)
		return
	}

	pk := h.users.Schema().PrimaryKey().Name
	token, expiresAt, err := h.tokens.GenerateToken(fmt.Sprint(user[pk]), email)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	setTokenCookie(w, r, token, expiresAt)

	out := h.public(user)
	out["token"] = token
	jsonapi.WriteJSON(w, http.StatusOK, out)
}

// handleVerify marks a user verified when the mailed code matches.
func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeAuthBody(w, r)
	if !ok {
		return
	}
	rawID := body["userId"]
	code := ""
	if v := body[FieldToken]; v != nil {
		code = fmt.Sprint(v)
	}
	if rawID == nil || code == "" {
		jsonapi.WriteError(w, authError(http.StatusUnprocessableEntity, "bad_request", "No token or user id provided"))
		return
	}

	id, err := h.users.ParseID(fmt.Sprint(rawID))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	user, err := h.users.FindByID(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if user == nil {
		jsonapi.WriteError(w, authError(http.StatusBadRequest, "not_found", fmt.Sprintf("User with %v doesn't exist.", rawID)))
		return
	}
	stored, _ := user[FieldToken].(string)
	if verified, _ := user[FieldVerified].(bool); verified || stored == "" {
		jsonapi.WriteError(w, authError(http.StatusBadRequest, "bad_verification", "User already verified"))
		return
	}
	if !h.hasher.Compare([]byte(stored), code) {
		jsonapi.WriteError(w, authError(http.StatusBadRequest, "bad_token", "Token is invalid"))
		return
	}

	updated, err := h.users.UpdateByID(r.Context(), id, map[string]any{FieldToken: nil, FieldVerified: true})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	jsonapi.WriteJSON(w, http.StatusOK, h.public(updated))
}

func (h *AuthHandler) findByEmail(r *http.Request, email string) (map[string]any, error) {
	q := query.Empty()
	q.Limit = 1
	q.Conditions = []query.Condition{{Field: FieldEmail, Op: query.OpEq, Values: []string{email}}}
	rows, err := h.users.FindAll(r.Context(), q)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return rows[0], nil
}

// public strips credentials from a user row.
func (h *AuthHandler) public(user map[string]any) map[string]any {
	out := h.users.Schema().Sanitize(user)
	if out == nil {
		out = map[string]any{}
	}
	delete(out, FieldPassword)
	delete(out, FieldToken)
	return out
}

func (h *AuthHandler) writeServiceError(w http.ResponseWriter, err error) {
	c := controller{svc: h.users, model: h.users.Schema().Name, logger: h.logger}
	c.writeError(w, err)
}

func decodeAuthBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	c := controller{}
	return c.decodeBody(w, r)
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && strings.Contains(s, ".")
}

// setTokenCookie stores the access token for browser clients. The cookie is
// Secure when the request arrived over TLS, directly or through a proxy.
func setTokenCookie(w http.ResponseWriter, r *http.Request, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
	})
}
