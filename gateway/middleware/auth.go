package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	jwt "github.com/golang-jwt/jwt/v5"
)

// AuthConfig configures bearer token validation. Tokens are HS256 JWTs whose
// subject is the hex account the request acts as.
type AuthConfig struct {
	HMACSecret string
	Issuer     string
	Audience   string
	ScopeClaim string
	ClockSkew  time.Duration
}

type contextKey string

const (
	ContextKeyActor  contextKey = "stableamm.actor"
	ContextKeyScopes contextKey = "stableamm.scopes"
)

var (
	ErrMissingToken      = errors.New("missing bearer token")
	ErrInsufficientScope = errors.New("insufficient scope")

	errSecretMissing  = errors.New("auth secret not configured")
	errSubjectInvalid = errors.New("subject is not an account address")
)

// Authenticator validates bearer tokens and stores the acting account in the
// request context.
type Authenticator struct {
	cfg    AuthConfig
	logger *slog.Logger
	secret []byte
	parser *jwt.Parser
}

// NewAuthenticator builds an Authenticator. An empty secret rejects every
// token, which keeps mutating routes closed until a secret is configured.
func NewAuthenticator(cfg AuthConfig, logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ScopeClaim == "" {
		cfg.ScopeClaim = "scope"
	}
	if cfg.ClockSkew <= 0 {
		cfg.ClockSkew = 30 * time.Second
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(cfg.ClockSkew),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Authenticator{
		cfg:    cfg,
		logger: logger,
		secret: []byte(strings.TrimSpace(cfg.HMACSecret)),
		parser: jwt.NewParser(opts...),
	}
}

// Middleware rejects requests without a valid token carrying every required
// scope.
func (a *Authenticator) Middleware(requiredScopes ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, scopes, err := a.Authenticate(r, requiredScopes...)
			switch {
			case errors.Is(err, ErrInsufficientScope):
				http.Error(w, "insufficient scope", http.StatusForbidden)
				return
			case errors.Is(err, ErrMissingToken):
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			case err != nil:
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), ContextKeyActor, actor)
			ctx = context.WithValue(ctx, ContextKeyScopes, scopes)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authenticate verifies the bearer token of r and checks requiredScopes.
func (a *Authenticator) Authenticate(r *http.Request, requiredScopes ...string) (common.Address, []string, error) {
	tokenString := extractBearer(r.Header.Get("Authorization"))
	if tokenString == "" {
		return common.Address{}, nil, ErrMissingToken
	}
	actor, scopes, err := a.Verify(tokenString)
	if err != nil {
		a.logger.Warn("token rejected", slog.String("route", r.URL.Path), slog.Any("error", err))
		return common.Address{}, nil, err
	}
	if !hasScopes(scopes, requiredScopes) {
		return common.Address{}, nil, ErrInsufficientScope
	}
	return actor, scopes, nil
}

// Verify parses tokenString and returns the subject account and scopes.
func (a *Authenticator) Verify(tokenString string) (common.Address, []string, error) {
	if len(a.secret) == 0 {
		return common.Address{}, nil, errSecretMissing
	}
	claims := jwt.MapClaims{}
	_, err := a.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return common.Address{}, nil, err
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return common.Address{}, nil, err
	}
	if !common.IsHexAddress(sub) {
		return common.Address{}, nil, errSubjectInvalid
	}
	return common.HexToAddress(sub), extractScopes(claims, a.cfg.ScopeClaim), nil
}

// ActorFromContext returns the authenticated account stored by Middleware.
func ActorFromContext(ctx context.Context) (common.Address, bool) {
	actor, ok := ctx.Value(ContextKeyActor).(common.Address)
	return actor, ok
}

func extractScopes(claims jwt.MapClaims, scopeClaim string) []string {
	switch v := claims[scopeClaim].(type) {
	case string:
		return strings.Fields(v)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, entry := range v {
			if s, ok := entry.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func hasScopes(scopes []string, required []string) bool {
	set := make(map[string]struct{}, len(scopes))
	for _, scope := range scopes {
		set[scope] = struct{}{}
	}
	for _, req := range required {
		if _, ok := set[req]; !ok {
			return false
		}
	}
	return true
}

func extractBearer(header string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
