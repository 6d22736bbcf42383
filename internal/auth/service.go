package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/impulse-eee/impulse-api/internal/common"
)

const defaultTokenTTL = 12 * time.Hour

// Service issues and validates admin session tokens. There is a single admin
// identity configured through the environment; no user table backs it.
type Service struct {
	adminEmail   string
	passwordHash string
	secret       []byte
	tokenTTL     time.Duration
	issuer       string
	now          func() time.Time
}

// Config configures the auth service.
type Config struct {
	AdminEmail        string
	AdminPasswordHash string
	Secret            string
	TokenTTL          time.Duration
	Issuer            string
}

// NewService constructs the auth service.
func NewService(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "impulse-api"
	}
	return &Service{
		adminEmail:   strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		passwordHash: cfg.AdminPasswordHash,
		secret:       []byte(cfg.Secret),
		tokenTTL:     ttl,
		issuer:       issuer,
		now:          time.Now,
	}, nil
}

// Login checks the credentials against the configured admin identity and
// returns a signed token on success.
func (s *Service) Login(email, password string) (string, time.Time, error) {
	if s.adminEmail == "" || s.passwordHash == "" {
		return "", time.Time{}, common.NewAppError(
			"ADMIN_NOT_CONFIGURED", "admin login is not configured",
			http.StatusInternalServerError, nil)
	}
	match := false
	if strings.ToLower(strings.TrimSpace(email)) == s.adminEmail {
		ok, err := argon2id.ComparePasswordAndHash(password, s.passwordHash)
		if err == nil && ok {
			match = true
		}
	}
	if !match {
		return "", time.Time{}, common.NewAppError(
			"INVALID_CREDENTIALS", "invalid email or password",
			http.StatusUnauthorized, nil)
	}
	return s.signToken(s.adminEmail)
}

// ParseToken validates a session token and returns the subject.
func (s *Service) ParseToken(token string) (string, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return "", common.NewAppError("UNAUTHORIZED", "missing token", http.StatusUnauthorized, nil)
	}
	algorithm, err := extractTokenAlgorithm(trimmed)
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if algorithm != jwa.HS256 {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized,
			fmt.Errorf("unexpected token algorithm %s", algorithm))
	}
	parsed, err := jwt.ParseString(trimmed, jwt.WithKey(algorithm, s.secret))
	if err != nil {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized, err)
	}
	if parsed.Issuer() != s.issuer {
		return "", common.NewAppError("UNAUTHORIZED", "invalid token", http.StatusUnauthorized,
			errors.New("auth: unexpected issuer"))
	}
	return parsed.Subject(), nil
}

func (s *Service) signToken(subject string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.tokenTTL)
	token, err := jwt.NewBuilder().
		Subject(subject).
		Issuer(s.issuer).
		IssuedAt(now).
		Expiration(expiresAt).
		Build()
	if err != nil {
		return "", time.Time{}, err
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return string(signed), expiresAt, nil
}

// extractTokenAlgorithm reads the algorithm from the protected headers so the
// "none" algorithm and algorithm-confusion tokens are rejected up front.
func extractTokenAlgorithm(token string) (jwa.SignatureAlgorithm, error) {
	message, err := jws.ParseString(token)
	if err != nil {
		return "", err
	}
	signatures := message.Signatures()
	if len(signatures) == 0 {
		return "", errors.New("auth: token contains no signatures")
	}
	var algorithm jwa.SignatureAlgorithm
	for _, sig := range signatures {
		headers := sig.ProtectedHeaders()
		if headers == nil {
			return "", errors.New("auth: token missing protected headers")
		}
		alg := headers.Algorithm()
		if alg == "" {
			return "", errors.New("auth: token missing algorithm")
		}
		if alg == jwa.NoSignature {
			return "", errors.New("auth: token uses none algorithm")
		}
		if algorithm == "" {
			algorithm = alg
		} else if algorithm != alg {
			return "", errors.New("auth: mixed token algorithms detected")
		}
	}
	return algorithm, nil
}
