package service

import (
	"context"
	"strings"
	"time"

	"github.com/gestorcontas/contas-desk-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

// AuthService authenticates the single back-office operator configured
// via environment. There is no user table: the email and bcrypt hash come
// from configuration, and successful logins yield a JWT pair.
type AuthService struct {
	email        string
	passwordHash string
	secret       []byte
	accessTTL    time.Duration
	refreshTTL   time.Duration
	logger       *zap.Logger
}

// NewAuthService wires the operator credentials. With an empty email the
// service reports itself disabled and the router skips authentication.
func NewAuthService(email, passwordHash, secret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		refreshTTL:   refreshTTL,
		logger:       logger,
	}
}

// Enabled reports whether operator credentials were configured.
func (s *AuthService) Enabled() bool {
	return s.email != "" && s.passwordHash != ""
}

// Login checks the operator credentials and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.TokenPair, error) {
	_, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	if !s.Enabled() {
		return nil, &domain.ErrUnauthorized{Message: "autenticação não está configurada"}
	}
	if strings.ToLower(strings.TrimSpace(req.Email)) != s.email {
		return nil, &domain.ErrUnauthorized{Message: "credenciais inválidas"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("failed login attempt", zap.String("email", req.Email))
		return nil, &domain.ErrUnauthorized{Message: "credenciais inválidas"}
	}

	return s.issuePair()
}

// Refresh exchanges a valid refresh token for a fresh pair.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	_, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	if _, err := s.verify(refreshToken, "refresh"); err != nil {
		return nil, err
	}
	return s.issuePair()
}

// VerifyAccess validates an access token and returns the subject email.
func (s *AuthService) VerifyAccess(token string) (string, error) {
	return s.verify(token, "access")
}

func (s *AuthService) issuePair() (*domain.TokenPair, error) {
	now := time.Now()
	access, err := s.sign("access", now, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign("refresh", now, s.refreshTTL)
	if err != nil {
		return nil, err
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *AuthService) sign(typ string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": s.email,
		"typ": typ,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *AuthService) verify(tokenString, wantType string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &domain.ErrUnauthorized{Message: "método de assinatura inválido"}
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return "", &domain.ErrUnauthorized{Message: "token inválido ou expirado"}
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", &domain.ErrUnauthorized{Message: "token inválido ou expirado"}
	}
	if typ, _ := claims["typ"].(string); typ != wantType {
		return "", &domain.ErrUnauthorized{Message: "tipo de token inválido"}
	}
	sub, _ := claims["sub"].(string)
	return sub, nil
}
