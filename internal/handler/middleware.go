package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gestorcontas/contas-desk-go/internal/service"

	"go.uber.org/zap"
)

type contextKey string

const operatorKey contextKey = "operator"

// bearerToken pulls the token out of an "Authorization: Bearer <tok>"
// header. Returns a pt-BR rejection message when the header is absent or
// malformed.
func bearerToken(r *http.Request) (string, string) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", "Token de autenticação não fornecido"
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", "Formato de token inválido"
	}
	return token, ""
}

// JWTAuthMiddleware validates Bearer tokens and injects the operator
// email into the request context.
func JWTAuthMiddleware(authSvc *service.AuthService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reject := func(msg string, err error) {
				logger.Warn("auth: request rejected",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, msg)
			}

			token, rejection := bearerToken(r)
			if rejection != "" {
				reject(rejection, nil)
				return
			}

			email, err := authSvc.VerifyAccess(token)
			if err != nil {
				reject(err.Error(), err)
				return
			}

			ctx := context.WithValue(r.Context(), operatorKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OperatorFromContext extracts the authenticated operator email.
func OperatorFromContext(ctx context.Context) string {
	v, _ := ctx.Value(operatorKey).(string)
	return v
}
