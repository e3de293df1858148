package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "tramita/pkg/domain"
	"tramita/pkg/requestcontext"
)

// callerClaims are the JWT claims the identity provider issues. The engine
// never sees tokens; it receives the resolved Caller value from context.
type callerClaims struct {
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator validates bearer tokens and resolves them into a Caller.
type Authenticator struct {
	signingKey []byte
	logger     *slog.Logger
}

func NewAuthenticator(signingKey string, logger *slog.Logger) *Authenticator {
	return &Authenticator{signingKey: []byte(signingKey), logger: logger}
}

// RequireCaller rejects requests without a valid token and injects the
// resolved caller identity into the request context.
func (a *Authenticator) RequireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := requestcontext.RequestID(ctx)

		authHeader := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			a.logger.WarnContext(ctx, "unauthorized access - missing token", "request_id", requestID)
			writeUnauthorized(w, "Missing or invalid Authorization header")
			return
		}

		caller, err := a.resolve(token)
		if err != nil {
			a.logger.WarnContext(ctx, "unauthorized access - invalid token",
				"error", err,
				"request_id", requestID,
			)
			writeUnauthorized(w, "Invalid or expired token")
			return
		}

		next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(ctx, caller)))
	})
}

func (a *Authenticator) resolve(token string) (requestcontext.Caller, error) {
	var claims callerClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.signingKey, nil
	})
	if err != nil {
		return requestcontext.Caller{}, err
	}
	if !parsed.Valid {
		return requestcontext.Caller{}, fmt.Errorf("invalid token")
	}

	actorID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return requestcontext.Caller{}, fmt.Errorf("invalid subject: %w", err)
	}

	role := requestcontext.Role(claims.Role)
	if role != requestcontext.RoleAdmin && role != requestcontext.RoleClient {
		return requestcontext.Caller{}, fmt.Errorf("unknown role %q", claims.Role)
	}

	caller := requestcontext.Caller{ActorID: actorID, Role: role}
	if claims.CompanyID != "" {
		companyID, err := id.ParseCompanyID(claims.CompanyID)
		if err != nil {
			return requestcontext.Caller{}, fmt.Errorf("invalid company_id: %w", err)
		}
		caller.CompanyID = companyID
	}
	return caller, nil
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprintf(w, `{"error":"unauthorized","error_description":%q}`, description)
}
