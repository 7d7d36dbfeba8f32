// Package auth guards the codec endpoints with a shared bearer token.
//
// An empty configured token disables the guard entirely.
package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var ErrUnauthorized = errors.New("auth: unauthorized")

// HeaderAuthorization is read from HTTP headers and lower-cased gRPC metadata.
const HeaderAuthorization = "Authorization"

type Validator interface {
	Validate(token string) error
}

// StaticToken accepts exactly one token.
type StaticToken struct {
	Token string
}

func (s StaticToken) Validate(token string) error {
	if s.Token == "" {
		return ErrUnauthorized
	}
	if subtle.ConstantTimeCompare([]byte(s.Token), []byte(token)) != 1 {
		return ErrUnauthorized
	}
	return nil
}

// FuncValidator adapts a function into a Validator.
type FuncValidator func(token string) error

func (f FuncValidator) Validate(token string) error {
	return f(token)
}

// FromToken returns nil for an empty token, meaning no guard.
func FromToken(token string) Validator {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return StaticToken{Token: token}
}

// BearerToken extracts the token from an "Authorization: Bearer <t>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func check(v Validator, header string) error {
	token, ok := BearerToken(header)
	if !ok {
		return ErrUnauthorized
	}
	return v.Validate(token)
}

// Middleware rejects requests without a valid bearer token. A nil v lets
// everything through.
func Middleware(v Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil {
			c.Next()
			return
		}
		if err := check(v, c.GetHeader(HeaderAuthorization)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthorized.Error()})
			return
		}
		c.Next()
	}
}

// UnaryInterceptor is the gRPC counterpart of Middleware.
func UnaryInterceptor(v Validator) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if v == nil {
			return handler(ctx, req)
		}
		var header string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if vals := md.Get(strings.ToLower(HeaderAuthorization)); len(vals) > 0 {
				header = vals[0]
			}
		}
		if err := check(v, header); err != nil {
			return nil, status.Error(codes.Unauthenticated, ErrUnauthorized.Error())
		}
		return handler(ctx, req)
	}
}

// PerRPCToken attaches a bearer token to every outgoing call.
type PerRPCToken struct {
	Token    string
	Insecure bool
}

func (p PerRPCToken) GetRequestMetadata(ctx context.Context, uri ...string) (map[string]string, error) {
	_ = ctx
	return map[string]string{strings.ToLower(HeaderAuthorization): "Bearer " + p.Token}, nil
}

func (p PerRPCToken) RequireTransportSecurity() bool {
	return !p.Insecure
}
