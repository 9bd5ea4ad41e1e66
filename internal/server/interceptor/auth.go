package interceptor

import (
	"context"
	"crypto/subtle"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AuthHeader is the request metadata key carrying the client credential.
const AuthHeader = "authorization"

// Auth rejects calls whose authorization header does not match token. The
// comparison is verbatim (no scheme parsing) and constant-time. A rejected
// call terminates with Unauthenticated before any later hook or handler
// runs.
func Auth(token string) Hook {
	return func(ctx context.Context, call *Call) error {
		got := call.Header(AuthHeader)
		if got == "" {
			return status.Error(codes.Unauthenticated, "missing authentication token")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			return status.Error(codes.Unauthenticated, "invalid authentication token")
		}
		return nil
	}
}
