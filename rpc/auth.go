package rpc

import (
	"context"
	"errors"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"stableamm/gateway/middleware"
)

type actorKey struct{}

func withActor(ctx context.Context, actor common.Address) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

func actorFromContext(ctx context.Context) common.Address {
	actor, _ := ctx.Value(actorKey{}).(common.Address)
	return actor
}

func (s *Server) authenticate(r *http.Request) (common.Address, *RPCError) {
	if s.opts.Authenticator == nil {
		return common.Address{}, &RPCError{status: http.StatusUnauthorized, Code: codeUnauthorized, Message: "authentication not configured"}
	}
	actor, _, err := s.opts.Authenticator.Authenticate(r, scopeOperate)
	switch {
	case err == nil:
		return actor, nil
	case errors.Is(err, middleware.ErrInsufficientScope):
		return common.Address{}, &RPCError{status: http.StatusForbidden, Code: codeUnauthorized, Message: "insufficient scope", Data: scopeOperate}
	case errors.Is(err, middleware.ErrMissingToken):
		return common.Address{}, &RPCError{status: http.StatusUnauthorized, Code: codeUnauthorized, Message: "missing bearer token"}
	default:
		return common.Address{}, &RPCError{status: http.StatusUnauthorized, Code: codeUnauthorized, Message: "invalid token"}
	}
}
