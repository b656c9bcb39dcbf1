package rpc

import (
	"errors"
	"log/slog"
	"net/http"

	"stableamm/core"
	"stableamm/native/stableamm"
)

func invalidParams(message string, data interface{}) *RPCError {
	return &RPCError{status: http.StatusBadRequest, Code: codeInvalidParams, Message: message, Data: data}
}

// engineError maps an engine or node failure onto a JSON-RPC error. Known
// engine failures carry their stable label in data.reason.
func (s *Server) engineError(method string, err error) *RPCError {
	label := stableamm.ErrorLabel(err)
	data := map[string]string{"reason": label}
	switch {
	case errors.Is(err, stableamm.ErrUnauthorized):
		return &RPCError{status: http.StatusForbidden, Code: codeUnauthorized, Message: err.Error(), Data: data}
	case errors.Is(err, stableamm.ErrInvalidPoolID):
		return &RPCError{status: http.StatusNotFound, Code: codeOperationFailed, Message: err.Error(), Data: data}
	case errors.Is(err, core.ErrNodeClosed), errors.Is(err, stableamm.ErrNilState):
		return &RPCError{status: http.StatusServiceUnavailable, Code: codeServerError, Message: err.Error()}
	case label == "internal":
		s.logger.Error("rpc method failed", slog.String("method", method), slog.Any("error", err))
		return &RPCError{status: http.StatusInternalServerError, Code: codeServerError, Message: "internal error"}
	default:
		return &RPCError{status: http.StatusUnprocessableEntity, Code: codeOperationFailed, Message: err.Error(), Data: data}
	}
}
