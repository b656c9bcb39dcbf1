package rpc

import (
	"net/http"
	"strings"
	"time"

	"stableamm/core/types"
	"stableamm/native/stableamm"
	"stableamm/observability/eventlog"
)

type poolParams struct {
	PoolID PoolIDParam `json:"poolId"`
}

func (s *Server) handleHeight(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	return map[string]uint64{"height": s.node.Height()}, nil
}

func (s *Server) handleGetBalance(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		Account  string `json:"account"`
		Currency string `json:"currency"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	if strings.TrimSpace(params.Account) == "" || strings.TrimSpace(params.Currency) == "" {
		return nil, invalidParams("account and currency required", nil)
	}
	account, rpcErr := parseAddress("account", params.Account)
	if rpcErr != nil {
		return nil, rpcErr
	}
	balance, err := s.node.Balance(types.CurrencyID(params.Currency), account)
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return map[string]string{
		"account":  account.Hex(),
		"currency": params.Currency,
		"balance":  formatAmount(balance),
	}, nil
}

func (s *Server) handlePoolCount(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var count uint64
	err := s.node.Query(func(engine *stableamm.Engine) (err error) {
		count, err = engine.PoolCount()
		return err
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return map[string]uint64{"count": count}, nil
}

func (s *Server) handleGetPool(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params poolParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	var pool *stableamm.Pool
	err := s.node.Query(func(engine *stableamm.Engine) (err error) {
		pool, err = engine.Pool(stableamm.PoolID(params.PoolID))
		return err
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return newPoolResult(pool), nil
}

func (s *Server) handleGetPoolByLpCurrency(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		LpCurrency string `json:"lpCurrency"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	var id stableamm.PoolID
	err := s.node.Query(func(engine *stableamm.Engine) (err error) {
		id, err = engine.PoolByLpCurrency(types.CurrencyID(params.LpCurrency))
		return err
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return map[string]PoolIDParam{"poolId": PoolIDParam(id)}, nil
}

func (s *Server) handleGetA(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params poolParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	var a, precise uint64
	err := s.node.Query(func(engine *stableamm.Engine) (err error) {
		if a, err = engine.A(stableamm.PoolID(params.PoolID)); err != nil {
			return err
		}
		precise, err = engine.APrecise(stableamm.PoolID(params.PoolID))
		return err
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return map[string]uint64{"a": a, "aPrecise": precise}, nil
}

func (s *Server) handleVirtualPrice(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params poolParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	var result string
	err := s.node.Query(func(engine *stableamm.Engine) error {
		price, err := engine.VirtualPrice(stableamm.PoolID(params.PoolID))
		result = formatAmount(price)
		return err
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return map[string]string{"virtualPrice": result}, nil
}

func (s *Server) handleCalculateSwap(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID   PoolIDParam `json:"poolId"`
		In       int         `json:"in"`
		Out      int         `json:"out"`
		InAmount string      `json:"inAmount"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	amount, rpcErr := parseAmount("inAmount", params.InAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var result string
	err := s.node.Query(func(engine *stableamm.Engine) error {
		out, err := engine.CalculateSwap(stableamm.PoolID(params.PoolID), params.In, params.Out, amount)
		result = formatAmount(out)
		return err
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return map[string]string{"outAmount": result}, nil
}

func (s *Server) handleCalculateCurrencyAmount(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID  PoolIDParam `json:"poolId"`
		Amounts []string    `json:"amounts"`
		Deposit bool        `json:"deposit"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	amounts, rpcErr := parseAmounts("amounts", params.Amounts)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var result string
	err := s.node.Query(func(engine *stableamm.Engine) error {
		lp, err := engine.CalculateCurrencyAmount(stableamm.PoolID(params.PoolID), amounts, params.Deposit)
		result = formatAmount(lp)
		return err
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return map[string]string{"lpAmount": result}, nil
}

func (s *Server) handleCalculateRemoveLiquidity(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID   PoolIDParam `json:"poolId"`
		LpAmount string      `json:"lpAmount"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	lpAmount, rpcErr := parseAmount("lpAmount", params.LpAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var result []string
	err := s.node.Query(func(engine *stableamm.Engine) error {
		amounts, err := engine.CalculateRemoveLiquidity(stableamm.PoolID(params.PoolID), lpAmount)
		result = formatAmounts(amounts)
		return err
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return map[string][]string{"amounts": result}, nil
}

func (s *Server) handleCalculateRemoveLiquidityOneCurrency(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID   PoolIDParam `json:"poolId"`
		LpAmount string      `json:"lpAmount"`
		Index    int         `json:"index"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	lpAmount, rpcErr := parseAmount("lpAmount", params.LpAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	var result *stableamm.RemoveOneResult
	err := s.node.Query(func(engine *stableamm.Engine) (err error) {
		result, err = engine.CalculateRemoveLiquidityOneCurrency(stableamm.PoolID(params.PoolID), lpAmount, params.Index)
		return err
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return map[string]string{"outAmount": formatAmount(result.OutAmount), "fee": formatAmount(result.Fee)}, nil
}

func (s *Server) handleAdminBalances(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params poolParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	var result []string
	err := s.node.Query(func(engine *stableamm.Engine) error {
		balances, err := engine.AdminBalances(stableamm.PoolID(params.PoolID))
		result = formatAmounts(balances)
		return err
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	return map[string][]string{"balances": result}, nil
}

// EventResult is one row of the notification log.
type EventResult struct {
	Sequence   uint64            `json:"sequence"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  string            `json:"createdAt"`
}

func (s *Server) handleEvents(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	if s.opts.EventLog == nil {
		return nil, &RPCError{status: http.StatusServiceUnavailable, Code: codeServerError, Message: "event log not enabled"}
	}
	var params struct {
		Type  string `json:"type"`
		Pool  string `json:"pool"`
		After uint64 `json:"after"`
		Limit int    `json:"limit"`
	}
	if len(req.Params) > 0 {
		if err := decodeParams(req, &params); err != nil {
			return nil, err
		}
	}
	records, err := s.opts.EventLog.List(r.Context(), eventlog.Filter{
		Type:  params.Type,
		Pool:  params.Pool,
		After: params.After,
		Limit: params.Limit,
	})
	if err != nil {
		return nil, s.engineError(req.Method, err)
	}
	out := make([]EventResult, 0, len(records))
	for _, rec := range records {
		attrs, err := rec.Decoded()
		if err != nil {
			return nil, s.engineError(req.Method, err)
		}
		out = append(out, EventResult{
			Sequence:   rec.Sequence,
			Type:       rec.Type,
			Attributes: attrs,
			CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return map[string][]EventResult{"events": out}, nil
}
