package rpc

import (
	"net/http"

	"github.com/holiman/uint256"

	"stableamm/core/types"
	"stableamm/native/stableamm"
)

func (s *Server) handleCreatePool(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		Currencies        []string `json:"currencies"`
		Decimals          []uint8  `json:"decimals"`
		LpCurrency        string   `json:"lpCurrency"`
		A                 uint64   `json:"a"`
		Fee               uint64   `json:"fee"`
		AdminFee          uint64   `json:"adminFee"`
		AdminFeeReceiver  string   `json:"adminFeeReceiver"`
		LpCurrencySymbol  string   `json:"lpCurrencySymbol"`
		LpCurrencyDecimal uint8    `json:"lpCurrencyDecimal"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	receiver, rpcErr := parseAddress("adminFeeReceiver", params.AdminFeeReceiver)
	if rpcErr != nil {
		return nil, rpcErr
	}
	currencies := make([]types.CurrencyID, len(params.Currencies))
	for i, id := range params.Currencies {
		currencies[i] = types.CurrencyID(id)
	}
	var id stableamm.PoolID
	rpcErr = s.execute(r, req, func(engine *stableamm.Engine) (err error) {
		id, err = engine.CreatePool(actorFromContext(r.Context()), stableamm.CreatePoolParams{
			CurrencyIDs:       currencies,
			CurrencyDecimals:  params.Decimals,
			LpCurrencyID:      types.CurrencyID(params.LpCurrency),
			A:                 params.A,
			Fee:               params.Fee,
			AdminFee:          params.AdminFee,
			AdminFeeReceiver:  receiver,
			LpCurrencySymbol:  params.LpCurrencySymbol,
			LpCurrencyDecimal: params.LpCurrencyDecimal,
		})
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]PoolIDParam{"poolId": PoolIDParam(id)}, nil
}

func (s *Server) handleSetFee(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID   PoolIDParam `json:"poolId"`
		Fee      uint64      `json:"fee"`
		AdminFee uint64      `json:"adminFee"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	rpcErr := s.execute(r, req, func(engine *stableamm.Engine) error {
		return engine.SetFee(actorFromContext(r.Context()), stableamm.PoolID(params.PoolID), params.Fee, params.AdminFee)
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleUpdateFeeReceiver(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID   PoolIDParam `json:"poolId"`
		Receiver string      `json:"receiver"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	if params.Receiver == "" {
		return nil, invalidParams("receiver required", nil)
	}
	receiver, rpcErr := parseAddress("receiver", params.Receiver)
	if rpcErr != nil {
		return nil, rpcErr
	}
	rpcErr = s.execute(r, req, func(engine *stableamm.Engine) error {
		return engine.UpdateFeeReceiver(actorFromContext(r.Context()), stableamm.PoolID(params.PoolID), receiver)
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleRampA(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID      PoolIDParam `json:"poolId"`
		FutureA     uint64      `json:"futureA"`
		FutureATime uint64      `json:"futureATime"`
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	rpcErr := s.execute(r, req, func(engine *stableamm.Engine) error {
		return engine.RampA(actorFromContext(r.Context()), stableamm.PoolID(params.PoolID), params.FutureA, params.FutureATime)
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleStopRampA(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params poolParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	rpcErr := s.execute(r, req, func(engine *stableamm.Engine) error {
		return engine.StopRampA(actorFromContext(r.Context()), stableamm.PoolID(params.PoolID))
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]bool{"ok": true}, nil
}

func (s *Server) handleWithdrawAdminFee(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params poolParams
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	var swept []*uint256.Int
	rpcErr := s.execute(r, req, func(engine *stableamm.Engine) (err error) {
		swept, err = engine.WithdrawAdminFee(actorFromContext(r.Context()), stableamm.PoolID(params.PoolID))
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string][]string{"amounts": formatAmounts(swept)}, nil
}
