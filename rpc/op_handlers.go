package rpc

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"stableamm/native/stableamm"
)

// recipientParams is embedded by every liquidity and swap payload.
type recipientParams struct {
	To       string `json:"to"`
	Deadline uint64 `json:"deadline"`
}

func (p recipientParams) recipient() (common.Address, *RPCError) {
	return parseAddress("to", p.To)
}

// execute runs fn as one block on the node and maps its failure.
func (s *Server) execute(r *http.Request, req *RPCRequest, fn func(engine *stableamm.Engine) error) *RPCError {
	if err := s.node.Execute(r.Context(), req.Method, fn); err != nil {
		return s.engineError(req.Method, err)
	}
	return nil
}

func (s *Server) handleAddLiquidity(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID        PoolIDParam `json:"poolId"`
		Amounts       []string    `json:"amounts"`
		MinMintAmount string      `json:"minMintAmount"`
		recipientParams
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	amounts, rpcErr := parseAmounts("amounts", params.Amounts)
	if rpcErr != nil {
		return nil, rpcErr
	}
	minMint, rpcErr := parseAmount("minMintAmount", params.MinMintAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := params.recipient()
	if rpcErr != nil {
		return nil, rpcErr
	}
	var minted *uint256.Int
	rpcErr = s.execute(r, req, func(engine *stableamm.Engine) (err error) {
		minted, err = engine.AddLiquidity(stableamm.AddLiquidityRequest{
			Who:           actorFromContext(r.Context()),
			PoolID:        stableamm.PoolID(params.PoolID),
			Amounts:       amounts,
			MinMintAmount: minMint,
			To:            to,
			Deadline:      resolveDeadline(params.Deadline, engine),
		})
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]string{"minted": formatAmount(minted)}, nil
}

func (s *Server) handleSwap(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID       PoolIDParam `json:"poolId"`
		In           int         `json:"in"`
		Out          int         `json:"out"`
		InAmount     string      `json:"inAmount"`
		MinOutAmount string      `json:"minOutAmount"`
		recipientParams
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	inAmount, rpcErr := parseAmount("inAmount", params.InAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	minOut, rpcErr := parseAmount("minOutAmount", params.MinOutAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := params.recipient()
	if rpcErr != nil {
		return nil, rpcErr
	}
	var result *stableamm.SwapResult
	rpcErr = s.execute(r, req, func(engine *stableamm.Engine) (err error) {
		result, err = engine.Swap(stableamm.SwapRequest{
			Who:          actorFromContext(r.Context()),
			PoolID:       stableamm.PoolID(params.PoolID),
			In:           params.In,
			Out:          params.Out,
			InAmount:     inAmount,
			MinOutAmount: minOut,
			To:           to,
			Deadline:     resolveDeadline(params.Deadline, engine),
		})
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]string{
		"outAmount": formatAmount(result.OutAmount),
		"fee":       formatAmount(result.Fee),
		"adminFee":  formatAmount(result.AdminFee),
	}, nil
}

func (s *Server) handleRemoveLiquidity(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID     PoolIDParam `json:"poolId"`
		LpAmount   string      `json:"lpAmount"`
		MinAmounts []string    `json:"minAmounts"`
		recipientParams
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	lpAmount, rpcErr := parseAmount("lpAmount", params.LpAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	minAmounts, rpcErr := parseAmounts("minAmounts", params.MinAmounts)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := params.recipient()
	if rpcErr != nil {
		return nil, rpcErr
	}
	var amounts []*uint256.Int
	rpcErr = s.execute(r, req, func(engine *stableamm.Engine) (err error) {
		amounts, err = engine.RemoveLiquidity(stableamm.RemoveLiquidityRequest{
			Who:        actorFromContext(r.Context()),
			PoolID:     stableamm.PoolID(params.PoolID),
			LpAmount:   lpAmount,
			MinAmounts: minAmounts,
			To:         to,
			Deadline:   resolveDeadline(params.Deadline, engine),
		})
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string][]string{"amounts": formatAmounts(amounts)}, nil
}

func (s *Server) handleRemoveLiquidityOneCurrency(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID    PoolIDParam `json:"poolId"`
		LpAmount  string      `json:"lpAmount"`
		Index     int         `json:"index"`
		MinAmount string      `json:"minAmount"`
		recipientParams
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	lpAmount, rpcErr := parseAmount("lpAmount", params.LpAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	minAmount, rpcErr := parseAmount("minAmount", params.MinAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := params.recipient()
	if rpcErr != nil {
		return nil, rpcErr
	}
	var result *stableamm.RemoveOneResult
	rpcErr = s.execute(r, req, func(engine *stableamm.Engine) (err error) {
		result, err = engine.RemoveLiquidityOneCurrency(stableamm.RemoveLiquidityOneCurrencyRequest{
			Who:       actorFromContext(r.Context()),
			PoolID:    stableamm.PoolID(params.PoolID),
			LpAmount:  lpAmount,
			Index:     params.Index,
			MinAmount: minAmount,
			To:        to,
			Deadline:  resolveDeadline(params.Deadline, engine),
		})
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]string{"outAmount": formatAmount(result.OutAmount), "fee": formatAmount(result.Fee)}, nil
}

func (s *Server) handleRemoveLiquidityImbalance(r *http.Request, req *RPCRequest) (interface{}, *RPCError) {
	var params struct {
		PoolID        PoolIDParam `json:"poolId"`
		Amounts       []string    `json:"amounts"`
		MaxBurnAmount string      `json:"maxBurnAmount"`
		recipientParams
	}
	if err := decodeParams(req, &params); err != nil {
		return nil, err
	}
	amounts, rpcErr := parseAmounts("amounts", params.Amounts)
	if rpcErr != nil {
		return nil, rpcErr
	}
	maxBurn, rpcErr := parseAmount("maxBurnAmount", params.MaxBurnAmount)
	if rpcErr != nil {
		return nil, rpcErr
	}
	to, rpcErr := params.recipient()
	if rpcErr != nil {
		return nil, rpcErr
	}
	var burned *uint256.Int
	rpcErr = s.execute(r, req, func(engine *stableamm.Engine) (err error) {
		burned, err = engine.RemoveLiquidityImbalance(stableamm.RemoveLiquidityImbalanceRequest{
			Who:           actorFromContext(r.Context()),
			PoolID:        stableamm.PoolID(params.PoolID),
			Amounts:       amounts,
			MaxBurnAmount: maxBurn,
			To:            to,
			Deadline:      resolveDeadline(params.Deadline, engine),
		})
		return err
	})
	if rpcErr != nil {
		return nil, rpcErr
	}
	return map[string]string{"burned": formatAmount(burned)}, nil
}
