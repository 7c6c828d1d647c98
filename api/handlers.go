package api

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	registrydomain "github.com/dataxfi/datax-router/business/registry/domain"
	stakedomain "github.com/dataxfi/datax-router/business/stake/domain"
	tradedomain "github.com/dataxfi/datax-router/business/trade/domain"
	venueapp "github.com/dataxfi/datax-router/business/venue/app"
	"github.com/dataxfi/datax-router/internal/apperror"
)

func (s *Server) bindStakeRequest(c *gin.Context) (stakedomain.Request, bool) {
	var body stakeQuoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondErr(c, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err), apperror.WithContext("malformed request body")))
		return stakedomain.Request{}, false
	}

	pool, err := resolveAddress("pool", body.Pool)
	if err != nil {
		s.respondErr(c, err)
		return stakedomain.Request{}, false
	}
	staker, err := resolveAddress("staker", body.Staker)
	if err != nil {
		s.respondErr(c, err)
		return stakedomain.Request{}, false
	}

	var referrer common.Address
	if body.Referrer != "" {
		if referrer, err = resolveAddress("referrer", body.Referrer); err != nil {
			s.respondErr(c, err)
			return stakedomain.Request{}, false
		}
	}

	token, err := s.resolveAsset(body.Token)
	if err != nil {
		s.respondErr(c, err)
		return stakedomain.Request{}, false
	}
	amountIn, err := resolveAmount(token, body.AmountIn)
	if err != nil {
		s.respondErr(c, err)
		return stakedomain.Request{}, false
	}
	path, err := s.resolvePath(body.Path)
	if err != nil {
		s.respondErr(c, err)
		return stakedomain.Request{}, false
	}

	return stakedomain.Request{
		Pool:      pool,
		Staker:    staker,
		Referrer:  referrer,
		AmountIn:  amountIn,
		RefFeeBps: body.RefFeeBps,
		Path:      path,
	}, true
}

func (s *Server) handleStakePoolOut(c *gin.Context) {
	req, ok := s.bindStakeRequest(c)
	if !ok {
		return
	}

	result, err := s.stakeCalc.CalcPoolOutGivenTokenIn(c.Request.Context(), req)
	if err != nil {
		s.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse{
		PoolAmountOut:    fmtAmount(result.PoolAmountOut),
		BaseAmountNeeded: fmtAmount(result.BaseAmountNeeded),
		DataxFee:         fmtAmount(result.DataxFee),
		RefFee:           fmtAmount(result.RefFee),
	})
}

func (s *Server) handleStakeTokenOut(c *gin.Context) {
	req, ok := s.bindStakeRequest(c)
	if !ok {
		return
	}

	result, err := s.stakeCalc.CalcTokenOutGivenPoolIn(c.Request.Context(), req)
	if err != nil {
		s.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse{
		BaseAmountOut: fmtAmount(result.BaseAmountOut),
		DataxFee:      fmtAmount(result.DataxFee),
		RefFee:        fmtAmount(result.RefFee),
	})
}

// bindTradeRequest builds the trade request common to all four quote
// directions. The parsed amount lands on AmountIn for exact-in
// directions and AmountOut for exact-out ones.
func (s *Server) bindTradeRequest(c *gin.Context, exactOut bool) (tradedomain.Request, bool) {
	var body tradeQuoteRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.respondErr(c, apperror.New(apperror.CodeInvalidInput,
			apperror.WithCause(err), apperror.WithContext("malformed request body")))
		return tradedomain.Request{}, false
	}

	venue, err := resolveAddress("venue", body.Venue)
	if err != nil {
		s.respondErr(c, err)
		return tradedomain.Request{}, false
	}
	trader, err := resolveAddress("trader", body.Trader)
	if err != nil {
		s.respondErr(c, err)
		return tradedomain.Request{}, false
	}

	var referrer common.Address
	if body.Referrer != "" {
		if referrer, err = resolveAddress("referrer", body.Referrer); err != nil {
			s.respondErr(c, err)
			return tradedomain.Request{}, false
		}
	}

	token, err := s.resolveAsset(body.Token)
	if err != nil {
		s.respondErr(c, err)
		return tradedomain.Request{}, false
	}
	amount, err := resolveAmount(token, body.Amount)
	if err != nil {
		s.respondErr(c, err)
		return tradedomain.Request{}, false
	}
	path, err := s.resolvePath(body.Path)
	if err != nil {
		s.respondErr(c, err)
		return tradedomain.Request{}, false
	}

	req := tradedomain.Request{
		Venue: venueapp.Ref{
			Kind:       venueapp.Kind(body.Kind),
			Venue:      venue,
			ExchangeID: common.HexToHash(body.ExchangeID),
		},
		Trader:    trader,
		Referrer:  referrer,
		RefFeeBps: body.RefFeeBps,
		Path:      path,
	}
	if exactOut {
		req.AmountOut = amount
	} else {
		req.AmountIn = amount
	}
	return req, true
}

func (s *Server) handleTradeDtOut(c *gin.Context) {
	req, ok := s.bindTradeRequest(c, false)
	if !ok {
		return
	}

	result, err := s.tradeCalc.CalcDatatokenOutGivenTokenIn(c.Request.Context(), req)
	if err != nil {
		s.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse{
		DtAmountOut:      fmtAmount(result.DtAmountOut),
		BaseAmountNeeded: fmtAmount(result.BaseAmountNeeded),
		DataxFee:         fmtAmount(result.DataxFee),
		RefFee:           fmtAmount(result.RefFee),
	})
}

func (s *Server) handleTradeTokenIn(c *gin.Context) {
	req, ok := s.bindTradeRequest(c, true)
	if !ok {
		return
	}

	result, err := s.tradeCalc.CalcTokenInGivenDatatokenOut(c.Request.Context(), req)
	if err != nil {
		s.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse{
		TokenAmountIn:    fmtAmount(result.TokenAmountIn),
		BaseAmountNeeded: fmtAmount(result.BaseAmountNeeded),
		DataxFee:         fmtAmount(result.DataxFee),
		RefFee:           fmtAmount(result.RefFee),
	})
}

func (s *Server) handleTradeTokenOut(c *gin.Context) {
	req, ok := s.bindTradeRequest(c, false)
	if !ok {
		return
	}

	result, err := s.tradeCalc.CalcTokenOutGivenDatatokenIn(c.Request.Context(), req)
	if err != nil {
		s.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse{
		TokenAmountOut: fmtAmount(result.TokenAmountOut),
		DataxFee:       fmtAmount(result.DataxFee),
		RefFee:         fmtAmount(result.RefFee),
	})
}

func (s *Server) handleTradeDtIn(c *gin.Context) {
	req, ok := s.bindTradeRequest(c, true)
	if !ok {
		return
	}

	result, err := s.tradeCalc.CalcDatatokenInGivenTokenOut(c.Request.Context(), req)
	if err != nil {
		s.respondErr(c, err)
		return
	}

	c.JSON(http.StatusOK, quoteResponse{
		DtAmountIn:       fmtAmount(result.DtAmountIn),
		BaseAmountNeeded: fmtAmount(result.BaseAmountNeeded),
		DataxFee:         fmtAmount(result.DataxFee),
		RefFee:           fmtAmount(result.RefFee),
	})
}

func (s *Server) handleReferralBalance(c *gin.Context) {
	referrer, err := resolveAddress("referrer", c.Param("referrer"))
	if err != nil {
		s.respondErr(c, err)
		return
	}
	token, err := s.resolveAsset(c.Param("token"))
	if err != nil {
		s.respondErr(c, err)
		return
	}

	balance := s.refLedger.Balance(referrer, token)

	c.JSON(http.StatusOK, referralBalanceResponse{
		Referrer: referrer.Hex(),
		Token:    token.Address().Hex(),
		Balance:  balance.ToDecimal().String(),
	})
}

func (s *Server) handleVersion(c *gin.Context) {
	components := map[string]uint8{}
	for _, name := range []string{
		registrydomain.ComponentStakeRouter,
		registrydomain.ComponentTradeRouter,
		registrydomain.ComponentPoolRouter,
		registrydomain.ComponentFRERouter,
		registrydomain.ComponentAdapter,
	} {
		components[name] = s.storage.Version(name)
	}

	c.JSON(http.StatusOK, versionResponse{
		Service:    s.serviceName,
		Mode:       s.mode,
		Components: components,
	})
}
