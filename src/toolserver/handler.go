package toolserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"

	"github.com/rwalsh-trading/marketscope/src/models"
	"github.com/rwalsh-trading/marketscope/src/services"
)

var decoder = func() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}()

type errorResponse struct {
	Type string `json:"type"`
	Msg  string `json:"message"`
}

func setResponse(response interface{}, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		return fmt.Errorf("setResponse: encode: %w", err)
	}

	return nil
}

func setErrorResponse(errType string, statusCode int, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := errorResponse{
		Type: errType,
		Msg:  err.Error(),
	}

	if encodeErr := json.NewEncoder(w).Encode(resp); encodeErr != nil {
		log.WithError(encodeErr).Error("setErrorResponse: encode failed")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := setResponse(map[string]string{"status": "ok"}, w); err != nil {
		log.WithError(err).Error("handleHealth: failed to set response")
	}
}

func (s *Server) handleLastTrade(w http.ResponseWriter, r *http.Request) {
	var req models.LastTradeRequest
	if err := decoder.Decode(&req, r.URL.Query()); err != nil {
		setErrorResponse("handleLastTrade: invalid query", 400, err, w)
		return
	}

	symbol := models.NewStockSymbol(req.Symbol)
	price, err := s.svc.GetLastTradePrice(r.Context(), symbol)
	if err != nil {
		setErrorResponse("handleLastTrade: fetch failed", 500, err, w)
		return
	}

	resp := models.LastTradeResponse{
		Symbol: symbol,
		Price:  price,
	}

	if err := setResponse(resp, w); err != nil {
		log.WithError(err).Error("handleLastTrade: failed to set response")
	}
}

func (s *Server) handlePreviousClose(w http.ResponseWriter, r *http.Request) {
	var req models.PreviousCloseRequest
	if err := decoder.Decode(&req, r.URL.Query()); err != nil {
		setErrorResponse("handlePreviousClose: invalid query", 400, err, w)
		return
	}

	symbol := models.NewStockSymbol(req.Symbol)
	bar, err := s.svc.GetPreviousClose(r.Context(), symbol)
	if err != nil {
		setErrorResponse("handlePreviousClose: fetch failed", 500, err, w)
		return
	}

	resp := models.PreviousCloseResponse{
		Symbol: symbol,
		Bar:    *bar,
	}

	if err := setResponse(resp, w); err != nil {
		log.WithError(err).Error("handlePreviousClose: failed to set response")
	}
}

func (s *Server) handleDailyAggs(w http.ResponseWriter, r *http.Request) {
	var req models.DailyAggsRequest
	if err := decoder.Decode(&req, r.URL.Query()); err != nil {
		setErrorResponse("handleDailyAggs: invalid query", 400, err, w)
		return
	}

	if req.Days <= 0 {
		req.Days = 30
	}

	symbol := models.NewStockSymbol(req.Symbol)
	to := time.Now()
	from := to.AddDate(0, 0, -req.Days)

	bars, err := s.svc.FetchDailyBars(r.Context(), symbol, from, to)
	if err != nil {
		setErrorResponse("handleDailyAggs: fetch failed", 500, err, w)
		return
	}

	resp := models.DailyAggsResponse{
		Symbol: symbol,
		Bars:   bars,
	}

	if err := setResponse(resp, w); err != nil {
		log.WithError(err).Error("handleDailyAggs: failed to set response")
	}
}

func (s *Server) handleChainSnapshot(w http.ResponseWriter, r *http.Request) {
	var req models.ChainSnapshotRequest
	if err := decoder.Decode(&req, r.URL.Query()); err != nil {
		setErrorResponse("handleChainSnapshot: invalid query", 400, err, w)
		return
	}

	query := services.ChainQuery{
		MaxContracts: req.MaxContracts,
	}

	if req.ContractType != "" {
		contractType := models.OptionType(strings.ToLower(req.ContractType))
		if err := contractType.Validate(); err != nil {
			setErrorResponse("handleChainSnapshot: invalid contract_type", 400, err, w)
			return
		}

		query.ContractType = &contractType
	}

	if req.Expiration != "" {
		expiration, err := time.Parse("2006-01-02", req.Expiration)
		if err != nil {
			setErrorResponse("handleChainSnapshot: invalid expiration", 400, err, w)
			return
		}

		query.ExpirationEQ = &expiration
	}

	symbol := models.NewStockSymbol(req.Symbol)
	chain, err := s.svc.FetchOptionChainSnapshot(r.Context(), symbol, query)
	if err != nil {
		setErrorResponse("handleChainSnapshot: fetch failed", 500, err, w)
		return
	}

	spot, err := s.svc.ResolveSpot(r.Context(), chain, symbol)
	if err != nil {
		spot = 0
	}

	resp := models.ChainSnapshotResponse{
		Symbol:    symbol,
		Spot:      spot,
		Contracts: chain,
	}

	if err := setResponse(resp, w); err != nil {
		log.WithError(err).Error("handleChainSnapshot: failed to set response")
	}
}

func (s *Server) handleMarketStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.svc.GetMarketStatus(r.Context())
	if err != nil {
		setErrorResponse("handleMarketStatus: fetch failed", 500, err, w)
		return
	}

	resp := models.MarketStatusResponse{
		Market: status,
	}

	if err := setResponse(resp, w); err != nil {
		log.WithError(err).Error("handleMarketStatus: failed to set response")
	}
}
