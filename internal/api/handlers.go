package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/Tanishq1604/HD-wallet/internal/chain"
	"github.com/Tanishq1604/HD-wallet/internal/wallet"
)

type sendRequest struct {
	Chain          string `json:"chain"`
	FromAddress    string `json:"fromAddress"`
	ToAddress      string `json:"toAddress"`
	Amount         string `json:"amount"`
	DerivationPath string `json:"derivationPath"`
}

type fieldErrorsResponse struct {
	Errors map[string]string `json:"errors"`
}

func (s *Server) validateSend(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	chainID, err := chain.Parse(req.Chain)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	from, _, err := s.resolveSender(chainID, req.FromAddress, req.DerivationPath)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	balance, err := s.fetchBalance(c, chainID, from)
	if err != nil {
		return s.chainError(err)
	}

	intent := wallet.SendIntent{Chain: chainID, FromAddress: from, ToAddress: req.ToAddress, Amount: req.Amount}
	fields, err := s.validator.Validate(c.Request().Context(), intent, balance)
	if err != nil {
		return s.chainError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"valid":  len(fields) == 0,
		"errors": fields,
	})
}

func (s *Server) maxAmount(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	chainID, err := chain.Parse(req.Chain)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	from, _, err := s.resolveSender(chainID, req.FromAddress, req.DerivationPath)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	balance, err := s.fetchBalance(c, chainID, from)
	if err != nil {
		return s.chainError(err)
	}

	max, fields, err := s.maxCalc.Calculate(c.Request().Context(), chainID, from, req.ToAddress, balance)
	if err != nil {
		return s.chainError(err)
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, fieldErrorsResponse{Errors: fields})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"amount":  max.Amount,
		"warning": max.Warning,
	})
}

// watchFees streams fee re-estimates as server-sent events while the
// client keeps the confirmation view open. The stream ends when the client
// disconnects; stale estimates are dropped by the watcher, not sent.
func (s *Server) watchFees(c echo.Context) error {
	chainID, err := chain.Parse(c.QueryParam("chain"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	adapter, err := s.registry.Get(chainID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	from, _, err := s.resolveSender(chainID, c.QueryParam("from"), c.QueryParam("path"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	s.fees.Watch(c.Request().Context(), adapter, from, c.QueryParam("to"), c.QueryParam("amount"), func(estimate wallet.FeeEstimate) {
		payload, err := json.Marshal(map[string]string{
			"chain":       chainID.String(),
			"fee":         estimate.DisplayFee,
			"estimatedAt": estimate.EstimatedAt.UTC().Format(time.RFC3339),
		})
		if err != nil {
			return
		}
		fmt.Fprintf(resp, "data: %s\n\n", payload)
		resp.Flush()
	})
	return nil
}

func (s *Server) send(c echo.Context) error {
	var req sendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	chainID, err := chain.Parse(req.Chain)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	from, path, err := s.resolveSender(chainID, req.FromAddress, req.DerivationPath)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	balance, err := s.fetchBalance(c, chainID, from)
	if err != nil {
		return s.chainError(err)
	}

	intent := wallet.SendIntent{Chain: chainID, FromAddress: from, ToAddress: req.ToAddress, Amount: req.Amount}
	fields, err := s.validator.Validate(c.Request().Context(), intent, balance)
	if err != nil {
		return s.chainError(err)
	}
	if len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, fieldErrorsResponse{Errors: fields})
	}

	record, err := s.orch.Send(c.Request().Context(), intent, path)
	if err != nil {
		return s.chainError(err)
	}

	return c.JSON(http.StatusAccepted, map[string]string{
		"hash":   record.Hash,
		"chain":  record.Chain.String(),
		"status": string(record.Status),
	})
}

func (s *Server) transaction(c echo.Context) error {
	chainID, err := chain.Parse(c.Param("chain"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	record, err := s.store.Transaction(chainID, c.Param("hash"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"hash":        record.Hash,
		"chain":       record.Chain.String(),
		"status":      string(record.Status),
		"submittedAt": record.SubmittedAt,
	})
}

func (s *Server) balance(c echo.Context) error {
	chainID, err := chain.Parse(c.Param("chain"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	address := c.Param("address")

	adapter, err := s.registry.Get(chainID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	balance, err := adapter.Balance(c.Request().Context(), address)
	if err != nil {
		return s.chainError(err)
	}

	// Keep the store warm for known accounts; unknown addresses are fine
	// to query too.
	if err := s.store.UpdateBalance(chainID, address, balance); err == nil {
		s.logger.WithFields(logrus.Fields{"chain": chainID, "address": address}).Debug("balance refreshed")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"chain":   chainID.String(),
		"address": address,
		"balance": balance,
	})
}

func (s *Server) identify(c echo.Context) error {
	address := c.Param("address")
	chainID, ok := s.registry.IdentifyChain(c.Request().Context(), address)

	resp := map[string]any{
		"address": address,
		"known":   ok,
	}
	if ok {
		resp["chain"] = chainID.String()
	}
	return c.JSON(http.StatusOK, resp)
}

// resolveSender fills the sender address and derivation path from the
// chain's active account when the request leaves them out.
func (s *Server) resolveSender(chainID chain.ID, from, path string) (string, string, error) {
	if from != "" && path != "" {
		return from, path, nil
	}
	account, err := s.store.ActiveAccount(chainID)
	if err != nil {
		if from != "" {
			return from, path, nil
		}
		return "", "", err
	}
	if from == "" {
		from = account.Address
	}
	if path == "" {
		path = account.DerivationPath
	}
	return from, path, nil
}

func (s *Server) fetchBalance(c echo.Context, chainID chain.ID, address string) (string, error) {
	adapter, err := s.registry.Get(chainID)
	if err != nil {
		return "", err
	}
	return adapter.Balance(c.Request().Context(), address)
}

// chainError maps the wallet error taxonomy onto HTTP statuses.
func (s *Server) chainError(err error) error {
	var authErr *wallet.AuthError
	if errors.As(err, &authErr) {
		return echo.NewHTTPError(http.StatusUnauthorized, authErr.Error())
	}
	var netErr *wallet.NetworkError
	if errors.As(err, &netErr) {
		return echo.NewHTTPError(http.StatusBadGateway, netErr.Error())
	}
	var subErr *wallet.SubmissionError
	if errors.As(err, &subErr) {
		return echo.NewHTTPError(http.StatusBadGateway, subErr.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
