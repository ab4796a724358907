package rpc

import (
	"net/http"

	"creditledger/observability"
)

type collectParams struct {
	Caller  string `json:"caller"`
	Network string `json:"network"`
	Member  string `json:"member"`
	Amount  string `json:"transactionAmount"`
}

func (s *Server) handleCollectFees(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params collectParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	network, err := parseAddress(params.Network)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	member, err := parseAddress(params.Member)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	fee, err := s.credit.CollectFees(caller, network, member, amount)
	if err != nil {
		observability.Ledger().RecordOperation("credit", "collectFees", "error")
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	observability.Ledger().RecordOperation("credit", "collectFees", "ok")
	observability.Ledger().RecordFeeCollection()
	writeResult(w, req.ID, map[string]string{"fee": fee.String()})
}

type distributeParams struct {
	Network string   `json:"network"`
	Members []string `json:"members"`
}

func (s *Server) handleDistributeFees(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params distributeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	network, err := parseAddress(params.Network)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	members := make([][20]byte, 0, len(params.Members))
	for _, raw := range params.Members {
		member, err := parseAddress(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		members = append(members, member)
	}
	if err := s.credit.DistributeFees(network, members); err != nil {
		observability.Ledger().RecordOperation("credit", "distributeFees", "error")
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	observability.Ledger().RecordOperation("credit", "distributeFees", "ok")
	observability.Ledger().RecordFeeDistribution()
	writeResult(w, req.ID, map[string]bool{"success": true})
}

type calculateParams struct {
	Network string `json:"network"`
	Amount  string `json:"transactionAmount"`
}

func (s *Server) handleCalculateFees(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params calculateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	network, err := parseAddress(params.Network)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	fee := s.credit.CalculateFees(network, amount)
	writeResult(w, req.ID, map[string]string{"fee": fee.String()})
}

func (s *Server) handleAccruedFees(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params distributeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	network, err := parseAddress(params.Network)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	members := make([][20]byte, 0, len(params.Members))
	for _, raw := range params.Members {
		member, err := parseAddress(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		members = append(members, member)
	}
	total, err := s.credit.AccruedFees(network, members)
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"accrued": total.String()})
}

type feePercentParams struct {
	Caller string `json:"caller"`
	PPM    uint32 `json:"ppm"`
}

func (s *Server) handleUpdateFeePercent(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params feePercentParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.credit.UpdateUnderwriterFeePercent(caller, params.PPM); err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"success": true})
}
