package rpc

import (
	"math/big"
	"net/http"
)

type redemptionFeeParams struct {
	Caller      string `json:"caller"`
	Numerator   int64  `json:"numerator"`
	Denominator int64  `json:"denominator"`
}

func (s *Server) handleSetRedemptionFee(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params redemptionFeeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.SetRedemptionFee(caller, big.NewInt(params.Numerator), big.NewInt(params.Denominator)); err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"success": true})
}

type redemptionMinParams struct {
	Caller  string `json:"caller"`
	Minimum string `json:"minimum"`
}

func (s *Server) handleSetRedemptionFeeMin(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params redemptionMinParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	minimum, err := parseAmount(params.Minimum)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.SetRedemptionFeeMinimum(caller, minimum); err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"success": true})
}

type communityParams struct {
	Caller     string `json:"caller"`
	Identifier string `json:"identifier"`
}

func (s *Server) handleSetCommunityWallet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params communityParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	id, err := parseIdentifier(params.Identifier)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.SetCommunityWallet(caller, id); err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"success": true})
}

type callerParams struct {
	Caller string `json:"caller"`
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.handlePauseState(w, req, true)
}

func (s *Server) handleUnpause(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	s.handlePauseState(w, req, false)
}

func (s *Server) handlePauseState(w http.ResponseWriter, req *RPCRequest, paused bool) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if paused {
		err = s.ledger.Pause(caller)
	} else {
		err = s.ledger.Unpause(caller)
	}
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"paused": paused})
}

func (s *Server) handleEmergencyWithdraw(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params callerParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.EmergencyWithdraw(caller); err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"success": true})
}

type upgradeParams struct {
	Caller         string `json:"caller"`
	Implementation string `json:"implementation"`
}

func (s *Server) handleUpgradeWallets(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params upgradeParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	impl, err := parseAddress(params.Implementation)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.UpgradeWalletImplementations(caller, impl); err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]bool{"success": true})
}
