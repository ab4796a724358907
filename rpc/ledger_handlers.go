package rpc

import (
	"net/http"

	"creditledger/observability"
)

type newWalletParams struct {
	Caller     string `json:"caller"`
	Identifier string `json:"identifier"`
}

func (s *Server) handleNewWallet(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params newWalletParams
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
	addr, err := s.ledger.NewWallet(caller, id)
	if err != nil {
		observability.Ledger().RecordOperation("ledger", "newWallet", "error")
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	observability.Ledger().RecordOperation("ledger", "newWallet", "ok")
	writeResult(w, req.ID, map[string]string{"wallet": formatAddress(addr)})
}

type transferParams struct {
	Caller       string `json:"caller"`
	FromID       string `json:"fromId"`
	ToID         string `json:"toId,omitempty"`
	ToAddress    string `json:"toAddress,omitempty"`
	Value        string `json:"value"`
	RoundUpValue string `json:"roundUpValue,omitempty"`
	Memo         string `json:"memo,omitempty"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params transferParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	fromID, err := parseIdentifier(params.FromID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	toID, err := parseIdentifier(params.ToID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	roundUp, err := parseAmount(params.RoundUpValue)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	success, err := s.ledger.Transfer(caller, fromID, toID, value, roundUp, params.Memo)
	if err != nil {
		observability.Ledger().RecordOperation("ledger", "transfer", "error")
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	observability.Ledger().RecordOperation("ledger", "transfer", "ok")
	observability.Ledger().RecordValueMove("transfer")
	writeResult(w, req.ID, map[string]bool{"success": success})
}

func (s *Server) handleTransferToAddress(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params transferParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	fromID, err := parseIdentifier(params.FromID)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	to, err := parseAddress(params.ToAddress)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	roundUp, err := parseAmount(params.RoundUpValue)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	success, err := s.ledger.TransferToAddress(caller, fromID, to, value, roundUp, params.Memo)
	if err != nil {
		observability.Ledger().RecordOperation("ledger", "transferToAddress", "error")
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	observability.Ledger().RecordOperation("ledger", "transferToAddress", "ok")
	observability.Ledger().RecordValueMove("transfer")
	writeResult(w, req.ID, map[string]bool{"success": success})
}

type amountParams struct {
	Caller     string `json:"caller"`
	Identifier string `json:"identifier"`
	Value      string `json:"value"`
}

func (s *Server) handleDeposit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params amountParams
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
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.Deposit(caller, id, value); err != nil {
		observability.Ledger().RecordOperation("ledger", "deposit", "error")
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	observability.Ledger().RecordOperation("ledger", "deposit", "ok")
	observability.Ledger().RecordValueMove("deposit")
	writeResult(w, req.ID, map[string]bool{"success": true})
}

func (s *Server) handleWithdraw(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params amountParams
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
	value, err := parseAmount(params.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	if err := s.ledger.Withdraw(caller, id, value); err != nil {
		observability.Ledger().RecordOperation("ledger", "withdraw", "error")
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	observability.Ledger().RecordOperation("ledger", "withdraw", "ok")
	observability.Ledger().RecordValueMove("withdraw")
	writeResult(w, req.ID, map[string]bool{"success": true})
}

type balanceParams struct {
	Identifier string `json:"identifier,omitempty"`
	Address    string `json:"address,omitempty"`
}

func (s *Server) handleBalanceOf(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params balanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	if params.Identifier != "" {
		id, err := parseIdentifier(params.Identifier)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
			return
		}
		balance, err := s.ledger.BalanceOf(id)
		if err != nil {
			writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
			return
		}
		writeResult(w, req.ID, map[string]string{"balance": balance.String()})
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	balance, err := s.ledger.BalanceOfAddress(addr)
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}

func (s *Server) handleWalletAddress(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params balanceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	id, err := parseIdentifier(params.Identifier)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error(), nil)
		return
	}
	addr, err := s.ledger.WalletAddress(id)
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]string{"wallet": formatAddress(addr)})
}

func (s *Server) handleWalletCount(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	count, err := s.ledger.WalletCount()
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]uint64{"count": count})
}

type walletAtParams struct {
	Index uint64 `json:"index"`
}

func (s *Server) handleWalletAt(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params walletAtParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid params", err.Error())
		return
	}
	id, addr, err := s.ledger.WalletAt(params.Index)
	if err != nil {
		writeError(w, http.StatusOK, req.ID, codeServerError, err.Error(), nil)
		return
	}
	writeResult(w, req.ID, map[string]string{
		"identifier": formatIdentifier(id),
		"wallet":     formatAddress(addr),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	recent := s.events.Recent()
	out := make([]map[string]interface{}, 0, len(recent))
	for _, evt := range recent {
		out = append(out, map[string]interface{}{
			"type":       evt.Type,
			"attributes": evt.Attributes,
		})
	}
	writeResult(w, req.ID, out)
}
