package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"creditledger/core/events"
	"creditledger/native/controller"
	"creditledger/native/credit"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
)

// Server exposes the controller and credit engines over JSON-RPC 2.0.
// Mutating methods require the bearer token configured via
// CREDITLEDGER_RPC_TOKEN.
type Server struct {
	ledger    *controller.Engine
	credit    *credit.Engine
	events    *events.Ring
	authToken string
}

// NewServer wires the RPC surface to the engines and the event ring.
func NewServer(ledger *controller.Engine, creditEngine *credit.Engine, ring *events.Ring) *Server {
	token := strings.TrimSpace(os.Getenv("CREDITLEDGER_RPC_TOKEN"))
	return &Server{
		ledger:    ledger,
		credit:    creditEngine,
		events:    ring,
		authToken: token,
	}
}

// Start serves the RPC endpoint and prometheus metrics until the listener
// fails.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(addr, mux)
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return false
	}
	supplied := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required", nil)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body", nil)
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON-RPC request", nil)
		return
	}
	if req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported JSON-RPC version", nil)
		return
	}
	if mutatingMethods[req.Method] && !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "missing or invalid bearer token", nil)
		return
	}
	handler, ok := s.routes()[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, "unknown method", req.Method)
		return
	}
	handler(w, r, &req)
}

type handlerFunc func(http.ResponseWriter, *http.Request, *RPCRequest)

var mutatingMethods = map[string]bool{
	"ledger_newWallet":           true,
	"ledger_transfer":            true,
	"ledger_transferToAddress":   true,
	"ledger_deposit":             true,
	"ledger_withdraw":            true,
	"ledger_setRedemptionFee":    true,
	"ledger_setRedemptionFeeMin": true,
	"ledger_setCommunityWallet":  true,
	"ledger_pause":               true,
	"ledger_unpause":             true,
	"ledger_emergencyWithdraw":   true,
	"ledger_upgradeWallets":      true,
	"credit_collectFees":         true,
	"credit_updateFeePercent":    true,
}

func (s *Server) routes() map[string]handlerFunc {
	return map[string]handlerFunc{
		"ledger_newWallet":           s.handleNewWallet,
		"ledger_transfer":            s.handleTransfer,
		"ledger_transferToAddress":   s.handleTransferToAddress,
		"ledger_deposit":             s.handleDeposit,
		"ledger_withdraw":            s.handleWithdraw,
		"ledger_balanceOf":           s.handleBalanceOf,
		"ledger_walletAddress":       s.handleWalletAddress,
		"ledger_walletCount":         s.handleWalletCount,
		"ledger_walletAt":            s.handleWalletAt,
		"ledger_setRedemptionFee":    s.handleSetRedemptionFee,
		"ledger_setRedemptionFeeMin": s.handleSetRedemptionFeeMin,
		"ledger_setCommunityWallet":  s.handleSetCommunityWallet,
		"ledger_pause":               s.handlePause,
		"ledger_unpause":             s.handleUnpause,
		"ledger_emergencyWithdraw":   s.handleEmergencyWithdraw,
		"ledger_upgradeWallets":      s.handleUpgradeWallets,
		"ledger_events":              s.handleEvents,
		"credit_collectFees":         s.handleCollectFees,
		"credit_distributeFees":      s.handleDistributeFees,
		"credit_calculateFees":       s.handleCalculateFees,
		"credit_accruedFees":         s.handleAccruedFees,
		"credit_updateFeePercent":    s.handleUpdateFeePercent,
	}
}
