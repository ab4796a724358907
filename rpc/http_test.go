package rpc

import (
	"bytes"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"creditledger/core/events"
	nativecommon "creditledger/native/common"
	"creditledger/native/controller"
	"creditledger/native/credit"
	"creditledger/native/token"
	"creditledger/native/wallet"
	"creditledger/state"
	"creditledger/storage"
)

const testToken = "test-secret"

func hexAddress(fill byte) string {
	return "0x" + strings.Repeat(string([]byte{hexDigit(fill >> 4), hexDigit(fill & 0x0F)}), 20)
}

func hexIdentifier(fill byte) string {
	return "0x" + strings.Repeat(string([]byte{hexDigit(fill >> 4), hexDigit(fill & 0x0F)}), 32)
}

func hexDigit(v byte) byte {
	if v < 10 {
		return '0' + v
	}
	return 'a' + v - 10
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("CREDITLEDGER_RPC_TOKEN", testToken)

	store := state.NewStore(storage.NewMemDB())
	ledger := token.NewLedger()
	ring := events.NewRing(64)

	owner, err := parseAddress(hexAddress(0x01))
	require.NoError(t, err)
	custody, err := parseAddress(hexAddress(0xC0))
	require.NoError(t, err)
	treasury, err := parseAddress(hexAddress(0xD0))
	require.NoError(t, err)
	network, err := parseAddress(hexAddress(0xE0))
	require.NoError(t, err)

	roles := nativecommon.NewRoles(owner)
	roles.GrantNetwork(network)

	engine := controller.NewEngine(custody, treasury)
	engine.SetState(store)
	engine.SetFactory(wallet.NewDeterministicFactory(ledger, custody))
	engine.SetToken(ledger)
	engine.SetRoles(roles)
	engine.SetPauses(store)
	engine.SetEmitter(ring)
	require.NoError(t, engine.SetRedemptionFee(owner, big.NewInt(15), big.NewInt(1000)))
	require.NoError(t, engine.SetRedemptionFeeMinimum(owner, big.NewInt(1)))

	manager := credit.NewStaticManager(0)
	creditEngine := credit.NewEngine(custody, 100_000)
	require.NoError(t, creditEngine.SetState(store))
	creditEngine.SetManager(manager)
	creditEngine.SetRequest(manager)
	creditEngine.SetRoles(roles)
	creditEngine.SetToken(ledger)
	creditEngine.SetPauses(store)
	creditEngine.SetEmitter(ring)
	creditEngine.SetPoolRegistry(credit.NewPoolSet())

	return NewServer(engine, creditEngine, ring)
}

func post(t *testing.T, s *Server, method string, params interface{}, bearer string) RPCResponse {
	t.Helper()
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.handle(rec, req)
	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func resultMap(t *testing.T, resp RPCResponse) map[string]interface{} {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected RPC error: %+v", resp.Error)
	out, ok := resp.Result.(map[string]interface{})
	require.True(t, ok, "result is not an object: %T", resp.Result)
	return out
}

func TestHandleRejectsNonPost(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.handle(rec, req)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleRejectsMalformedJSON(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.handle(rec, req)
	var resp RPCResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	require.Equal(t, codeParseError, resp.Error.Code)
}

func TestHandleUnknownMethod(t *testing.T) {
	s := newTestServer(t)
	resp := post(t, s, "ledger_doesNotExist", map[string]string{}, testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}

func TestMutatingMethodRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)
	params := map[string]string{
		"caller":     hexAddress(0x01),
		"identifier": hexIdentifier(0xAA),
	}
	resp := post(t, s, "ledger_newWallet", params, "")
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	resp = post(t, s, "ledger_newWallet", params, "wrong-token")
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)
}

func TestNewWalletAndDepositFlow(t *testing.T) {
	s := newTestServer(t)
	owner := hexAddress(0x01)
	id := hexIdentifier(0xAA)

	resp := post(t, s, "ledger_newWallet", map[string]string{
		"caller":     owner,
		"identifier": id,
	}, testToken)
	created := resultMap(t, resp)
	require.Contains(t, created["wallet"], "0x")

	resp = post(t, s, "ledger_deposit", map[string]string{
		"caller":     owner,
		"identifier": id,
		"value":      "1000",
	}, testToken)
	require.Equal(t, true, resultMap(t, resp)["success"])

	resp = post(t, s, "ledger_balanceOf", map[string]string{"identifier": id}, "")
	require.Equal(t, "1000", resultMap(t, resp)["balance"])

	resp = post(t, s, "ledger_walletCount", map[string]string{}, "")
	require.Equal(t, float64(1), resultMap(t, resp)["count"])

	resp = post(t, s, "ledger_walletAt", map[string]interface{}{"index": 0}, "")
	at := resultMap(t, resp)
	require.Equal(t, id, at["identifier"])
	require.Equal(t, created["wallet"], at["wallet"])
}

func TestTransferBetweenWallets(t *testing.T) {
	s := newTestServer(t)
	owner := hexAddress(0x01)
	from := hexIdentifier(0xAA)
	to := hexIdentifier(0xBB)

	for _, id := range []string{from, to} {
		resp := post(t, s, "ledger_newWallet", map[string]string{
			"caller":     owner,
			"identifier": id,
		}, testToken)
		resultMap(t, resp)
	}
	resp := post(t, s, "ledger_deposit", map[string]string{
		"caller":     owner,
		"identifier": from,
		"value":      "500",
	}, testToken)
	resultMap(t, resp)

	resp = post(t, s, "ledger_transfer", map[string]string{
		"caller": owner,
		"fromId": from,
		"toId":   to,
		"value":  "200",
	}, testToken)
	require.Equal(t, true, resultMap(t, resp)["success"])

	resp = post(t, s, "ledger_balanceOf", map[string]string{"identifier": to}, "")
	require.Equal(t, "200", resultMap(t, resp)["balance"])

	resp = post(t, s, "ledger_events", map[string]string{}, "")
	require.Nil(t, resp.Error)
	list, ok := resp.Result.([]interface{})
	require.True(t, ok)
	require.NotEmpty(t, list)
}

func TestTransferSurfacesEngineError(t *testing.T) {
	s := newTestServer(t)
	owner := hexAddress(0x01)
	resp := post(t, s, "ledger_transfer", map[string]string{
		"caller": owner,
		"fromId": hexIdentifier(0xAA),
		"toId":   hexIdentifier(0xBB),
		"value":  "10",
	}, testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeServerError, resp.Error.Code)
}

func TestCalculateFeesReadOnly(t *testing.T) {
	s := newTestServer(t)
	resp := post(t, s, "credit_calculateFees", map[string]string{
		"network":           hexAddress(0xE0),
		"transactionAmount": "1000",
	}, "")
	require.Equal(t, "100", resultMap(t, resp)["fee"])
}

func TestUpdateFeePercentRequiresAuthAndOperator(t *testing.T) {
	s := newTestServer(t)
	resp := post(t, s, "credit_updateFeePercent", map[string]interface{}{
		"caller": hexAddress(0x01),
		"ppm":    250000,
	}, "")
	require.NotNil(t, resp.Error)
	require.Equal(t, codeUnauthorized, resp.Error.Code)

	resp = post(t, s, "credit_updateFeePercent", map[string]interface{}{
		"caller": hexAddress(0x01),
		"ppm":    250000,
	}, testToken)
	require.Equal(t, true, resultMap(t, resp)["success"])

	// Non-operator caller passes auth but fails authorization.
	resp = post(t, s, "credit_updateFeePercent", map[string]interface{}{
		"caller": hexAddress(0x99),
		"ppm":    300000,
	}, testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeServerError, resp.Error.Code)
}

func TestInvalidParamsRejected(t *testing.T) {
	s := newTestServer(t)
	resp := post(t, s, "ledger_newWallet", map[string]string{
		"caller":     "0x1234",
		"identifier": hexIdentifier(0xAA),
	}, testToken)
	require.NotNil(t, resp.Error)
	require.Equal(t, codeInvalidParams, resp.Error.Code)
}
