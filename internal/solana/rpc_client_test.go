package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func rpcServer(t *testing.T, wantMethod string, result any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Method != wantMethod {
			t.Errorf("expected method %s, got %s", wantMethod, req.Method)
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	server := rpcServer(t, "getAccountInfo", map[string]any{
		"value": map[string]any{
			"lamports":   uint64(2039280),
			"owner":      TokenProgramID,
			"data":       []string{data, "base64"},
			"executable": false,
		},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)

	info, err := client.GetAccountInfo(context.Background(), "someaccount")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info == nil {
		t.Fatal("expected account, got nil")
	}
	if info.Lamports != 2039280 {
		t.Errorf("expected 2039280 lamports, got %d", info.Lamports)
	}
	if info.Owner != TokenProgramID {
		t.Errorf("expected token program owner, got %s", info.Owner)
	}
	if len(info.Data) != 4 || info.Data[0] != 1 {
		t.Errorf("unexpected data: %v", info.Data)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := rpcServer(t, "getAccountInfo", map[string]any{"value": nil})
	defer server.Close()

	client := NewHTTPClient(server.URL)

	info, err := client.GetAccountInfo(context.Background(), "missing")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil for missing account, got %+v", info)
	}
}

func TestHTTPClient_GetMultipleAccounts_NilEntries(t *testing.T) {
	data := base64.StdEncoding.EncodeToString([]byte{7})
	server := rpcServer(t, "getMultipleAccounts", map[string]any{
		"value": []any{
			map[string]any{"lamports": uint64(1), "owner": "o", "data": []string{data, "base64"}},
			nil,
		},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)

	infos, err := client.GetMultipleAccounts(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("GetMultipleAccounts: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(infos))
	}
	if infos[0] == nil {
		t.Error("expected first entry present")
	}
	if infos[1] != nil {
		t.Error("expected nil for absent account")
	}
}

func TestHTTPClient_GetLatestBlockhash(t *testing.T) {
	server := rpcServer(t, "getLatestBlockhash", map[string]any{
		"value": map[string]any{
			"blockhash":            "9sHcv6xwn9YkB8nxTUGKDwPwNnmqVp5oLubtWawNsTaW",
			"lastValidBlockHeight": uint64(280000123),
		},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)

	bh, err := client.GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if bh.Blockhash != "9sHcv6xwn9YkB8nxTUGKDwPwNnmqVp5oLubtWawNsTaW" {
		t.Errorf("unexpected blockhash %s", bh.Blockhash)
	}
	if bh.LastValidBlockHeight != 280000123 {
		t.Errorf("unexpected last valid height %d", bh.LastValidBlockHeight)
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	server := rpcServer(t, "sendTransaction", "5fDsig")
	defer server.Close()

	client := NewHTTPClient(server.URL)

	sig, err := client.SendTransaction(context.Background(), "dHg=")
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != "5fDsig" {
		t.Errorf("expected signature 5fDsig, got %s", sig)
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := rpcServer(t, "getSignatureStatuses", map[string]any{
		"value": []any{
			map[string]any{"slot": uint64(100), "confirmationStatus": "confirmed", "err": nil},
			nil,
		},
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)

	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"sig1", "sig2"})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if !statuses[0].Confirmed("confirmed") {
		t.Error("expected first status confirmed")
	}
	if statuses[1] != nil {
		t.Error("expected nil for unknown signature")
	}
}

func TestHTTPClient_RetriesOn429(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": uint64(42)}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(2))
	client.retryDelay = 10 * time.Millisecond

	height, err := client.GetBlockHeight(context.Background())
	if err != nil {
		t.Fatalf("GetBlockHeight: %v", err)
	}
	if height != 42 {
		t.Errorf("expected height 42, got %d", height)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 calls, got %d", calls.Load())
	}
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		calls.Add(1)

		resp := map[string]any{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]any{"code": -32602, "message": "Invalid params"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3))

	_, err := client.GetBlockHeight(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestSignatureStatus_Confirmed(t *testing.T) {
	finalized := &SignatureStatus{ConfirmationStatus: "finalized"}
	if !finalized.Confirmed("finalized") {
		t.Error("finalized status should satisfy finalized commitment")
	}

	confirmed := &SignatureStatus{ConfirmationStatus: "confirmed"}
	if confirmed.Confirmed("finalized") {
		t.Error("confirmed status should not satisfy finalized commitment")
	}
	if !confirmed.Confirmed("confirmed") {
		t.Error("confirmed status should satisfy confirmed commitment")
	}

	failed := &SignatureStatus{ConfirmationStatus: "confirmed", Err: map[string]any{"InstructionError": []any{}}}
	if failed.Confirmed("confirmed") {
		t.Error("status with on-chain error should never be confirmed")
	}

	var nilStatus *SignatureStatus
	if nilStatus.Confirmed("confirmed") {
		t.Error("nil status should not be confirmed")
	}
}
