package blockchain

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// ethCallReply is how the fake node answers eth_call. A zero status means 200.
type ethCallReply struct {
	status int
	result string
	err    *rpcError
}

// newNode serves eth_chainId, eth_getCode (always empty) and eth_call with
// reply, counting eth_call requests.
func newNode(t *testing.T, reply ethCallReply, calls *atomic.Int32) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := rpcResponse{JSONRPC: "2.0", ID: req.ID}
		switch req.Method {
		case "eth_chainId":
			resp.Result = "0x1"
		case "eth_getCode":
			resp.Result = "0x"
		case "eth_call":
			calls.Add(1)
			if reply.status != 0 {
				http.Error(w, "upstream unavailable", reply.status)
				return
			}
			if reply.err != nil {
				resp.Error = reply.err
			} else {
				resp.Result = reply.result
			}
		default:
			resp.Error = &rpcError{Code: -32601, Message: "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestCallErrorClassification(t *testing.T) {
	token := common.HexToAddress("0x03ab458634910aad20ef5f1c8ee96f1d6ac54919")

	tests := []struct {
		name        string
		reply       ethCallReply
		wantCalls   int32
		wantHealthy bool
		check       func(t *testing.T, err error)
	}{
		{
			name:        "revert is final and keeps endpoints healthy",
			reply:       ethCallReply{err: &rpcError{Code: 3, Message: "execution reverted"}},
			wantCalls:   1,
			wantHealthy: true,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "execution reverted")
				assert.NotContains(t, err.Error(), "retries")
			},
		},
		{
			name:        "missing code is final",
			reply:       ethCallReply{result: "0x"},
			wantCalls:   1,
			wantHealthy: true,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, bind.ErrNoCode)
			},
		},
		{
			name:        "undecodable output is final",
			reply:       ethCallReply{result: "0x01"},
			wantCalls:   1,
			wantHealthy: true,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "unpack")
			},
		},
		{
			name:        "transport failure fails over",
			reply:       ethCallReply{status: http.StatusInternalServerError},
			wantCalls:   2,
			wantHealthy: false,
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "retries")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			urls := []string{newNode(t, tt.reply, &calls), newNode(t, tt.reply, &calls)}

			c, err := NewClient(urls, 1)
			require.NoError(t, err)
			defer c.Close()

			_, err = c.Name(context.Background(), 5, token)
			require.Error(t, err)
			tt.check(t, err)

			assert.Equal(t, tt.wantCalls, calls.Load())
			for url, healthy := range c.GetEndpointsHealth() {
				assert.Equal(t, tt.wantHealthy, healthy, url)
			}
		})
	}
}
