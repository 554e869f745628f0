// Package ledger reads account data from a JSON-RPC ledger node.
package ledger

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/infra"
)

// AccountInfo is the decoded value of getAccountInfo.
type AccountInfo struct {
	Data       []byte
	Owner      domain.Address
	Lamports   uint64
	Executable bool
	Slot       uint64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type accountInfoResponse struct {
	Result *struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value *struct {
			Data       []string `json:"data"`
			Owner      string   `json:"owner"`
			Lamports   uint64   `json:"lamports"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	} `json:"result"`
	Error *rpcError `json:"error"`
}

// RPCClient issues single getAccountInfo reads. It never retries: a
// failed read is returned to the caller, and after repeated failures the
// breaker rejects reads until its cooldown passes.
type RPCClient struct {
	url        string
	commitment string
	httpClient *http.Client
	breaker    *infra.CircuitBreaker
	limiter    *infra.RateLimiter
	nextID     atomic.Uint64
}

// NewRPCClient builds a client from the rpc section of cfg.
func NewRPCClient(cfg *infra.Config) *RPCClient {
	bc := infra.DefaultCircuitBreakerConfig("ledger-rpc")
	if n := cfg.RPC.Breaker.FailureThreshold; n > 0 {
		bc.FailureThreshold = n
	}
	if n := cfg.RPC.Breaker.SuccessThreshold; n > 0 {
		bc.SuccessThreshold = n
	}
	if n := cfg.RPC.Breaker.CooldownSec; n > 0 {
		bc.Cooldown = time.Duration(n) * time.Second
	}
	// A missing account is an answer, not a node failure.
	bc.IsFailure = func(err error) bool { return err != nil && !errors.Is(err, domain.ErrNotFound) }
	return &RPCClient{
		url:        cfg.RPC.URL,
		commitment: cfg.RPC.Commitment,
		httpClient: &http.Client{Timeout: time.Duration(cfg.RPC.TimeoutSec) * time.Second},
		breaker:    infra.NewCircuitBreaker(bc),
		limiter:    infra.NewRateLimiter(cfg.RPC.RateLimit.Burst, cfg.RPC.RateLimit.PerSecond),
	}
}

// FetchAccount returns the raw account data.
func (c *RPCClient) FetchAccount(ctx context.Context, addr domain.Address) ([]byte, error) {
	info, err := c.GetAccountInfo(ctx, addr)
	if err != nil {
		return nil, err
	}
	return info.Data, nil
}

// GetAccountInfo reads one account. A null value maps to ErrNotFound;
// every transport, status or protocol failure maps to ErrNetwork.
func (c *RPCClient) GetAccountInfo(ctx context.Context, addr domain.Address) (*AccountInfo, error) {
	const op = "get account info"

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, domain.Wrap(domain.ErrNetwork, op, err)
	}

	var info *AccountInfo
	err := c.breaker.Execute(func() error {
		var err error
		info, err = c.getAccountInfo(ctx, addr)
		return err
	})
	if errors.Is(err, infra.ErrCircuitOpen) {
		return nil, domain.Wrap(domain.ErrNetwork, op, err)
	}
	if err != nil {
		slog.Debug("Ledger read failed", slog.String("account", addr.String()), slog.Any("error", err))
		return nil, err
	}
	return info, nil
}

func (c *RPCClient) getAccountInfo(ctx context.Context, addr domain.Address) (*AccountInfo, error) {
	const op = "get account info"

	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  "getAccountInfo",
		Params: []any{
			addr.String(),
			map[string]string{"encoding": "base64", "commitment": c.commitment},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, domain.Wrap(domain.ErrNetwork, op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.Wrap(domain.ErrNetwork, op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.Errorf(domain.ErrNetwork, op, "unexpected status code: %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.Wrap(domain.ErrNetwork, op, err)
	}

	var out accountInfoResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, domain.Wrap(domain.ErrNetwork, op, fmt.Errorf("malformed response: %w", err))
	}
	if out.Error != nil {
		return nil, domain.Errorf(domain.ErrNetwork, op, "rpc error %d: %s", out.Error.Code, out.Error.Message)
	}
	if out.Result == nil {
		return nil, domain.Errorf(domain.ErrNetwork, op, "response has neither result nor error")
	}
	if out.Result.Value == nil {
		return nil, domain.Errorf(domain.ErrNotFound, op, "account %s", addr)
	}

	v := out.Result.Value
	if len(v.Data) != 2 || v.Data[1] != "base64" {
		return nil, domain.Errorf(domain.ErrNetwork, op, "unexpected data encoding %v", v.Data)
	}
	data, err := base64.StdEncoding.DecodeString(v.Data[0])
	if err != nil {
		return nil, domain.Wrap(domain.ErrNetwork, op, fmt.Errorf("bad account data: %w", err))
	}
	owner, err := domain.ParseAddress(v.Owner)
	if err != nil {
		return nil, domain.Wrap(domain.ErrNetwork, op, err)
	}

	return &AccountInfo{
		Data:       data,
		Owner:      owner,
		Lamports:   v.Lamports,
		Executable: v.Executable,
		Slot:       out.Result.Context.Slot,
	}, nil
}

// BreakerState exposes the breaker state for health output.
func (c *RPCClient) BreakerState() infra.State {
	return c.breaker.GetState()
}
