package neo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// RPC is the subset of the Neo N3 JSON-RPC surface the adapter needs.
// Satisfied by *Client and mocked in tests.
type RPC interface {
	GetVersion(ctx context.Context) (*VersionInfo, error)
	GetBlockCount(ctx context.Context) (uint32, error)
	InvokeScript(ctx context.Context, scriptBase64 string, signers []RPCSigner) (*InvokeResult, error)
	CalculateNetworkFee(ctx context.Context, txBase64 string) (int64, error)
	GetNEP17Balances(ctx context.Context, address string) (*NEP17Balances, error)
	SendRawTransaction(ctx context.Context, txBase64 string) (*SendResult, error)
	GetRawTransaction(ctx context.Context, txID string) (*TransactionDetails, error)
}

type VersionInfo struct {
	Protocol struct {
		Network         uint32 `json:"network"`
		MillisPerBlock  int    `json:"msperblock"`
		ValidatorsCount int    `json:"validatorscount"`
	} `json:"protocol"`
	UserAgent string `json:"useragent"`
}

type RPCSigner struct {
	Account string `json:"account"`
	Scopes  string `json:"scopes"`
}

type InvokeResult struct {
	Script      string `json:"script"`
	State       string `json:"state"`
	GasConsumed string `json:"gasconsumed"`
	Exception   string `json:"exception"`
}

type NEP17Balances struct {
	Address string `json:"address"`
	Balance []struct {
		AssetHash        string `json:"assethash"`
		Amount           string `json:"amount"`
		LastUpdatedBlock uint32 `json:"lastupdatedblock"`
	} `json:"balance"`
}

type SendResult struct {
	Hash string `json:"hash"`
}

type TransactionDetails struct {
	Hash          string `json:"hash"`
	BlockHash     string `json:"blockhash"`
	Confirmations int    `json:"confirmations"`
	BlockTime     int64  `json:"blocktime"`
}

// Client talks JSON-RPC 2.0 to a Neo N3 node.
type Client struct {
	endpoint string
	http     *http.Client
	nextID   atomic.Uint64
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 15 * time.Second},
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      uint64 `json:"id"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("neo rpc error %d: %s", e.Code, e.Message)
}

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned status %d", method, resp.StatusCode)
	}

	var parsed rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", method, err)
	}
	if parsed.Error != nil {
		return parsed.Error
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(parsed.Result, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return nil
}

func (c *Client) GetVersion(ctx context.Context) (*VersionInfo, error) {
	var out VersionInfo
	if err := c.call(ctx, "getversion", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetBlockCount(ctx context.Context) (uint32, error) {
	var out uint32
	if err := c.call(ctx, "getblockcount", nil, &out); err != nil {
		return 0, err
	}
	return out, nil
}

func (c *Client) InvokeScript(ctx context.Context, scriptBase64 string, signers []RPCSigner) (*InvokeResult, error) {
	params := []any{scriptBase64}
	if len(signers) > 0 {
		params = append(params, signers)
	}
	var out InvokeResult
	if err := c.call(ctx, "invokescript", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CalculateNetworkFee(ctx context.Context, txBase64 string) (int64, error) {
	var out struct {
		NetworkFee string `json:"networkfee"`
	}
	if err := c.call(ctx, "calculatenetworkfee", []any{txBase64}, &out); err != nil {
		return 0, err
	}
	var fee int64
	if _, err := fmt.Sscan(out.NetworkFee, &fee); err != nil {
		return 0, fmt.Errorf("unparseable network fee %q: %w", out.NetworkFee, err)
	}
	return fee, nil
}

func (c *Client) GetNEP17Balances(ctx context.Context, address string) (*NEP17Balances, error) {
	var out NEP17Balances
	if err := c.call(ctx, "getnep17balances", []any{address}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SendRawTransaction(ctx context.Context, txBase64 string) (*SendResult, error) {
	var out SendResult
	if err := c.call(ctx, "sendrawtransaction", []any{txBase64}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetRawTransaction(ctx context.Context, txID string) (*TransactionDetails, error) {
	var out TransactionDetails
	if err := c.call(ctx, "getrawtransaction", []any{txID, true}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
