package tron

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// API defines the TronGrid/TRON full-node operations the adapter needs.
type API interface {
	GetAccount(ctx context.Context, address string) (*AccountInfo, error)
	CreateTransaction(ctx context.Context, req *TransferRequest) (*Transaction, error)
	BroadcastTransaction(ctx context.Context, tx *SignedTransaction) (*BroadcastResult, error)
	GetTransactionInfo(ctx context.Context, txID string) (*TransactionInfo, error)
}

// AccountInfo represents TRON account information. An account unknown to the
// network comes back with an empty Address.
type AccountInfo struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

// TransferRequest represents a TRX transfer to be built by the node.
type TransferRequest struct {
	OwnerAddress string `json:"owner_address"`
	ToAddress    string `json:"to_address"`
	Amount       int64  `json:"amount"`
	Visible      bool   `json:"visible"`
}

// Transaction is an unsigned transaction as returned by createtransaction.
type Transaction struct {
	TxID       string `json:"txID"`
	RawDataHex string `json:"raw_data_hex"`
	Visible    bool   `json:"visible,omitempty"`
}

// SignedTransaction is the broadcast payload: the unsigned transaction plus
// hex-encoded signatures.
type SignedTransaction struct {
	TxID       string   `json:"txID"`
	RawDataHex string   `json:"raw_data_hex"`
	Signature  []string `json:"signature"`
	Visible    bool     `json:"visible,omitempty"`
}

// BroadcastResult reports broadcast acceptance. On rejection Code/Message
// carry the node's reason.
type BroadcastResult struct {
	Result  bool   `json:"result"`
	TxID    string `json:"txid"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TransactionInfo is the on-chain execution record of a transaction.
type TransactionInfo struct {
	ID          string  `json:"id"`
	BlockNumber int64   `json:"blockNumber"`
	Fee         int64   `json:"fee"`
	Receipt     Receipt `json:"receipt"`
}

// Receipt carries resource usage and the VM result for contract calls.
type Receipt struct {
	Result      string `json:"result"`
	NetFee      int64  `json:"net_fee"`
	NetUsage    int64  `json:"net_usage"`
	EnergyFee   int64  `json:"energy_fee"`
	EnergyUsage int64  `json:"energy_usage_total"`
}

// Client implements API against a TronGrid-compatible HTTP endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type accountRequest struct {
	Address string `json:"address"`
	Visible bool   `json:"visible"`
}

type txInfoRequest struct {
	Value string `json:"value"`
}

func (c *Client) GetAccount(ctx context.Context, address string) (*AccountInfo, error) {
	var account AccountInfo
	err := c.post(ctx, "/wallet/getaccount", accountRequest{Address: address, Visible: true}, &account)
	if err != nil {
		return nil, fmt.Errorf("tron: failed to get account: %w", err)
	}
	return &account, nil
}

func (c *Client) CreateTransaction(ctx context.Context, req *TransferRequest) (*Transaction, error) {
	var tx Transaction
	if err := c.post(ctx, "/wallet/createtransaction", req, &tx); err != nil {
		return nil, fmt.Errorf("tron: failed to create transaction: %w", err)
	}
	return &tx, nil
}

func (c *Client) BroadcastTransaction(ctx context.Context, tx *SignedTransaction) (*BroadcastResult, error) {
	var result BroadcastResult
	if err := c.post(ctx, "/wallet/broadcasttransaction", tx, &result); err != nil {
		return nil, fmt.Errorf("tron: failed to broadcast transaction: %w", err)
	}
	return &result, nil
}

func (c *Client) GetTransactionInfo(ctx context.Context, txID string) (*TransactionInfo, error) {
	var info TransactionInfo
	if err := c.post(ctx, "/wallet/gettransactioninfobyid", txInfoRequest{Value: txID}, &info); err != nil {
		return nil, fmt.Errorf("tron: failed to get transaction info: %w", err)
	}
	return &info, nil
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, raw)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
