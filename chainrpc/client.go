// Package chainrpc is the only package that talks to go-ethereum directly:
// it adapts a JSON-RPC endpoint's eth_* and debug_* methods into the plain
// data shapes the rest of the profiler consumes. Every other package works
// with chainrpc's own StructLog/Transaction/Receipt types, never with
// go-ethereum's.
package chainrpc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// StructLog is one step of a debug_traceTransaction structLogger trace.
// GasCost is signed: some trace providers report a negative cost on the
// trace's final RETURN/REVERT/STOP step, a quirk the attribution engine
// compensates for explicitly rather than this type hiding it.
type StructLog struct {
	Pc      uint64   `json:"pc"`
	Op      string   `json:"op"`
	Gas     uint64   `json:"gas"`
	GasCost int64    `json:"gasCost"`
	Depth   int      `json:"depth"`
	Stack   []string `json:"stack"`
	Error   string   `json:"error"`
}

// TraceResult is the decoded response of debug_traceTransaction with the
// default structLogger tracer.
type TraceResult struct {
	Gas         uint64      `json:"gas"`
	Failed      bool        `json:"failed"`
	ReturnValue string      `json:"returnValue"`
	StructLogs  []StructLog `json:"structLogs"`
}

// Transaction is the subset of eth_getTransactionByHash this profiler needs.
type Transaction struct {
	Hash     string
	To       string // empty for a contract-creation transaction
	Input    string
	GasPrice *big.Int
}

// Receipt is the subset of eth_getTransactionReceipt this profiler needs.
type Receipt struct {
	TxHash          string
	ContractAddress string // set only for a contract-creation transaction
	Status          uint64
	GasUsed         uint64
}

// Client is the chain-RPC collaborator the attribution engine depends on.
// It is an interface so the engine can be tested against a fake without a
// live node.
type Client interface {
	GetTransaction(ctx context.Context, txHash string) (*Transaction, error)
	GetTransactionReceipt(ctx context.Context, txHash string) (*Receipt, error)
	GetCode(ctx context.Context, address string) (string, error)
	TraceTransaction(ctx context.Context, txHash string) (*TraceResult, error)
}

// RPCClient is the live Client implementation, backed by a go-ethereum
// ethclient.Client for the standard eth_* calls and the underlying
// rpc.Client for the debug_* call ethclient does not expose.
type RPCClient struct {
	eth *ethclient.Client
	rpc *rpc.Client
}

// Dial connects to a JSON-RPC endpoint (http://, ws://, or an IPC path).
func Dial(ctx context.Context, endpoint string) (*RPCClient, error) {
	rc, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("chainrpc: dial %s: %w", endpoint, err)
	}
	return &RPCClient{eth: ethclient.NewClient(rc), rpc: rc}, nil
}

// Close releases the underlying connection.
func (c *RPCClient) Close() {
	c.rpc.Close()
}

func (c *RPCClient) GetTransaction(ctx context.Context, txHash string) (*Transaction, error) {
	tx, _, err := c.eth.TransactionByHash(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, fmt.Errorf("chainrpc: get transaction %s: %w", txHash, err)
	}
	to := ""
	if tx.To() != nil {
		to = tx.To().Hex()
	}
	return &Transaction{
		Hash:     tx.Hash().Hex(),
		To:       to,
		Input:    common.Bytes2Hex(tx.Data()),
		GasPrice: tx.GasPrice(),
	}, nil
}

func (c *RPCClient) GetTransactionReceipt(ctx context.Context, txHash string) (*Receipt, error) {
	r, err := c.eth.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		return nil, fmt.Errorf("chainrpc: get receipt %s: %w", txHash, err)
	}
	contractAddr := ""
	if r.ContractAddress != (common.Address{}) {
		contractAddr = r.ContractAddress.Hex()
	}
	return &Receipt{
		TxHash:          r.TxHash.Hex(),
		ContractAddress: contractAddr,
		Status:          r.Status,
		GasUsed:         r.GasUsed,
	}, nil
}

func (c *RPCClient) GetCode(ctx context.Context, address string) (string, error) {
	code, err := c.eth.CodeAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return "", fmt.Errorf("chainrpc: get code at %s: %w", address, err)
	}
	return common.Bytes2Hex(code), nil
}

// TraceTransaction requests the default structLogger tracer with full stack
// capture; memory and storage capture stay off since the attribution engine
// never reads them.
func (c *RPCClient) TraceTransaction(ctx context.Context, txHash string) (*TraceResult, error) {
	var result TraceResult
	cfg := map[string]any{
		"disableStack":   false,
		"disableMemory":  true,
		"disableStorage": true,
	}
	if err := c.rpc.CallContext(ctx, &result, "debug_traceTransaction", txHash, cfg); err != nil {
		return nil, fmt.Errorf("chainrpc: trace transaction %s: %w", txHash, err)
	}
	return &result, nil
}
