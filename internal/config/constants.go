package config

import "time"

// Gas limits used as EstimateGas fallbacks when the node cannot simulate the tx.
const (
	GasLimitContractCall = uint64(200_000)   // generic contract state-change call
	GasLimitPoolCreate   = uint64(5_000_000) // createPool deploys a pool contract
)

// Timeout constants used across cmd and the library packages.
const (
	RPCSelectTimeout    = 10 * time.Second // endpoint probing and selection
	TxConfirmTimeout    = 3 * time.Minute  // standard transaction confirmation wait
	ReceiptPollInterval = 2 * time.Second  // eth_getTransactionReceipt cadence
	ApprovalTimeout     = 2 * time.Minute  // time allowed to answer a local wallet prompt
)

// Rate limits for calls the local host wallet forwards to public RPCs.
const (
	RPCRequestsPerSecond = 10
	RPCBurst             = 20
)
