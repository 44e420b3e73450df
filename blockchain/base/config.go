package base

import (
	"time"

	clientconfig "github.com/todoledger/sdk-go/client/config"
)

// Config captures shared EVM JSON-RPC settings for call + tx workflows.
type Config struct {
	ChainID     uint64 // expected chain id; 0 trusts the node
	RPCEndpoint string
	WSEndpoint  string
	Timeout     time.Duration // per-RPC budget
	GasLimit    uint64        // 0 => estimate
	WaitTx      clientconfig.WaitTxConfig
}
