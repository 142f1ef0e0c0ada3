package config

// Network describes an EVM network the agent knows defaults for.
type Network struct {
	Name        string
	ChainID     int64
	RPCURL      string
	ExplorerURL string
	Testnet     bool
}

const (
	ChainIDFlowEVMMainnet int64 = 747
	ChainIDFlowEVMTestnet int64 = 545
	ChainIDSimulated      int64 = 1337
)

var knownNetworks = map[int64]Network{
	ChainIDFlowEVMMainnet: {
		Name:        "flow-evm-mainnet",
		ChainID:     ChainIDFlowEVMMainnet,
		RPCURL:      "https://mainnet.evm.nodes.onflow.org",
		ExplorerURL: "https://evm.flowscan.io",
	},
	ChainIDFlowEVMTestnet: {
		Name:        "flow-evm-testnet",
		ChainID:     ChainIDFlowEVMTestnet,
		RPCURL:      "https://testnet.evm.nodes.onflow.org",
		ExplorerURL: "https://evm-testnet.flowscan.io",
		Testnet:     true,
	},
	ChainIDSimulated: {
		Name:    "simulated",
		ChainID: ChainIDSimulated,
		RPCURL:  "http://127.0.0.1:8545",
		Testnet: true,
	},
}

// LookupNetwork returns the known defaults for chainID.
func LookupNetwork(chainID int64) (Network, bool) {
	n, ok := knownNetworks[chainID]
	return n, ok
}
