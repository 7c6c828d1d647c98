package evm

// PoolABI covers the read surface of a weighted pool contract:
// per-token reserves, share supply, and the swap fee.
const PoolABI = `[
	{
		"constant": true,
		"inputs": [{"name": "token", "type": "address"}],
		"name": "getBalance",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "totalSupply",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "getSwapFee",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`

// ExchangeABI covers the read surface of a fixed-rate exchange
// contract, keyed by exchange id.
const ExchangeABI = `[
	{
		"constant": true,
		"inputs": [{"name": "exchangeId", "type": "bytes32"}],
		"name": "getRate",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [{"name": "exchangeId", "type": "bytes32"}],
		"name": "getSupply",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	}
]`
