package asset

import "github.com/ethereum/go-ethereum/common"

// Chain IDs
const (
	ChainIDEthereum = 1
	ChainIDGoerli   = 5
	ChainIDSepolia  = 11155111
	ChainIDPolygon  = 137
	ChainIDBSC      = 56
)

// Well-known token addresses on Ethereum Mainnet
var (
	// Stablecoins
	AddrUSDCEthereum = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	AddrUSDTEthereum = common.HexToAddress("0xdAC17F958D2ee523a2206206994597C13D831ec7")
	AddrDAIEthereum  = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	// Wrapped
	AddrWETHEthereum = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")

	// OCEAN, the default staking token of datatoken pools
	AddrOCEANEthereum = common.HexToAddress("0x967da4048cD07aB37855c090aAF366e4ce1b9F48")
)

// Well-known AssetIDs
var (
	IDEthereumETH   = NewNativeAssetID(ChainIDEthereum)
	IDEthereumUSDC  = NewTokenAssetID(ChainIDEthereum, AddrUSDCEthereum)
	IDEthereumUSDT  = NewTokenAssetID(ChainIDEthereum, AddrUSDTEthereum)
	IDEthereumDAI   = NewTokenAssetID(ChainIDEthereum, AddrDAIEthereum)
	IDEthereumWETH  = NewTokenAssetID(ChainIDEthereum, AddrWETHEthereum)
	IDEthereumOCEAN = NewTokenAssetID(ChainIDEthereum, AddrOCEANEthereum)
)

// Well-known Assets (pre-created instances)
var (
	ETH   = NewAssetWithName(IDEthereumETH, "ETH", "Ethereum", 18)
	USDC  = NewAssetWithName(IDEthereumUSDC, "USDC", "USD Coin", 6)
	USDT  = NewAssetWithName(IDEthereumUSDT, "USDT", "Tether USD", 6)
	DAI   = NewAssetWithName(IDEthereumDAI, "DAI", "Dai Stablecoin", 18)
	WETH  = NewAssetWithName(IDEthereumWETH, "WETH", "Wrapped Ether", 18)
	OCEAN = NewAssetWithName(IDEthereumOCEAN, "OCEAN", "Ocean Token", 18)
)

// DefaultRegistry returns a registry pre-populated with well-known assets.
func DefaultRegistry() *Registry {
	r := NewRegistry()

	r.Register(ETH)
	r.Register(USDC)
	r.Register(USDT)
	r.Register(DAI)
	r.Register(WETH)
	r.Register(OCEAN)

	return r
}

// MustNewToken creates a new ERC20 token asset with the given parameters.
// This is a convenience function for registering custom tokens.
func MustNewToken(chainID uint64, address common.Address, symbol, name string, decimals uint8) *Asset {
	id := NewTokenAssetID(chainID, address)
	return NewAssetWithName(id, symbol, name, decimals)
}

// MustNewNative creates a new native coin asset.
func MustNewNative(chainID uint64, symbol, name string, decimals uint8) *Asset {
	id := NewNativeAssetID(chainID)
	return NewAssetWithName(id, symbol, name, decimals)
}

// NewDatatoken creates an asset for a datatoken contract.
// Datatokens always use 18 decimals.
func NewDatatoken(chainID uint64, address common.Address, symbol string) *Asset {
	id := NewTokenAssetID(chainID, address)
	return NewAssetWithName(id, symbol, symbol+" Datatoken", 18)
}
