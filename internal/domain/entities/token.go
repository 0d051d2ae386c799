package entities

import "github.com/ethereum/go-ethereum/common"

type Token struct {
	Address  common.Address `json:"address"`
	Symbol   string         `json:"symbol"`
	Name     string         `json:"name"`
	Decimals uint8          `json:"decimals"`
}

// WETH is the canonical Wrapped Ether token on Ethereum mainnet, used as the
// default wrapped form of the native asset when none is configured.
var WETH = Token{
	Address:  common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	Symbol:   "WETH",
	Name:     "Wrapped Ether",
	Decimals: 18,
}
