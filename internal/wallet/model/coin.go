package model

type Coin string
type Network string

var (
	LNR Coin = "LNR"
	BTC Coin = "BTC"
)

var (
	Testnet Network = "testnet"
	Mainnet Network = "mainnet"
	Regtest Network = "regtest"
)
