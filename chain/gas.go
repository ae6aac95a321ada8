package chain

const (
	MinGasLimit    = 50000
	GasPerDataByte = 1500
	MaxGasLimit    = 600000000
)

func intrinsicGas(dataLen int) uint64 {
	return MinGasLimit + uint64(dataLen)*GasPerDataByte
}
