package data

// AppConfig holds the application configuration read from config.json
type AppConfig struct {
	Bot struct {
		Token   string `json:"token"`
		Owner   int64  `json:"owner"`
		Group   string `json:"group"`
		GroupID int64  `json:"groupID"`
	} `json:"bot"`
	Seedphrase      string `json:"seed"`
	ContractAddress string `json:"contractAddress"`
	Provider        string `json:"provider"`
	Lottery         struct {
		MinimumEntry string `json:"minimumEntry"`
		GasLimit     uint64 `json:"gasLimit"`
	} `json:"lottery"`
	Simulator struct {
		Accounts      int    `json:"accounts"`
		Balance       string `json:"balance"`
		ImportBalance string `json:"importBalance"`
		GasPrice      uint64 `json:"gasPrice"`
	} `json:"simulator"`
	Network struct {
		Proxy               string `json:"proxy"`
		Indexer             string `json:"indexer"`
		ExplorerTransaction string `json:"explorerTransaction"`
		ExplorerAccount     string `json:"explorerAccount"`
		PollInterval        int64  `json:"pollInterval"`
	} `json:"network"`
	Metrics struct {
		Listen string `json:"listen"`
	} `json:"metrics"`
}
