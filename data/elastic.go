package data

// ElasticResult is a search response of the Elastic indexer
type ElasticResult struct {
	Hits struct {
		Hits []*ElasticEntry `json:"hits"`
	} `json:"hits"`
}

// ElasticEntry is one indexed transaction or smart contract result
type ElasticEntry struct {
	ID     string `json:"_id"`
	Source struct {
		Nonce         uint64 `json:"nonce"`
		Sender        string `json:"sender"`
		Receiver      string `json:"receiver"`
		Value         string `json:"value"`
		Data          []byte `json:"data"`
		Status        string `json:"status"`
		GasLimit      uint64 `json:"gasLimit"`
		GasUsed       uint64 `json:"gasUsed"`
		GasPrice      uint64 `json:"gasPrice"`
		Fee           string `json:"fee"`
		MiniBlockHash string `json:"miniBlockHash"`
		ReturnMessage string `json:"returnMessage"`
	} `json:"_source"`
}
