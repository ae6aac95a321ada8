package contract

import "encoding/json"

// Method describes one endpoint of a contract
type Method struct {
	Name     string   `json:"name"`
	Payable  bool     `json:"payable"`
	ReadOnly bool     `json:"readonly"`
	Gas      uint64   `json:"-"`
	Inputs   []string `json:"inputs"`
	Outputs  []string `json:"outputs"`
}

// ABI is the interface description of a contract
type ABI []Method

// Method - looks up an endpoint by name
func (abi ABI) Method(name string) (Method, bool) {
	for _, m := range abi {
		if m.Name == name {
			return m, true
		}
	}

	return Method{}, false
}

// JSON - renders the interface description
func (abi ABI) JSON() (string, error) {
	bytes, err := json.Marshal(abi)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

// Artifact is what a compilation step would hand over: the interface
// description and the deployable code
type Artifact struct {
	Name        string
	Bytecode    string
	ABI         ABI
	Constructor Method
	New         Constructor
}
