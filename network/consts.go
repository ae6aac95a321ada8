package network

import "errors"

const (
	transferFunction = "transfer"
	deployFunction   = "deploy"

	defaultPollInterval = 5
)

var (
	ErrNoProvider        = errors.New("no provider set")
	ErrDeployUnsupported = errors.New("deploy is not supported by this provider")
	ErrNoContract        = errors.New("no contract address")
	ErrUnknownKey        = errors.New("no private key for address")

	errEmptyResponse   = errors.New("empty response")
	errInvalidResponse = errors.New("invalid result")
)
