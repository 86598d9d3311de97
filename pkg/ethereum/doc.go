// Package ethereum implements the messaging capabilities against EVM chains through go-ethereum.
package ethereum
