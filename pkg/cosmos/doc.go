// Package cosmos implements the messaging capabilities against CosmWasm contracts on Cosmos
// SDK chains. Reads go through the wasm gRPC query service, event indexing through CometBFT
// transaction search, and writes through a caller-supplied Submitter.
package cosmos
