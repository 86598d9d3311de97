package main

import "github.com/celestiaorg/hyperlane-chains/cmd/hypchains/cmd"

func main() {
	cmd.Execute()
}
