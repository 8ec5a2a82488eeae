// This program manages keys and signs pending transaction records so they
// can be picked up by the miner.
package main

import "github.com/ardanlabs/blockminer/app/tooling/wallet/cmd"

func main() {
	cmd.Execute()
}
