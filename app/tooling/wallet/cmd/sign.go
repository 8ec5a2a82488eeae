package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"os"

	"github.com/ardanlabs/blockminer/foundation/blockchain/database"
	"github.com/ardanlabs/blockminer/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var signCmd = &cobra.Command{
	Use:   "sign <record.json>...",
	Short: "Sign every input of mempool transaction records in place",
	Args:  cobra.MinimumNArgs(1),
	RunE:  signRun,
}

func init() {
	rootCmd.AddCommand(signCmd)
}

func signRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	for _, path := range args {
		if err := signFile(path, privateKey); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed", path)
	}

	return nil
}

// signFile replaces the witness of every input in the record with a
// signature from the private key.
func signFile(path string, privateKey *ecdsa.PrivateKey) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var tx database.Tx
	if err := jsoniter.Unmarshal(content, &tx); err != nil {
		return err
	}

	if err := tx.Validate(); err != nil {
		return err
	}

	signed, err := SignTx(tx, privateKey)
	if err != nil {
		return err
	}

	data, err := jsoniter.MarshalIndent(signed, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// SignTx returns a copy of the transaction with every input witness set to
// [signature, public key] for the private key.
func SignTx(tx database.Tx, privateKey *ecdsa.PrivateKey) (database.Tx, error) {
	msg, err := tx.SigningHash()
	if err != nil {
		return database.Tx{}, err
	}

	sig, pub := signature.Sign(msg, privateKey)

	vin := make([]database.Input, len(tx.Vin))
	for i, in := range tx.Vin {
		in.Witness = []string{sig, pub}
		vin[i] = in
	}
	tx.Vin = vin

	return tx, nil
}
