// Package genesis maintains access to the genesis file which carries the
// fixed chain parameters used to build and mine a block.
package genesis

import (
	"fmt"
	"os"

	"github.com/ardanlabs/blockminer/foundation/blockchain/database"
	"github.com/ardanlabs/blockminer/foundation/blockchain/signature"
	"github.com/ardanlabs/blockminer/foundation/validate"
	jsoniter "github.com/json-iterator/go"
)

// Defaults for the chain parameters.
const (
	DefaultDifficulty   = "0000ffff00000000000000000000000000000000000000000000000000000000"
	DefaultMaxBlockSize = 1_000_000
	DefaultMiningReward = 625_000_000
	DefaultBeneficiary  = "scriptpubkey_value"
)

// Genesis represents the genesis file.
type Genesis struct {
	Difficulty   string `json:"difficulty"`                               // Prefix the hex block hash must start with.
	MaxBlockSize int    `json:"max_block_size" validate:"required,min=1"` // Byte budget for the transactions in a block.
	MiningReward uint64 `json:"mining_reward" validate:"required"`        // Reward for mining a block, in base units.
	Beneficiary  string `json:"beneficiary"`                              // Locking script for the coinbase output.
}

// Default returns the parameters used when no genesis file is provided.
func Default() Genesis {
	return Genesis{
		Difficulty:   DefaultDifficulty,
		MaxBlockSize: DefaultMaxBlockSize,
		MiningReward: DefaultMiningReward,
		Beneficiary:  DefaultBeneficiary,
	}
}

// =============================================================================

// Load opens and consumes the genesis file. Fields missing from the file
// keep their default value.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	genesis := Default()
	if err := jsoniter.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, fmt.Errorf("decoding genesis: %w", err)
	}

	if err := validate.Check(genesis); err != nil {
		return Genesis{}, fmt.Errorf("validating genesis: %w", err)
	}

	return genesis, nil
}

// Rules returns the parameters in the form the database package uses.
func (g Genesis) Rules() database.Rules {
	return database.Rules{
		Target:       g.Difficulty,
		MaxBlockSize: g.MaxBlockSize,
		Reward:       g.MiningReward,
		Beneficiary:  g.Beneficiary,
	}
}

// Satisfiable reports whether a hash digest could ever carry the difficulty
// as a prefix. A target longer than the hex form of a digest can't be met.
func (g Genesis) Satisfiable() bool {
	return len(g.Difficulty) <= signature.HashHexLength
}
