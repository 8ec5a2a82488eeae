package genesis_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/blockminer/foundation/blockchain/genesis"
	"github.com/ardanlabs/blockminer/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func writeFile(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("\t%s\tShould be able to write the genesis file: %v", failed, err)
	}
	return path
}

func Test_Load(t *testing.T) {
	t.Log("Given the need to load the chain parameters.")
	{
		path := writeFile(t, `{"difficulty":"0000","max_block_size":2048}`)

		gen, err := genesis.Load(path)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to load the genesis file: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to load the genesis file.", success)

		if gen.Difficulty != "0000" || gen.MaxBlockSize != 2048 || gen.MiningReward != genesis.DefaultMiningReward {
			t.Logf("\t%s\tgot: %+v", failed, gen)
			t.Fatalf("\t%s\tShould keep defaults for missing fields.", failed)
		}
		t.Logf("\t%s\tShould keep defaults for missing fields.", success)

		rules := gen.Rules()
		if rules.Target != "0000" || rules.Reward != genesis.DefaultMiningReward {
			t.Fatalf("\t%s\tShould convert into block rules.", failed)
		}
		t.Logf("\t%s\tShould convert into block rules.", success)

		path = writeFile(t, `{"max_block_size":-1}`)
		_, err = genesis.Load(path)
		if !validate.IsFieldErrors(err) {
			t.Fatalf("\t%s\tShould reject an invalid block size with field errors: %v", failed, err)
		}
		if _, exists := validate.GetFieldErrors(err).Fields()["max_block_size"]; !exists {
			t.Fatalf("\t%s\tShould name the json field that failed.", failed)
		}
		t.Logf("\t%s\tShould reject an invalid block size with field errors.", success)
	}
}

func Test_Satisfiable(t *testing.T) {
	t.Log("Given the need to know if a target can ever be met.")
	{
		if !genesis.Default().Satisfiable() {
			t.Fatalf("\t%s\tShould treat a 64 character target as satisfiable.", failed)
		}
		t.Logf("\t%s\tShould treat a 64 character target as satisfiable.", success)

		gen := genesis.Default()
		gen.Difficulty = strings.Repeat("0", 65)
		if gen.Satisfiable() {
			t.Fatalf("\t%s\tShould treat a target longer than a digest as unsatisfiable.", failed)
		}
		t.Logf("\t%s\tShould treat a target longer than a digest as unsatisfiable.", success)
	}
}
