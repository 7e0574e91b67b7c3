package verify

import (
	"strconv"
	"strings"

	"github.com/Mohsinsiddi/w3deploy/internal/config"
)

// Mismatch is one compiler setting that differs from the configuration.
type Mismatch struct {
	Field string
	Want  string
	Got   string
}

// Compare lists the settings in sc that differ from want. Etherscan reports
// "Default" as the EVM version when the compiler's own default was used,
// which is accepted for any configured target.
func Compare(sc *SourceCode, want config.Compiler) []Mismatch {
	var out []Mismatch

	if got := compilerRelease(sc.CompilerVersion); got != want.Version {
		out = append(out, Mismatch{Field: "compiler", Want: want.Version, Got: sc.CompilerVersion})
	}

	wantOpt := "0"
	if want.Optimizer.Enabled {
		wantOpt = "1"
	}
	if sc.OptimizationUsed != wantOpt {
		out = append(out, Mismatch{Field: "optimizer", Want: wantOpt, Got: sc.OptimizationUsed})
	}

	if want.Optimizer.Enabled {
		if runs, err := strconv.Atoi(sc.Runs); err != nil || runs != want.Optimizer.Runs {
			out = append(out, Mismatch{Field: "runs", Want: strconv.Itoa(want.Optimizer.Runs), Got: sc.Runs})
		}
	}

	if !strings.EqualFold(sc.EVMVersion, "default") && !strings.EqualFold(sc.EVMVersion, want.EVMVersion) {
		out = append(out, Mismatch{Field: "evm_version", Want: want.EVMVersion, Got: sc.EVMVersion})
	}

	return out
}

// compilerRelease turns "v0.6.12+commit.27d51765" into "0.6.12".
func compilerRelease(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "+-"); i >= 0 {
		v = v[:i]
	}
	return v
}
