package main

import (
	"bytes"
	"encoding/json"
	"mpvrp-verify-service/internal/domain"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cliInstance = `# cli
1 1 1 2 1
0
1 100 1 1
1 3 4 1000
1 0 0
1 6 8 40
2 3 8 60
`

const cliSolution = `1: 1 - 1 [100] - 1 (40) - 2 (60) - 1
1: 0(0.0) - 0(0.0) - 0(0.0) - 0(0.0) - 0(0.0)

1
0
0.0
21.54
cbc
0.1
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestVerifyCertified(t *testing.T) {
	inst := writeFile(t, "inst.dat", cliInstance)
	sol := writeFile(t, "sol.dat", cliSolution)

	var out, errOut bytes.Buffer
	code := run([]string{"verify", "--instance", inst, "--solution", sol}, &out, &errOut)

	require.Equal(t, exitOK, code, errOut.String())
	assert.Contains(t, out.String(), "verdict:  certified")
	assert.Contains(t, out.String(), "no findings")
}

func TestVerifyJSONReportsMismatch(t *testing.T) {
	inst := writeFile(t, "inst.dat", cliInstance)
	sol := writeFile(t, "sol.dat", strings.Replace(cliSolution, "21.54", "30.00", 1))

	var out, errOut bytes.Buffer
	code := run([]string{"verify", "--instance", inst, "--solution", sol, "--output", "json"}, &out, &errOut)

	require.Equal(t, exitRejected, code, errOut.String())

	var v domain.Verdict
	require.NoError(t, json.Unmarshal(out.Bytes(), &v))
	assert.True(t, v.Feasible)
	assert.False(t, v.CostMatch)
	assert.Equal(t, 1, v.Count(domain.MetricMismatch))
}

func TestVerifyStructuralExitCode(t *testing.T) {
	inst := writeFile(t, "inst.dat", "1 1 1\n")
	sol := writeFile(t, "sol.dat", cliSolution)

	var out, errOut bytes.Buffer
	code := run([]string{"verify", "--instance", inst, "--solution", sol}, &out, &errOut)

	assert.Equal(t, exitStructural, code)
	assert.Contains(t, errOut.String(), "structural error")
	assert.Empty(t, out.String())
}

func TestVerifyRequiresFlags(t *testing.T) {
	var out, errOut bytes.Buffer
	code := run([]string{"verify"}, &out, &errOut)

	assert.Equal(t, exitStructural, code)
	assert.Contains(t, errOut.String(), "required flag")
}

func TestInspect(t *testing.T) {
	inst := writeFile(t, "inst.dat", cliInstance)

	var out, errOut bytes.Buffer
	code := run([]string{"inspect", "--instance", inst}, &out, &errOut)

	require.Equal(t, exitOK, code, errOut.String())
	assert.Contains(t, out.String(), "run:       cli")
	assert.Contains(t, out.String(), "ordering:  canonical")
	assert.Contains(t, out.String(), "stations:  2")
}

func TestInspectPrintsWarnings(t *testing.T) {
	inst := writeFile(t, "inst.dat", strings.Replace(cliInstance, "2 3 8 60", "2 3 4.05 60", 1))

	var out, errOut bytes.Buffer
	code := run([]string{"inspect", "--instance", inst}, &out, &errOut)

	require.Equal(t, exitOK, code, errOut.String())
	assert.Contains(t, out.String(), "warning: D1 and S2 overlap (distance 0.050)")
}
