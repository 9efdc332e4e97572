// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "gorinex dev")
}

func TestFileNameCommand(t *testing.T) {
	out, err := run(t, "filename", "KAOSDDD0.YYn", "--mjd", "60583")
	require.NoError(t, err)
	assert.Equal(t, "KAOS2740.24n\n", out)

	_, err = run(t, "filename", "brdc.nav", "--mjd", "60583")
	assert.Error(t, err)
}

const testNavV3 = `     3.03           N: GNSS NAV DATA    G: GPS              RINEX VERSION / TYPE
GPSA   1.0245e-08  1.4901e-08 -5.9605e-08 -1.1921e-07       IONOSPHERIC CORR    
GPSB   8.6016e+04  9.8304e+04 -6.5536e+04 -5.2429e+05       IONOSPHERIC CORR    
    18                                                      LEAP SECONDS        
                                                            END OF HEADER       
G05 2024 09 30 02 00 00 1.500000000000e-04-1.100000000000e-11 0.000000000000e+00
     5.200000000000e+01-2.050000000000e+01 4.500000000000e-09 1.200000000000e+00
    -1.100000000000e-06 1.000000000000e-02 8.200000000000e-06 5.153600000000e+03
     9.360000000000e+04 1.100000000000e-07-8.000000000000e-01-3.700000000000e-08
     9.600000000000e-01 2.500000000000e+02 1.000000000000e+00-8.100000000000e-09
     3.200000000000e-10 1.000000000000e+00 2.334000000000e+03 0.000000000000e+00
     2.000000000000e+00 0.000000000000e+00-1.100000000000e-08 3.080000000000e+02
     8.640000000000e+04 4.000000000000e+00 0.000000000000e+00 0.000000000000e+00
`

func TestRenavAndOrbitCommands(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.rnx")
	require.NoError(t, os.WriteFile(in, []byte(testNavV3), 0o644))

	out := filepath.Join(dir, "out.nav")
	_, err := run(t, "renav", in, "--rinex-version", "2", "--mjd", "60583", "--out", out)
	require.NoError(t, err)
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "     2.11"))
	assert.Contains(t, string(b), "05 24 09 30 02 00  0.0")

	res, err := run(t, "orbit", out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res, "G05    93600"))

	_, err = run(t, "renav", filepath.Join(dir, "missing.rnx"), "--out", out)
	assert.Error(t, err)
}

func TestObsCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "rcv.log")
	require.NoError(t, os.WriteFile(in, []byte("~~ 005 0000000000\n:: 001 00\n"), 0o644))

	out := filepath.Join(dir, "kaos2740.24o")
	_, err := run(t, "obs", in, "--mjd", "60583", "--out", out)
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(b), "OBSERVER / AGENCY")
	// Clock-only epochs are not written
	assert.True(t, strings.HasSuffix(string(b), "END OF HEADER       \n"))
}
