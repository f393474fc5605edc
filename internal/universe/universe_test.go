package universe

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeUniverse(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".txt"), []byte(body), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeUniverse(t, dir, "tech", `# Large cap tech
## Software
msft
ORCL  # Oracle

## Hardware
AAPL
msft
`)
	l := NewLoader(dir)
	u, err := l.Load("Tech")
	require.NoError(t, err)

	assert.Equal(t, "tech", u.Name)
	assert.Equal(t, []string{"MSFT", "ORCL", "AAPL"}, u.Tickers)
	assert.Equal(t, []string{"MSFT", "ORCL"}, u.Categories["Software"])
	assert.Equal(t, []string{"AAPL"}, u.Categories["Hardware"])

	_, err = l.Load("missing")
	assert.Error(t, err)
	_, err = l.Load("../etc")
	assert.Error(t, err)
}

func TestNamesAndResolve(t *testing.T) {
	dir := t.TempDir()
	writeUniverse(t, dir, "tech", "AAPL\nMSFT\n")
	writeUniverse(t, dir, "energy", "XOM\nCVX\nMSFT\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("x"), 0o644))
	l := NewLoader(dir)

	names, err := l.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"energy", "tech"}, names)

	label, tickers, err := l.Resolve("TECH")
	require.NoError(t, err)
	assert.Equal(t, "tech", label)
	assert.Equal(t, []string{"AAPL", "MSFT"}, tickers)

	label, tickers, err = l.Resolve("all")
	require.NoError(t, err)
	assert.Equal(t, All, label)
	assert.Equal(t, []string{"XOM", "CVX", "MSFT", "AAPL"}, tickers)

	label, tickers, err = l.Resolve("aapl, ko,AAPL")
	require.NoError(t, err)
	assert.Equal(t, "custom", label)
	assert.Equal(t, []string{"AAPL", "KO"}, tickers)

	_, tickers, err = l.Resolve("IBM,")
	require.NoError(t, err)
	assert.Equal(t, []string{"IBM"}, tickers)

	label, tickers, err = l.Resolve("KO PEP")
	require.NoError(t, err)
	assert.Equal(t, "custom", label)
	assert.Equal(t, []string{"KO", "PEP"}, tickers)

	_, _, err = l.Resolve("  ")
	assert.Error(t, err)
}

func TestResolve_UnknownUniverseIsAnError(t *testing.T) {
	dir := t.TempDir()
	writeUniverse(t, dir, "dow30", "AAPL\nMSFT\n")
	l := NewLoader(dir)

	for _, spec := range []string{"sp500", "IBM"} {
		t.Run(spec, func(t *testing.T) {
			_, tickers, err := l.Resolve(spec)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnknownUniverse)
			assert.Contains(t, err.Error(), "dow30")
			assert.Nil(t, tickers)
		})
	}

	_, err := l.Load("sp500")
	assert.ErrorIs(t, err, ErrUnknownUniverse)
}

func TestNames_MissingDir(t *testing.T) {
	names, err := NewLoader(filepath.Join(t.TempDir(), "nope")).Names()
	require.NoError(t, err)
	assert.Empty(t, names)

	_, _, err = NewLoader(filepath.Join(t.TempDir(), "nope")).Resolve("all")
	assert.Error(t, err)
}
