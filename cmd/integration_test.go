package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basketsCSV = `pasta,shrimp
pasta,shrimp
pasta,escalope
caviar,champagne
bread,milk
bread,milk
bread,eggs
eggs,butter
butter,jam
jam,honey
fromage,
fromage,
`

var lowFloors = []string{"--min-support", "0.05", "--min-lift", "1"}

// resetFlags puts every flag back to its default so Changed state does not leak
// between invocations of the shared command tree.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	require.NoError(t, err, "command %v failed", args)
	return out
}

// isolatedHome points HOME at a temp dir and writes the sample table there.
func isolatedHome(t *testing.T) (string, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "store_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(basketsCSV), 0o644))
	return home, path
}

func TestCLI_MineFormats(t *testing.T) {
	home, data := isolatedHome(t)

	out := mustRun(t, append([]string{"mine", data}, lowFloors...)...)
	assert.Contains(t, out, "Bought Item")
	assert.Contains(t, out, "Expected To Be Bought")
	assert.Contains(t, out, "pasta")

	out = mustRun(t, append([]string{"mine", data, "--format", "csv"}, lowFloors...)...)
	assert.Regexp(t, regexp.MustCompile(`(?m)^pasta,shrimp,0\.166667,0\.6667,`), out)

	report := filepath.Join(home, "rules.md")
	out = mustRun(t, append([]string{"mine", data, "--format", "markdown", "-o", report}, lowFloors...)...)
	assert.Contains(t, out, "✓ Wrote")
	b, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(b), "[BASKET SUMMARY]")
	assert.Contains(t, string(b), "File: store_data.csv")
	assert.Contains(t, string(b), "Transactions: 12")

	// the default floors (lift >= 3) keep only the strongest pairs
	out = mustRun(t, "mine", data, "--format", "csv")
	assert.NotContains(t, out, "bread,eggs")

	_, err = runCmd(t, "mine", data, "--format", "yaml")
	assert.Error(t, err)
}

func TestCLI_MineRejectsMalformedInput(t *testing.T) {
	home, _ := isolatedHome(t)
	bad := filepath.Join(home, "bad.csv")
	require.NoError(t, os.WriteFile(bad, []byte("a,\"b\n"), 0o644))

	_, err := runCmd(t, "mine", bad)
	assert.Error(t, err)

	_, err = runCmd(t, "mine")
	assert.Error(t, err)

	_, err = runCmd(t, "mine", bad, "--min-support", "0")
	assert.Error(t, err)
}

func TestCLI_ItemsAndRecommend(t *testing.T) {
	_, data := isolatedHome(t)

	out := mustRun(t, append([]string{"items", data}, lowFloors...)...)
	assert.Contains(t, out, "bread\n")
	assert.Contains(t, out, "fromage\n")

	out = mustRun(t, append([]string{"recommend", data, "--item", "pasta"}, lowFloors...)...)
	assert.Contains(t, out, "Customers who purchased pasta also frequently purchased:")
	assert.Contains(t, out, "✅ shrimp")
	assert.Contains(t, out, "Top association rules:")

	out = mustRun(t, append([]string{"recommend", data, "--item", "fromage"}, lowFloors...)...)
	assert.Contains(t, out, "No strong association found for the selected product.")

	out = mustRun(t, append([]string{"recommend", data, "--item", "caviar deluxe"}, lowFloors...)...)
	assert.Contains(t, out, "No top rules available for this product.")
}

func TestCLI_WordCloud(t *testing.T) {
	home, data := isolatedHome(t)
	png := filepath.Join(home, "pasta.png")

	out := mustRun(t, append([]string{"wordcloud", data, "--item", "pasta", "--words", "20", "-o", png}, lowFloors...)...)
	assert.Contains(t, out, "✓ Word cloud written")
	assert.FileExists(t, png)

	skipped := filepath.Join(home, "fromage.png")
	mustRun(t, append([]string{"wordcloud", data, "--item", "fromage", "-o", skipped}, lowFloors...)...)
	assert.NoFileExists(t, skipped)

	_, err := runCmd(t, append([]string{"wordcloud", data, "--words", "15"}, lowFloors...)...)
	assert.Error(t, err)
}

func TestCLI_DatasetLifecycle(t *testing.T) {
	_, data := isolatedHome(t)

	out := mustRun(t, "dataset", "add", data, "-d", "weekly")
	m := regexp.MustCompile(`Dataset added: ([0-9a-f-]{36})`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out = mustRun(t, "dataset", "list")
	assert.Contains(t, out, id)
	assert.Contains(t, out, "weekly")

	out = mustRun(t, append([]string{"mine", "--dataset", id[:8], "--format", "csv"}, lowFloors...)...)
	assert.Contains(t, out, "pasta,shrimp")

	_, err := runCmd(t, "mine", data, "--dataset", id)
	assert.Error(t, err)

	out = mustRun(t, "dataset", "rm", id)
	assert.Contains(t, out, "Dataset removed")
	out = mustRun(t, "dataset", "list")
	assert.Contains(t, out, "(no datasets)")

	_, err = runCmd(t, "dataset", "rm", id)
	assert.Error(t, err)
}

func TestCLI_ExportAndRuns(t *testing.T) {
	home, data := isolatedHome(t)
	db := filepath.Join(home, "rules.db")

	_, err := runCmd(t, "runs")
	assert.Error(t, err, "no --db and no export_db")

	out := mustRun(t, append([]string{"export", data, "--db", db}, lowFloors...)...)
	m := regexp.MustCompile(`as run ([0-9a-f-]{36})`).FindStringSubmatch(out)
	require.Len(t, m, 2, out)

	out = mustRun(t, "runs", "--db", db)
	assert.Contains(t, out, m[1])
	assert.Contains(t, out, "store_data.csv")

	out = mustRun(t, "runs", "--db", db, "--run", m[1], "--format", "csv")
	assert.Contains(t, out, "pasta,shrimp")
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home, _ := isolatedHome(t)

	mustRun(t, "config", "set", "min_lift", "2.5")
	mustRun(t, "config", "set", "default_words", "30")
	mustRun(t, "config", "set", "cookie_secure", "true")
	assert.FileExists(t, filepath.Join(home, ".basketlens", "config.yaml"))

	out := mustRun(t, "config", "show")
	assert.Contains(t, out, "min_lift: 2.5")
	assert.Contains(t, out, "default_words: 30")
	assert.Contains(t, out, "cookie_secure: true")

	_, err := runCmd(t, "config", "set", "default_words", "35")
	assert.Error(t, err)
	_, err = runCmd(t, "config", "set", "min_support", "0")
	assert.Error(t, err)
	_, err = runCmd(t, "config", "set", "cookie_secure", "maybe")
	assert.Error(t, err)
	_, err = runCmd(t, "config", "set", "nope", "1")
	assert.Error(t, err)
}
