package pipeline

import (
	"context"
	"encoding/csv"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paleodata/tablesift/internal/config"
	"github.com/paleodata/tablesift/internal/index"
)

func writeTable(t *testing.T, root, article, name, content string) {
	t.Helper()
	dir := filepath.Join(root, article, "tables")
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.InputDir = t.TempDir()
	cfg.OutputDir = t.TempDir()
	return cfg
}

func newTestRunner(cfg *config.Config, logSink io.Writer) *Runner {
	if logSink == nil {
		logSink = io.Discard
	}
	r := NewRunner(cfg, log.New(logSink, "", 0))
	r.Progress = io.Discard
	return r
}

func readIndex(t *testing.T, outputDir string) [][]string {
	t.Helper()
	f, err := os.Open(filepath.Join(outputDir, index.CSVFileName))
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestRunEndToEnd(t *testing.T) {
	cfg := testConfig(t)

	// A dense numeric table and a prose fragment.
	writeTable(t, cfg.InputDir, "smith2004", "page.007.table.01.csv",
		"Sample,Site,Age BP,Method\n1,Chauvet,30230,AMS\n2,Lascaux,17200,charcoal\n")
	writeTable(t, cfg.InputDir, "smith2004", "page.012.table.00.csv",
		"\"The paintings of the upper gallery are executed in red ochre and show\",\"a marked stylistic affinity with the lower chamber figures\"\n"+
			"\"as described at length by previous authors working at the site over\",\"several decades of fieldwork and archival study\"\n")

	summary, err := newTestRunner(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Discovered)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 1, summary.RealTables)

	rows := readIndex(t, cfg.OutputDir)
	require.Len(t, rows, 3)

	header := rows[0]
	isTableCol := indexOf(t, header, "is_table")
	bpCol := indexOf(t, header, "w_cs_e_BP")
	caveCol := indexOf(t, header, "w_ci_ne_cave")

	// Corpus order: page 7 before page 12.
	assert.Equal(t, []string{"smith2004", "7", "1"}, rows[1][:3])
	assert.Equal(t, "true", rows[1][isTableCol])
	assert.Equal(t, "true", rows[1][bpCol])

	assert.Equal(t, []string{"smith2004", "12", "0"}, rows[2][:3])
	assert.Equal(t, "false", rows[2][isTableCol])
	assert.Equal(t, "false", rows[2][bpCol])
	assert.Equal(t, "false", rows[2][caveCol])
}

func TestRunSkipsMalformedTable(t *testing.T) {
	cfg := testConfig(t)

	writeTable(t, cfg.InputDir, "doe2011", "page.001.table.00.csv",
		"Age,Count\n1200,14\n")
	// Ragged rows: must be logged and skipped, not abort the run.
	writeTable(t, cfg.InputDir, "doe2011", "page.002.table.00.csv",
		"a,b,c\nd,e\n")

	var logBuf strings.Builder
	summary, err := newTestRunner(cfg, &logBuf).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Discovered)
	assert.Equal(t, 1, summary.Processed)
	assert.Equal(t, 1, summary.Skipped)
	assert.Contains(t, logBuf.String(), "doe2011 p.2 t.0")
	assert.Contains(t, logBuf.String(), "malformed grid")

	rows := readIndex(t, cfg.OutputDir)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"doe2011", "1", "0"}, rows[1][:3])
}

func TestRunEmptyCorpus(t *testing.T) {
	cfg := testConfig(t)

	summary, err := newTestRunner(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Discovered)

	// Header-only index is still written.
	rows := readIndex(t, cfg.OutputDir)
	assert.Len(t, rows, 1)
}

func TestRunCustomRules(t *testing.T) {
	cfg := testConfig(t)
	cfg.RulesFile = filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(cfg.RulesFile,
		[]byte(`[{"word":"quartz","match_end":true}]`), 0o600))

	writeTable(t, cfg.InputDir, "roe1999", "page.003.table.00.csv",
		"Mineral,Count\nquartz,12\n")

	summary, err := newTestRunner(cfg, nil).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)

	rows := readIndex(t, cfg.OutputDir)
	header := rows[0]
	assert.Contains(t, header, "w_ci_e_quartz")
	assert.NotContains(t, header, "w_cs_e_BP")
	assert.Equal(t, "true", rows[1][indexOf(t, header, "w_ci_e_quartz")])
}

func TestRunCancelled(t *testing.T) {
	cfg := testConfig(t)
	writeTable(t, cfg.InputDir, "roe1999", "page.001.table.00.csv", "a,b\n1,2\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestRunner(cfg, nil).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWritesXLSX(t *testing.T) {
	cfg := testConfig(t)
	cfg.WriteXLSX = true
	writeTable(t, cfg.InputDir, "roe1999", "page.001.table.00.csv", "Age,Count\n1200,14\n")

	_, err := newTestRunner(cfg, nil).Run(context.Background())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(cfg.OutputDir, index.XLSXFileName))
	assert.NoError(t, err)
}

func indexOf(t *testing.T, header []string, name string) int {
	t.Helper()
	for i, h := range header {
		if h == name {
			return i
		}
	}
	t.Fatalf("column %q not found in header %v", name, header)
	return -1
}
