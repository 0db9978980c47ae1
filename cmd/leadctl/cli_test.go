package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xavierca1/ligue-crm/internal/entity"
	"github.com/xavierca1/ligue-crm/internal/infra/memstore"
	"github.com/xavierca1/ligue-crm/internal/usecase"
)

func useMemStore(t *testing.T) *memstore.LeadRepository {
	t.Helper()
	logger = zap.NewNop()
	repo := memstore.NewLeadRepository()
	prev := openStore
	openStore = func(context.Context) (entity.LeadRepositoryInterface, func(), error) {
		return repo, func() {}, nil
	}
	t.Cleanup(func() {
		openStore = prev
		ownerID = ""
		dryRun = false
	})
	return repo
}

func testCmd() (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd, out
}

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestImportCmd_InsertsOnlyValidRows(t *testing.T) {
	repo := useMemStore(t)
	ownerID = "u1"
	cmd, out := testCmd()

	err := runImport(cmd, []string{writeCSV(t, "Name,Email\nJohn,john@x.com\n,bademail")})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "1 valid, 1 invalid, 2 total")
	assert.Contains(t, out.String(), "Name is required; Invalid email format")
	assert.Contains(t, out.String(), "imported 1 leads, skipped 1")

	leads, _ := repo.FindByOwner(context.Background(), "u1")
	require.Len(t, leads, 1)
	assert.Equal(t, "John", leads[0].Name)
}

func TestImportCmd_DryRunWritesNothing(t *testing.T) {
	repo := useMemStore(t)
	ownerID = "u1"
	dryRun = true
	cmd, out := testCmd()

	require.NoError(t, runImport(cmd, []string{writeCSV(t, usecase.LeadsTemplateCSV)}))
	assert.Contains(t, out.String(), "2 valid, 0 invalid, 2 total")

	leads, _ := repo.FindByOwner(context.Background(), "u1")
	assert.Empty(t, leads)
}

func TestImportCmd_TooFewLines(t *testing.T) {
	useMemStore(t)
	ownerID = "u1"
	cmd, _ := testCmd()

	err := runImport(cmd, []string{writeCSV(t, "Name,Email\n\n")})
	require.Error(t, err)
	assert.True(t, usecase.IsFormatError(err))
}

func TestSeedAndDashboardCmds(t *testing.T) {
	useMemStore(t)
	ownerID = "u1"

	cmd, out := testCmd()
	require.NoError(t, runSeed(cmd, nil))
	assert.Contains(t, out.String(), "added 5 sample leads")

	cmd, out = testCmd()
	require.NoError(t, runDashboard(cmd, nil))
	assert.Contains(t, out.String(), `"total_leads": 5`)
	assert.Contains(t, out.String(), `"total_value": 64000`)
	// 0.7*15000 + 0.3*(8500+22000)
	assert.Contains(t, out.String(), `"revenue_forecast": 19650`)
}

func TestTemplateCmd_WritesTemplateVerbatim(t *testing.T) {
	cmd, out := testCmd()
	require.NoError(t, templateCmd.RunE(cmd, nil))
	assert.Equal(t, usecase.LeadsTemplateCSV, out.String())
}

func TestRootCmd_VerboseBuildsLogger(t *testing.T) {
	t.Cleanup(func() { verbose = false; logger = nil })
	verbose = true

	require.NoError(t, rootCmd.PersistentPreRunE(rootCmd, nil))
	require.NotNil(t, logger)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
