package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/bookwyrm/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/bookwyrm/internal/core/services"
	"github.com/custodia-labs/bookwyrm/internal/logger"
)

// setupCLI injects an in-memory settings service and captures command output.
func setupCLI(t *testing.T) (*bytes.Buffer, *memory.ConfigStore) {
	t.Helper()

	store := memory.NewConfigStore()
	previous := settingsService
	SetSettingsService(services.NewSettingsService(store))
	resetFlags()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	logger.SetOutput(new(bytes.Buffer))

	t.Cleanup(func() {
		settingsService = previous
		resetFlags()
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		logger.SetOutput(os.Stderr)
	})
	return buf, store
}

// resetFlags restores flag defaults; cobra keeps values between executions.
func resetFlags() {
	verbose = false
	envFile = ""

	ingestFlags.out = ""
	ingestFlags.format = formatJSON
	ingestFlags.db = ""
	ingestFlags.window = 0
	ingestFlags.overlap = -1
	ingestFlags.batchSize = 0
	ingestFlags.noEmbed = false
	ingestFlags.allowMissing = false
	ingestFlags.tasksFile = ""

	runsDB = ""
	runsFormat = formatJSON
}

func execute(args ...string) error {
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// writeTree creates files under a new temp dir and returns its path.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	return root
}
