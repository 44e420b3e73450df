package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/todoledger/sdk-go/types"
)

const devMnemonic = "test test test test test test test test test test test junk"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRejectsUnknownFormat(t *testing.T) {
	_, err := execute(t, "list", "--format", "yaml")
	require.ErrorContains(t, err, `invalid format "yaml"`)
}

func TestKeysImportWithMemoryKeyring(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "todoledger.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("keyring:\n  backend: memory\n"), 0o600))
	mnemonicPath := filepath.Join(dir, "dev.mnemonic")
	require.NoError(t, os.WriteFile(mnemonicPath, []byte(devMnemonic+"\n"), 0o600))

	out, err := execute(t, "--config", cfgPath, "keys", "import", "dev", "--mnemonic-file", mnemonicPath)
	require.NoError(t, err)
	assert.Equal(t, "dev\t0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266\n", out)

	_, err = execute(t, "--config", cfgPath, "keys", "show", "dev")
	require.Error(t, err, "memory keyrings do not persist across commands")
}

func TestPrintRecords(t *testing.T) {
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, printRecords(cmd, "text", nil))
	assert.Equal(t, "no records\n", out.String())

	out.Reset()
	records := []types.RecordView{{Title: "Buy milk", Description: "2L"}, {Title: "Ship", Completed: true}}
	require.NoError(t, printRecords(cmd, "text", records))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "[ ]")
	assert.Contains(t, lines[1], "Buy milk")
	assert.Contains(t, lines[2], "[x]")

	out.Reset()
	require.NoError(t, printRecords(cmd, "json", records))
	assert.Contains(t, out.String(), `"completed": true`)
}

func TestServeOverrides(t *testing.T) {
	opts := &ServeOptions{RootOptions: &RootOptions{}, RPCEndpoint: "http://x", KeyName: "dev"}
	assert.Len(t, opts.overrides(), 2)
}
