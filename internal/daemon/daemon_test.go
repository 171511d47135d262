package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteAndReadPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pid")
	require.NoError(t, WritePID(path))

	pid, err := ReadPID(path)
	require.NoError(t, err)
	require.Equal(t, os.Getpid(), pid)
}

func TestWritePIDRejectsLiveOwner(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.pid")
	require.NoError(t, WritePID(path))

	err := WritePID(path)
	require.Error(t, err)
}

func TestRemovePIDIgnoresMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.pid")
	require.NoError(t, RemovePID(path))
}

func TestReadPIDMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o644))

	_, err := ReadPID(path)
	require.Error(t, err)
}
