package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kuestmarket/kuest-go/pkg/config"
	"github.com/kuestmarket/kuest-go/pkg/secretstore"
)

func TestBuildClient_RejectsBadStoreKey(t *testing.T) {
	cfg := &config.Config{
		SecretStorePath: t.TempDir(),
		SecretStoreKey:  "%%%%",
	}

	_, _, err := buildClient(cfg)
	require.Error(t, err)
}

func TestBuildClient_MissingSigningKey(t *testing.T) {
	dir := t.TempDir()
	store, err := secretstore.Open(secretstore.OpenOptions{Path: dir})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	cfg := &config.Config{
		SecretStorePath: dir,
		ErrorLogPath:    filepath.Join(t.TempDir(), "errlog.db"),
	}

	_, _, err = buildClient(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no signing key")
}
