package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/familycart/internal/config"
	"github.com/dukerupert/familycart/internal/images"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "shoplist dev\n", out.String())
}

func TestMigrateCommand(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("SHOPLIST_DB_PATH", "data/test.db")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"migrate"})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "schema version 2")
}

func TestNewImageStore(t *testing.T) {
	store, disk, err := newImageStore(config.ImagesConfig{Backend: config.ImageBackendDisk, Dir: t.TempDir(), URLPrefix: "/images"})
	require.NoError(t, err)
	require.NotNil(t, disk)
	assert.Equal(t, "/images", disk.URLPrefix())
	var _ images.Store = store

	_, disk, err = newImageStore(config.ImagesConfig{Backend: config.ImageBackendS3, S3: config.S3Config{
		Bucket: "cart", AccessKey: "k", SecretKey: "s", PublicURL: "https://cdn.example.com",
	}})
	require.NoError(t, err)
	assert.Nil(t, disk)

	_, _, err = newImageStore(config.ImagesConfig{Backend: config.ImageBackendS3})
	assert.Error(t, err)
}

func TestBackupAndRestoreCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHOPLIST_DB_PATH", "data/shop.db")
	t.Setenv("SHOPLIST_BACKUP_DIR", "snaps")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	rootCmd.SetArgs([]string{"backup"})
	require.NoError(t, rootCmd.Execute())
	snapshot := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(snapshot, "snaps/shoplist-"), snapshot)

	out.Reset()
	rootCmd.SetArgs([]string{"restore", snapshot})
	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "restored data/shop.db")
}
