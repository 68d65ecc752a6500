package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/erp/messaging/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add channel topic", "add_channel_topic"},
		{"Add-Channel-Topic", "add_channel_topic"},
		{"add__channel__topic", "add_channel_topic"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration_Sequential(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "init schema", "tables")
	require.NoError(t, err)
	assert.EqualValues(t, 1, first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_init_schema.up.sql"), first.UpPath)

	second, err := CreateMigration(dir, "Add channel topic", "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, second.Version)
	assert.Equal(t, filepath.Join(dir, "000002_add_channel_topic.down.sql"), second.DownPath)

	content, err := os.ReadFile(first.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(content), "init_schema: tables")

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init_schema", "000002_add_channel_topic"}, names)
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	t.Run("missing directory is empty", func(t *testing.T) {
		names, err := ListMigrations(filepath.Join(t.TempDir(), "nope"))
		require.NoError(t, err)
		assert.Empty(t, names)
	})

	t.Run("orders by numeric version and skips stray files", func(t *testing.T) {
		dir := t.TempDir()
		for _, f := range []string{
			"000010_late.up.sql", "000010_late.down.sql",
			"000002_early.up.sql", "000002_early.down.sql",
			"README.md", "notes.up.sql",
		} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), nil, 0o644))
		}

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000002_early", "000010_late"}, names)
	})
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	ups, err := fsGlob("*.up.sql")
	require.NoError(t, err)
	downs, err := fsGlob("*.down.sql")
	require.NoError(t, err)

	require.NotEmpty(t, ups)
	assert.Len(t, downs, len(ups))
}

func fsGlob(pattern string) ([]string, error) {
	entries, err := migrations.FS.ReadDir(".")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if ok, _ := filepath.Match(pattern, e.Name()); ok {
			out = append(out, e.Name())
		}
	}
	return out, nil
}
