package resource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandptel/trawl/errors"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.resources")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestPreprocessor_RunRaw(t *testing.T) {
	path := writeTempConfig(t, "foo: 1\nbar: 2\n")
	pre := NewPreprocessor("")

	text, err := pre.Run(context.Background(), path, FileOptions{NoPreprocess: true})
	require.NoError(t, err)
	assert.Equal(t, "foo: 1\nbar: 2\n", text)
}

func TestPreprocessor_RunMissingFile(t *testing.T) {
	pre := NewPreprocessor("")

	_, err := pre.Run(context.Background(), "/nonexistent/path.resources", FileOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrFileRead)
	assert.True(t, errors.IsInvalid(err))
}

func TestPreprocessor_RunCommand(t *testing.T) {
	path := writeTempConfig(t, "foo: 1\n")
	// cat stands in for cpp: reads the file, echoes it to stdout
	pre := NewPreprocessor("cat")

	text, err := pre.Run(context.Background(), path, FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, "foo: 1\n", text)
}

func TestPreprocessor_RunCommandOverride(t *testing.T) {
	path := writeTempConfig(t, "foo: 1\n")
	pre := NewPreprocessor("/does/not/exist")

	text, err := pre.Run(context.Background(), path, FileOptions{Command: "cat"})
	require.NoError(t, err)
	assert.Equal(t, "foo: 1\n", text)
}

func TestPreprocessor_RunCommandFailure(t *testing.T) {
	path := writeTempConfig(t, "foo: 1\n")
	pre := NewPreprocessor("/does/not/exist/cpp")

	_, err := pre.Run(context.Background(), path, FileOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPreprocessFailed)
}

func TestPreprocessor_RunInvalidEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "binary.resources")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o600))
	pre := NewPreprocessor("")

	_, err := pre.Run(context.Background(), path, FileOptions{NoPreprocess: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInvalidEncoding)
}

func TestPreprocessor_GloballyDisabled(t *testing.T) {
	path := writeTempConfig(t, "foo: 1\n")
	// Default command would fail if executed; global disable must win
	pre := NewPreprocessor("/does/not/exist/cpp", WithPreprocessingDisabled(true))

	text, err := pre.Run(context.Background(), path, FileOptions{})
	require.NoError(t, err)
	assert.Equal(t, "foo: 1\n", text)
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", []string{}},
		{"single", "-DHOME=/home/u", []string{"-DHOME=/home/u"}},
		{"multiple", "-P -traditional-cpp", []string{"-P", "-traditional-cpp"}},
		{"extra whitespace", "  -P\t-undef  ", []string{"-P", "-undef"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, splitArgs(test.in))
		})
	}
}
