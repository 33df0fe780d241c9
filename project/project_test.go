package project

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
}

func TestDetect(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/ws/app/pubspec.yaml", `name: my_app
dependencies:
  flutter:
    sdk: flutter
  http: ^1.0.0
flutter:
  uses-material-design: true
`)
	writeFile(t, fs, "/ws/cli/pubspec.yaml", `name: tool
environment:
  sdk: ">=3.0.0 <4.0.0"
dependencies:
  args: ^2.4.0
`)
	writeFile(t, fs, "/ws/broken/pubspec.yaml", "name: [unterminated\n")

	app, err := Detect(fs, "/ws/app")
	require.NoError(t, err)
	assert.Equal(t, Info{Name: "my_app", Dir: "/ws/app", IsFlutter: true}, app)
	assert.Equal(t, "Flutter project", app.Kind())

	cli, err := Detect(fs, "/ws/cli")
	require.NoError(t, err)
	assert.False(t, cli.IsFlutter)
	assert.Equal(t, "Dart project", cli.Kind())

	broken, err := Detect(fs, "/ws/broken")
	require.NoError(t, err)
	assert.Equal(t, UnknownName, broken.Name)

	_, err = Detect(fs, "/ws/none")
	assert.ErrorIs(t, err, ErrNotProject)
}

func TestScan(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/ws/pubspec.yaml", "name: root\n")
	writeFile(t, fs, "/ws/packages/b/pubspec.yaml", "name: b\nflutter:\n")
	writeFile(t, fs, "/ws/packages/a/pubspec.yaml", "name: a\n")
	writeFile(t, fs, "/ws/packages/a/README.md", "# a\n")

	got, err := Scan(fs, "/ws")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "/ws/packages/a", got[0].Dir)
	assert.Equal(t, "b", got[1].Name)
	assert.True(t, got[1].IsFlutter)
	assert.Equal(t, "root", got[2].Name)
	assert.Equal(t, "/ws", got[2].Dir)
}
