// Package project recognises Dart and Flutter projects by their pubspec.yaml.
package project

import (
	"errors"
	"io/fs"
	"path"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"shortcut-panel/logging"
)

const (
	Manifest    = "pubspec.yaml"
	UnknownName = "Unknown"
)

var ErrNotProject = errors.New("no pubspec.yaml found")

// Info describes one detected project.
type Info struct {
	Name      string `json:"name"`
	Dir       string `json:"dir"`
	IsFlutter bool   `json:"isFlutter"`
}

// Kind is "Flutter project" or "Dart project".
func (i Info) Kind() string {
	if i.IsFlutter {
		return "Flutter project"
	}
	return "Dart project"
}

type pubspec struct {
	Name            string         `yaml:"name"`
	Dependencies    map[string]any `yaml:"dependencies"`
	DevDependencies map[string]any `yaml:"dev_dependencies"`

	hasFlutterSection bool
}

func (p *pubspec) UnmarshalYAML(node *yaml.Node) error {
	type plain pubspec
	if err := node.Decode((*plain)(p)); err != nil {
		return err
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "flutter" {
			p.hasFlutterSection = true
		}
	}
	return nil
}

// isFlutter mirrors what the Flutter tool looks for: a top-level flutter
// section or a dependency on the flutter SDK.
func (p pubspec) isFlutter() bool {
	if p.hasFlutterSection {
		return true
	}
	for _, deps := range []map[string]any{p.Dependencies, p.DevDependencies} {
		if dep, ok := deps["flutter"]; ok {
			if m, ok := dep.(map[string]any); ok && m["sdk"] == "flutter" {
				return true
			}
			if dep == nil {
				return true
			}
		}
	}
	return false
}

// Detect inspects dir. A pubspec that cannot be parsed still counts as a
// project, reported with the name "Unknown".
func Detect(fsys afero.Fs, dir string) (Info, error) {
	data, err := afero.ReadFile(fsys, path.Join(dir, Manifest))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, ErrNotProject
		}
		return Info{}, err
	}

	info := Info{Name: UnknownName, Dir: dir}
	var doc pubspec
	if err := yaml.Unmarshal(data, &doc); err != nil {
		logging.Warn().Err(err).Str("dir", dir).Msg("unreadable pubspec.yaml")
		return info, nil
	}
	if doc.Name != "" {
		info.Name = doc.Name
	}
	info.IsFlutter = doc.isFlutter()
	return info, nil
}

// Scan finds every project below root, root included, sorted by directory.
func Scan(fsys afero.Fs, root string) ([]Info, error) {
	iofs := afero.NewIOFS(afero.NewBasePathFs(fsys, root))
	matches, err := doublestar.Glob(iofs, "**/"+Manifest)
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)

	var out []Info
	for _, m := range matches {
		dir := path.Join(root, path.Dir(m))
		info, err := Detect(fsys, dir)
		if err != nil {
			logging.Debug().Err(err).Str("dir", dir).Msg("skipping project")
			continue
		}
		out = append(out, info)
	}
	return out, nil
}
