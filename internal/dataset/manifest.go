package dataset

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"slices"
	"strings"
)

// Manifest is the set of icon asset names available to the site, without
// directory or extension.
type Manifest map[string]struct{}

// Has reports whether an asset with the given name exists.
func (m Manifest) Has(name string) bool {
	_, ok := m[assetName(name)]
	return ok
}

// Names returns the asset names, sorted.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

func assetName(p string) string {
	base := path.Base(strings.ReplaceAll(strings.TrimSpace(p), `\`, "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// ReadManifest reads one asset name or path per line. Blank lines and lines
// starting with # are skipped.
func ReadManifest(r io.Reader) (Manifest, error) {
	m := Manifest{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m[assetName(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return m, nil
}

// ManifestFromFS lists every file under dir in fsys.
func ManifestFromFS(fsys fs.FS, dir string) (Manifest, error) {
	m := Manifest{}
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			m[assetName(p)] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan icon assets: %w", err)
	}
	return m, nil
}

// LoadManifest reads a manifest from a listing file or an icon directory.
func LoadManifest(p string) (Manifest, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	if info.IsDir() {
		return ManifestFromFS(os.DirFS(p), ".")
	}
	f, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return ReadManifest(f)
}
