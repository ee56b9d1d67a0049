package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/kozaktomas/face-registry/internal/recognition"
	"gopkg.in/yaml.v3"
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// Manifest is an enrollment roster read from YAML:
//
//	people:
//	  - label: Alice
//	    images: [alice/1.jpg, alice/2.jpg]
//	  - label: Bob
//	    dir: bob
//
// Relative paths are resolved against the manifest's directory.
type Manifest struct {
	People []ManifestEntry `yaml:"people"`
}

// ManifestEntry lists the images of one person.
type ManifestEntry struct {
	Label  string   `yaml:"label"`
	Images []string `yaml:"images"`
	Dir    string   `yaml:"dir"`
}

// LoadManifest reads and validates a roster file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(m.People) == 0 {
		return nil, fmt.Errorf("manifest %s lists no people", path)
	}

	base := filepath.Dir(path)
	for i := range m.People {
		p := &m.People[i]
		if p.Label == "" {
			return nil, fmt.Errorf("manifest entry %d has no label", i+1)
		}
		if len(p.Images) == 0 && p.Dir == "" {
			return nil, fmt.Errorf("manifest entry %q has neither images nor dir", p.Label)
		}
		for j, img := range p.Images {
			p.Images[j] = resolvePath(base, img)
		}
		if p.Dir != "" {
			p.Dir = resolvePath(base, p.Dir)
		}
	}
	return &m, nil
}

// Paths returns the explicit images followed by the images found in Dir.
func (e ManifestEntry) Paths() ([]string, error) {
	paths := slices.Clone(e.Images)
	if e.Dir != "" {
		found, err := imagesInDir(e.Dir)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	return paths, nil
}

func resolvePath(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// imagesInDir returns the image files directly inside dir, sorted by name.
func imagesInDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if slices.Contains(imageExtensions, strings.ToLower(filepath.Ext(e.Name()))) {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	return paths, nil
}

// readImages loads image files in order.
func readImages(paths []string) ([]recognition.Image, error) {
	images := make([]recognition.Image, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read image: %w", err)
		}
		images = append(images, recognition.Image{Name: filepath.Base(p), Data: data})
	}
	return images, nil
}
