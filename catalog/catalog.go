package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	liberrors "github.com/AndreyBeserra/Helppybot/lib/errors"

	"github.com/hashicorp/go-multierror"
	yaml "go.yaml.in/yaml/v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Telegram limits callback data to 64 bytes and telebot prefixes the unique id with \f.
const maxKeyLength = 63

type Tutorial struct {
	Key    string `yaml:"key"`
	Title  string `yaml:"title"`
	Steps  string `yaml:"steps"`
	Folder string `yaml:"folder"`
}

type Member struct {
	Photo       string `yaml:"photo"`
	Description string `yaml:"description"`
}

type Catalog struct {
	About       string     `yaml:"about"`
	TeamSummary string     `yaml:"team_summary"`
	TeamFolder  string     `yaml:"team_folder"`
	Tutorials   []Tutorial `yaml:"tutorials"`
	Team        []Member   `yaml:"team"`
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	c, err := Parse(defaultCatalog)
	return c, liberrors.ErrorfOrNil(err, "default catalog")
}

// Load reads a YAML catalog from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, liberrors.ErrorfOrNil(err, "reading catalog %s", path)
	}
	c, err := Parse(data)
	return c, liberrors.ErrorfOrNil(err, "catalog %s", path)
}

// Parse decodes and validates a YAML catalog. Unknown fields are rejected.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("yaml unmarshal: %w", err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) normalize() {
	c.About = strings.TrimSpace(c.About)
	c.TeamSummary = strings.TrimSpace(c.TeamSummary)
	if c.TeamFolder == "" {
		c.TeamFolder = "equipe"
	}
	for i := range c.Tutorials {
		t := &c.Tutorials[i]
		t.Key = strings.TrimSpace(t.Key)
		t.Steps = strings.TrimSpace(t.Steps)
		if t.Folder == "" {
			t.Folder = t.Key
		}
	}
}

// Validate checks tutorial keys and titles. Keys listed in reserved are
// taken by menu buttons and may not be reused by tutorials.
func (c *Catalog) Validate(reserved ...string) error {
	var result *multierror.Error
	seen := make(map[string]bool, len(c.Tutorials)+len(reserved))
	for _, r := range reserved {
		seen[r] = true
	}
	for i, t := range c.Tutorials {
		switch {
		case t.Key == "":
			result = multierror.Append(result, fmt.Errorf("tutorial #%d: empty key", i+1))
		case len(t.Key) > maxKeyLength:
			result = multierror.Append(result, fmt.Errorf("tutorial %q: key longer than %d bytes", t.Key, maxKeyLength))
		case strings.ContainsAny(t.Key, "|\f"):
			result = multierror.Append(result, fmt.Errorf("tutorial %q: key contains a separator", t.Key))
		case seen[t.Key]:
			result = multierror.Append(result, fmt.Errorf("tutorial %q: duplicate or reserved key", t.Key))
		}
		seen[t.Key] = true
		if strings.TrimSpace(t.Title) == "" {
			result = multierror.Append(result, fmt.Errorf("tutorial %q: empty title", t.Key))
		}
		if t.Folder != "" && !filepath.IsLocal(t.Folder) {
			result = multierror.Append(result, fmt.Errorf("tutorial %q: folder %q escapes assets dir", t.Key, t.Folder))
		}
	}
	if !filepath.IsLocal(c.TeamFolder) {
		result = multierror.Append(result, fmt.Errorf("team folder %q escapes assets dir", c.TeamFolder))
	}
	for i, m := range c.Team {
		if strings.TrimSpace(m.Description) == "" {
			result = multierror.Append(result, fmt.Errorf("team member #%d: empty description", i+1))
		}
		if m.Photo != "" && !filepath.IsLocal(m.Photo) {
			result = multierror.Append(result, fmt.Errorf("team member #%d: photo %q escapes team folder", i+1, m.Photo))
		}
	}
	return result.ErrorOrNil()
}

func (c *Catalog) Tutorial(key string) (Tutorial, bool) {
	for _, t := range c.Tutorials {
		if t.Key == key {
			return t, true
		}
	}
	return Tutorial{}, false
}

// Folders lists the image folders the catalog refers to, team folder first.
func (c *Catalog) Folders() []string {
	folders := []string{c.TeamFolder}
	seen := map[string]bool{c.TeamFolder: true}
	for _, t := range c.Tutorials {
		if !seen[t.Folder] {
			seen[t.Folder] = true
			folders = append(folders, t.Folder)
		}
	}
	return folders
}
