// Package skills discovers skills from a pack's skills directory. Each
// skill is a subdirectory holding a SKILL.md with YAML frontmatter.
package skills

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/parser"
)

const skillFileName = "SKILL.md"

// NoDescription is the placeholder for skills whose frontmatter carries no
// description.
const NoDescription = "(no description)"

// Skill is one discovered skill. The body is the markdown after the
// frontmatter and becomes part of the model prompt.
type Skill struct {
	Name        string
	Description string
	Body        string
	Path        string
}

// Discover loads every skill under dir, sorted by name. A subdirectory
// without a readable SKILL.md is skipped; a missing skills directory is an
// error.
func Discover(dir string) ([]Skill, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read skills directory")
	}

	var skills []Skill
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name(), skillFileName)
		skill, err := loadSkill(path)
		if err != nil {
			continue
		}

		skill.Name = entry.Name()
		skills = append(skills, skill)
	}

	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills, nil
}

// Get returns the named skill from dir.
func Get(dir, name string) (Skill, error) {
	skills, err := Discover(dir)
	if err != nil {
		return Skill{}, err
	}
	for _, skill := range skills {
		if skill.Name == name {
			return skill, nil
		}
	}
	return Skill{}, errors.Errorf("skill %q not found", name)
}

// loadSkill parses one SKILL.md. The skill name comes from the directory,
// not the frontmatter, so only the description is read here.
func loadSkill(path string) (Skill, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Skill{}, errors.Wrap(err, "failed to read skill file")
	}

	md := goldmark.New(
		goldmark.WithExtensions(meta.Meta),
	)

	var buf bytes.Buffer
	pctx := parser.NewContext()
	if err := md.Convert(content, &buf, parser.WithContext(pctx)); err != nil {
		return Skill{}, errors.Wrap(err, "failed to parse skill markdown")
	}

	description := NoDescription
	if metaData := meta.Get(pctx); metaData != nil {
		if d, _ := metaData["description"].(string); d != "" {
			description = d
		}
	}

	return Skill{
		Description: description,
		Body:        extractBody(string(content)),
		Path:        path,
	}, nil
}

// extractBody removes the YAML frontmatter and returns the markdown body.
func extractBody(content string) string {
	if !strings.HasPrefix(content, "---") {
		return content
	}

	lines := strings.Split(content, "\n")
	frontmatterEnd := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			frontmatterEnd = i
			break
		}
	}
	if frontmatterEnd == -1 {
		return content
	}

	return strings.TrimLeft(strings.Join(lines[frontmatterEnd+1:], "\n"), "\n")
}
