package repo

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"fs-cli/internal/util"
)

// Limits controls context size.
type Limits struct {
	ContextMaxBytes int
	MaxFileBytes    int
}

// FileSnippet holds a path and snippet text.
type FileSnippet struct {
	Path      string
	Snippet   string
	Truncated bool
}

// RepoContext summarizes repository metadata for prompting.
type RepoContext struct {
	RepoRoot   string
	TopLevel   []string
	KeyFiles   map[string]bool
	SourceDirs map[string]bool
	Snippets   []FileSnippet
	Warnings   []string
	Bytes      int
}

// BuildContext gathers repo metadata and file snippets.
func BuildContext(repoRoot string, limits Limits) (RepoContext, error) {
	ctx := RepoContext{
		RepoRoot:   repoRoot,
		KeyFiles:   map[string]bool{},
		SourceDirs: map[string]bool{},
	}

	entries, err := os.ReadDir(repoRoot)
	if err == nil {
		for _, entry := range entries {
			ctx.TopLevel = append(ctx.TopLevel, entry.Name())
		}
		sort.Strings(ctx.TopLevel)
	}

	keyFiles := []string{
		"go.mod",
		"Cargo.toml",
		"package.json",
		"pyproject.toml",
		"Makefile",
		"Dockerfile",
		"docker-compose.yml",
		"README.md",
		".env.example",
	}
	for _, name := range keyFiles {
		path := filepath.Join(repoRoot, name)
		if _, err := os.Stat(path); err == nil {
			ctx.KeyFiles[name] = true
		} else {
			ctx.KeyFiles[name] = false
		}
	}

	for _, name := range []string{"cmd", "internal", "pkg", "src", "lib", "tests"} {
		path := filepath.Join(repoRoot, name)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			ctx.SourceDirs[name+"/"] = true
		} else {
			ctx.SourceDirs[name+"/"] = false
		}
	}

	snippetSources := []struct {
		name  string
		lines int
	}{
		{"README.md", 80},
		{"go.mod", 80},
		{"Cargo.toml", 60},
		{"pyproject.toml", 60},
		{"Makefile", 80},
		{"Dockerfile", 80},
		{"docker-compose.yml", 80},
	}
	for _, source := range snippetSources {
		if !ctx.KeyFiles[source.name] {
			continue
		}
		path := filepath.Join(repoRoot, source.name)
		_ = ctx.addSnippet(path, readFirstLines(path, source.lines, limits.MaxFileBytes), limits)
	}

	if ctx.KeyFiles["package.json"] {
		path := filepath.Join(repoRoot, "package.json")
		if !IsDenylisted(path) {
			_ = ctx.addSnippet(path, extractPackageJSON(path, limits.MaxFileBytes), limits)
		}
	}

	if ctx.KeyFiles[".env.example"] {
		ctx.Warnings = append(ctx.Warnings, "Detected .env.example but contents are redacted by denylist policy.")
	}

	return ctx, nil
}

func (c *RepoContext) addSnippet(path string, raw string, limits Limits) error {
	if raw == "" {
		return nil
	}
	rel, _ := filepath.Rel(c.RepoRoot, path)
	redacted := util.RedactSecrets(raw)
	truncated := false
	if limits.ContextMaxBytes > 0 {
		remaining := limits.ContextMaxBytes - c.Bytes
		if remaining <= 0 {
			return nil
		}
		if len(redacted) > remaining {
			redacted = redacted[:remaining]
			truncated = true
		}
		c.Bytes += len(redacted)
	}
	c.Snippets = append(c.Snippets, FileSnippet{Path: rel, Snippet: redacted, Truncated: truncated})
	return nil
}

func readFirstLines(path string, maxLines int, maxBytes int) string {
	if IsDenylisted(path) {
		return ""
	}
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lines := []string{}
	bytes := 0
	for scanner.Scan() {
		line := scanner.Text()
		if maxLines > 0 && len(lines) >= maxLines {
			break
		}
		if maxBytes > 0 && bytes+len(line) > maxBytes {
			break
		}
		lines = append(lines, line)
		bytes += len(line)
	}
	return strings.Join(lines, "\n")
}

func extractPackageJSON(path string, maxBytes int) string {
	file, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer file.Close()

	limit := maxBytes
	if limit <= 0 {
		limit = 32 * 1024
	}
	buf := make([]byte, limit)
	n, _ := file.Read(buf)
	content := string(buf[:n])

	var data map[string]any
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return content
	}
	filtered := map[string]any{}
	for _, key := range []string{"name", "private", "packageManager", "scripts", "dependencies", "devDependencies"} {
		if val, ok := data[key]; ok {
			filtered[key] = val
		}
	}
	out, err := json.MarshalIndent(filtered, "", "  ")
	if err != nil {
		return content
	}
	return string(out)
}

// Summary renders a concise summary suitable for prompt context.
func (c RepoContext) Summary() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Repo root: %s\n", c.RepoRoot))
	if len(c.TopLevel) > 0 {
		b.WriteString("Top-level entries:\n")
		for _, entry := range c.TopLevel {
			b.WriteString("- ")
			b.WriteString(entry)
			b.WriteString("\n")
		}
	}
	if len(c.KeyFiles) > 0 {
		b.WriteString("Key files:\n")
		keys := make([]string, 0, len(c.KeyFiles))
		for k := range c.KeyFiles {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("- %s: %t\n", k, c.KeyFiles[k]))
		}
	}
	if len(c.SourceDirs) > 0 {
		b.WriteString("Source directories:\n")
		keys := make([]string, 0, len(c.SourceDirs))
		for k := range c.SourceDirs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(fmt.Sprintf("- %s: %t\n", k, c.SourceDirs[k]))
		}
	}
	if len(c.Snippets) > 0 {
		b.WriteString("Snippets:\n")
		for _, snip := range c.Snippets {
			b.WriteString(fmt.Sprintf("--- %s", snip.Path))
			if snip.Truncated {
				b.WriteString(" (truncated)")
			}
			b.WriteString(" ---\n")
			b.WriteString(snip.Snippet)
			b.WriteString("\n")
		}
	}
	if len(c.Warnings) > 0 {
		b.WriteString("Warnings:\n")
		for _, warning := range c.Warnings {
			b.WriteString("- ")
			b.WriteString(warning)
			b.WriteString("\n")
		}
	}
	return b.String()
}
