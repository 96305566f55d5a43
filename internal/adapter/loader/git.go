package loader

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"repomind/internal/domain"
)

// maxFileBytes caps the size of a single file the loader will yield.
const maxFileBytes = 1 << 20

// GitTreeLoader implements port.FileLoader using the git CLI. It performs a
// shallow clone into a scratch directory, yields the text files of the
// default branch, and removes the clone afterwards.
type GitTreeLoader struct {
	basePath string
}

// NewGitTreeLoader creates a loader that clones under basePath.
func NewGitTreeLoader(basePath string) *GitTreeLoader {
	return &GitTreeLoader{basePath: basePath}
}

// LoadFiles clones the repository and returns its indexable source files.
// The token, when present, is embedded in the clone URL so private
// repositories work.
func (l *GitTreeLoader) LoadFiles(ctx context.Context, repoURL, token string) ([]domain.SourceFile, error) {
	dest, err := os.MkdirTemp(l.basePath, "snapshot-*")
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(dest)

	cloneURL, err := authCloneURL(repoURL, token)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "git", "clone", "--depth", "1", cloneURL, dest)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("git clone: %w: %s", err, redactToken(string(out), token))
	}

	paths, err := listFiles(ctx, dest)
	if err != nil {
		return nil, err
	}

	var files []domain.SourceFile
	for _, p := range paths {
		if !indexablePath(p) {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dest, p))
		if err != nil {
			slog.Warn("skipping unreadable file", "file", p, "error", err)
			continue
		}
		if len(content) == 0 || len(content) > maxFileBytes || !utf8.Valid(content) {
			continue
		}
		files = append(files, domain.SourceFile{Path: p, Content: string(content)})
	}
	return files, nil
}

func listFiles(ctx context.Context, repoPath string) ([]string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", repoPath, "ls-tree", "-r", "--name-only", "HEAD")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git ls-tree: %w", err)
	}

	var result []string
	for _, f := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		if f = strings.TrimSpace(f); f != "" {
			result = append(result, f)
		}
	}
	return result, nil
}

// authCloneURL embeds the access token into an https clone URL.
func authCloneURL(repoURL, token string) (string, error) {
	if token == "" {
		return repoURL, nil
	}
	u, err := url.Parse(repoURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("parse clone URL %q: %w", repoURL, err)
	}
	u.User = url.UserPassword("oauth2", token)
	return u.String(), nil
}

func redactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "***")
}

var skippedDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
	".next":        true,
	"__pycache__":  true,
}

var skippedFiles = map[string]bool{
	"package-lock.json": true,
	"yarn.lock":         true,
	"pnpm-lock.yaml":    true,
	"go.sum":            true,
	"Cargo.lock":        true,
	"composer.lock":     true,
	"Gemfile.lock":      true,
}

var skippedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".svg": true, ".webp": true, ".pdf": true, ".zip": true, ".gz": true,
	".tar": true, ".woff": true, ".woff2": true, ".ttf": true, ".eot": true,
	".mp3": true, ".mp4": true, ".wasm": true, ".so": true, ".dylib": true,
	".exe": true, ".bin": true, ".min.js": true,
}

// indexablePath filters out binary and vendored paths before any file I/O.
func indexablePath(p string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if skippedDirs[seg] {
			return false
		}
	}
	if skippedFiles[filepath.Base(p)] {
		return false
	}
	if strings.HasSuffix(p, ".min.js") || strings.HasSuffix(p, ".min.css") {
		return false
	}
	return !skippedExtensions[strings.ToLower(filepath.Ext(p))]
}
