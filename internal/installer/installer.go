// Package installer implements model and algorithm install/uninstall,
// grounded on original_source/fz/installer.py: resolve a source (a
// GitHub shortname, a full GitHub URL, or a local zip/path), fetch and
// extract it, and place its definition under .fz/ (local) or the
// user's home directory (global). Uninstall removes only the installed
// <name>.json definition; files that install copied from the archive's
// accompanying .fz subdirectories (calculators and the like) are left in
// place.
package installer

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Kind distinguishes what is being installed: a model definition or an
// algorithm plugin. Both share the same zip/github resolution and
// directory-placement mechanics; only the JSON key used to name the
// resource and the subdirectory it lands in differ.
type Kind int

const (
	KindModel Kind = iota
	KindAlgorithm
)

func (k Kind) subdir() string {
	if k == KindAlgorithm {
		return "algorithms"
	}
	return "models"
}

// Result reports what install actually placed, so uninstall and the
// caller can both account for it precisely.
type Result struct {
	Name           string
	InstallPath    string
	InstalledFiles []string
}

// Install resolves source, downloads/extracts it, and places its
// definition and any accompanying .fz subdirectories (calculators,
// algorithms, ...) under the local or global .fz root.
func Install(kind Kind, source string, global bool) (Result, error) {
	root, err := fzRoot(global)
	if err != nil {
		return Result{}, err
	}
	installBase := filepath.Join(root, kind.subdir())
	if err := os.MkdirAll(installBase, 0o755); err != nil {
		return Result{}, err
	}

	tempDir, err := os.MkdirTemp("", "fz-install-")
	if err != nil {
		return Result{}, err
	}
	defer os.RemoveAll(tempDir)

	zipPath, err := fetch(source, tempDir)
	if err != nil {
		return Result{}, err
	}

	extractDir := filepath.Join(tempDir, "extract")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return Result{}, err
	}
	if err := unzip(zipPath, extractDir); err != nil {
		return Result{}, fmt.Errorf("extracting %s: %w", zipPath, err)
	}

	defPath, name, err := findDefinition(extractDir, kind)
	if err != nil {
		return Result{}, err
	}

	destJSON := filepath.Join(installBase, name+".json")
	if err := copyFile(defPath, destJSON); err != nil {
		return Result{}, fmt.Errorf("installing %s: %w", name, err)
	}

	var installedFiles []string
	fzDir := findFzDir(defPath, extractDir)
	if fzDir != "" {
		installedFiles, err = installExtraSubdirs(fzDir, root, kind.subdir())
		if err != nil {
			return Result{}, err
		}
	}

	return Result{Name: name, InstallPath: destJSON, InstalledFiles: installedFiles}, nil
}

// Uninstall removes a previously installed definition. Returns
// (false, nil) if it was never installed in that scope, matching the
// original's non-fatal "not found" behavior.
func Uninstall(kind Kind, name string, global bool) (bool, error) {
	root, err := fzRoot(global)
	if err != nil {
		return false, err
	}
	path := filepath.Join(root, kind.subdir(), name+".json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := os.Remove(path); err != nil {
		return false, fmt.Errorf("uninstalling %s: %w", name, err)
	}
	return true, nil
}

func fzRoot(global bool) (string, error) {
	if global {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".fz"), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, ".fz"), nil
}

// fetch resolves source to a local zip file path: a pre-existing local
// path is used as-is, a GitHub shortname is expanded to
// github.com/Funz/fz-<name>, anything else is treated as a direct URL.
func fetch(source, tempDir string) (string, error) {
	if _, err := os.Stat(source); err == nil {
		abs, err := filepath.Abs(source)
		if err != nil {
			return "", err
		}
		return abs, nil
	}

	archiveURL := normalizeGitHubURL(source)
	resp, err := http.Get(archiveURL)
	if err != nil {
		return "", fmt.Errorf("downloading %s: %w", archiveURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading %s: status %s", archiveURL, resp.Status)
	}

	parsed, _ := url.Parse(archiveURL)
	filename := filepath.Base(parsed.Path)
	if filename == "" || filename == "." || filename == "/" {
		filename = "model.zip"
	}
	dest := filepath.Join(tempDir, filename)
	out, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("saving download: %w", err)
	}
	return dest, nil
}

// normalizeGitHubURL mirrors installer.py's normalize_github_url: a
// full github.com URL is converted to its main-branch archive link,
// anything else is treated as a bare model name under the Funz org
// convention (fz-<name>).
func normalizeGitHubURL(source string) string {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if !strings.Contains(source, "github.com") {
			return source
		}
		if strings.HasSuffix(source, ".zip") {
			return source
		}
		return strings.TrimSuffix(source, "/") + "/archive/refs/heads/main.zip"
	}

	name := source
	if !strings.HasPrefix(name, "fz-") {
		name = "fz-" + name
	}
	return fmt.Sprintf("https://github.com/Funz/%s/archive/refs/heads/main.zip", name)
}

func unzip(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		target := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(target, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("illegal file path in archive: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		src, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, f.Mode())
		if err != nil {
			src.Close()
			return err
		}
		_, err = io.Copy(out, src)
		src.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// findDefinition locates the resource's JSON definition inside the
// extracted tree: first a file named <kind>.json (model.json or
// algorithm.json) anywhere in the tree, in walk order (simple
// single-resource zips, usually under one top-level directory), else the
// first <top>/.fz/<subdir>/*.json (full fz repository layout), returning
// its path and its declared "id".
func findDefinition(extractDir string, kind Kind) (path string, name string, err error) {
	var found string

	filepath.WalkDir(extractDir, func(p string, d os.DirEntry, walkErr error) error {
		if walkErr != nil || found != "" || d.IsDir() {
			return nil
		}
		if filepath.Base(p) == strings.TrimSuffix(kind.subdir(), "s")+".json" {
			found = p
		}
		return nil
	})

	if found == "" {
		fzGlob := filepath.Join(extractDir, "*", ".fz", kind.subdir(), "*.json")
		matches, _ := filepath.Glob(fzGlob)
		if len(matches) > 0 {
			found = matches[0]
		}
	}

	if found == "" {
		return "", "", fmt.Errorf("no %s definition found in extracted archive at %s", kind.subdir(), extractDir)
	}

	data, err := os.ReadFile(found)
	if err != nil {
		return "", "", fmt.Errorf("reading definition %s: %w", found, err)
	}
	var def map[string]any
	if err := json.Unmarshal(data, &def); err != nil {
		return "", "", fmt.Errorf("parsing definition %s: %w", found, err)
	}
	id, _ := def["id"].(string)
	if id == "" {
		return "", "", fmt.Errorf("definition %s has no 'id' field", found)
	}
	return found, id, nil
}

// findFzDir locates the .fz directory accompanying a found definition
// file, so its sibling subdirectories (calculators, formulas, ...) can
// also be installed.
func findFzDir(defPath, extractDir string) string {
	dir := filepath.Dir(defPath)
	for dir != extractDir && dir != "." && dir != string(os.PathSeparator) {
		if filepath.Base(dir) == ".fz" {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// installExtraSubdirs copies every subdirectory of fzDir except
// skipSubdir (already installed as the primary definition) into
// installRoot, marking shell scripts executable the way the original
// does for downloaded calculator/algorithm scripts.
func installExtraSubdirs(fzDir, installRoot, skipSubdir string) ([]string, error) {
	entries, err := os.ReadDir(fzDir)
	if err != nil {
		return nil, err
	}

	var installed []string
	for _, e := range entries {
		if !e.IsDir() || e.Name() == skipSubdir {
			continue
		}
		src := filepath.Join(fzDir, e.Name())
		dst := filepath.Join(installRoot, e.Name())

		err := filepath.WalkDir(src, func(p string, d os.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			rel, err := filepath.Rel(src, p)
			if err != nil {
				return err
			}
			target := filepath.Join(dst, rel)
			if d.IsDir() {
				return os.MkdirAll(target, 0o755)
			}
			if err := copyFile(p, target); err != nil {
				return err
			}
			if ext := filepath.Ext(p); ext == ".sh" || ext == ".bash" || ext == ".zsh" {
				os.Chmod(target, 0o755)
			}
			relRoot, _ := filepath.Rel(installRoot, target)
			installed = append(installed, relRoot)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("installing %s: %w", e.Name(), err)
		}
	}
	return installed, nil
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
