// Package prepare materializes one case directory from a template input
// and a variable combination, wiring together internal/template
// (substitution and expression evaluation) and internal/hash (manifest
// digesting) -- spec.md §4's "Case preparation" pipeline.
package prepare

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/Funz/fz-sub001/internal/evaluator"
	"github.com/Funz/fz-sub001/internal/fzcase"
	"github.com/Funz/fz-sub001/internal/hash"
	"github.com/Funz/fz-sub001/internal/model"
	"github.com/Funz/fz-sub001/internal/template"
)

// Result is what Materialize produces for one case.
type Result struct {
	Dir      string
	Manifest []hash.Entry
	Warnings []string
}

// Materialize copies inputRoot into destDir, applying variable
// substitution and formula evaluation to every UTF-8 text file (binary
// files are copied unchanged, per spec.md §4.1's "binary files are
// skipped silently" discovery rule extended here to substitution), then
// writes the .fz_hash manifest.
func Materialize(ctx context.Context, m model.Model, inputRoot, destDir string, c fzcase.Case, algo hash.Algo) (Result, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Result{}, err
	}

	combo := fzcase.ComboAsStrings(c.Combo)
	factory := evaluator.ForInterpreter(m.Interpreter)

	// A single-file inputRoot has no directory to walk: filepath.Rel would
	// otherwise resolve its own relative path to ".", which would collide
	// the materialized file's target with destDir itself.
	if rootInfo, statErr := os.Stat(inputRoot); statErr == nil && !rootInfo.IsDir() {
		target := filepath.Join(destDir, filepath.Base(inputRoot))
		warnings, err := materializeFile(ctx, m, inputRoot, target, rootInfo, combo, c.Combo, factory)
		if err != nil {
			return Result{}, err
		}
		entries, err := hash.Digest(destDir, algo)
		if err != nil {
			return Result{}, err
		}
		if err := hash.WriteManifest(destDir, entries); err != nil {
			return Result{}, err
		}
		return Result{Dir: destDir, Manifest: entries, Warnings: warnings}, nil
	}

	var warnings []string
	err := filepath.Walk(inputRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(inputRoot, path)
		if err != nil {
			return err
		}
		target := filepath.Join(destDir, rel)
		if info.IsDir() {
			if rel == "." {
				return nil
			}
			return os.MkdirAll(target, 0o755)
		}

		fileWarnings, err := materializeFile(ctx, m, path, target, info, combo, c.Combo, factory)
		warnings = append(warnings, fileWarnings...)
		return err
	})
	if err != nil {
		return Result{}, err
	}

	entries, err := hash.Digest(destDir, algo)
	if err != nil {
		return Result{}, err
	}
	if err := hash.WriteManifest(destDir, entries); err != nil {
		return Result{}, err
	}

	return Result{Dir: destDir, Manifest: entries, Warnings: warnings}, nil
}

// materializeFile substitutes variables and evaluates formulas in one
// input file (copying it unchanged if it isn't valid UTF-8), writing the
// result to target. Shared between the directory walk and the
// single-file-inputRoot shortcut above.
func materializeFile(ctx context.Context, m model.Model, path, target string, info os.FileInfo, combo map[string]string, rawCombo map[string]any, factory evaluator.Factory) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if !utf8.Valid(data) {
		return nil, copyBytes(data, target, info.Mode())
	}

	var warnings []string
	text := string(data)
	substituted, subWarnings := template.Substitute(m, text, combo)
	warnings = append(warnings, subWarnings...)

	evaluated, evalWarnings, err := template.EvaluateFormulas(ctx, m, substituted, rawCombo, factory)
	if err != nil {
		return warnings, err
	}
	warnings = append(warnings, evalWarnings...)

	return warnings, os.WriteFile(target, []byte(evaluated), info.Mode())
}

func copyBytes(data []byte, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, bytes.NewReader(data))
	return err
}
