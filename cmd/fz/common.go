// Command fz is the parametric computation driver of spec.md §6.1: a
// thin cobra CLI over internal/orchestrate, internal/design, and the
// on-disk .fz/ discovery layout. Wiring style (single root command built
// in main, subcommands returning an error from RunE, SilenceErrors plus a
// manual exit-code dance so deferred cleanup always runs) is grounded on
// cli/main.go's runCommand/newCancellableContext discipline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/Funz/fz-sub001/internal/calculator"
	"github.com/Funz/fz-sub001/internal/fzcase"
	"github.com/Funz/fz-sub001/internal/model"
)

// sortAny sorts a slice of string-valued any's lexicographically, for
// columns (like discovered variable names) with no other natural order.
func sortAny(values []any) []any {
	sort.Slice(values, func(i, j int) bool {
		return fmt.Sprint(values[i]) < fmt.Sprint(values[j])
	})
	return values
}

// newCancellableContext cancels on SIGINT/SIGTERM so Ctrl+C propagates
// through the scheduler and any in-flight adapter calls, grounded on
// cli/main.go's newCancellableContext.
func newCancellableContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		cancel()
	}()

	return ctx, cancel
}

// resolveModel loads and parses a model descriptor given the "-m" CLI
// argument, typed JSON-or-path-or-alias per spec.md §6.1.
func resolveModel(arg string) (model.Model, []string, error) {
	raw, warnings, err := model.LoadArg("models", arg)
	if err != nil {
		return model.Model{}, warnings, fmt.Errorf("loading model %q: %w", arg, err)
	}
	m, err := model.Parse(raw)
	if err != nil {
		return model.Model{}, warnings, fmt.Errorf("parsing model %q: %w", arg, err)
	}
	return m, warnings, nil
}

// resolveAssignment loads a "-v" variable assignment (or "-v" ranges for
// design) and returns a deterministic iteration order alongside it. JSON
// object key order is not recoverable from a decoded map, so names fall
// back to lexicographic order; this only affects case-name formatting,
// never which cases get enumerated.
func resolveAssignment(kind, arg string) (names []string, assignment map[string]any, warnings []string, err error) {
	raw, warnings, err := model.LoadArg(kind, arg)
	if err != nil {
		return nil, nil, warnings, fmt.Errorf("loading %s %q: %w", kind, arg, err)
	}
	delete(raw, "__output_order__")
	return fzcase.SortedNames(raw), raw, warnings, nil
}

// splitCalculators splits a comma-separated "-c" argument into trimmed,
// non-empty tokens, defaulting to a bare local shell calculator when the
// argument is blank.
func splitCalculators(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return []string{"sh://"}
	}
	var tokens []string
	for _, token := range strings.Split(csv, ",") {
		token = strings.TrimSpace(token)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return []string{"sh://"}
	}
	return tokens
}

// resolveCalculators expands a comma-separated "-c" argument into parsed
// calculator.Spec values. Each token is either a direct URI (contains
// "://") or an alias name resolved via .fz/calculators/<name>.json, whose
// "url" (or "uri") field supplies the URI and whose optional "commands" object may
// override the command for the current model id (spec.md §6.2's
// "calculator aliases with optional per-model command table").
func resolveCalculators(csv, modelID string) ([]calculator.Spec, error) {
	var specs []calculator.Spec
	for _, token := range splitCalculators(csv) {
		uri := token
		var commands map[string]any
		if !strings.Contains(token, "://") {
			raw, _, err := model.LoadArg("calculators", token)
			if err != nil {
				return nil, fmt.Errorf("resolving calculator alias %q: %w", token, err)
			}
			u, _ := raw["url"].(string)
			if u == "" {
				u, _ = raw["uri"].(string)
			}
			if u == "" {
				return nil, fmt.Errorf("calculator alias %q has no url", token)
			}
			uri = u
			commands, _ = raw["commands"].(map[string]any)
		}

		spec, err := calculator.ParseSpec(uri)
		if err != nil {
			return nil, err
		}
		if modelID != "" && commands != nil {
			if cmd, ok := commands[modelID].(string); ok && cmd != "" {
				spec.Command = cmd
			}
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// firstCommand returns the first non-empty Command among specs, the
// command the runner will invoke on whichever instance a case lands on.
// spec.md's calculator URIs embed a command per-instance, but
// runner.Options carries a single command per run: a pool is expected to
// be homogeneous in what it executes, differing only in where, so the
// first declared command wins. See DESIGN.md for the tradeoff.
func firstCommand(specs []calculator.Spec) string {
	for _, s := range specs {
		if s.Command != "" {
			return s.Command
		}
	}
	return ""
}

// loadAlgorithmSource resolves the "-a" argument to algorithm source
// text plus its interpreter name ("python" or "r"), per spec.md §6.2's
// "./.fz/algorithms/<name>.{py,R,...}".
func loadAlgorithmSource(arg string) (code, interpreter string, err error) {
	candidates := []string{arg}
	if !filepath.IsAbs(arg) {
		home, _ := os.UserHomeDir()
		for _, root := range []string{".fz", filepath.Join(home, ".fz")} {
			candidates = append(candidates,
				filepath.Join(root, "algorithms", arg+".py"),
				filepath.Join(root, "algorithms", arg+".R"),
			)
		}
	}

	for _, path := range candidates {
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			continue
		}
		if strings.HasSuffix(path, ".R") {
			return string(data), "r", nil
		}
		return string(data), "python", nil
	}

	return "", "", fmt.Errorf("algorithm %q not found as a path or under .fz/algorithms", arg)
}

// modelID extracts the model's declared "id" for calculator per-model
// command table lookups; empty if the descriptor doesn't carry one.
func modelID(m model.Model) string {
	id, _ := m.Raw["id"].(string)
	return id
}
