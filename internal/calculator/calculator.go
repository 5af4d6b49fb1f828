// Package calculator implements the Calculator abstraction of spec.md §5:
// a tagged union over the execution backends fz can dispatch a case to
// (local shell, SSH, SLURM, Funz TCP, cache lookup), and the narrow
// Adapter contract every backend satisfies.
package calculator

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies which backend a Spec addresses.
type Kind string

const (
	KindLocal Kind = "local"
	KindSSH   Kind = "ssh"
	KindSlurm Kind = "slurm"
	KindFunz  Kind = "funz"
	KindCache Kind = "cache"
)

// Spec is one calculator entry from a model's calculator list, after
// parsing a URI like "sh://", "ssh://user@host", "slurm://host?partition=x",
// "funz://host:port", or "cache:///path/to/previous/run".
type Spec struct {
	Kind Kind
	Raw  string // original URI, retained for error messages and logs

	Host string
	Port int
	User string

	// Command is the per-calculator command embedded in the URI itself
	// (spec.md §3's "sh://<optional command>", ".../<command>" for ssh,
	// ".../<script>" for slurm, ".../<code>" for funz). Empty means the
	// caller must supply a command by another means (e.g. model.Output
	// commands reading files the calculator alone produced).
	Command string

	// Slurm
	Partition string
	Account   string

	// Cache
	CachePath string
}

// AttemptStatus is the outcome of a single Adapter.Execute call, per
// spec.md §6's status taxonomy.
type AttemptStatus string

const (
	StatusDone        AttemptStatus = "done"
	StatusFailed      AttemptStatus = "failed"
	StatusTimeout     AttemptStatus = "timeout"
	StatusError       AttemptStatus = "error"
	StatusInterrupted AttemptStatus = "interrupted"
)

// AttemptResult is what an Adapter returns for one execution attempt.
type AttemptResult struct {
	Status   AttemptStatus
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Err      error
	Duration time.Duration
}

// Adapter is the narrow contract every calculator backend implements.
// Execute runs the model's commands against the prepared case directory
// (already materialized with substituted input files) and is expected to
// leave output artifacts in workingDir for the template output extractor
// to read back.
type Adapter interface {
	// Execute runs model on the case rooted at workingDir, whose
	// top-level entries are inputFilenames (in .fz_hash manifest order).
	// timeout <= 0 means no deadline beyond ctx.
	Execute(ctx context.Context, workingDir string, inputFilenames []string, command string, timeout time.Duration) (AttemptResult, error)

	// ID is a stable, human-readable identifier for logs and round-robin
	// selection, e.g. "sh://" or "ssh://calc1.cluster.local".
	ID() string

	// Close releases any held resources (SSH connections, sockets).
	Close() error
}

// RemoteStager is implemented by adapters whose Execute runs against a
// filesystem distinct from the local case directory (currently
// SSHAdapter). The case runner is the single authority that moves files
// (DESIGN NOTES §9): it calls Stage before Execute and Collect, then
// Cleanup, afterward. Adapters that run locally (LocalAdapter) don't need
// this, since workingDir and the case directory are already the same
// filesystem.
type RemoteStager interface {
	// Stage creates a temp working directory on the adapter's backend and
	// uploads filenames from localDir into it, returning the temp
	// directory's path in the adapter's own namespace (e.g. a remote path
	// for SSH). That path is what the runner then passes to Execute as
	// workingDir.
	Stage(ctx context.Context, localDir string, filenames []string) (workingDir string, err error)

	// Collect copies every file Execute produced in workingDir back into
	// localDir, the permanent case directory.
	Collect(ctx context.Context, workingDir, localDir string) error

	// Cleanup removes the temp working directory created by Stage.
	Cleanup(ctx context.Context, workingDir string) error
}

// NewAdapter constructs the concrete Adapter for spec, dialing/connecting
// eagerly so pool registration fails fast on unreachable backends.
func NewAdapter(ctx context.Context, spec Spec) (Adapter, error) {
	switch spec.Kind {
	case KindLocal:
		return NewLocalAdapter(spec), nil
	case KindSSH:
		return NewSSHAdapter(ctx, spec)
	case KindSlurm:
		return NewSlurmAdapter(ctx, spec)
	case KindFunz:
		return NewFunzAdapter(ctx, spec)
	case KindCache:
		return NewCacheAdapter(spec), nil
	default:
		return nil, fmt.Errorf("calculator: unknown kind %q for %s", spec.Kind, spec.Raw)
	}
}

// IsCache reports whether spec is a cache:// lookup, which the scheduler
// excludes from the worker-pool sizing formula (spec.md §7.1).
func (s Spec) IsCache() bool {
	return s.Kind == KindCache
}
