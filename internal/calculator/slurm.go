package calculator

import (
	"context"
	"fmt"
	"time"
)

// SlurmAdapter wraps an SSHAdapter (or, for a local-cluster front-end, a
// LocalAdapter) and prefixes the case command with "srun", matching
// spec.md §5.1's description of SLURM calculators as "a transport plus a
// job-submission wrapper" rather than a distinct execution channel.
type SlurmAdapter struct {
	spec  Spec
	inner Adapter
}

// NewSlurmAdapter dials spec.Host over SSH (when given) to reach the
// cluster front-end; a host-less slurm:// spec runs srun against the
// local machine, for calculators submitted from a login node fz already
// runs on.
func NewSlurmAdapter(ctx context.Context, spec Spec) (*SlurmAdapter, error) {
	if spec.Host == "" {
		return &SlurmAdapter{spec: spec, inner: NewLocalAdapter(spec)}, nil
	}
	sshSpec := spec
	sshSpec.Kind = KindSSH
	if sshSpec.Port == 0 {
		sshSpec.Port = 22
	}
	ssh, err := NewSSHAdapter(ctx, sshSpec)
	if err != nil {
		return nil, fmt.Errorf("calculator: slurm transport to %s: %w", spec.Host, err)
	}
	return &SlurmAdapter{spec: spec, inner: ssh}, nil
}

func (a *SlurmAdapter) ID() string {
	if a.spec.Host == "" {
		return "slurm://local"
	}
	return "slurm://" + a.spec.Host
}

func (a *SlurmAdapter) Close() error {
	return a.inner.Close()
}

// Execute prefixes command with srun and the configured partition/account
// flags, then delegates to the wrapped transport.
func (a *SlurmAdapter) Execute(ctx context.Context, workingDir string, inputFilenames []string, command string, timeout time.Duration) (AttemptResult, error) {
	srun := "srun"
	if a.spec.Partition != "" {
		srun += " --partition=" + a.spec.Partition
	}
	if a.spec.Account != "" {
		srun += " --account=" + a.spec.Account
	}
	wrapped := srun + " sh -c " + shellQuote(command)
	return a.inner.Execute(ctx, workingDir, inputFilenames, wrapped, timeout)
}
