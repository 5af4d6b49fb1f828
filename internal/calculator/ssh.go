package calculator

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/Funz/fz-sub001/internal/invariant"
)

// SSHAdapter runs a case's command on a remote host over a long-lived
// SSH connection, grounded on core/decorator/ssh_session.go: one
// *ssh.Client dialed at construction, one *ssh.Session per Execute call
// (sessions are not reusable across commands in the golang.org/x/crypto/ssh
// API).
type SSHAdapter struct {
	client *ssh.Client
	spec   Spec
}

// NewSSHAdapter dials spec's host eagerly, authenticating only through
// the SSH agent at SSH_AUTH_SOCK; there is no key-file or password
// authentication. FZ_SSH_AUTO_ACCEPT_HOSTKEYS controls host key
// strictness (see getHostKeyCallback).
func NewSSHAdapter(ctx context.Context, spec Spec) (*SSHAdapter, error) {
	var authMethods []ssh.AuthMethod
	if a := sshAgentAuth(); a != nil {
		authMethods = append(authMethods, a)
	}
	if len(authMethods) == 0 {
		return nil, fmt.Errorf("calculator: no SSH auth method available for %s (set SSH_AUTH_SOCK)", spec.Raw)
	}

	hostKeyCallback := getHostKeyCallback()

	config := &ssh.ClientConfig{
		User:            resolveUser(spec.User),
		Auth:            authMethods,
		HostKeyCallback: hostKeyCallback,
		Timeout:         15 * time.Second,
	}

	addr := fmt.Sprintf("%s:%d", spec.Host, spec.Port)
	client, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("calculator: ssh dial %s: %w", addr, err)
	}

	return &SSHAdapter{client: client, spec: spec}, nil
}

func (a *SSHAdapter) ID() string {
	return fmt.Sprintf("ssh://%s@%s:%d", resolveUser(a.spec.User), a.spec.Host, a.spec.Port)
}

func (a *SSHAdapter) Close() error {
	return a.client.Close()
}

// Execute runs command against an already-populated remote directory.
// The case runner's Stage call pushes the case's input files into
// workingDir beforehand and Collect harvests outputs afterward; Execute
// itself only runs the command remotely, exactly like LocalAdapter.Execute
// runs it in a local cwd.
func (a *SSHAdapter) Execute(ctx context.Context, workingDir string, inputFilenames []string, command string, timeout time.Duration) (AttemptResult, error) {
	invariant.Precondition(command != "", "command cannot be empty")

	runCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	sess, err := a.client.NewSession()
	if err != nil {
		return AttemptResult{Status: StatusError, Err: err, Duration: time.Since(start)}, nil
	}
	defer func() { _ = sess.Close() }()

	cmd := fmt.Sprintf("cd %s && %s", shellQuote(workingDir), command)

	var stdout, stderr bytes.Buffer
	sess.Stdout = &stdout
	sess.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- sess.Run(cmd) }()

	select {
	case <-runCtx.Done():
		terminateSSHThenKill(sess, done)
		return AttemptResult{
			Status:   StatusTimeout,
			ExitCode: -1,
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
			Err:      runCtx.Err(),
			Duration: time.Since(start),
		}, nil

	case err := <-done:
		exitCode := 0
		status := StatusDone
		if err != nil {
			if exitErr, ok := err.(*ssh.ExitError); ok {
				exitCode = exitErr.ExitStatus()
			} else {
				exitCode = 1
			}
			status = StatusFailed
		}
		return AttemptResult{
			Status:   status,
			ExitCode: exitCode,
			Stdout:   stdout.Bytes(),
			Stderr:   stderr.Bytes(),
			Duration: time.Since(start),
		}, nil
	}
}

// terminateSSHThenKill signals the remote process with SIGTERM, gives it
// terminationGrace to exit on its own, and only then escalates to SIGKILL,
// mirroring LocalAdapter's terminateThenKill (spec.md §4.5).
func terminateSSHThenKill(sess *ssh.Session, done <-chan error) {
	_ = sess.Signal(ssh.SIGTERM)
	select {
	case <-done:
	case <-time.After(terminationGrace):
		_ = sess.Signal(ssh.SIGKILL)
		<-done
	}
}

// Stage implements RemoteStager: it creates a fresh remote temp directory
// and uploads the case's input files into it, per spec.md §3 ("temp
// working directory per case") and §4.5's SSH bullet. The case runner is
// the single authority that invokes Stage/Collect/Cleanup; Execute itself
// never touches the local case directory.
func (a *SSHAdapter) Stage(ctx context.Context, localDir string, filenames []string) (string, error) {
	remoteDir, err := a.RemoteTempDir(ctx)
	if err != nil {
		return "", fmt.Errorf("staging remote working dir: %w", err)
	}
	if err := a.SyncTo(ctx, localDir, remoteDir, filenames); err != nil {
		return "", fmt.Errorf("staging remote inputs: %w", err)
	}
	return remoteDir, nil
}

// Collect implements RemoteStager: it copies every file the calculator
// produced in remoteDir back into localDir, per spec.md §4.6 step 3
// ("copy the calculator's output files from the temp working directory
// into the case directory").
func (a *SSHAdapter) Collect(ctx context.Context, remoteDir, localDir string) error {
	names, err := a.listRemoteFiles(remoteDir)
	if err != nil {
		return fmt.Errorf("listing remote outputs: %w", err)
	}
	if err := a.SyncFrom(ctx, remoteDir, localDir, names); err != nil {
		return fmt.Errorf("collecting remote outputs: %w", err)
	}
	return nil
}

// Cleanup implements RemoteStager: it removes the remote temp directory
// created by Stage, since spec.md §3 says the temp working directory is
// "removed on success unless debug".
func (a *SSHAdapter) Cleanup(ctx context.Context, remoteDir string) error {
	sess, err := a.client.NewSession()
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()
	return sess.Run("rm -rf " + shellQuote(remoteDir))
}

// listRemoteFiles returns every regular file under remoteDir, relative to
// remoteDir, so Collect knows what to download without the caller having
// to predict the calculator's output filenames.
func (a *SSHAdapter) listRemoteFiles(remoteDir string) ([]string, error) {
	sess, err := a.client.NewSession()
	if err != nil {
		return nil, err
	}
	defer func() { _ = sess.Close() }()

	var stdout bytes.Buffer
	sess.Stdout = &stdout
	cmd := fmt.Sprintf("cd %s && find . -type f", shellQuote(remoteDir))
	if err := sess.Run(cmd); err != nil {
		return nil, err
	}

	var names []string
	for _, line := range strings.Split(strings.TrimSpace(stdout.String()), "\n") {
		line = strings.TrimPrefix(strings.TrimSpace(line), "./")
		if line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// RemoteTempDir creates a fresh remote directory under /tmp, named with
// a random hex suffix (crypto/rand, not math/rand: directory names are
// used as a collision-avoidance key across concurrently scheduled cases
// sharing one SSH calculator, not as a security boundary, but the
// teacher's codebase has no math/rand usage anywhere to imitate and
// crypto/rand costs nothing here).
func (a *SSHAdapter) RemoteTempDir(ctx context.Context) (string, error) {
	sess, err := a.client.NewSession()
	if err != nil {
		return "", err
	}
	defer func() { _ = sess.Close() }()

	suffix := randomHex(8)
	dir := "/tmp/fz-" + suffix

	var stderr bytes.Buffer
	sess.Stderr = &stderr
	if err := sess.Run("mkdir -p " + shellQuote(dir)); err != nil {
		return "", fmt.Errorf("creating remote temp dir: %w: %s", err, stderr.String())
	}
	return dir, nil
}

// SyncTo uploads each of relPaths, taken relative to localDir, to the
// same relative path under remoteDir. Grounded on ssh_session.go's Put, which
// streams a file's bytes through "cat > path && chmod".
func (a *SSHAdapter) SyncTo(ctx context.Context, localDir, remoteDir string, relPaths []string) error {
	sess, err := a.client.NewSession()
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	var stderr bytes.Buffer
	sess.Stderr = &stderr
	if err := sess.Run("mkdir -p " + shellQuote(remoteDir)); err != nil {
		return fmt.Errorf("creating remote dir %s: %w: %s", remoteDir, err, stderr.String())
	}

	for _, rel := range relPaths {
		data, err := os.ReadFile(localDir + "/" + rel)
		if err != nil {
			return err
		}
		if err := a.putFile(data, remoteDir+"/"+rel, 0o644); err != nil {
			return fmt.Errorf("uploading %s: %w", rel, err)
		}
	}
	return nil
}

// SyncFrom downloads every file in relPaths from remoteDir into localDir.
func (a *SSHAdapter) SyncFrom(ctx context.Context, remoteDir, localDir string, relPaths []string) error {
	for _, rel := range relPaths {
		data, err := a.getFile(remoteDir + "/" + rel)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", rel, err)
		}
		if err := os.WriteFile(localDir+"/"+rel, data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (a *SSHAdapter) putFile(data []byte, remotePath string, mode os.FileMode) error {
	sess, err := a.client.NewSession()
	if err != nil {
		return err
	}
	defer func() { _ = sess.Close() }()

	dir := remotePath[:strings.LastIndex(remotePath, "/")]
	cmd := fmt.Sprintf("mkdir -p %s && cat > %s && chmod %o %s", shellQuote(dir), shellQuote(remotePath), mode, shellQuote(remotePath))
	sess.Stdin = bytes.NewReader(data)
	return sess.Run(cmd)
}

func (a *SSHAdapter) getFile(remotePath string) ([]byte, error) {
	sess, err := a.client.NewSession()
	if err != nil {
		return nil, err
	}
	defer func() { _ = sess.Close() }()

	var stdout bytes.Buffer
	sess.Stdout = &stdout
	if err := sess.Run("cat " + shellQuote(remotePath)); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

func randomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func resolveUser(u string) string {
	if u != "" {
		return u
	}
	return os.Getenv("USER")
}

func sshAgentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil
	}
	client := agent.NewClient(conn)
	return ssh.PublicKeysCallback(client.Signers)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "'\\''") + "'"
}

// getHostKeyCallback accepts any host key only when
// FZ_SSH_AUTO_ACCEPT_HOSTKEYS is "1" or "true" (the spellings
// config.FromEnv reads); otherwise, including when it is unset, it
// requires a strict match against ~/.ssh/known_hosts, and an unreadable
// known_hosts file rejects every host.
func getHostKeyCallback() ssh.HostKeyCallback {
	if v := os.Getenv("FZ_SSH_AUTO_ACCEPT_HOSTKEYS"); v == "1" || v == "true" {
		return ssh.InsecureIgnoreHostKey()
	}

	path := os.ExpandEnv("$HOME/.ssh/known_hosts")
	callback, err := loadKnownHosts(path)
	if err != nil {
		return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
			return fmt.Errorf("calculator: cannot verify host key for %s: %w", hostname, err)
		}
	}
	return callback
}

func loadKnownHosts(path string) (ssh.HostKeyCallback, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	known := make(map[string]ssh.PublicKey)
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 3 {
			continue
		}
		keyBytes, err := base64.StdEncoding.DecodeString(parts[2])
		if err != nil {
			continue
		}
		pubKey, err := ssh.ParsePublicKey(keyBytes)
		if err != nil {
			continue
		}
		known[parts[0]+":"+parts[1]] = pubKey
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		lookup := hostname + ":" + key.Type()
		knownKey, ok := known[lookup]
		if !ok {
			return fmt.Errorf("host key not found in known_hosts: %s", hostname)
		}
		if !bytes.Equal(key.Marshal(), knownKey.Marshal()) {
			return fmt.Errorf("host key mismatch for %s", hostname)
		}
		return nil
	}, nil
}
