// Package historylog implements per-case run history and a run-level
// history ledger, grounded on original_source/fz/history.py: a
// timestamped event trace and a Java-Properties-style summary written
// into each case's result directory, plus an append-only
// .fz/history.log of every `fz` invocation exposed via `fz list
// --history`.
package historylog

import (
	"bufio"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"
)

// CaseHistory accumulates timestamped events for a single case
// execution, written out as history.txt.
type CaseHistory struct {
	lines []string
}

// NewCaseHistory starts a history trace titled by the case name.
func NewCaseHistory(caseName string) *CaseHistory {
	return &CaseHistory{lines: []string{"# " + caseName}}
}

// Append records one timestamped event.
func (h *CaseHistory) Append(message string, at time.Time) {
	h.lines = append(h.lines, fmt.Sprintf("[%s] %s", at.Format("15:04:05"), message))
}

// Write saves history.txt into dir.
func (h *CaseHistory) Write(dir string) error {
	return os.WriteFile(filepath.Join(dir, "history.txt"), []byte(strings.Join(h.lines, "\n")+"\n"), 0o644)
}

// InfoFields is the set of values recorded in a case's info.txt
// (Java-Properties-style key=value, one per line).
type InfoFields struct {
	State      string
	Calculator string
	Error      string
	Start      time.Time
	End        time.Time
	Inputs     map[string]any
	Outputs    map[string]any
}

// WriteInfoFile writes info.txt into dir, in the same key ordering the
// original writer uses: state, calc, [error], [start], [end],
// [duration], input.*, output.*.
func WriteInfoFile(dir string, f InfoFields) error {
	var b strings.Builder
	fmt.Fprintf(&b, "state=%s\n", f.State)
	fmt.Fprintf(&b, "calc=%s\n", f.Calculator)

	if f.Error != "" {
		fmt.Fprintf(&b, "error=%s\n", f.Error)
	}
	if !f.Start.IsZero() {
		fmt.Fprintf(&b, "start=%s\n", f.Start.Format(time.RFC3339))
	}
	if !f.End.IsZero() {
		fmt.Fprintf(&b, "end=%s\n", f.End.Format(time.RFC3339))
	}
	if !f.Start.IsZero() && !f.End.IsZero() {
		fmt.Fprintf(&b, "duration=%.2f\n", f.End.Sub(f.Start).Seconds())
	}

	for _, k := range sortedKeys(f.Inputs) {
		fmt.Fprintf(&b, "input.%s=%v\n", k, f.Inputs[k])
	}
	for _, k := range sortedKeys(f.Outputs) {
		fmt.Fprintf(&b, "output.%s=%v\n", k, f.Outputs[k])
	}

	return os.WriteFile(filepath.Join(dir, "info.txt"), []byte(b.String()), 0o644)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ExecutionFields is what one calculator attempt writes into a case
// directory's out.txt, err.txt and log.txt, grounded on
// original_source/fz/runners.py's per-adapter "enhanced log.txt" writer
// (command, exit code, wall times, user, hostname, OS, working directory).
type ExecutionFields struct {
	Command  string
	ExitCode int
	Start    time.Time
	End      time.Time
	WorkDir  string
	Stdout   []byte
	Stderr   []byte
}

// WriteExecutionArtifacts writes out.txt, err.txt and log.txt into dir for
// one calculator attempt. log.txt is plain key:value lines, grep-able by
// design (spec.md §6.2), not meant to be machine-parsed.
func WriteExecutionArtifacts(dir string, f ExecutionFields) error {
	if err := os.WriteFile(filepath.Join(dir, "out.txt"), f.Stdout, 0o644); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "err.txt"), f.Stderr, 0o644); err != nil {
		return err
	}

	u := "unknown"
	if cur, err := user.Current(); err == nil && cur.Username != "" {
		u = cur.Username
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "command: %s\n", f.Command)
	fmt.Fprintf(&b, "exit code: %d\n", f.ExitCode)
	fmt.Fprintf(&b, "start: %s\n", f.Start.Format(time.RFC3339))
	fmt.Fprintf(&b, "end: %s\n", f.End.Format(time.RFC3339))
	fmt.Fprintf(&b, "duration: %.3f\n", f.End.Sub(f.Start).Seconds())
	fmt.Fprintf(&b, "user: %s\n", u)
	fmt.Fprintf(&b, "hostname: %s\n", host)
	fmt.Fprintf(&b, "os: %s\n", runtime.GOOS)
	fmt.Fprintf(&b, "working directory: %s\n", f.WorkDir)

	return os.WriteFile(filepath.Join(dir, "log.txt"), []byte(b.String()), 0o644)
}

// RunRecord is one entry in the run-level ledger (.fz/history.log):
// one line per `fz` invocation.
type RunRecord struct {
	Time    time.Time
	SubCmd  string
	Model   string
	Summary string
}

// LogFile is the ledger's path relative to a working directory.
const LogFile = ".fz/history.log"

// Append records one run at the end of root/LogFile, creating the
// parent directory if needed.
func Append(root string, r RunRecord) error {
	path := filepath.Join(root, LogFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\t%s\t%s\n",
		r.Time.Format(time.RFC3339), r.SubCmd, r.Model, r.Summary)
	_, err = f.WriteString(line)
	return err
}

// Read parses every recorded run from root/LogFile, oldest first. A
// missing ledger yields an empty slice, not an error.
func Read(root string) ([]RunRecord, error) {
	path := filepath.Join(root, LogFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var out []RunRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "\t", 4)
		if len(parts) != 4 {
			continue
		}
		t, err := time.Parse(time.RFC3339, parts[0])
		if err != nil {
			continue
		}
		out = append(out, RunRecord{Time: t, SubCmd: parts[1], Model: parts[2], Summary: parts[3]})
	}
	return out, scanner.Err()
}
