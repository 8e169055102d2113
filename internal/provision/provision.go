// Package provision invokes the configuration-management tool against a
// target host and streams its output. The tool is an external collaborator:
// a sub-process with line-oriented logs and a terminal success/failure
// signal.
package provision

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// ansiRE strips ANSI escape sequences from tool output.
var ansiRE = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// LineFunc receives one log line from the running tool.
type LineFunc func(line string)

// Target describes the host the tool should configure.
type Target struct {
	Host    string
	Port    int
	User    string
	KeyPath string
}

// Runner wraps the external tool invocation.
type Runner struct {
	Command  string // executable, e.g. "ansible-playbook"
	Playbook string // playbook/recipe path passed as the final argument
}

// Available reports whether the configured tool is on the PATH.
func (r *Runner) Available() bool {
	_, err := exec.LookPath(r.Command)
	return err == nil
}

// Run executes the tool against the target, streaming output line-by-line
// through onLine. The exit status is the terminal success/failure signal.
func (r *Runner) Run(ctx context.Context, target Target, onLine LineFunc) error {
	args := []string{
		"-i", fmt.Sprintf("%s:%d,", target.Host, target.Port),
		"-u", target.User,
	}
	if target.KeyPath != "" {
		args = append(args, "--private-key", target.KeyPath)
	}
	args = append(args, r.Playbook)

	cmd := exec.CommandContext(ctx, r.Command, args...)
	cmd.Env = append(os.Environ(), "ANSIBLE_FORCE_COLOR=0")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%s: stdout pipe: %w", r.Command, err)
	}
	cmd.Stderr = cmd.Stdout // merge stderr into stdout

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%s: %w", r.Command, err)
	}

	// Stream output, keeping a tail for error context.
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 256*1024), 256*1024)
	var lastLines []string
	for scanner.Scan() {
		line := ansiRE.ReplaceAllString(scanner.Text(), "")
		lastLines = append(lastLines, line)
		if len(lastLines) > 50 {
			lastLines = lastLines[len(lastLines)-50:]
		}
		if onLine != nil {
			onLine(line)
		}
	}

	if err := cmd.Wait(); err != nil {
		tail := strings.Join(lastLines, "\n")
		return fmt.Errorf("%s against %s: %w\n%s", r.Command, target.Host, err, tail)
	}
	return nil
}
