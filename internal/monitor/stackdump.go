package monitor

import (
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// stackDumper abstracts the external-debugger stack dump so tests can
// substitute a fake instead of shelling out to gdb.
type stackDumper interface {
	// Dump returns the condensed set of frame lines worth logging, or
	// an error if the debugger is unavailable.
	Dump() (string, error)
}

// frameLine matches a gdb "#N  0x... in func () at file:line" frame,
// keeping only lines that name a function and a source line, dropping
// header/footer noise from the raw backtrace.
var frameLine = regexp.MustCompile(` in .+:\d+$`)

// gdbStackDumper attaches gdb to the current process in batch mode and
// asks for a backtrace of every thread.
type gdbStackDumper struct{}

func (gdbStackDumper) Dump() (string, error) {
	path, err := exec.LookPath("gdb")
	if err != nil {
		return "", fmt.Errorf("monitor: gdb not found: %w", err)
	}

	pid := os.Getpid()
	cmd := exec.Command(path, "-batch", "-p", fmt.Sprintf("%d", pid), "-ex", "thread apply all bt")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("monitor: gdb invocation failed: %w", err)
	}

	return filterFrames(string(out)), nil
}

func filterFrames(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		if frameLine.MatchString(line) {
			kept = append(kept, strings.TrimSpace(line))
		}
	}
	return strings.Join(kept, " | ")
}
