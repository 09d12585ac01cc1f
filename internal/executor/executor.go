package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"thumbcache/internal/command"
	"thumbcache/internal/logging"
)

// DefaultTimeout bounds one external thumbnailer run. Generous on purpose;
// misbehaving thumbnailers are killed rather than hung on forever.
const DefaultTimeout = 30 * time.Second

// Request describes one generation attempt.
type Request struct {
	// Invocation is the expanded, token-free command.
	Invocation command.Invocation
	// SourcePath is the file being thumbnailed; the sandbox binds it
	// read-only.
	SourcePath string
	// OutputPath is where the thumbnailer must write; its directory is
	// the sandbox's only writable bind.
	OutputPath string
}

// Executor runs a single thumbnailer invocation. Implementations differ
// only in confinement; the result contract is shared.
type Executor interface {
	Execute(ctx context.Context, req Request) error
}

// New returns the best available Executor: sandboxed when bwrap is on
// PATH, direct otherwise. The fallback is logged so it is observable.
func New(timeout time.Duration) Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if bwrap, err := exec.LookPath("bwrap"); err == nil {
		logging.Debug("executor: sandboxing thumbnailers with %s", bwrap)
		return &Sandboxed{BwrapPath: bwrap, Timeout: timeout}
	}
	logging.Warn("executor: bwrap not found, running thumbnailers without a sandbox")
	return &Direct{Timeout: timeout}
}

// Direct runs the invocation as a plain child process.
type Direct struct {
	Timeout time.Duration
}

// Execute implements Executor.
func (d *Direct) Execute(ctx context.Context, req Request) error {
	return run(ctx, d.Timeout, req, req.Invocation.Program, req.Invocation.Args)
}

// Sandboxed wraps the invocation in a bubblewrap sandbox.
type Sandboxed struct {
	BwrapPath string
	Timeout   time.Duration
}

// Execute implements Executor.
func (s *Sandboxed) Execute(ctx context.Context, req Request) error {
	args, err := s.bwrapArgs(req)
	if err != nil {
		return err
	}
	return run(ctx, s.Timeout, req, s.BwrapPath, args)
}

// bwrapArgs assembles the sandbox argument list: read-only system binds,
// a writable bind for the output directory, a read-only bind for the
// source file, and no shared namespaces.
func (s *Sandboxed) bwrapArgs(req Request) ([]string, error) {
	args := []string{
		"--ro-bind", "/usr", "/usr",
		"--ro-bind-try", "/etc/ld.so.cache", "/etc/ld.so.cache",
		"--ro-bind-try", "/etc/alternatives", "/etc/alternatives",
	}

	// Usr-merged distributions symlink the top-level directories into
	// /usr; replicate whichever form the host has.
	for _, dir := range []string{"bin", "lib64", "lib", "sbin"} {
		abs := "/" + dir
		meta, err := os.Lstat(abs)
		if err != nil {
			continue
		}
		if meta.Mode()&os.ModeSymlink != 0 {
			args = append(args, "--symlink", "/usr/"+dir, abs)
		} else {
			args = append(args, "--ro-bind", abs, abs)
		}
	}

	outDir := filepath.Dir(req.OutputPath)
	if outDir == "" || outDir == "." {
		return nil, fmt.Errorf("output path %q has no parent directory", req.OutputPath)
	}

	args = append(args,
		"--proc", "/proc",
		"--dev", "/dev",
		"--chdir", "/",
		"--setenv", "GIO_USE_VFS", "local",
		"--unshare-all",
		"--die-with-parent",
		"--bind", outDir, outDir,
		"--ro-bind", req.SourcePath, req.SourcePath,
		"--",
		req.Invocation.Program,
	)
	return append(args, req.Invocation.Args...), nil
}

// run executes the process and enforces the result contract.
func run(ctx context.Context, timeout time.Duration, req Request, program string, args []string) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, program, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// Thumbnailers fork helpers. On expiry the whole process group must
	// die, and Wait must not hang on pipes a surviving grandchild still
	// holds.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
	cmd.WaitDelay = 3 * time.Second

	logging.Debug("executor: running %s", req.Invocation)
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("thumbnailer timed out: %w", ctx.Err())
		}
		if ctx.Err() != nil {
			return fmt.Errorf("thumbnailer canceled: %w", ctx.Err())
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("thumbnailer failed: %w: %s", err, firstLine(msg))
		}
		return fmt.Errorf("thumbnailer failed: %w", err)
	}

	// A zero exit with no output is still a failure.
	info, err := os.Stat(req.OutputPath)
	if err != nil {
		return fmt.Errorf("thumbnailer exited cleanly but wrote no output: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("thumbnailer exited cleanly but output %s is empty", req.OutputPath)
	}
	return nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
