package engine

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"
)

// progressRe matches whisper-cli's "--print-progress" stderr lines,
// e.g. "whisper_print_progress_callback: progress =  15%".
var progressRe = regexp.MustCompile(`progress\s*=\s*(\d+)%`)

// CLIEngine runs transcriptions through a whisper-cli subprocess, one
// process per Transcribe call. Load validates the model file up front so
// misconfiguration surfaces as a load failure rather than mid-job.
type CLIEngine struct {
	// Bin is the whisper-cli binary; empty means discover on PATH at use.
	Bin string
	// ModelDir holds ggml model files named ggml-<model>.bin.
	ModelDir string
	// Threads passed to the engine; 0 lets the engine decide.
	Threads int
}

// NewCLIEngine constructs a subprocess engine. The binary is not required
// to exist yet; a missing binary surfaces per-job as a load failure, the
// same way a missing runtime surfaces at request time elsewhere.
func NewCLIEngine(bin, modelDir string, threads int) *CLIEngine {
	return &CLIEngine{Bin: bin, ModelDir: modelDir, Threads: threads}
}

// ModelPath returns the on-disk path for a model name.
func (e *CLIEngine) ModelPath(model string) string {
	return filepath.Join(e.ModelDir, "ggml-"+model+".bin")
}

// resolveBin returns the binary path, discovering whisper-cli on PATH when
// unset.
func (e *CLIEngine) resolveBin() (string, error) {
	if e.Bin != "" {
		return e.Bin, nil
	}
	p, err := exec.LookPath("whisper-cli")
	if err != nil {
		return "", fmt.Errorf("whisper-cli not found on PATH: %w", err)
	}
	return p, nil
}

func (e *CLIEngine) Load(ctx context.Context, model string, device int) (Session, error) {
	bin, err := e.resolveBin()
	if err != nil {
		return nil, err
	}
	mp := e.ModelPath(model)
	fi, err := os.Stat(mp)
	if err != nil {
		return nil, fmt.Errorf("model file %s: %w", mp, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("model path %s is a directory", mp)
	}
	return &cliSession{bin: bin, modelPath: mp, device: device, threads: e.Threads}, nil
}

type cliSession struct {
	bin       string
	modelPath string
	device    int
	threads   int

	mu     sync.Mutex
	closed bool
}

// buildArgs assembles the whisper-cli invocation for one request.
func (s *cliSession) buildArgs(req TranscribeRequest) []string {
	args := []string{
		"-m", s.modelPath,
		"-f", req.Input,
		"-nt",
		"--print-progress",
	}
	if lang := strings.TrimSpace(req.Language); lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	}
	if s.threads > 0 {
		args = append(args, "-t", strconv.Itoa(s.threads))
	}
	if s.device < 0 {
		args = append(args, "-ng")
	}
	return args
}

func (s *cliSession) Transcribe(ctx context.Context, req TranscribeRequest, onProgress func(pct int)) (Result, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Result{}, fmt.Errorf("session closed")
	}
	s.mu.Unlock()

	start := time.Now()
	cmd := exec.CommandContext(ctx, s.bin, s.buildArgs(req)...)
	if s.device >= 0 {
		cmd.Env = append(os.Environ(), "CUDA_VISIBLE_DEVICES="+strconv.Itoa(s.device))
	}
	// Give the process a moment to exit on SIGTERM before the hard kill.
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = 2 * time.Second

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return Result{}, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return Result{}, fmt.Errorf("start %s: %w", filepath.Base(s.bin), err)
	}

	// Parse progress lines off stderr while the process runs. Keep a tail
	// for error context.
	var tail []string
	sc := bufio.NewScanner(stderr)
	for sc.Scan() {
		line := sc.Text()
		if m := progressRe.FindStringSubmatch(line); m != nil {
			if pct, perr := strconv.Atoi(m[1]); perr == nil && onProgress != nil {
				onProgress(pct)
			}
			continue
		}
		tail = append(tail, line)
		if len(tail) > 20 {
			tail = tail[1:]
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, fmt.Errorf("%s: %w: %s", filepath.Base(s.bin), err, strings.TrimSpace(strings.Join(tail, " | ")))
	}
	if onProgress != nil {
		onProgress(100)
	}
	return Result{
		Text:     strings.TrimSpace(stdout.String()),
		Language: req.Language,
		Duration: time.Since(start),
	}, nil
}

// Close marks the session unusable. The CLI engine holds no device memory
// between calls; actual reclamation happens when each subprocess exits.
func (s *cliSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
