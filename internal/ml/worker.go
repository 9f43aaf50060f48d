package ml

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed predict_worker.py
var workerScript []byte

const (
	workerScriptName = "predict_worker.py"
	maxWorkerLine    = 1 << 20
	stderrTailSize   = 4096
	workerStopGrace  = 2 * time.Second
	noFeaturesArg    = "-"
)

// WorkerConfig describes how to launch the inference worker.
type WorkerConfig struct {
	Interpreter string
	// Script overrides the embedded worker script.
	Script       string
	ModelPath    string
	FeaturesPath string // empty when the feature list is read natively
	StartTimeout time.Duration
}

type workerRequest struct {
	Columns []string  `json:"columns"`
	Row     []float64 `json:"row"`
}

type workerResponse struct {
	Features   []string `json:"features"`
	Prediction *float64 `json:"prediction"`
	Error      string   `json:"error,omitempty"`
}

// PythonWorker keeps one interpreter process alive with the estimator loaded and
// serializes requests over its stdin/stdout. A worker that times out or breaks
// the protocol is killed and started again on the next call.
type PythonWorker struct {
	config WorkerConfig
	tmpDir string

	mu     sync.Mutex
	proc   *workerProcess
	closed bool
}

type workerProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	lines  chan []byte
	quit   chan struct{}
	done   chan struct{}
	stderr *tailBuffer
}

// NewPythonWorker prepares a worker without starting it.
func NewPythonWorker(config WorkerConfig) (*PythonWorker, error) {
	w := &PythonWorker{config: config}
	if w.config.Script == "" {
		dir, err := os.MkdirTemp("", "houseprice-worker-")
		if err != nil {
			return nil, fmt.Errorf("create worker dir: %w", err)
		}
		script := filepath.Join(dir, workerScriptName)
		if err := os.WriteFile(script, workerScript, 0o755); err != nil {
			os.RemoveAll(dir)
			return nil, fmt.Errorf("write worker script: %w", err)
		}
		w.tmpDir = dir
		w.config.Script = script
	}
	return w, nil
}

// Start launches the worker and returns the feature names it loaded, if any.
func (w *PythonWorker) Start(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errors.New("worker closed")
	}
	if w.proc != nil {
		return nil, errors.New("worker already started")
	}

	proc, features, err := w.spawn(ctx)
	if err != nil {
		return nil, err
	}
	w.proc = proc
	return features, nil
}

// Predict implements Predictor.
func (w *PythonWorker) Predict(ctx context.Context, columns []string, values []float64) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, errors.New("worker closed")
	}

	if w.proc == nil {
		log.Warn().Str("interpreter", w.config.Interpreter).Msg("restarting inference worker")
		// Bounded by StartTimeout, not by the request deadline.
		proc, _, err := w.spawn(context.WithoutCancel(ctx))
		if err != nil {
			return 0, fmt.Errorf("restart worker: %w", err)
		}
		w.proc = proc
		// Nothing was sent yet, so a caller that gave up keeps the fresh worker.
		if err := ctx.Err(); err != nil {
			return 0, err
		}
	}

	payload, err := json.Marshal(workerRequest{Columns: columns, Row: values})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}
	payload = append(payload, '\n')

	if _, err := w.proc.stdin.Write(payload); err != nil {
		w.discard()
		return 0, fmt.Errorf("write to worker: %w", err)
	}

	resp, err := w.proc.await(ctx)
	if err != nil {
		w.discard()
		return 0, err
	}
	if resp.Error != "" {
		return 0, errors.New(resp.Error)
	}
	if resp.Prediction == nil {
		return 0, errors.New("worker response has no prediction")
	}
	return *resp.Prediction, nil
}

// Close stops the worker process and removes the temporary script.
func (w *PythonWorker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.proc != nil {
		w.proc.stop(workerStopGrace)
		w.proc = nil
	}
	if w.tmpDir != "" {
		return os.RemoveAll(w.tmpDir)
	}
	return nil
}

// discard kills the current process; callers hold w.mu.
func (w *PythonWorker) discard() {
	if w.proc == nil {
		return
	}
	w.proc.stop(0)
	w.proc = nil
}

func (w *PythonWorker) spawn(ctx context.Context) (*workerProcess, []string, error) {
	featuresArg := w.config.FeaturesPath
	if featuresArg == "" {
		featuresArg = noFeaturesArg
	}

	// Not CommandContext: the process outlives the request that started it.
	cmd := exec.Command(w.config.Interpreter, w.config.Script, w.config.ModelPath, featuresArg)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("worker stdout: %w", err)
	}
	stderr := &tailBuffer{max: stderrTailSize}
	cmd.Stderr = stderr
	// Bounds Wait when a grandchild keeps the stderr pipe open after a kill.
	cmd.WaitDelay = workerStopGrace

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start worker %s: %w", w.config.Interpreter, err)
	}

	p := &workerProcess{
		cmd:    cmd,
		stdin:  stdin,
		lines:  make(chan []byte),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		stderr: stderr,
	}
	go p.readLines(stdout)

	hsCtx := ctx
	if w.config.StartTimeout > 0 {
		var cancel context.CancelFunc
		hsCtx, cancel = context.WithTimeout(ctx, w.config.StartTimeout)
		defer cancel()
	}

	resp, err := p.await(hsCtx)
	if err != nil {
		p.stop(0)
		return nil, nil, fmt.Errorf("worker handshake: %w", err)
	}
	if resp.Error != "" {
		p.stop(0)
		return nil, nil, fmt.Errorf("worker: %s", resp.Error)
	}

	log.Debug().
		Int("pid", cmd.Process.Pid).
		Str("interpreter", w.config.Interpreter).
		Int("features", len(resp.Features)).
		Msg("inference worker ready")

	return p, resp.Features, nil
}

func (p *workerProcess) readLines(r io.Reader) {
	defer close(p.done)
	defer close(p.lines)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxWorkerLine)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case p.lines <- line:
		case <-p.quit:
			return
		}
	}
}

func (p *workerProcess) await(ctx context.Context) (workerResponse, error) {
	var resp workerResponse
	select {
	case line, ok := <-p.lines:
		if !ok {
			if tail := p.stderr.String(); tail != "" {
				return resp, fmt.Errorf("worker exited: %s", tail)
			}
			return resp, errors.New("worker exited")
		}
		if err := json.Unmarshal(line, &resp); err != nil {
			return resp, fmt.Errorf("decode worker response %q: %w", truncate(string(line), 200), err)
		}
		return resp, nil
	case <-ctx.Done():
		return resp, ctx.Err()
	}
}

// stop closes stdin so the worker loop ends, then kills it if it has not exited
// within grace.
func (p *workerProcess) stop(grace time.Duration) {
	p.stdin.Close()
	close(p.quit)

	exited := make(chan error, 1)
	go func() { exited <- p.cmd.Wait() }()

	if grace <= 0 {
		p.cmd.Process.Kill()
		<-exited
		<-p.done
		return
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-exited:
	case <-timer.C:
		log.Warn().Int("pid", p.cmd.Process.Pid).Msg("inference worker did not exit, killing")
		p.cmd.Process.Kill()
		<-exited
	}
	<-p.done
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.buf = append(b.buf, p...)
	if len(b.buf) > b.max {
		b.buf = b.buf[len(b.buf)-b.max:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
