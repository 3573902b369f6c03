package judge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	backendDocker = "docker"
	workspaceDir  = "/workspace"
	stdinFileName = "stdin.txt"

	// compileFailedExitCode is the exit status the run script uses to report a
	// failed compile step; it sits outside the range programs normally use.
	compileFailedExitCode = 201
)

// DockerConfig groups the local container backend settings.
type DockerConfig struct {
	Host          string
	Timeout       time.Duration
	MemoryLimitMB int64
	CPUShares     int64
	WorkspaceRoot string
	Logger        zerolog.Logger
}

// containerAPI is the part of the Docker client the backend uses.
type containerAPI interface {
	ContainerCreate(ctx context.Context, config *container.Config, hostConfig *container.HostConfig, networkingConfig *network.NetworkingConfig, platform *ocispec.Platform, containerName string) (container.CreateResponse, error)
	ContainerWait(ctx context.Context, containerID string, condition container.WaitCondition) (<-chan container.WaitResponse, <-chan error)
	ContainerStart(ctx context.Context, containerID string, options container.StartOptions) error
	ContainerKill(ctx context.Context, containerID, signal string) error
	ContainerLogs(ctx context.Context, containerID string, options container.LogsOptions) (io.ReadCloser, error)
	ContainerStatsOneShot(ctx context.Context, containerID string) (container.StatsResponseReader, error)
	ContainerRemove(ctx context.Context, containerID string, options container.RemoveOptions) error
	Close() error
}

// DockerBackend runs programs in throwaway containers on a local Docker daemon
// and reports the outcome with the same status vocabulary as Judge0.
type DockerBackend struct {
	client containerAPI
	cfg    DockerConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

type containerOutcome struct {
	stdout   string
	stderr   string
	exitCode int
	duration time.Duration
	timedOut bool
	memoryKB int
}

// NewDockerBackend constructs a Docker backed executor.
func NewDockerBackend(cfg DockerConfig) (*DockerBackend, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if cfg.Host != "" {
		opts = append(opts, client.WithHost(cfg.Host))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return newDockerBackend(cli, cfg), nil
}

func newDockerBackend(api containerAPI, cfg DockerConfig) *DockerBackend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = os.TempDir()
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &DockerBackend{
		client: api,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/UVU-Autograder/autograder-demo-sub000/pkg/judge/docker"),
		logger: logger.With().Str("component", "docker_backend").Logger(),
	}
}

// Execute compiles (when needed) and runs the program with stdin redirected
// from a file in the mounted workspace.
func (b *DockerBackend) Execute(parent context.Context, req Request) (RunResult, error) {
	lang, err := LanguageByID(req.LanguageID)
	if err != nil {
		return RunResult{}, err
	}

	ctx, span := b.tracer.Start(parent, "docker.execute", trace.WithAttributes(
		attribute.String("docker.image", lang.Image),
		attribute.String("judge.language", lang.Name),
	))
	defer span.End()

	workspace, err := os.MkdirTemp(b.cfg.WorkspaceRoot, "run-")
	if err != nil {
		return RunResult{}, fmt.Errorf("create workspace: %w", err)
	}
	defer os.RemoveAll(workspace)

	if err := os.WriteFile(filepath.Join(workspace, lang.FileName), []byte(req.SourceCode), 0o644); err != nil {
		return RunResult{}, fmt.Errorf("write source: %w", err)
	}
	if err := os.WriteFile(filepath.Join(workspace, stdinFileName), []byte(req.Stdin), 0o644); err != nil {
		return RunResult{}, fmt.Errorf("write stdin: %w", err)
	}

	outcome, err := b.run(ctx, lang.Image, runScript(lang), workspace)
	execDuration.WithLabelValues(backendDocker).Observe(outcome.duration.Seconds())
	if err != nil {
		execFailures.WithLabelValues(backendDocker, "container").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return RunResult{}, err
	}
	if outcome.timedOut {
		execTimeouts.WithLabelValues(backendDocker).Inc()
	}

	result := classify(outcome, req.ExpectedOutput)
	span.SetAttributes(attribute.Int("judge.status_id", result.Status.ID))
	return result, nil
}

func (b *DockerBackend) run(parent context.Context, image string, script string, workspace string) (containerOutcome, error) {
	ctx, cancel := context.WithTimeout(parent, b.cfg.Timeout)
	defer cancel()

	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:    b.cfg.MemoryLimitMB * 1024 * 1024,
			CPUShares: b.cfg.CPUShares,
		},
		NetworkMode: "none",
		Mounts: []mount.Mount{{
			Type:     mount.TypeBind,
			Source:   workspace,
			Target:   workspaceDir,
			ReadOnly: true,
		}},
	}

	config := &container.Config{
		Image:        image,
		Cmd:          []string{"sh", "-c", script},
		WorkingDir:   workspaceDir,
		AttachStdout: true,
		AttachStderr: true,
	}

	start := time.Now()
	outcome := containerOutcome{}

	resp, err := b.client.ContainerCreate(ctx, config, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		return outcome, fmt.Errorf("container create: %w", err)
	}

	containerID := resp.ID
	defer func() {
		removeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := b.client.ContainerRemove(removeCtx, containerID, container.RemoveOptions{Force: true}); err != nil {
			b.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to remove container")
		}
	}()

	// The wait must be registered before start, otherwise a program that exits
	// quickly is never reported as the next exit.
	statusCh, errCh := b.client.ContainerWait(ctx, containerID, container.WaitConditionNextExit)

	if err := b.client.ContainerStart(ctx, containerID, container.StartOptions{}); err != nil {
		return outcome, fmt.Errorf("container start: %w", err)
	}

	var waitErr error
	select {
	case err := <-errCh:
		waitErr = err
	case status := <-statusCh:
		outcome.exitCode = int(status.StatusCode)
	case <-ctx.Done():
		waitErr = ctx.Err()
	}
	outcome.duration = time.Since(start)

	if waitErr != nil {
		if !errors.Is(waitErr, context.DeadlineExceeded) && !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return outcome, fmt.Errorf("container wait: %w", waitErr)
		}
		outcome.timedOut = true
		killCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := b.client.ContainerKill(killCtx, containerID, "KILL"); err != nil {
			b.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to kill timed out container")
		}
	}

	logCtx, cancelLogs := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelLogs()
	logReader, err := b.client.ContainerLogs(logCtx, containerID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		b.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to fetch container logs")
	} else {
		defer logReader.Close()
		stdout, stderr, err := splitDockerLogs(logReader)
		if err != nil {
			b.logger.Error().Err(err).Str("container_id", containerID).Msg("failed to read container logs")
		} else {
			outcome.stdout = stdout
			outcome.stderr = stderr
		}
	}

	statsCtx, cancelStats := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelStats()
	stats, err := b.client.ContainerStatsOneShot(statsCtx, containerID)
	if err == nil {
		defer stats.Body.Close()
		var data container.StatsResponse
		if decodeErr := json.NewDecoder(stats.Body).Decode(&data); decodeErr == nil {
			outcome.memoryKB = int(data.MemoryStats.MaxUsage / 1024)
		}
	}

	return outcome, nil
}

// runScript builds the shell script executed inside the container. A failed
// compile step exits with compileFailedExitCode and leaves the compiler
// diagnostics on stderr.
func runScript(lang Language) string {
	run := fmt.Sprintf("%s < %s/%s", lang.Run, workspaceDir, stdinFileName)
	if lang.Compile == "" {
		return run
	}
	return fmt.Sprintf("%s 1>&2 || exit %d; %s", lang.Compile, compileFailedExitCode, run)
}

func classify(outcome containerOutcome, expectedOutput string) RunResult {
	result := RunResult{
		Stdout: outcome.stdout,
		Stderr: outcome.stderr,
		Time:   fmt.Sprintf("%.3f", outcome.duration.Seconds()),
		Memory: outcome.memoryKB,
	}

	switch {
	case outcome.timedOut:
		result.Status = Status{ID: StatusTimeLimitExceeded, Description: "Time Limit Exceeded"}
	case outcome.exitCode == compileFailedExitCode:
		result.Status = Status{ID: StatusCompilationError, Description: "Compilation Error"}
		result.CompileOutput = outcome.stderr
		result.Stderr = ""
	case outcome.exitCode != 0:
		result.Status = Status{ID: StatusRuntimeError, Description: "Runtime Error (NZEC)"}
	case expectedOutput != "" && strings.TrimSpace(outcome.stdout) != strings.TrimSpace(expectedOutput):
		result.Status = Status{ID: StatusWrongAnswer, Description: "Wrong Answer"}
	default:
		result.Status = Status{ID: StatusAccepted, Description: "Accepted"}
	}

	return result
}

func splitDockerLogs(reader io.Reader) (string, string, error) {
	var stdoutBuf, stderrBuf bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, reader); err != nil {
		return "", "", err
	}
	return stdoutBuf.String(), stderrBuf.String(), nil
}

// Close shuts down the backend's underlying client.
func (b *DockerBackend) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}
