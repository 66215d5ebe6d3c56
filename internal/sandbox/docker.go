package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/containerd/errdefs"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

const (
	containerWorkDir = "/work"
	containerUser    = "1000"

	// Resource limits for one execution.
	memoryLimitBytes = 512 * 1024 * 1024 // 512MB
	cpuQuota         = 50000             // 0.5 CPU
	pidsLimit        = 128
)

// Docker runs each execution in an ephemeral container with the question's
// working directory bind-mounted as /work. The container gets resource
// limits and no network, and is force-removed afterwards.
type Docker struct {
	cli     *client.Client
	image   string
	timeout time.Duration
}

// NewDocker creates a container-backed executor.
func NewDocker(image string, timeout time.Duration) (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	slog.Info("Docker sandbox initialized", "image", image)
	return &Docker{cli: cli, image: image, timeout: timeout}, nil
}

// Ping verifies the Docker daemon is reachable.
func (d *Docker) Ping(ctx context.Context) error {
	if _, err := d.cli.Ping(ctx); err != nil {
		return fmt.Errorf("ping docker daemon: %w", err)
	}
	return nil
}

// Execute runs the script inside a fresh container and captures its output.
func (d *Docker) Execute(ctx context.Context, code string, b Bindings) (Result, error) {
	if _, err := materialize(code, b); err != nil {
		return Result{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cfg := &container.Config{
		Image:      d.image,
		User:       containerUser,
		WorkingDir: containerWorkDir,
		Cmd:        []string{"python3", ScriptName},
	}
	hostCfg := &container.HostConfig{
		NetworkMode: "none",
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: b.Dir,
			Target: containerWorkDir,
		}},
		Resources: container.Resources{
			Memory:    memoryLimitBytes,
			CPUQuota:  cpuQuota,
			PidsLimit: ptr(int64(pidsLimit)),
		},
	}

	resp, err := d.cli.ContainerCreate(runCtx, cfg, hostCfg, nil, nil, "")
	if err != nil {
		return Result{}, fmt.Errorf("create sandbox container: %w", err)
	}
	defer d.remove(resp.ID)

	if err := d.cli.ContainerStart(runCtx, resp.ID, container.StartOptions{}); err != nil {
		return Result{}, fmt.Errorf("start sandbox container %s: %w", resp.ID, err)
	}

	exitCode, waitErr := d.wait(runCtx, resp.ID)
	stdout, stderr, logErr := d.logs(context.WithoutCancel(ctx), resp.ID)
	if logErr != nil {
		slog.Warn("Failed to read sandbox logs", "container_id", resp.ID, "error", logErr)
	}

	res := Result{
		Output: strings.TrimSpace(stdout),
		Image:  collectChart(b.Dir),
	}

	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Error = fmt.Sprintf("execution timeout after %s", d.timeout)
	case waitErr != nil:
		res.Error = waitErr.Error()
	case exitCode != 0:
		res.Error = strings.TrimSpace(stderr)
		if res.Error == "" {
			res.Error = fmt.Sprintf("exit code %d", exitCode)
		}
	}

	return res, nil
}

func (d *Docker) wait(ctx context.Context, containerID string) (int64, error) {
	statusCh, errCh := d.cli.ContainerWait(ctx, containerID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		if status.Error != nil {
			return 0, fmt.Errorf("container wait: %s", status.Error.Message)
		}
		return status.StatusCode, nil
	case err := <-errCh:
		return 0, fmt.Errorf("container wait: %w", err)
	}
}

func (d *Docker) logs(ctx context.Context, containerID string) (string, string, error) {
	rc, err := d.cli.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", fmt.Errorf("container logs %s: %w", containerID, err)
	}
	defer rc.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, rc); err != nil {
		return "", "", fmt.Errorf("demux container logs: %w", err)
	}
	return stdout.String(), stderr.String(), nil
}

// remove force-removes the container; a container that is already gone is
// not an error.
func (d *Docker) remove(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := d.cli.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true})
	if err != nil && !errdefs.IsNotFound(err) {
		slog.Warn("Failed to remove sandbox container", "container_id", containerID, "error", err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
