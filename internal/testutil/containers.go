// Package testutil starts throwaway Mongo and Redis servers in containers for
// integration tests.
//
// Integration tests run only when DOCCACHE_INTEGRATION is set and -short is
// not, since they need a Docker daemon.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const integrationEnv = "DOCCACHE_INTEGRATION"

// RequireIntegration skips t unless integration tests are enabled.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv(integrationEnv) == "" {
		t.Skipf("skipping integration test; set %s=1 to run", integrationEnv)
	}
}

// Server is a running container with one exposed port.
type Server struct {
	container testcontainers.Container
	addr      string
}

// Addr returns host:port of the exposed service.
func (s *Server) Addr() string { return s.addr }

// Close terminates the container.
func (s *Server) Close(ctx context.Context) error {
	if s.container == nil {
		return nil
	}
	if err := s.container.Terminate(ctx); err != nil {
		return fmt.Errorf("failed to terminate container: %w", err)
	}
	return nil
}

// StartMongo starts a single mongod. The image can be overridden with
// DOCCACHE_MONGO_IMAGE.
func StartMongo(t *testing.T) *Server {
	t.Helper()
	return start(t, imageOr("DOCCACHE_MONGO_IMAGE", "mongo:7"), "27017/tcp",
		wait.ForLog("Waiting for connections"))
}

// StartRedis starts a redis server. The image can be overridden with
// DOCCACHE_REDIS_IMAGE.
func StartRedis(t *testing.T) *Server {
	t.Helper()
	return start(t, imageOr("DOCCACHE_REDIS_IMAGE", "redis:7-alpine"), "6379/tcp",
		wait.ForLog("Ready to accept connections"))
}

func start(t *testing.T, image string, port nat.Port, strategy wait.Strategy) *Server {
	t.Helper()
	RequireIntegration(t)
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{string(port)},
			WaitingFor:   wait.ForAll(wait.ForListeningPort(port), strategy),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start %s container: %v", image, err)
	}
	s := &Server{container: c}
	t.Cleanup(func() { _ = s.Close(context.Background()) })

	host, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		t.Fatalf("failed to get container port: %v", err)
	}
	s.addr = fmt.Sprintf("%s:%d", host, mapped.Int())
	return s
}

func imageOr(env, def string) string {
	if v := os.Getenv(env); v != "" {
		return v
	}
	return def
}
