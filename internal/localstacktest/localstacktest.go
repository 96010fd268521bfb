// Package localstacktest spins up a Localstack SQS container for
// integration tests using dockertest.
package localstacktest

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"go.uber.org/zap"
)

// StartSQS runs a Localstack container with only the SQS service enabled and
// waits for its health endpoint. It returns the endpoint URL for the dynamic
// 4566/tcp host port and a cleanup function that removes the container.
func StartSQS() (string, func(), error) {
	// The AWS SDK refuses to build a client without credentials; Localstack
	// never validates them.
	if err := os.Setenv("AWS_ACCESS_KEY_ID", "localstack"); err != nil {
		return "", nil, fmt.Errorf("cannot set aws access key id: %w", err)
	}
	if err := os.Setenv("AWS_SECRET_ACCESS_KEY", "localstack"); err != nil {
		return "", nil, fmt.Errorf("cannot set aws secret access key: %w", err)
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		return "", nil, fmt.Errorf("cannot create dockertest pool: %w", err)
	}
	if err := pool.Client.Ping(); err != nil {
		return "", nil, fmt.Errorf("cannot connect to Docker: %w", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "localstack/localstack",
		Tag:        "3.5.0",
		Env:        []string{"SERVICES=sqs"},
	}, func(config *docker.HostConfig) {
		config.RestartPolicy = docker.AlwaysRestart()
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to run localstack container: %w", err)
	}

	// Containers leaked by interrupted runs expire on their own.
	if err := resource.Expire(120); err != nil {
		return "", nil, fmt.Errorf("setting resource expiration failed: %w", err)
	}

	purge := func() { _ = pool.Purge(resource) }
	port := resource.GetPort("4566/tcp")

	pool.MaxWait = 1 * time.Minute
	if err := pool.Retry(func() error {
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/_localstack/health", port))
		if err != nil {
			return err
		}
		defer func() {
			if cerr := resp.Body.Close(); cerr != nil {
				zap.S().With(zap.Error(cerr)).Error("cannot close healthcheck response body")
			}
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("got status code: %d", resp.StatusCode)
		}
		return nil
	}); err != nil {
		purge()
		return "", nil, fmt.Errorf("localstack is not reachable: %w", err)
	}

	return fmt.Sprintf("http://localhost:%s", port), purge, nil
}
