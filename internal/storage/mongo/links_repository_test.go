package mongo

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/IgorGrieder/encurtador-links/internal/infrastructure/db"
	"github.com/IgorGrieder/encurtador-links/internal/processing/links"
	"github.com/IgorGrieder/encurtador-links/internal/storage/storagetest"
)

func setupMongo(t *testing.T) *db.Mongo {
	t.Helper()

	if os.Getenv("INTEGRATION_TESTS") != "1" {
		t.Skip("set INTEGRATION_TESTS=1 to run mongo integration tests")
	}

	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start mongo container: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.PortEndpoint(ctx, "27017/tcp", "mongodb")
	if err != nil {
		t.Fatalf("failed to get mongo endpoint: %v", err)
	}

	m, err := db.ConnectMongo(ctx, endpoint, "links", db.MongoOptions{AppName: "links-test"})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	t.Cleanup(func() { _ = m.Disconnect() })

	return m
}

func TestLinksRepository_Integration(t *testing.T) {
	m := setupMongo(t)

	var n atomic.Int32
	storagetest.RunLinkRepository(t, func(t *testing.T) links.LinkRepository {
		// one database per subtest
		repo, err := NewLinksRepository(m.WithDatabase(fmt.Sprintf("links_%d", n.Add(1))))
		if err != nil {
			t.Fatal(err)
		}
		return repo
	})
}
