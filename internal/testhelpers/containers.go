// containers.go
//
// A manuscript management backend for the Aris platform
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of aris-backend.
// aris-backend is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// aris-backend is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with aris-backend.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/localnerve/aris-backend/internal/config"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Default images, overridable with DB_IMAGE
const (
	PostgresImage = "postgres:16-alpine"
	MySQLImage    = "mysql:8.4"
)

// DBContainer is a running database container and the configuration that reaches it
type DBContainer struct {
	Container testcontainers.Container
	Config    *config.Config
}

// Terminate stops and removes the container
func (dc *DBContainer) Terminate(t *testing.T) {
	if dc == nil || dc.Container == nil {
		return
	}
	if err := testcontainers.TerminateContainer(dc.Container); err != nil {
		logMessage(t, "Failed to terminate database: %v", err)
	}
}

// DockerAvailable reports whether a docker daemon answers
func DockerAvailable(ctx context.Context) bool {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()

	_, err = cli.Ping(ctx)
	return err == nil
}

// StartDatabase starts a database container for dbType ("postgres" or "mysql").
// With a nil t, failures print and exit instead of failing a test.
func StartDatabase(ctx context.Context, t *testing.T, dbType string) *DBContainer {
	var dc *DBContainer
	var err error

	switch dbType {
	case "postgres", "postgresql":
		dc, err = startPostgres(ctx, t)
	case "mysql", "mariadb":
		dc, err = startMySQL(ctx, t)
	default:
		err = fmt.Errorf("unsupported database type: %s", dbType)
	}
	if err != nil {
		dc.Terminate(t)
		exitWithError(t, err, "Failed to start database")
	}

	logMessage(t, "DB_HOST=%s DB_PORT=%s", dc.Config.DBHost, dc.Config.DBPort)
	return dc
}

func baseConfig(dbType string) *config.Config {
	return &config.Config{
		DBType:            dbType,
		DBDatabase:        "aris",
		DBUser:            "aris",
		DBPassword:        "aris-test-password",
		DBConnectionLimit: 5,
		DBConnectTimeout:  30 * time.Second,
		SchemaRevision:    "full",
		LogLevel:          "warn",
	}
}

func imageFor(defaultImage string) string {
	if img := os.Getenv("DB_IMAGE"); img != "" {
		return img
	}
	return defaultImage
}

func startPostgres(ctx context.Context, t *testing.T) (*DBContainer, error) {
	cfg := baseConfig("postgres")
	img := imageFor(PostgresImage)
	announceImage(ctx, t, img)

	pg, err := tcpostgres.Run(ctx, img,
		tcpostgres.WithDatabase(cfg.DBDatabase),
		tcpostgres.WithUsername(cfg.DBUser),
		tcpostgres.WithPassword(cfg.DBPassword),
		tcpostgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, err
	}
	dc := &DBContainer{Container: pg, Config: cfg}

	return dc, fillEndpoint(ctx, dc, "5432/tcp")
}

func startMySQL(ctx context.Context, t *testing.T) (*DBContainer, error) {
	cfg := baseConfig("mysql")
	img := imageFor(MySQLImage)
	announceImage(ctx, t, img)

	port, err := nat.NewPort("tcp", "3306")
	if err != nil {
		return nil, err
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        img,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"MYSQL_ROOT_PASSWORD": cfg.DBPassword,
				"MYSQL_DATABASE":      cfg.DBDatabase,
				"MYSQL_USER":          cfg.DBUser,
				"MYSQL_PASSWORD":      cfg.DBPassword,
			},
			WaitingFor: wait.ForListeningPort(port).WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return nil, err
	}
	dc := &DBContainer{Container: container, Config: cfg}

	return dc, fillEndpoint(ctx, dc, port)
}

func fillEndpoint(ctx context.Context, dc *DBContainer, port nat.Port) error {
	host, err := dc.Container.Host(ctx)
	if err != nil {
		return err
	}
	mapped, err := dc.Container.MappedPort(ctx, port)
	if err != nil {
		return err
	}
	dc.Config.DBHost = host
	dc.Config.DBPort = mapped.Port()
	return nil
}

func announceImage(ctx context.Context, t *testing.T, imageName string) {
	exists, err := imageExists(ctx, imageName)
	switch {
	case err != nil:
		logMessage(t, "Could not list local images: %v", err)
	case exists:
		logMessage(t, "Image %s exists, reusing...", imageName)
	default:
		logMessage(t, "Image %s does not exist, pulling...", imageName)
	}
}

func imageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, image := range images {
		for _, tag := range image.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}

	return false, nil
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
		os.Exit(1)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
