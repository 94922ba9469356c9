package db

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// setupStore starts one PostgreSQL container per test run, migrates it, and
// returns a Store over freshly truncated tables.
func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	once.Do(func() {
		sharedDSN, initErr = startContainer()
	})
	require.NoError(t, initErr, "setup test DB")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gdb, err := Open(ctx, sharedDSN)
	require.NoError(t, err)
	require.NoError(t, Migrate(ctx, gdb))
	truncateAll(t, gdb)

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return New(gdb)
}

func startContainer() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:17-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "testuser",
			"POSTGRES_PASSWORD": "testpass",
			"POSTGRES_DB":       "archive",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}

	return fmt.Sprintf("postgres://testuser:testpass@%s:%s/archive?sslmode=disable", host, port.Port()), nil
}

func truncateAll(t *testing.T, gdb *gorm.DB) {
	t.Helper()
	err := gdb.Exec(`TRUNCATE discord_attachments, discord_messages, discord_users, discord_channels,
		discord_guilds, webhook_logs, webhooks, chat_messages, chat_conversations, user_settings,
		meetings, client_mappings, activity_alerts, a2p_statuses RESTART IDENTITY CASCADE`).Error
	require.NoError(t, err)
}

// seedChannel creates a guild, channel and author, then one message per entry
// in ages (each message created that long ago).
func seedChannel(t *testing.T, s *Store, id, name, tags string, ages ...time.Duration) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, s.UpsertGuild(ctx, &DiscordGuild{ID: "g1", Name: "Agency", CreatedAt: now}))
	require.NoError(t, s.UpsertUser(ctx, &DiscordUser{ID: "u1", Username: "sam", CreatedAt: now}))
	require.NoError(t, s.UpsertChannel(ctx, &DiscordChannel{ID: id, GuildID: "g1", Name: name, Type: "text", CreatedAt: now}))
	if tags != "" {
		_, err := s.UpdateChannels(ctx, []ChannelUpdate{{ID: id, Tags: &tags}})
		require.NoError(t, err)
	}

	for i, age := range ages {
		msg := &DiscordMessage{
			ID:        fmt.Sprintf("%s-m%d", id, i),
			ChannelID: id,
			GuildID:   "g1",
			AuthorID:  "u1",
			Content:   fmt.Sprintf("message %d in %s", i, name),
			CreatedAt: now.Add(-age),
		}
		require.NoError(t, s.UpsertMessage(ctx, msg, nil))
	}
}
