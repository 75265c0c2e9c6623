package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/fairwaylab/swingcoach/internal/migrations"
	"github.com/fairwaylab/swingcoach/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("integration test: requires docker")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("swingcoach"),
		postgres.WithUsername("swingcoach"),
		postgres.WithPassword("swingcoach"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort(nat.Port("5432/tcp")),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(context.Background()); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	migrationsPath, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(store.DB, migrationsPath))

	return store
}

// TestDataFactory создаёт тестовые данные напрямую через SQL.
type TestDataFactory struct {
	storage *Storage
}

func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создаёт активного пользователя и возвращает его ID.
func (f *TestDataFactory) CreateUser(t *testing.T, email string, role models.Role) string {
	t.Helper()
	id := uuid.NewString()
	_, err := f.storage.DB.Exec(`INSERT INTO users (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)`, id, email, "$2a$10$hash", string(role))
	require.NoError(t, err)
	return id
}

// CreatePendingPayment создаёт заявку и возвращает её ID.
func (f *TestDataFactory) CreatePendingPayment(t *testing.T, userID *string, planName string) int64 {
	t.Helper()
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO payment_requests (user_id, amount, sender_name, plan_name)
		VALUES ($1, $2, $3, $4) RETURNING id`, userID, 29900, "Kim", planName).Scan(&id)
	require.NoError(t, err)
	return id
}

func (f *TestDataFactory) countSubscriptions(t *testing.T, userID string) int {
	t.Helper()
	var n int
	require.NoError(t, f.storage.DB.QueryRow(
		`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`, userID).Scan(&n))
	return n
}

func activation(userID, planType string, role models.Role, start time.Time, end time.Time) *models.Activation {
	return &models.Activation{
		Subscription: models.Subscription{
			UserID:    userID,
			PlanType:  planType,
			StartDate: start,
			EndDate:   end,
			Status:    models.SubscriptionActive,
		},
		Role: role,
	}
}
