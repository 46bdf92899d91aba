package bootstrap

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/stelliformdigital/stelliform-web/internal/config"
	httpmiddleware "github.com/stelliformdigital/stelliform-web/internal/http/middleware"
	"github.com/stelliformdigital/stelliform-web/internal/leads"
	"github.com/stelliformdigital/stelliform-web/internal/notify"
	"github.com/stelliformdigital/stelliform-web/pkg/logging"
)

func TestBuildRedisClient(t *testing.T) {
	logger := logging.New("error")
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{}, logger, true))

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, true)
	require.NotNil(t, client)
	_ = client.Close()

	addr := mr.Addr()
	mr.Close()
	assert.Nil(t, BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: addr}, logger, true))
}

func TestBuildLeadStore_Memory(t *testing.T) {
	store, err := BuildLeadStore(context.Background(), &appconfig.Config{LeadStore: appconfig.StoreAuto}, logging.New("error"))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, appconfig.StoreMemory, store.Backend)
	_, ok := store.Repo.(*leads.InMemoryRepository)
	assert.True(t, ok)
}

func TestBuildLeadStore_SQLite(t *testing.T) {
	cfg := &appconfig.Config{LeadStore: appconfig.StoreAuto, SQLitePath: filepath.Join(t.TempDir(), "leads.db")}
	store, err := BuildLeadStore(context.Background(), cfg, logging.New("error"))
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, appconfig.StoreSQLite, store.Backend)
	require.NoError(t, store.Ping(context.Background()))

	lead, err := store.Repo.Create(context.Background(), &leads.CreateLeadRequest{Name: "Jane", Email: "jane@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
}

func TestBuildLeadStore_Errors(t *testing.T) {
	logger := logging.New("error")
	_, err := BuildLeadStore(context.Background(), &appconfig.Config{LeadStore: appconfig.StorePostgres}, logger)
	assert.Error(t, err)
	_, err = BuildLeadStore(context.Background(), &appconfig.Config{LeadStore: appconfig.StoreSQLite}, logger)
	assert.Error(t, err)
	_, err = BuildLeadStore(context.Background(), nil, logger)
	assert.Error(t, err)
}

func TestBuildEmailSender(t *testing.T) {
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	logger := logging.New("error")
	ctx := context.Background()

	sender, err := BuildEmailSender(ctx, &appconfig.Config{EmailProvider: EmailProviderNone}, logger)
	require.NoError(t, err)
	assert.Nil(t, sender)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: EmailProviderStub}, logger)
	require.NoError(t, err)
	assert.IsType(t, &notify.StubEmailSender{}, sender)

	_, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: EmailProviderSendGrid}, logger)
	assert.Error(t, err)

	_, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: EmailProviderResend}, logger)
	assert.Error(t, err)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: EmailProviderResend, ResendAPIKey: "re_test", EmailFrom: "leads@example.com"}, logger)
	require.NoError(t, err)
	assert.IsType(t, &notify.ResendSender{}, sender)

	sender, err = BuildEmailSender(ctx, &appconfig.Config{
		EmailProvider:       EmailProviderSES,
		AWSRegion:           "us-east-1",
		AWSAccessKeyID:      "test",
		AWSSecretAccessKey:  "test",
		AWSEndpointOverride: "http://localhost:4566",
		EmailFrom:           "leads@example.com",
	}, logger)
	require.NoError(t, err)
	assert.IsType(t, &notify.SESSender{}, sender)

	_, err = BuildEmailSender(ctx, &appconfig.Config{EmailProvider: "pigeon"}, logger)
	assert.Error(t, err)
}

func TestBuildNotifier(t *testing.T) {
	svc, err := BuildNotifier(context.Background(), &appconfig.Config{
		EmailProvider:        EmailProviderStub,
		AlertEmailRecipients: []string{"ops@example.com"},
	}, logging.New("error"))
	require.NoError(t, err)

	result := svc.Notify(context.Background(), notify.Alert{LeadID: "lead-1", Name: "Jane", Email: "jane@example.com"})
	require.Len(t, result.Outcomes, 2)
	assert.Equal(t, notify.StatusSkipped, result.Outcomes[0].Status, "slack without webhook")
	assert.Equal(t, notify.StatusSent, result.Outcomes[1].Status, "stub email")
	assert.Equal(t, notify.StatusSent, result.Status())
}

func TestBuildFormLimiter(t *testing.T) {
	logger := logging.New("error")

	assert.Nil(t, BuildFormLimiter(&appconfig.Config{RateLimitBackend: "off"}, nil, logger))

	mem := BuildFormLimiter(&appconfig.Config{RateLimitBackend: "memory", RateLimitRPS: 1, RateLimitBurst: 2}, nil, logger)
	require.IsType(t, &httpmiddleware.MemoryLimiter{}, mem)
	mem.(*httpmiddleware.MemoryLimiter).Close()

	fallback := BuildFormLimiter(&appconfig.Config{RateLimitBackend: "redis", RateLimitRPS: 1, RateLimitBurst: 2}, nil, logger)
	require.IsType(t, &httpmiddleware.MemoryLimiter{}, fallback)
	fallback.(*httpmiddleware.MemoryLimiter).Close()

	mr := miniredis.RunT(t)
	client := BuildRedisClient(context.Background(), &appconfig.Config{RedisAddr: mr.Addr()}, logger, false)
	defer client.Close()
	limiter := BuildFormLimiter(&appconfig.Config{RateLimitBackend: "redis", RateLimitBurst: 1, RateLimitWindow: time.Minute}, client, logger)
	require.IsType(t, &httpmiddleware.RedisLimiter{}, limiter)

	ok, err := limiter.Allow(context.Background(), "203.0.113.5")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = limiter.Allow(context.Background(), "203.0.113.5")
	require.NoError(t, err)
	assert.False(t, ok)
}
