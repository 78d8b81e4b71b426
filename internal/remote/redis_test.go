package remote

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRedis struct {
	value   string
	getErr  error
	pingErr error
	setErr  error

	setKey   string
	setValue any
	closed   int
}

func (f *fakeRedis) Get(_ context.Context, _ string) *redis.StringCmd {
	return redis.NewStringResult(f.value, f.getErr)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	f.setKey = key
	f.setValue = value
	return redis.NewStatusResult("OK", f.setErr)
}

func (f *fakeRedis) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.pingErr)
}

func (f *fakeRedis) Close() error {
	f.closed++
	return nil
}

func TestRedisSourceFetch(t *testing.T) {
	t.Parallel()

	client := &fakeRedis{value: `{"evolution": {"generations": 250}}`}
	src, err := openRedis(context.Background(), client, defaultRedisKey)
	require.NoError(t, err)

	doc, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 250.0, doc["evolution"].(map[string]any)["generations"])
}

func TestRedisSourceErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		client        *fakeRedis
		wantErr       error
		wantAvailable bool
	}{
		{name: "MissingKey", client: &fakeRedis{getErr: redis.Nil}, wantErr: ErrDocumentNotFound, wantAvailable: true},
		{name: "NotAnObject", client: &fakeRedis{value: `"text"`}, wantErr: ErrInvalidDocument, wantAvailable: true},
		{name: "Transport", client: &fakeRedis{getErr: errors.New("i/o timeout")}, wantAvailable: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			src, err := openRedis(context.Background(), tc.client, defaultRedisKey)
			require.NoError(t, err)

			_, err = src.Fetch(context.Background())
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			assert.Equal(t, tc.wantAvailable, src.Available())
		})
	}
}

func TestOpenRedisPingFailure(t *testing.T) {
	t.Parallel()

	client := &fakeRedis{pingErr: errors.New("connection refused")}
	_, err := openRedis(context.Background(), client, defaultRedisKey)

	require.Error(t, err)
	assert.Equal(t, 1, client.closed)
}

func TestRedisSourcePublish(t *testing.T) {
	t.Parallel()

	client := &fakeRedis{}
	src, err := openRedis(context.Background(), client, "bot:config")
	require.NoError(t, err)

	require.NoError(t, src.Publish(context.Background(), map[string]any{"risk": map[string]any{"max_daily_loss": 0.01}}))
	assert.Equal(t, "bot:config", client.setKey)
	assert.JSONEq(t, `{"risk": {"max_daily_loss": 0.01}}`, string(client.setValue.([]byte)))
}

func TestRedisSourceCloseOnce(t *testing.T) {
	t.Parallel()

	client := &fakeRedis{}
	src, err := openRedis(context.Background(), client, defaultRedisKey)
	require.NoError(t, err)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	assert.Equal(t, 1, client.closed)

	_, err = src.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, src.Publish(context.Background(), nil), ErrClosed)
}
