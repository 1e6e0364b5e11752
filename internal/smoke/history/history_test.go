package history

import (
	"context"
	"net"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Compile-time проверки реализации интерфейса
var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*RedisStore)(nil)
)

func TestCompare(t *testing.T) {
	pass := Outcome{Success: true}
	fail := Outcome{Success: false}

	tests := []struct {
		name string
		prev *Outcome
		cur  Outcome
		want Transition
	}{
		{name: "first pass", prev: nil, cur: pass, want: TransitionNone},
		{name: "first fail", prev: nil, cur: fail, want: TransitionFailed},
		{name: "pass to fail", prev: &pass, cur: fail, want: TransitionFailed},
		{name: "fail to pass", prev: &fail, cur: pass, want: TransitionRecovered},
		{name: "still failing", prev: &fail, cur: fail, want: TransitionNone},
		{name: "still passing", prev: &pass, cur: pass, want: TransitionNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.prev, tt.cur))
		})
	}
}

func TestTransition_String(t *testing.T) {
	assert.Equal(t, "pass->fail", TransitionFailed.String())
	assert.Equal(t, "fail->pass", TransitionRecovered.String())
	assert.Equal(t, "none", TransitionNone.String())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	got, err := s.Last(ctx, "mvp")
	require.NoError(t, err)
	assert.Nil(t, got)

	steps := []string{"verify"}
	require.NoError(t, s.Save(ctx, Outcome{Scenario: "mvp", Success: false, ExitCode: 8, FailedSteps: steps}))
	steps[0] = "mutated"

	got, err = s.Last(ctx, "mvp")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.Success)
	assert.Equal(t, []string{"verify"}, got.FailedSteps)

	other, err := s.Last(ctx, "demo")
	require.NoError(t, err)
	assert.Nil(t, other)
	assert.NoError(t, s.Close())
}

func TestMemoryStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Save(ctx, Outcome{Scenario: "mvp", Success: i%2 == 0})
			_, _ = s.Last(ctx, "mvp")
		}(i)
	}
	wg.Wait()
	got, err := s.Last(ctx, "mvp")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestRedisStore_Key(t *testing.T) {
	s := NewRedisStore(RedisOptions{Addr: "localhost:6379"})
	defer s.Close()
	assert.Equal(t, "aihub-smoke:last:mvp", s.Key("mvp"))

	custom := NewRedisStore(RedisOptions{Addr: "localhost:6379", KeyPrefix: "staging"})
	defer custom.Close()
	assert.Equal(t, "staging:last:demo", custom.Key("demo"))
}

// closedAddr возвращает адрес, на котором никто не слушает.
func closedAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestRedisStore_Unreachable(t *testing.T) {
	s := NewRedisStore(RedisOptions{Addr: closedAddr(t)})
	defer s.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.Error(t, s.Ping(ctx))
	_, err := s.Last(ctx, "mvp")
	assert.Error(t, err)
	assert.Error(t, s.Save(ctx, Outcome{Scenario: "mvp"}))
}

// liveRedis подключается к BR_TEST_REDIS_ADDR (по умолчанию localhost:6379)
// с уникальным префиксом и пропускает тест, если Redis не отвечает.
func liveRedis(t *testing.T, ttl time.Duration) *RedisStore {
	t.Helper()
	addr := os.Getenv("BR_TEST_REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	s := NewRedisStore(RedisOptions{
		Addr:      addr,
		KeyPrefix: "aihub-smoke-test-" + uuid.NewString(),
		TTL:       ttl,
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		t.Skipf("Redis недоступен: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStore_RoundTrip(t *testing.T) {
	s := liveRedis(t, 0)
	ctx := context.Background()
	t.Cleanup(func() { s.client.Del(context.Background(), s.Key("mvp")) })

	got, err := s.Last(ctx, "mvp")
	require.NoError(t, err)
	assert.Nil(t, got, "нет записи: redis.Nil превращается в nil без ошибки")

	want := Outcome{
		Scenario:    "mvp",
		Success:     false,
		ExitCode:    8,
		Failed:      2,
		FailedSteps: []string{"create_prompt (Code Review Assistant)", "list_prompts"},
		FinishedAt:  time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.Save(ctx, want))

	got, err = s.Last(ctx, "mvp")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.Scenario, got.Scenario)
	assert.Equal(t, want.ExitCode, got.ExitCode)
	assert.Equal(t, want.FailedSteps, got.FailedSteps)
	assert.True(t, want.FinishedAt.Equal(got.FinishedAt))

	ttl, err := s.client.TTL(ctx, s.Key("mvp")).Result()
	require.NoError(t, err)
	assert.Equal(t, time.Duration(-1), ttl, "TTL=0 сохраняет ключ без срока")

	want.Success, want.ExitCode, want.Failed, want.FailedSteps = true, 0, 0, nil
	require.NoError(t, s.Save(ctx, want))
	got, err = s.Last(ctx, "mvp")
	require.NoError(t, err)
	assert.True(t, got.Success)
	assert.Empty(t, got.FailedSteps)
}

func TestRedisStore_TTL(t *testing.T) {
	s := liveRedis(t, time.Hour)
	ctx := context.Background()
	t.Cleanup(func() { s.client.Del(context.Background(), s.Key("demo")) })

	require.NoError(t, s.Save(ctx, Outcome{Scenario: "demo", Success: true}))

	ttl, err := s.client.TTL(ctx, s.Key("demo")).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)
}

func TestRedisStore_CorruptValue(t *testing.T) {
	s := liveRedis(t, 0)
	ctx := context.Background()
	t.Cleanup(func() { s.client.Del(context.Background(), s.Key("mvp")) })

	require.NoError(t, s.client.Set(ctx, s.Key("mvp"), "{not json", 0).Err())
	_, err := s.Last(ctx, "mvp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "разбор истории mvp")
}
