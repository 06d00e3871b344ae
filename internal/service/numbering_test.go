package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
)

var june1 = time.Date(2024, 6, 1, 10, 30, 0, 0, time.UTC)

func seedNumber(t *testing.T, tickets repository.TicketRepository, number string) {
	t.Helper()
	require.NoError(t, tickets.Create(context.Background(), &domain.Ticket{
		ID:           "id-" + number,
		TicketNumber: number,
		Status:       domain.TicketStatusReceived,
		CreatedAt:    june1,
		UpdatedAt:    june1,
	}))
}

func TestTicketNumberPrefixUsesLocation(t *testing.T) {
	late := time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*60*60)

	assert.Equal(t, "20240601", TicketNumberPrefix(late))
	assert.Equal(t, "20240602", TicketNumberPrefix(late.In(tokyo)))
}

func TestFormatTicketNumber(t *testing.T) {
	number, err := FormatTicketNumber("20240601", 1)
	require.NoError(t, err)
	assert.Equal(t, "202406010001", number)

	number, err = FormatTicketNumber("20240601", 9999)
	require.NoError(t, err)
	assert.Equal(t, "202406019999", number)

	_, err = FormatTicketNumber("20240601", 10000)
	assert.ErrorIs(t, err, ErrSequenceExhausted)

	_, err = FormatTicketNumber("20240601", 0)
	assert.Error(t, err)
}

func TestStoreAllocator(t *testing.T) {
	store := repository.NewMemoryStore()
	allocator := NewStoreAllocator(store.Tickets())
	ctx := context.Background()

	number, err := allocator.Next(ctx, june1)
	require.NoError(t, err)
	assert.Equal(t, "202406010001", number)

	seedNumber(t, store.Tickets(), "202405319999")
	seedNumber(t, store.Tickets(), "202406010007")
	seedNumber(t, store.Tickets(), "202406010003")

	number, err = allocator.Next(ctx, june1)
	require.NoError(t, err)
	assert.Equal(t, "202406010008", number)

	number, err = allocator.Next(ctx, june1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "202406020001", number)
}

func TestStoreAllocatorExhausted(t *testing.T) {
	store := repository.NewMemoryStore()
	seedNumber(t, store.Tickets(), "202406019999")

	_, err := NewStoreAllocator(store.Tickets()).Next(context.Background(), june1)
	assert.ErrorIs(t, err, ErrSequenceExhausted)
}

func newRedisAllocator(t *testing.T, tickets repository.TicketRepository) (*RedisAllocator, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisAllocator(client, tickets), mr
}

func TestRedisAllocatorSeedsFromStore(t *testing.T) {
	store := repository.NewMemoryStore()
	seedNumber(t, store.Tickets(), "202406010041")
	allocator, mr := newRedisAllocator(t, store.Tickets())
	ctx := context.Background()

	number, err := allocator.Next(ctx, june1)
	require.NoError(t, err)
	assert.Equal(t, "202406010042", number)

	number, err = allocator.Next(ctx, june1)
	require.NoError(t, err)
	assert.Equal(t, "202406010043", number)

	number, err = allocator.Next(ctx, june1.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, "202406020001", number)

	assert.True(t, mr.Exists(defaultSequenceKeyPrefix+"20240601"))
	assert.Greater(t, mr.TTL(defaultSequenceKeyPrefix+"20240601"), time.Duration(0))
}

func TestRedisAllocatorReseedsAfterFlush(t *testing.T) {
	store := repository.NewMemoryStore()
	allocator, mr := newRedisAllocator(t, store.Tickets())
	ctx := context.Background()

	number, err := allocator.Next(ctx, june1)
	require.NoError(t, err)
	assert.Equal(t, "202406010001", number)

	seedNumber(t, store.Tickets(), "202406010050")
	mr.FlushAll()

	number, err = allocator.Next(ctx, june1)
	require.NoError(t, err)
	assert.Equal(t, "202406010051", number)
}

func TestRedisAllocatorExhausted(t *testing.T) {
	store := repository.NewMemoryStore()
	allocator, mr := newRedisAllocator(t, store.Tickets())
	require.NoError(t, mr.Set(defaultSequenceKeyPrefix+"20240601", "9999"))

	_, err := allocator.Next(context.Background(), june1)
	assert.ErrorIs(t, err, ErrSequenceExhausted)
}

func TestRedisAllocatorUnavailable(t *testing.T) {
	store := repository.NewMemoryStore()
	allocator, mr := newRedisAllocator(t, store.Tickets())
	mr.Close()

	_, err := allocator.Next(context.Background(), june1)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrSequenceExhausted)
}
