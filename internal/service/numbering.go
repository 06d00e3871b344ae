package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/helpdesk-service/internal/repository"
)

const (
	ticketNumberDateLayout = "20060102"
	ticketSequenceDigits   = 4
	maxDailySequence       = 9999

	defaultSequenceKeyPrefix = "helpdesk:ticket_seq:"
	sequenceKeyTTL           = 48 * time.Hour
)

// ErrSequenceExhausted is returned once a day has used all 9999 numbers.
var ErrSequenceExhausted = errors.New("daily ticket sequence exhausted")

// NumberAllocator hands out ticket numbers for the day of now.
type NumberAllocator interface {
	Next(ctx context.Context, now time.Time) (string, error)
}

// TicketNumberPrefix returns the YYYYMMDD prefix for now in now's location.
func TicketNumberPrefix(now time.Time) string {
	return now.Format(ticketNumberDateLayout)
}

// FormatTicketNumber joins prefix and a zero padded sequence.
func FormatTicketNumber(prefix string, seq int64) (string, error) {
	if seq > maxDailySequence {
		return "", ErrSequenceExhausted
	}
	if seq < 1 {
		return "", fmt.Errorf("invalid ticket sequence %d", seq)
	}
	return fmt.Sprintf("%s%0*d", prefix, ticketSequenceDigits, seq), nil
}

func sequenceOf(number string) (int64, error) {
	if len(number) < ticketSequenceDigits {
		return 0, fmt.Errorf("malformed ticket number %q", number)
	}
	seq, err := strconv.ParseInt(number[len(number)-ticketSequenceDigits:], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed ticket number %q: %w", number, err)
	}
	return seq, nil
}

// StoreAllocator derives the next number from the greatest stored number of
// the day. Concurrent callers may compute the same number; the store's unique
// constraint rejects the loser.
type StoreAllocator struct {
	tickets repository.TicketRepository
}

// NewStoreAllocator builds a StoreAllocator.
func NewStoreAllocator(tickets repository.TicketRepository) *StoreAllocator {
	return &StoreAllocator{tickets: tickets}
}

// Next returns the number following the day's latest stored ticket.
func (a *StoreAllocator) Next(ctx context.Context, now time.Time) (string, error) {
	prefix := TicketNumberPrefix(now)
	last, err := latestSequence(ctx, a.tickets, prefix)
	if err != nil {
		return "", err
	}
	return FormatTicketNumber(prefix, last+1)
}

// RedisAllocator serializes allocation through one INCR counter per day. A
// missing counter is seeded from the store so a flushed Redis never reissues
// numbers already persisted.
type RedisAllocator struct {
	client    redis.Cmdable
	tickets   repository.TicketRepository
	keyPrefix string
	ttl       time.Duration
}

// NewRedisAllocator builds a RedisAllocator.
func NewRedisAllocator(client redis.Cmdable, tickets repository.TicketRepository) *RedisAllocator {
	return &RedisAllocator{
		client:    client,
		tickets:   tickets,
		keyPrefix: defaultSequenceKeyPrefix,
		ttl:       sequenceKeyTTL,
	}
}

// Next increments the day's counter.
func (a *RedisAllocator) Next(ctx context.Context, now time.Time) (string, error) {
	prefix := TicketNumberPrefix(now)
	key := a.keyPrefix + prefix

	exists, err := a.client.Exists(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("check sequence key: %w", err)
	}
	if exists == 0 {
		last, err := latestSequence(ctx, a.tickets, prefix)
		if err != nil {
			return "", err
		}
		if err := a.client.SetNX(ctx, key, last, a.ttl).Err(); err != nil {
			return "", fmt.Errorf("seed sequence key: %w", err)
		}
	}

	seq, err := a.client.Incr(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("increment sequence key: %w", err)
	}
	return FormatTicketNumber(prefix, seq)
}

func latestSequence(ctx context.Context, tickets repository.TicketRepository, prefix string) (int64, error) {
	last, err := tickets.LatestNumberWithPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if last == "" {
		return 0, nil
	}
	return sequenceOf(last)
}
