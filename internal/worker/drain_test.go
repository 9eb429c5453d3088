package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type item struct {
	ID int `json:"id"`
}

func newTestDrain(t *testing.T) (*drain[item], *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &drain[item]{
		rdb:   rdb,
		queue: "test_queue",
		log:   zerolog.Nop(),
	}, rdb
}

func TestFlush_FallbackRequeuesOnlyTransientFailures(t *testing.T) {
	d, rdb := newTestDrain(t)
	var stored []int
	d.bulk = func(context.Context, []item) error { return errors.New("copy failed") }
	d.single = func(_ context.Context, it item) error {
		switch it.ID {
		case 2:
			return &pgconn.PgError{Code: "23503"} // foreign key violation
		case 3:
			return fmt.Errorf("%w: bad id", errSkip)
		case 4:
			return errors.New("conn reset by peer")
		}
		stored = append(stored, it.ID)
		return nil
	}

	requeued := d.flush(context.Background(), []item{{1}, {2}, {3}, {4}})
	if requeued != 1 {
		t.Fatalf("requeued = %d, want 1", requeued)
	}
	if len(stored) != 1 || stored[0] != 1 {
		t.Errorf("stored = %v, want [1]", stored)
	}

	raw, err := rdb.LPop(context.Background(), "test_queue").Result()
	if err != nil {
		t.Fatalf("lpop: %v", err)
	}
	var got item
	if err := json.Unmarshal([]byte(raw), &got); err != nil || got.ID != 4 {
		t.Errorf("requeued item = %s", raw)
	}
}

func TestFlush_BulkSuccessSkipsFallback(t *testing.T) {
	d, _ := newTestDrain(t)
	d.bulk = func(context.Context, []item) error { return nil }
	d.single = func(context.Context, item) error {
		t.Fatal("single insert called after bulk success")
		return nil
	}
	if n := d.flush(context.Background(), []item{{1}, {2}}); n != 0 {
		t.Fatalf("requeued = %d", n)
	}
}

func TestFlush_NoBulkWritesEachItem(t *testing.T) {
	d, rdb := newTestDrain(t)
	var sent []int
	d.single = func(_ context.Context, it item) error {
		if it.ID == 3 {
			return errors.New("smtp: 421 try again later")
		}
		sent = append(sent, it.ID)
		return nil
	}

	if n := d.flush(context.Background(), []item{{1}, {2}, {3}}); n != 1 {
		t.Fatalf("requeued = %d, want 1", n)
	}
	if len(sent) != 2 {
		t.Errorf("sent = %v, want [1 2]", sent)
	}
	if n, _ := rdb.LLen(context.Background(), "test_queue").Result(); n != 1 {
		t.Errorf("queue length = %d, want 1", n)
	}
}

func TestRun_DrainsQueueAndSkipsMalformed(t *testing.T) {
	d, rdb := newTestDrain(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu  sync.Mutex
		got []int
	)
	d.bulk = func(_ context.Context, batch []item) error {
		mu.Lock()
		defer mu.Unlock()
		for _, it := range batch {
			got = append(got, it.ID)
		}
		return nil
	}
	d.single = func(context.Context, item) error { return nil }

	rdb.RPush(ctx, "test_queue", `{"id":1}`, `not json`, `{"id":2}`)

	done := make(chan struct{})
	go func() {
		d.run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n == 2 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("drained %d items, want 2", n)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	if got[0] != 1 || got[1] != 2 {
		t.Errorf("drained = %v, want [1 2]", got)
	}
}

func TestIsDataError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{&pgconn.PgError{Code: "23505"}, true},
		{&pgconn.PgError{Code: "22P02"}, true},
		{&pgconn.PgError{Code: "57P01"}, false},
		{fmt.Errorf("wrap: %w", errSkip), true},
		{errors.New("timeout"), false},
	}
	for _, tt := range tests {
		if got := isDataError(tt.err); got != tt.want {
			t.Errorf("isDataError(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
