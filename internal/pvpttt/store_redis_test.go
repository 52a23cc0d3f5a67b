package pvpttt

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/park285/Cheese-TicTacToe-bot/internal/ttt"
)

func TestRedisStoreClaimUpdateRelease(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	ctx := context.Background()

	store, err := NewRedisStore(ctx, "redis://"+mr.Addr()+"/0")
	if err != nil {
		t.Fatalf("NewRedisStore: %v", err)
	}
	defer store.Close()

	s := &Session{ID: "s1", Channel: "room1", Game: ttt.NewGame("gm")}
	if err := store.Claim(ctx, s); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	if err := store.Claim(ctx, &Session{ID: "s2", Channel: "room1", Game: ttt.NewGame("x")}); !errors.Is(err, ErrGameInProgress) {
		t.Fatalf("expected ErrGameInProgress, got %v", err)
	}
	if ttl := mr.TTL(sessionKey("room1")); ttl <= 0 || ttl > 24*time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	updated, err := store.Update(ctx, "room1", func(cur *Session) error { return cur.Game.Play(0, 4) })
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Game.Board[4] != ttt.X {
		t.Fatalf("update not applied: %v", updated.Game.Board)
	}

	// a failing update is not persisted
	if _, err := store.Update(ctx, "room1", func(cur *Session) error { return cur.Game.Play(1, 4) }); !errors.Is(err, ttt.ErrCellOccupied) {
		t.Fatalf("expected ErrCellOccupied, got %v", err)
	}
	loaded, err := store.Load(ctx, "room1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Game.Current != 1 || len(loaded.Game.Moves) != 1 {
		t.Fatalf("unexpected state after rejected update: %+v", loaded.Game)
	}

	chs, err := store.Channels(ctx)
	if err != nil || len(chs) != 1 || chs[0] != "room1" {
		t.Fatalf("Channels: %v %v", chs, err)
	}

	if err := store.Release(ctx, "room1"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := store.Load(ctx, "room1"); !errors.Is(err, ErrNoGame) {
		t.Fatalf("expected ErrNoGame after release, got %v", err)
	}
	if _, err := store.Update(ctx, "room1", func(*Session) error { return nil }); !errors.Is(err, ErrNoGame) {
		t.Fatalf("expected ErrNoGame on update after release, got %v", err)
	}
}

func TestRedisStoreChannelsPrunesExpired(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mr.Close()
	ctx := context.Background()
	store := NewRedisStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))

	if err := store.Claim(ctx, &Session{ID: "s1", Channel: "room1", Game: ttt.NewGame("gm")}); err != nil {
		t.Fatalf("Claim: %v", err)
	}
	mr.FastForward(25 * time.Hour)

	chs, err := store.Channels(ctx)
	if err != nil {
		t.Fatalf("Channels: %v", err)
	}
	if len(chs) != 0 {
		t.Fatalf("expected expired session to be pruned, got %v", chs)
	}
	if ok, _ := mr.SIsMember(channelIndexKey(), "room1"); ok {
		t.Fatalf("index entry should be removed")
	}
}

func TestRedisStoreClaimRollsBackWhenIndexFails(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(rdb)
	defer store.Close()
	ctx := context.Background()

	// a string under the index key makes SADD fail with WRONGTYPE
	if err := mr.Set(channelIndexKey(), "broken"); err != nil {
		t.Fatalf("seed index key: %v", err)
	}
	if err := store.Claim(ctx, &Session{ID: "s1", Channel: "room1", Game: ttt.NewGame("gm")}); err == nil {
		t.Fatalf("expected Claim to fail when the index write fails")
	}
	if mr.Exists(sessionKey("room1")) {
		t.Fatalf("failed claim left the session key behind")
	}

	mr.Del(channelIndexKey())
	if err := store.Claim(ctx, &Session{ID: "s2", Channel: "room1", Game: ttt.NewGame("gm")}); err != nil {
		t.Fatalf("channel must be claimable after rollback: %v", err)
	}
}
