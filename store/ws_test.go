package store

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFrameCompression(t *testing.T) {
	small := Frame{Kind: FrameRemove, Seq: 1, ID: "a"}
	data, err := EncodeFrame(small)
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != flagRaw {
		t.Errorf("small frame flag = %d, want raw", data[0])
	}

	big := Frame{Kind: FrameSwimmers}
	for i := 0; i < 100; i++ {
		big.Swimmers = append(big.Swimmers, SwimmerRecord{
			ID: fmt.Sprintf("swimmer-%d", i), OwnerID: "alice", Type: "fish_001", Health: 30,
		})
	}
	data, err = EncodeFrame(big)
	if err != nil {
		t.Fatal(err)
	}
	if data[0] != flagSnappy {
		t.Fatalf("large frame flag = %d, want snappy", data[0])
	}
	got, err := DecodeFrame(data)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Swimmers) != 100 || got.Swimmers[99].ID != "swimmer-99" {
		t.Errorf("decoded %d swimmers, last %+v", len(got.Swimmers), got.Swimmers[len(got.Swimmers)-1])
	}
}

func TestDecodeFrameRejectsGarbage(t *testing.T) {
	if _, err := DecodeFrame(nil); err == nil {
		t.Error("DecodeFrame(nil) succeeded")
	}
	if _, err := DecodeFrame([]byte{9, 1, 2}); err == nil {
		t.Error("DecodeFrame with unknown flag succeeded")
	}
}

func newTestServer(t *testing.T, mem *Memory) string {
	t.Helper()
	srv := httptest.NewServer(NewServer(mem, nil))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dialTest(t *testing.T, wsURL, owner string) *Client {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, wsURL, owner, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientServerCalls(t *testing.T) {
	mem := NewMemory()
	mem.PutSwimmer(SwimmerRecord{ID: "a", OwnerID: "alice", Type: "fish_001", Health: 30})
	mem.SetUser("alice", UserAggregate{Username: "alice", Money: 50, TankLevel: 1})
	c := dialTest(t, newTestServer(t, mem), "alice")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	recs, err := c.ReadAll(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != "a" {
		t.Fatalf("ReadAll = %v, want [a]", recs)
	}

	if err := c.RemoveByID(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	// Another tank may already have removed it
	if err := c.RemoveByID(ctx, "a"); err != nil {
		t.Errorf("second remove err = %v, want nil", err)
	}
	if n := len(mem.Swimmers()); n != 0 {
		t.Errorf("store has %d swimmers, want 0", n)
	}

	if err := c.WritePlayerPosition(ctx, 12, -7); err != nil {
		t.Fatal(err)
	}
	players := mem.Players()
	if len(players) != 1 || players[0].OwnerID != "alice" || players[0].X != 12 {
		t.Errorf("players = %+v, want alice at x=12", players)
	}

	u, err := c.ReadUserAggregate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if u.Money != 50 {
		t.Errorf("Money = %d, want 50", u.Money)
	}
}

func TestClientSubscribe(t *testing.T) {
	mem := NewMemory()
	mem.PutSwimmer(SwimmerRecord{ID: "a", Health: 30})
	c := dialTest(t, newTestServer(t, mem), "alice")

	updates := make(chan []SwimmerRecord, 8)
	unsubscribe := c.Subscribe(func(recs []SwimmerRecord) { updates <- recs })
	defer unsubscribe()

	waitFor := func(pred func([]SwimmerRecord) bool) {
		t.Helper()
		deadline := time.After(2 * time.Second)
		for {
			select {
			case recs := <-updates:
				if pred(recs) {
					return
				}
			case <-deadline:
				t.Fatal("timed out waiting for snapshot")
			}
		}
	}

	waitFor(func(recs []SwimmerRecord) bool { return len(recs) == 1 })
	mem.PutSwimmer(SwimmerRecord{ID: "b", Health: 0})
	waitFor(func(recs []SwimmerRecord) bool { return len(recs) == 2 && recs[1].Dead() })
}

func TestClientClosed(t *testing.T) {
	c := dialTest(t, newTestServer(t, NewMemory()), "alice")
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	_, err := c.ReadAll(context.Background())
	if !errors.Is(err, ErrClosed) {
		t.Errorf("ReadAll after Close err = %v, want ErrClosed", err)
	}
}
