//go:build integration

package natsutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
)

func natsURL() string {
	if v := os.Getenv("NATS_URL"); v != "" {
		return v
	}
	return nats.DefaultURL
}

func connectNATS(t *testing.T) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect(natsURL())
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	t.Cleanup(func() { nc.Close() })
	return nc
}

func TestNATS_PubSub(t *testing.T) {
	nc := connectNATS(t)

	type record struct {
		Org string `json:"org"`
	}

	ch := make(chan record, 1)
	sub, err := Subscribe(nc, "integ.trips", func(_ context.Context, r record) {
		ch <- r
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	if err := Publish(context.Background(), nc, "integ.trips", record{Org: "New York"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.Org != "New York" {
			t.Fatalf("got %q", got.Org)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestNATS_PublishMsgCarriesHeaders(t *testing.T) {
	nc := connectNATS(t)

	ch := make(chan *nats.Msg, 1)
	sub, err := nc.Subscribe("integ.headers", func(m *nats.Msg) { ch <- m })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	hdr := nats.Header{}
	hdr.Set("X-Retry-Count", "2")
	if err := PublishMsg(context.Background(), nc, "integ.headers", hdr, map[string]string{"k": "v"}); err != nil {
		t.Fatalf("PublishMsg: %v", err)
	}

	select {
	case msg := <-ch:
		if msg.Header.Get("X-Retry-Count") != "2" {
			t.Fatalf("header = %q", msg.Header.Get("X-Retry-Count"))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}
