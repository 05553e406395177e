//go:build integration

package mqtt

import (
	"testing"
	"time"
)

// These tests need a broker at 127.0.0.1:1883:
//
//	go test -tags=integration ./internal/infrastructure/mqtt/...

func TestIntegration_Roundtrip(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.ClientID = "blockenergy-int-roundtrip"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	got := make(chan string, 1)
	if err := client.Subscribe(Topics{}.AllWorldSaved(), 1, func(topic string, _ []byte) error {
		w, err := Topics{}.WorldFromTopic(topic)
		if err == nil {
			got <- string(w)
		}
		return err
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if client.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", client.SubscriptionCount())
	}

	if err := client.Publish(Topics{}.WorldSaved("int_world"), []byte(`{}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case w := <-got:
		if w != "int_world" {
			t.Errorf("world = %q, want int_world", w)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("message not received")
	}

	if err := client.Unsubscribe(Topics{}.AllWorldSaved()); err != nil {
		t.Errorf("Unsubscribe() error = %v", err)
	}
	if err := client.HealthCheck(t.Context()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestIntegration_ConnectRefused(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.Port = 19999
	cfg.Reconnect.InitialDelay = 0

	if _, err := Connect(cfg); err == nil {
		t.Fatal("Connect() expected error for closed port")
	}
}
