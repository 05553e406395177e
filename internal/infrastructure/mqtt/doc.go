// Package mqtt connects blockenergy core to the message broker shared with
// the game host.
//
// The host plugin publishes world lifecycle and block events under
// blockenergy/host/...; core publishes lamp commands, chat replies and its
// own status under blockenergy/core/.... Topic builders live in Topics so
// both sides agree on the layout.
//
// The client wraps paho.mqtt.golang and adds:
//   - Subscriptions that are restored after a reconnect
//   - Panic recovery around message handlers
//   - A retained status message with a Last Will for crash detection
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllWorldSaved(), 1,
//	    func(topic string, payload []byte) error {
//	        w, err := mqtt.Topics{}.WorldFromTopic(topic)
//	        ...
//	    })
package mqtt
