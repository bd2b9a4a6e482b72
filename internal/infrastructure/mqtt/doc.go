// Package mqtt provides MQTT client connectivity for Pinwarden.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and connect retry
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// Pinwarden uses MQTT as its second command transport: home automation
// controllers publish pin commands to the control topic and the bridge
// answers on the response topics. The broker decouples those controllers
// from the service's socket protocol.
//
//	Controllers ↔ MQTT Broker ↔ Pinwarden Bridge
//
// The broker being down never takes the service down. Connect() returns a
// usable client even when the broker is unreachable; subscriptions made in
// the meantime are tracked and applied on every (re)connect.
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Subscribe to inbound pin commands
//	topics := client.Topics()
//	err = client.Subscribe(topics.Control(), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("Received: %s = %s", topic, payload)
//	        return nil
//	    })
//
//	// Publish a response
//	client.Publish(topics.Response(), payload, 1, false)
package mqtt
