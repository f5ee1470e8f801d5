// Package mqtt provides the paho-backed transport for the routing
// coordinator.
//
// This package manages:
//   - Connection to the MQTT broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Wildcard filter subscriptions, restored after reconnect
//   - Translation of paho callbacks into routing lifecycle events
//
// # Architecture
//
// Client implements routing.Transport. The coordinator never touches paho
// directly; it sees blocking Connect/Subscribe/Unsubscribe/Publish calls
// plus message and lifecycle callbacks:
//
//	routing.Coordinator ↔ mqtt.Client ↔ paho ↔ broker
//
// paho event mapping:
//
//	OnConnect        → EventConnect (initial connect and reconnects)
//	ConnectionLost   → EventOffline (with the causing error)
//	Reconnecting     → EventReconnect
//	Disconnect       → EventClose (emitted by Client.Disconnect itself)
//
// # Usage
//
//	transport := mqtt.New(cfg.MQTT)
//	coord := routing.New(transport)
//	if err := coord.Connect(); err != nil {
//	    log.Fatal(err)
//	}
package mqtt
