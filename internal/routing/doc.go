// Package routing provides label-based topic routing on top of an MQTT
// transport.
//
// This package manages:
//   - Parameterised topic patterns (compile, match, parameter extraction)
//   - A label registry mapping caller-chosen names to compiled patterns
//   - First-match message dispatch to per-label listeners
//   - A connection status state machine with a single observer slot
//
// # Architecture
//
// Callers register human-readable labels for parameterised patterns such as
// "devices/+deviceId/config/#keys" and then subscribe, publish and listen
// using the label instead of the raw wildcard string. Named parameters are
// extracted from every matched topic and attached to the delivered Message.
//
//	caller ↔ Coordinator ↔ Transport ↔ MQTT broker
//
// The Transport interface abstracts the underlying MQTT client; the
// production implementation lives in internal/infrastructure/mqtt. Delivery
// guarantees, reconnect timing and wire-level encoding are the transport's
// concern, not this package's.
//
// # Pattern Syntax
//
// Segments are separated by "/". A segment starting with "+" declares a
// single-level parameter; a segment starting with "#" declares a
// multi-level parameter and must be the final segment. All other segments
// are literals.
//
//	devices/+deviceId/state          matches devices/d1/state
//	devices/+deviceId/config/#keys   matches devices/d1/config/http/host
//
// # Dispatch Semantics
//
// Inbound messages are matched against registered labels in registration
// order and delivered to the first matching label only. A topic never fans
// out to multiple labels. Messages matching no label are dropped silently;
// broad broker-side filters routinely deliver traffic no label claims.
//
// # Usage
//
//	coord := routing.New(transport)
//	coord.RegisterPattern("cfg", "devices/+deviceId/config/#keys")
//	coord.AddListener("cfg", func(msg routing.Message) {
//	    id, _ := msg.Params.Get("deviceId")
//	    log.Printf("config update for %s", id)
//	})
//	if err := coord.Connect(); err != nil {
//	    log.Fatal(err)
//	}
//	coord.Subscribe("cfg", routing.SubscribeOptions{QoS: 1})
package routing
