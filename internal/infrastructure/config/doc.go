// Package config loads and validates topicmux configuration.
//
// Configuration comes from a YAML file with environment variable overrides
// (TOPICMUX_* variables take precedence over file values). Secrets such as
// the broker password and the metrics token should be supplied through the
// environment rather than committed to the file.
//
// Example configuration:
//
//	mqtt:
//	  broker:
//	    host: "localhost"
//	    port: 1883
//	    client_id: ""        # empty = generated
//	  qos: 1
//	  reconnect:
//	    initial_delay: 1
//	    max_delay: 60
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stdout"
//
//	metrics:
//	  enabled: false
//
//	routes:
//	  - label: "device-config"
//	    pattern: "devices/+deviceId/config/#keys"
//	    qos: 1
//	    subscribe: true
package config
