// Package rabbitmq publishes JSON messages to a topic exchange and consumes
// them with manual acknowledgement. A message whose handler fails is
// republished to the work queue with an x-retry-count header until it has
// been tried Topology.MaxAttempts times, then rejected without requeue so the
// broker routes it to the dead-letter exchange.
package rabbitmq
