// Package messaging publishes events to a broker without tying business code
// to Kafka, NATS, NSQ or Google Pub/Sub. Outbound adapters depend on the
// Publisher interface; the driver is picked from configuration.
package messaging
