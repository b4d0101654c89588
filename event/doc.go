// Package event defines the multiplexed event value and the unbounded
// single-producer/single-consumer queue that carries it to the application.
package event
