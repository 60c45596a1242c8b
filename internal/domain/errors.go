package domain

import "errors"

// Errors returned by the ingestion pipeline. Callers check them with errors.Is.
var (
	// ErrConnection is returned when a producer for a destination cannot be built.
	// The pool does not cache the failure; the next packet retries.
	ErrConnection = errors.New("ingestion: connection failed")

	// ErrPayloadTooLarge is returned when a single payload exceeds the batch limit.
	ErrPayloadTooLarge = errors.New("ingestion: payload too large for batch")

	// ErrDelivery is returned when a batch could not be sent over an existing producer.
	ErrDelivery = errors.New("ingestion: delivery failed")

	// ErrEncoding is returned when a payload cannot be serialized.
	ErrEncoding = errors.New("ingestion: payload encoding failed")

	// ErrConfiguration is returned when startup configuration is missing or invalid.
	ErrConfiguration = errors.New("ingestion: invalid configuration")

	// ErrUnsupportedScheme is returned for connection strings with an unknown scheme.
	ErrUnsupportedScheme = errors.New("ingestion: unsupported connection scheme")
)
