package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	PacketsReceived  atomic.Int64
	DecodeFailures   atomic.Int64
	LaneDrops        atomic.Int64
	ForwardFailures  atomic.Int64
	DispatchSuccess  atomic.Int64
	PayloadTooLarge  atomic.Int64
	ConnectionErrors atomic.Int64
	DeliveryErrors   atomic.Int64
	EncodeFailures   atomic.Int64
	ProducersCreated atomic.Int64
)

func HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "ingestion_packets_received_total %d\n", PacketsReceived.Load())
	fmt.Fprintf(w, "ingestion_decode_failures_total %d\n", DecodeFailures.Load())
	fmt.Fprintf(w, "ingestion_lane_drops_total %d\n", LaneDrops.Load())
	fmt.Fprintf(w, "ingestion_forward_failures_total %d\n", ForwardFailures.Load())
	fmt.Fprintf(w, "ingestion_dispatch_success_total %d\n", DispatchSuccess.Load())
	fmt.Fprintf(w, "ingestion_payload_too_large_total %d\n", PayloadTooLarge.Load())
	fmt.Fprintf(w, "ingestion_connection_errors_total %d\n", ConnectionErrors.Load())
	fmt.Fprintf(w, "ingestion_delivery_errors_total %d\n", DeliveryErrors.Load())
	fmt.Fprintf(w, "ingestion_encode_failures_total %d\n", EncodeFailures.Load())
	fmt.Fprintf(w, "ingestion_producers_created_total %d\n", ProducersCreated.Load())
}
