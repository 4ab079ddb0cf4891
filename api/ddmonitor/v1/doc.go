// Package ddmv1 defines the ddmonitor.v1.Ledger gRPC service: its request
// and response messages, a JSON wire codec, the service descriptor with
// client and server bindings, and the mapping between program errors and
// gRPC status codes.
//
// Messages travel as JSON. Clients select the codec with DialOptions or
// by passing grpc.CallContentSubtype(CodecName) per call; servers pick it
// up from the registered codec automatically.
package ddmv1
