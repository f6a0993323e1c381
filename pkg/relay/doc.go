// Package relay forwards one upstream token stream to one downstream client
// as server-sent events.
//
// Every token becomes a "data: <token>" event in the order it was produced.
// A stream that ends normally is terminated with "data: [DONE]"; a stream
// that fails is terminated with "data: [ERROR] <message>" and Run returns
// the failure so the transport can abort the response. Exactly one of the
// two terminal events is written, never both.
//
// A Relay is single use:
//
//	r := relay.New(stream, relay.NewSSEWriter(w))
//	result, err := r.Run(ctx)
//
// When ctx is cancelled or the downstream write fails, the upstream stream
// is closed immediately instead of being drained, and nothing more is
// written.
package relay
