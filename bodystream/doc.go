// Package bodystream models outbound request bodies as asynchronous
// byte-buffer streams and splits them into bounded parts for chunked
// transfer.
//
// A Source delivers byte buffers to a single Subscriber under an explicit
// demand protocol: the subscriber asks for buffers via
// Subscription.Request and the source never delivers more than was asked
// for. Sources built from in-memory data declare their content length up
// front; reader-backed sources do not.
//
// # Splitting
//
// Split consumes one Source and republishes it as a sequence of Parts,
// each carrying at most a configured number of bytes:
//
//	splitter, err := bodystream.Split(ctx, body, bodystream.SplitConfig{
//	    ChunkSize:    5 * 1024 * 1024,
//	    MemoryBudget: 64 * 1024 * 1024,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	splitter.Subscribe(partConsumer)
//
// When the source declares its length, every Part is published to the
// part subscriber as soon as it is created, so its final length is known
// immediately. When the length is unknown, a Part is published only once
// it is complete, because only then is its length known.
//
// The splitter requests exactly one buffer at a time from the source and
// stops requesting while the bytes buffered downstream would exceed the
// configured memory budget, so memory usage stays bounded no matter how
// fast the source can produce.
//
// Cancelling the context passed to Split cancels the upstream
// subscription; no further buffers are requested or delivered afterward.
package bodystream
