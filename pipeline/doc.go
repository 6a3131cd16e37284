// Package pipeline orchestrates one outbound request attempt: it builds
// a fresh signing context, signs the request through whichever signer is
// configured, and routes large or unknown-length streaming bodies
// through the bounded splitter so each part can be transmitted as its
// own chunk.
//
//	p, err := pipeline.New(pipeline.DefaultConfig(), signing.ContextConfig{
//	    Scheme: scheme,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	attempt, err := p.Execute(ctx, req, body)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if attempt.Parts != nil {
//	    attempt.Parts.Subscribe(partConsumer)
//	}
//
// Config can be parsed from YAML, so split bounds can live alongside the
// rest of a client's configuration.
package pipeline
