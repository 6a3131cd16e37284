package chunked

// Annotation is one chunk extension: a name/value pair embedded in the
// chunk's framing metadata.
type Annotation struct {
	Name  []byte
	Value []byte
}

// Extension computes an optional annotation from a chunk's bytes. The
// annotation usually depends on the chunk data itself (checksum,
// signature), but is not required to.
type Extension interface {
	// Compute returns the annotation for chunk, or ok=false when this
	// chunk carries no extension.
	Compute(chunk []byte) (ann Annotation, ok bool)

	// Reset clears any incremental state so the extension produces the
	// same annotations for identical chunks on an independent attempt.
	Reset()
}

// ExtensionFunc adapts a stateless function to the Extension interface.
// Reset is a no-op.
type ExtensionFunc func(chunk []byte) (Annotation, bool)

// Compute implements Extension.
func (f ExtensionFunc) Compute(chunk []byte) (Annotation, bool) {
	return f(chunk)
}

// Reset implements Extension.
func (ExtensionFunc) Reset() {}

// StaticExtension returns an Extension that annotates every chunk with
// the same name/value pair.
func StaticExtension(name, value string) Extension {
	ann := Annotation{Name: []byte(name), Value: []byte(value)}
	return ExtensionFunc(func([]byte) (Annotation, bool) {
		return ann, true
	})
}
