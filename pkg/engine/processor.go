package engine

// Processor defines the interface for any component that transforms or filters entries.
type Processor interface {
	// Process applies logic to the entry.
	// It returns the (potentially modified) entry, a bool indicating if the entry should be DROPPED, and any error.
	// If drop is true, the pipeline stops processing this entry.
	// Entries without a match must be returned as-is, without copying.
	Process(ctx *ProcessingContext, entry []byte) ([]byte, bool, error)

	// Name returns the identifier of the processor (for metrics/logging).
	Name() string
}
