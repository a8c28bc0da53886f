package engine

import (
	"context"
	"testing"

	"purifygate/pkg/purifier"
)

func benchPurifier() *purifier.Purifier {
	return purifier.New(purifier.WithWords("DEBUG", "4111-1234", "SECRET", "禁言", "badword"))
}

func BenchmarkPipeline_NoMatch(b *testing.B) {
	p := benchPurifier()
	purify, _ := NewPurifyProcessor(PurifyConfig{Name: "purify", Mask: purifier.MaskRune('*', true)}, p)
	chain := NewProcessorChain(
		NewBlockListProcessor("drop_debug", []string{"TRACE"}),
		// Purify only allocates a new entry when it finds a match
		purify,
	)

	ctx := &ProcessingContext{Context: context.Background()}
	data := []byte("INFO: User login successful for ID 9999")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _, _ = chain.Process(ctx, data)
	}
}

func BenchmarkPipeline_WithMask(b *testing.B) {
	purify, _ := NewPurifyProcessor(PurifyConfig{Name: "purify", Mask: purifier.MaskRune('X', true)}, benchPurifier())
	chain := NewProcessorChain(purify)
	ctx := &ProcessingContext{Context: context.Background()}
	data := []byte("This log contains a SECRET value")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _, _ = chain.Process(ctx, data)
	}
}

func BenchmarkPipeline_WithMaskCached(b *testing.B) {
	purify, _ := NewPurifyProcessor(PurifyConfig{
		Name:      "purify",
		Mask:      purifier.MaskRune('X', true),
		CacheSize: 128,
	}, benchPurifier())
	chain := NewProcessorChain(purify)
	ctx := &ProcessingContext{Context: context.Background()}
	data := []byte("This log contains a SECRET value")
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, _, _ = chain.Process(ctx, data)
	}
}
