package anthropic

// BuildCachedSystemBlocks constructs system content blocks with a
// cache breakpoint set to a 1-hour TTL. The categorization system
// prompt is identical for every product in a batch, so caching it cuts
// input token cost across a run.
func BuildCachedSystemBlocks(text string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: "1h",
			},
		},
	}
}
