package service

import "context"

// CodeSource discovers candidate fund codes for a sector keyword. The
// returned sequence preserves the source's order and may contain
// duplicates; the fetch orchestrator deduplicates.
type CodeSource interface {
	DiscoverCodes(ctx context.Context, sector string) ([]string, error)

	// NameHints returns the code to display-name mapping collected
	// during discovery, used to override provider names.
	NameHints() map[string]string
}
