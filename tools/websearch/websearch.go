package websearch

import (
	"context"
	"errors"
)

// Result is one ranked snippet from a search provider.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher finds ranked text snippets for a query. Implementations cap
// the result count at k.
type Searcher interface {
	Search(ctx context.Context, q string, k int) ([]Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

var ErrUnsupportedProvider = errors.New("websearch: unsupported provider")

func New(provider Provider, apiKey string) (Searcher, error) {
	switch provider {
	case SerperProvider:
		return Serper{APIKey: apiKey}, nil
	case BraveProvider:
		return Brave{APIKey: apiKey}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}
