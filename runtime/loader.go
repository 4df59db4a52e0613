package runtime

import (
	"context"

	"github.com/wippyai/gamehost/bootstrap"
	"github.com/wippyai/gamehost/fetch"
)

// Loader returns a bootstrap.Loader that fetches the game at path and loads
// it into rt. A nil fetcher uses fetch.Default.
func Loader(rt *Runtime, path string, fetcher fetch.Fetcher) bootstrap.Loader {
	if fetcher == nil {
		fetcher = fetch.Default
	}
	return bootstrap.LoaderFunc(func(ctx context.Context) (bootstrap.Module, error) {
		data, err := fetcher.Fetch(ctx, path)
		if err != nil {
			return nil, err
		}
		game, err := rt.LoadGame(ctx, data)
		if err != nil {
			return nil, err
		}
		return game, nil
	})
}
