package session

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/coldread-dev/coldread/internal/cli/account"
	"github.com/coldread-dev/coldread/internal/cli/credstore"
)

// ProfileFetcher is the slice of the API client the resolver needs.
type ProfileFetcher interface {
	Me(ctx context.Context) (*account.Profile, error)
}

// Resolve exchanges the stored token for the current profile. Any failure is
// treated as "no session": the store is cleared and Anonymous is returned.
// There is no retry.
func Resolve(ctx context.Context, api ProfileFetcher, store credstore.Store, log zerolog.Logger) State {
	token, err := store.GetToken()
	if err != nil || token == "" {
		if err != nil && !errors.Is(err, credstore.ErrNotFound) {
			log.Warn().Err(err).Msg("Failed to read session token, treating as anonymous")
			clearStore(store, log)
		}
		return Anonymous()
	}

	user, err := api.Me(ctx)
	if err != nil {
		log.Info().Err(err).Msg("Stored session rejected, clearing token")
		clearStore(store, log)
		return Anonymous()
	}

	// Refresh the cached snapshot; it is only a cache so failures are logged
	if err := store.SetUser(user); err != nil {
		log.Warn().Err(err).Msg("Failed to cache user profile")
	}

	log.Debug().Str("user_id", user.ID).Msg("Session resolved")
	return Authenticated(user)
}

func clearStore(store credstore.Store, log zerolog.Logger) {
	if err := store.Clear(); err != nil {
		log.Error().Err(err).Msg("Failed to clear credential store")
	}
}
