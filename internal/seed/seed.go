// Package seed bootstraps development session state so the deck has a
// paid tier to render without manual setup.
package seed

import (
	"github.com/polycrisisio/wssi-deck/internal/common"
	"github.com/polycrisisio/wssi-deck/internal/models"
	"github.com/polycrisisio/wssi-deck/internal/session"
)

// DevTier is the tier granted to a fresh dev session.
const DevTier = models.TierPro

// DevSession grants DevTier to a session store that has never had a
// tier set. Existing state is left alone, so a tier chosen through the
// session surface survives restarts, including an explicit downgrade
// to free.
func DevSession(store *session.Store, logger *common.Logger) {
	if store == nil {
		return
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	has, err := store.HasTier()
	if err != nil {
		logger.Warn().Err(err).Msg("dev seed: session store unreadable, skipping")
		return
	}
	if has {
		logger.Debug().Msg("dev seed: session already has a tier, leaving it")
		return
	}

	if err := store.SetTier(string(DevTier)); err != nil {
		logger.Warn().Err(err).Msg("dev seed: failed to grant tier")
		return
	}
	logger.Info().Str("tier", string(DevTier)).Msg("dev seed: granted paid tier to fresh session")
}
