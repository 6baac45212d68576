package record

import (
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/stretchr/testify/require"

	"github.com/extwallet/extwallet/session"
)

func TestRevealRequiresActiveSession(t *testing.T) {
	r := New()
	r, mg := commit(t, r, mnemonicContainer(t, phraseA, 1), OriginGenerated)
	r, pg := commit(t, r, privKeyContainer(t), OriginImported)

	start := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	clk := clock.NewTestClock(start)
	sess := session.NewManager(clk)

	// No session key established yet.
	_, err := RecoveryPhrase(r, mg.ID, sess)
	require.ErrorIs(t, err, session.ErrSessionExpired)

	sess.Set([]byte("credential"))
	phrase, err := RecoveryPhrase(r, mg.ID, sess)
	require.NoError(t, err)
	require.Equal(t, phraseA, phrase)

	addr := pg.Container.FirstWallet().Address
	keyHex, err := PrivateKey(r, addr, sess)
	require.NoError(t, err)
	require.Equal(t, importedKeyHex, keyHex)

	// Reveal is scoped per group: a private-key group has no phrase.
	_, err = RecoveryPhrase(r, pg.ID, sess)
	require.ErrorIs(t, err, ErrNotMnemonicGroup)

	_, err = RecoveryPhrase(r, "no-such-group", sess)
	require.ErrorIs(t, err, ErrUnknownGroup)

	// Expiry is checked at the moment of use.
	clk.SetTime(start.Add(session.DefaultTimeout))
	_, err = RecoveryPhrase(r, mg.ID, sess)
	require.ErrorIs(t, err, session.ErrSessionExpired)
	_, err = PrivateKey(r, addr, sess)
	require.ErrorIs(t, err, session.ErrSessionExpired)
}
