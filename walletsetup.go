package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/extwallet/extwallet/internal/prompt"
	"github.com/extwallet/extwallet/internal/zero"
	"github.com/extwallet/extwallet/wallet"
)

// createWallet prompts the user for the information needed to set up a new
// wallet record and commits the first wallet group accordingly.  The record
// is sealed under the entered passphrase and stored under cfg.WalletID.
func createWallet(ctx context.Context, cfg *config, w *wallet.Controller) error {
	reader := bufio.NewReader(os.Stdin)

	// Start by prompting for the private passphrase the record vault will
	// be sealed under.
	privPass, err := prompt.PrivatePass(reader)
	if err != nil {
		return err
	}
	defer zero.Bytes(privPass)

	// Ascertain the recovery phrase.  This is either a value the user has
	// entered which has already been validated, or the empty string when a
	// fresh wallet should be generated.
	phrase, err := prompt.Mnemonic(reader)
	if err != nil {
		return err
	}

	fmt.Println("Creating the wallet...")
	if err := w.Load(ctx, privPass); err != nil {
		return err
	}

	ictx := wallet.InternalContext()
	kind := wallet.PendingGenerate
	if phrase != "" {
		kind = wallet.PendingImportMnemonic
	}
	if _, err := w.StagePendingWallet(ictx, kind, phrase); err != nil {
		return err
	}
	groupID, err := w.SavePendingWallet(ictx)
	if err != nil {
		return err
	}

	// A generated phrase has never been seen by the user, so display it
	// once now.  Restored wallets already have their phrase backed up.
	if phrase == "" {
		generated, err := w.RevealRecoveryPhrase(ictx, groupID)
		if err != nil {
			return err
		}
		fmt.Println("Your wallet generation recovery phrase is:")
		fmt.Printf("\n%s\n\n", generated)
		fmt.Println("IMPORTANT: Keep the phrase in a safe place as you " +
			"will NOT be able to restore your wallet without it.")
		fmt.Println("Please keep in mind that anyone who has access to " +
			"the phrase can also restore your wallet thereby giving " +
			"them access to all your funds, so it is imperative that " +
			"you keep it in a secure location.")
	}

	fmt.Println("The wallet has been created successfully.")
	return nil
}

// openWallet prompts for the passphrase of an existing wallet record and
// loads it into the controller.
func openWallet(ctx context.Context, w *wallet.Controller) error {
	reader := bufio.NewReader(os.Stdin)
	privPass, err := prompt.ExistingPass(reader)
	if err != nil {
		return err
	}
	defer zero.Bytes(privPass)

	return w.Load(ctx, privPass)
}
