package main

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/extwallet/extwallet/chain"
	"github.com/extwallet/extwallet/chainreg"
	"github.com/extwallet/extwallet/confirm"
	"github.com/extwallet/extwallet/rpc/provider"
	"github.com/extwallet/extwallet/storage"
	"github.com/extwallet/extwallet/vault"
	"github.com/extwallet/extwallet/wallet"
)

func main() {
	// Work around defer not working after os.Exit.
	if err := walletMain(); err != nil {
		os.Exit(1)
	}
}

// walletMain is a work-around main function that is required since deferred
// functions (such as log flushing) are not called with calls to os.Exit.
// Instead, main runs this function and checks for a non-nil error, at which
// point any defers have already run, and if the error is non-nil, the program
// can be exited with an error exit status.
func walletMain() error {
	// Load configuration and parse command line.  This also initializes
	// logging and configures it accordingly.
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Show version at startup.
	log.Infof("Version %s", version())

	if err := os.MkdirAll(cfg.AppDataDir.Value, 0700); err != nil {
		log.Errorf("Failed to create data directory: %v", err)
		return err
	}

	// Open the encrypted record store.  The vault cost parameters are
	// chosen here once and reused for every seal of this record.
	vaultOpts := &vault.DefaultOptions
	if cfg.FastScrypt {
		log.Warnf("Using fast scrypt parameters; the record vault is NOT " +
			"hardened against passphrase brute force")
		vaultOpts = &vault.FastOptions
	}
	dbPath := filepath.Join(cfg.AppDataDir.Value, defaultRecordFilename)
	store, err := storage.OpenBoltStore(dbPath, vaultOpts)
	if err != nil {
		log.Errorf("Failed to open wallet database at %s: %v", dbPath, err)
		return err
	}
	defer store.Close()

	// Build the chain registry, applying any endpoint overrides from the
	// config.  Overrides were validated during config load.
	registry := chainreg.NewStaticRegistry()
	for id, url := range cfg.RPCURL {
		ch, err := chainreg.ParseChain(id)
		if err != nil {
			return err
		}
		registry.AddNetwork(ch, chainreg.Network{Name: ch.String(), RPCURL: url})
	}

	var backend chain.Backend
	if cfg.Proxy != "" {
		log.Infof("Dialing chain endpoints via proxy %s", cfg.Proxy)
		backend = chain.NewProxiedEthBackend(registry, cfg.Proxy,
			cfg.ProxyUser, cfg.ProxyPass)
	} else {
		backend = chain.NewEthBackend(registry)
	}

	w := wallet.New(&wallet.Config{
		ID:       cfg.WalletID,
		Store:    store,
		Registry: registry,
		Backend:  backend,
	})

	ctx := context.Background()
	if cfg.Create {
		if err := createWallet(ctx, cfg, w); err != nil {
			log.Errorf("Unable to create wallet: %v", err)
			return err
		}
	} else {
		if err := openWallet(ctx, w); err != nil {
			log.Errorf("Unable to open wallet: %v", err)
			return err
		}
	}

	if cfg.InternalToken == "" {
		log.Warnf("No --internaltoken set; trusted wallet methods are " +
			"unavailable over RPC")
	}

	// Confirmation requests arrive from RPC clients and are resolved on
	// the controlling terminal.
	confirmer := newTerminalConfirmer(os.Stdin)

	dispatcher := provider.NewDispatcher(w, confirmer)
	server := provider.NewServer(dispatcher, cfg.InternalToken)

	listeners := make([]net.Listener, 0, len(cfg.Listeners))
	for _, addr := range cfg.Listeners {
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			log.Errorf("RPC server unable to listen on %s: %v", addr, err)
			return err
		}
		listeners = append(listeners, listener)
		log.Infof("Provider RPC server listening on %s", listener.Addr())
		go func(lis net.Listener) {
			err := http.Serve(lis, server)
			if err != nil && !strings.Contains(err.Error(), "use of closed") {
				log.Errorf("Serve error on %s: %v", lis.Addr(), err)
			}
		}(listener)
	}

	// Block until an interrupt or a shutdown request arrives, then tear
	// the server down.
	<-interruptListener()
	log.Info("Shutting down...")
	for _, listener := range listeners {
		listener.Close()
	}
	server.Stop()
	log.Info("Shutdown complete")
	return nil
}

// terminalConfirmer resolves confirmation requests by prompting on the
// terminal.  Prompts are serialized so concurrent RPC requests cannot
// interleave their output.
type terminalConfirmer struct {
	mtx sync.Mutex
	in  *bufio.Reader
}

func newTerminalConfirmer(in *os.File) *terminalConfirmer {
	return &terminalConfirmer{in: bufio.NewReader(in)}
}

// Open implements confirm.Gateway.  The request blocks its RPC caller until
// the user answers, so the prompt mutex doubles as a one-at-a-time queue.
func (t *terminalConfirmer) Open(req *confirm.Request) error {
	go func() {
		t.mtx.Lock()
		defer t.mtx.Unlock()

		fmt.Printf("\nConfirmation requested: %s\n", req.Route)
		for k, v := range req.Params {
			fmt.Printf("  %s: %s\n", k, v)
		}
		for {
			fmt.Print("Approve? (y/n): ")
			line, err := t.in.ReadString('\n')
			if err != nil {
				req.OnDismiss()
				return
			}
			switch strings.ToLower(strings.TrimSpace(line)) {
			case "y", "yes":
				req.OnResolve(true)
				return
			case "n", "no":
				req.OnDismiss()
				return
			}
		}
	}()
	return nil
}
