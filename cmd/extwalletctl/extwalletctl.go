package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/extwallet/extwallet/rpc/provider"
)

const version = "0.3.0-beta"

const (
	showHelpMessage = "Specify -h to show available options"
	listCmdMessage  = "Specify -l to list available commands"
)

// publicMethods are the provider methods any web origin may call.  They are
// listed here only for -l; the server is the authority on what exists.
var publicMethods = []string{
	"eth_accounts",
	"eth_chainId",
	"eth_requestAccounts",
	"eth_sendTransaction",
	"eth_signTypedData_v4",
	"net_version",
	"personal_sign",
	"wallet_getPermissions",
	"wallet_requestPermissions",
	"wallet_switchEthereumChain",
}

// internalMethods require the internal auth token.
var internalMethods = []string{
	"extwallet_addPermission",
	"extwallet_clearSession",
	"extwallet_confirmBackup",
	"extwallet_discardPendingWallet",
	"extwallet_establishSession",
	"extwallet_getChainForOrigin",
	"extwallet_getGroups",
	"extwallet_getNoBackupCount",
	"extwallet_getPreferences",
	"extwallet_getPrivateKey",
	"extwallet_getRecoveryPhrase",
	"extwallet_getTransactions",
	"extwallet_removeAddress",
	"extwallet_removeAllOriginPermissions",
	"extwallet_removeGroup",
	"extwallet_removePermission",
	"extwallet_removeWalletNameFlag",
	"extwallet_renameAddress",
	"extwallet_renameGroup",
	"extwallet_savePendingWallet",
	"extwallet_sendTransaction",
	"extwallet_setChainForOrigin",
	"extwallet_setCurrentAddress",
	"extwallet_setPreferences",
	"extwallet_setWalletNameFlag",
	"extwallet_signPersonal",
	"extwallet_stagePendingWallet",
}

// listCommands categorizes and lists all of the usable commands along with
// their one-line usage.
func listCommands() {
	fmt.Println("Public provider methods (any origin):")
	sort.Strings(publicMethods)
	for _, method := range publicMethods {
		fmt.Printf("  %s\n", method)
	}
	fmt.Println("Trusted wallet methods (require --token):")
	sort.Strings(internalMethods)
	for _, method := range internalMethods {
		fmt.Printf("  %s\n", method)
	}
}

// usage displays the general usage when the help flag is not displayed and
// an invalid command was specified.
func usage(errorMessage string) {
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	fmt.Fprintln(os.Stderr, errorMessage)
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintf(os.Stderr, "  %s [OPTIONS] <method> <params...>\n\n",
		appName)
	fmt.Fprintln(os.Stderr, showHelpMessage)
	fmt.Fprintln(os.Stderr, listCmdMessage)
}

func main() {
	cfg, args, err := loadConfig()
	if err != nil {
		os.Exit(1)
	}
	if len(args) < 1 {
		usage("No method specified")
		os.Exit(1)
	}
	method := args[0]

	// Convert remaining command line args to a slice of parameter values.
	// Args that parse as JSON are passed through typed; everything else is
	// sent as a string.
	params := make([]interface{}, 0, len(args[1:]))
	for _, arg := range args[1:] {
		var v interface{}
		if err := json.Unmarshal([]byte(arg), &v); err == nil {
			params = append(params, v)
		} else {
			params = append(params, arg)
		}
	}

	// Convenience for the chain-switch methods: the chain may be given via
	// --chain instead of hand-writing the params object.
	if len(params) == 0 && cfg.Chain != nil {
		switch method {
		case "wallet_switchEthereumChain":
			params = append(params, map[string]string{
				"chainId": cfg.Chain.HexID(),
			})
		case "extwallet_setChainForOrigin":
			if cfg.Origin == "" {
				fmt.Fprintln(os.Stderr, "extwallet_setChainForOrigin "+
					"with --chain also requires --origin")
				os.Exit(1)
			}
			params = append(params, cfg.Chain.HexID(), cfg.Origin)
		}
	}

	rawParams, err := json.Marshal(params)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Dial the provider websocket endpoint, presenting either the internal
	// auth token or a plain web origin.
	header := http.Header{}
	if cfg.Token != "" {
		header.Set("X-Extwallet-Auth", cfg.Token)
	}
	if cfg.Origin != "" {
		header.Set("Origin", cfg.Origin)
	}
	u := url.URL{Scheme: "ws", Host: cfg.RPCServer, Path: "/"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), header)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n",
			cfg.RPCServer, err)
		os.Exit(1)
	}
	defer conn.Close()

	req := &provider.Request{
		JSONRPC: "2.0",
		ID:      json.RawMessage(`1`),
		Method:  method,
		Params:  rawParams,
	}
	if err := conn.WriteJSON(req); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var resp provider.Response
	if err := conn.ReadJSON(&resp); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if resp.Error != nil {
		fmt.Fprintf(os.Stderr, "error %d: %s\n", resp.Error.Code,
			resp.Error.Message)
		os.Exit(1)
	}

	// Strings print raw so they can be piped; everything else is printed
	// as indented JSON.
	switch result := resp.Result.(type) {
	case string:
		fmt.Println(result)
	case nil:
		// No result to print.
	default:
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(out))
	}
}
