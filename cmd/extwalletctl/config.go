package main

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcutil"
	flags "github.com/jessevdk/go-flags"

	"github.com/extwallet/extwallet/internal/cfgutil"
)

const (
	defaultConfigFilename = "extwalletctl.conf"
	defaultRPCServer      = "127.0.0.1:8575"
)

var (
	extwalletctlHomeDir = btcutil.AppDataDir("extwalletctl", false)
	defaultConfigFile   = filepath.Join(extwalletctlHomeDir, defaultConfigFilename)
)

// config defines the configuration options for extwalletctl.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ConfigFile   string             `short:"C" long:"configfile" description:"Path to configuration file"`
	ShowVersion  bool               `short:"V" long:"version" description:"Display version information and exit"`
	ListCommands bool               `short:"l" long:"listcommands" description:"List all of the supported commands and exit"`
	RPCServer    string             `short:"s" long:"rpcserver" description:"RPC server to connect to"`
	Token        string             `long:"token" description:"Internal auth token granting access to trusted wallet methods"`
	Origin       string             `long:"origin" description:"Web origin to present when no token is given"`
	Chain        *cfgutil.ChainFlag `long:"chain" description:"Chain (decimal or 0x hex id) used to build params for chain-switch commands"`
}

// cleanAndExpandPath expands environment variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	if path == "" {
		return path
	}
	path = os.ExpandEnv(path)
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(homeDir, path[1:])
		}
	}
	return filepath.Clean(path)
}

// loadConfig initializes and parses the config using a config file and
// command line options.
func loadConfig() (*config, []string, error) {
	cfg := config{
		ConfigFile: defaultConfigFile,
		RPCServer:  defaultRPCServer,
	}

	// Pre-parse the command line options for an alternative config file.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stdout, err)
			os.Exit(0)
		}
		return nil, nil, err
	}

	if preCfg.ShowVersion {
		appName := filepath.Base(os.Args[0])
		appName = strings.TrimSuffix(appName, filepath.Ext(appName))
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}
	if preCfg.ListCommands {
		listCommands()
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(cleanAndExpandPath(preCfg.ConfigFile))
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
		}
		return nil, nil, err
	}

	// Add the default port if none was specified.
	if _, _, err := net.SplitHostPort(cfg.RPCServer); err != nil {
		_, defaultPort, _ := net.SplitHostPort(defaultRPCServer)
		cfg.RPCServer = net.JoinHostPort(cfg.RPCServer, defaultPort)
	}

	return &cfg, remainingArgs, nil
}
