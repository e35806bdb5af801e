// Package config provides functionality for managing configuration options
// for the BookKeeper binaries using command-line flags, a config file and
// environment variables.
//
// Precedence, lowest to highest: defaults, config file, flags given on the
// command line, environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ClientOptions holds the configuration values for the catalog client.
type ClientOptions struct {
	// Command selects the client front-end: shell, dashboard, login or logout.
	Command string `json:"command" yaml:"command"`

	// GraphQLURL is the remote catalog API endpoint.
	GraphQLURL string `json:"graphql_url" yaml:"graphql_url"`

	// AuthDomain is the identity provider domain, e.g. tenant.eu.auth0.com.
	AuthDomain string `json:"auth_domain" yaml:"auth_domain"`
	// ClientID is the identity provider application identifier.
	ClientID string `json:"client_id" yaml:"client_id"`
	// Audience is the optional API audience requested at login.
	Audience string `json:"audience" yaml:"audience"`
	// CallbackAddr is the loopback address receiving the login redirect.
	CallbackAddr string `json:"callback_addr" yaml:"callback_addr"`

	// StoragePath is the local storage file holding the credential.
	StoragePath string `json:"storage_path" yaml:"storage_path"`
	// StorageKey, when set, seals stored values at rest.
	StorageKey string `json:"storage_key" yaml:"storage_key"`

	// CAFile is an optional PEM bundle trusted for the API's TLS certificate.
	CAFile string `json:"ca_file" yaml:"ca_file"`

	LogLevel string `json:"log_level" yaml:"log_level"`
	// LogFile receives logs; empty means stderr (the dashboard forces a file).
	LogFile string `json:"log_file" yaml:"log_file"`

	// Config is the path to the config file.
	Config string `json:"-" yaml:"-"`
	// ShowVersion prints build metadata and exits.
	ShowVersion bool `json:"-" yaml:"-"`
}

// ServerOptions holds the configuration values for the reference catalog server.
type ServerOptions struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port" yaml:"port"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn" yaml:"database_dsn"`

	// AuthDomain is the identity provider whose /userinfo verifies bearer tokens.
	AuthDomain string `json:"auth_domain" yaml:"auth_domain"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert" yaml:"tls_cert"`
	TLSKey  string `json:"tls_key" yaml:"tls_key"`

	// Retention is how long soft-deleted books are kept before purging.
	Retention time.Duration `json:"retention" yaml:"retention"`

	LogLevel string `json:"log_level" yaml:"log_level"`

	// Config is the path to the Config file.
	Config string `json:"-" yaml:"-"`
}

// ErrMissingOption is wrapped by Validate errors.
var ErrMissingOption = errors.New("missing required option")

// ParseClient parses args (without the program name) and the environment into
// ClientOptions.
func ParseClient(args []string) (*ClientOptions, error) {
	options := &ClientOptions{
		Command:      "shell",
		GraphQLURL:   "http://localhost:8080/graphql",
		CallbackAddr: "localhost:5173",
		StoragePath:  "storage.json",
		LogLevel:     "info",
	}
	flags := &ClientOptions{}

	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.StringVar(&flags.Command, "cmd", options.Command, "command: shell | dashboard | login | logout")
	fs.StringVar(&flags.GraphQLURL, "url", options.GraphQLURL, "GraphQL endpoint URL")
	fs.StringVar(&flags.AuthDomain, "auth-domain", "", "identity provider domain")
	fs.StringVar(&flags.ClientID, "client-id", "", "identity provider client id")
	fs.StringVar(&flags.Audience, "audience", "", "API audience (optional)")
	fs.StringVar(&flags.CallbackAddr, "callback", options.CallbackAddr, "loopback address for the login redirect")
	fs.StringVar(&flags.StoragePath, "storage", options.StoragePath, "local storage file")
	fs.StringVar(&flags.StorageKey, "storage-key", "", "passphrase sealing local storage values")
	fs.StringVar(&flags.CAFile, "ca", "", "path to CA cert trusted for the API")
	fs.StringVar(&flags.LogLevel, "log-level", options.LogLevel, "log level")
	fs.StringVar(&flags.LogFile, "log-file", "", "log file (default stderr)")
	fs.StringVar(&options.Config, "config", "", "path to config file")
	fs.StringVar(&options.Config, "c", "", "path to config file (shorthand)")
	fs.BoolVar(&options.ShowVersion, "version", false, "show build version and date")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := loadFile(options.Config, options); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cmd":
			options.Command = flags.Command
		case "url":
			options.GraphQLURL = flags.GraphQLURL
		case "auth-domain":
			options.AuthDomain = flags.AuthDomain
		case "client-id":
			options.ClientID = flags.ClientID
		case "audience":
			options.Audience = flags.Audience
		case "callback":
			options.CallbackAddr = flags.CallbackAddr
		case "storage":
			options.StoragePath = flags.StoragePath
		case "storage-key":
			options.StorageKey = flags.StorageKey
		case "ca":
			options.CAFile = flags.CAFile
		case "log-level":
			options.LogLevel = flags.LogLevel
		case "log-file":
			options.LogFile = flags.LogFile
		}
	})

	envOverride(&options.GraphQLURL, "GRAPHQL_URL")
	envOverride(&options.AuthDomain, "AUTH_DOMAIN")
	envOverride(&options.ClientID, "AUTH_CLIENT_ID")
	envOverride(&options.Audience, "AUTH_AUDIENCE")
	envOverride(&options.CallbackAddr, "AUTH_CALLBACK_ADDR")
	envOverride(&options.StoragePath, "STORAGE_PATH")
	envOverride(&options.StorageKey, "STORAGE_KEY")
	envOverride(&options.CAFile, "CA_FILE")

	return options, nil
}

// Validate reports the first required option that is empty.
func (o *ClientOptions) Validate() error {
	if o.GraphQLURL == "" {
		return fmt.Errorf("%w: graphql url", ErrMissingOption)
	}
	if o.AuthDomain == "" {
		return fmt.Errorf("%w: auth domain", ErrMissingOption)
	}
	if o.ClientID == "" {
		return fmt.Errorf("%w: client id", ErrMissingOption)
	}
	return nil
}

// Validate reports the first required server option that is empty, and
// rejects half-configured TLS.
func (o *ServerOptions) Validate() error {
	if o.DatabaseDSN == "" {
		return fmt.Errorf("%w: database dsn", ErrMissingOption)
	}
	if o.AuthDomain == "" {
		return fmt.Errorf("%w: auth domain", ErrMissingOption)
	}
	if (o.TLSCert == "") != (o.TLSKey == "") {
		return fmt.Errorf("%w: tls cert and key must be set together", ErrMissingOption)
	}
	return nil
}

// ParseServer parses args (without the program name) and the environment into
// ServerOptions.
func ParseServer(args []string) (*ServerOptions, error) {
	options := &ServerOptions{
		Port:      "localhost:8080",
		Retention: 30 * 24 * time.Hour,
		LogLevel:  "info",
	}
	flags := &ServerOptions{}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&flags.Port, "a", options.Port, "run on ip:port server")
	fs.StringVar(&flags.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&flags.AuthDomain, "auth-domain", "", "identity provider domain")
	fs.StringVar(&flags.TLSCert, "tls-cert", "", "server TLS certificate")
	fs.StringVar(&flags.TLSKey, "tls-key", "", "server TLS key")
	fs.DurationVar(&flags.Retention, "retention", options.Retention, "soft-deleted book retention")
	fs.StringVar(&flags.LogLevel, "log-level", options.LogLevel, "log level")
	fs.StringVar(&options.Config, "config", "", "path to config file")
	fs.StringVar(&options.Config, "c", "", "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if configPath := os.Getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}
	if err := loadFile(options.Config, options); err != nil {
		return nil, err
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "a":
			options.Port = flags.Port
		case "d":
			options.DatabaseDSN = flags.DatabaseDSN
		case "auth-domain":
			options.AuthDomain = flags.AuthDomain
		case "tls-cert":
			options.TLSCert = flags.TLSCert
		case "tls-key":
			options.TLSKey = flags.TLSKey
		case "retention":
			options.Retention = flags.Retention
		case "log-level":
			options.LogLevel = flags.LogLevel
		}
	})

	envOverride(&options.Port, "SERVER_ADDRESS")
	envOverride(&options.DatabaseDSN, "DATABASE_DSN")
	envOverride(&options.AuthDomain, "AUTH_DOMAIN")

	return options, nil
}

// loadFile decodes path into dst. A missing file is not an error, matching
// the default "config.json" lookup of earlier releases.
func loadFile(path string, dst any) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error while reading config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, dst)
	default:
		err = json.Unmarshal(data, dst)
	}
	if err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	return nil
}

func envOverride(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
