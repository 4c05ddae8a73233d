// Package cli holds flag sets shared by the rag and ragd commands.
package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	FlagAPIURL    = "api-url"
	FlagAPIToken  = "api-token"
	FlagOutput    = "output"
	FlagPort      = "port"
	FlagNoMigrate = "no-migrate"
)

// ClientFlags are the persistent flags of the rag client.
func ClientFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("client", pflag.ContinueOnError)
	fs.String(FlagAPIURL, "", "API base URL (overrides RAG_API_URL)")
	fs.String(FlagAPIToken, "", "Bearer token (overrides RAG_API_TOKEN)")
	fs.Bool(FlagOutput, false, "Output as JSON")
	return fs
}

// ServeFlags are the flags of ragd serve.
func ServeFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	fs.StringP(FlagPort, "p", "", "Port to listen on (overrides RAG_PORT)")
	fs.Bool(FlagNoMigrate, false, "Skip automatic database migrations on startup")
	return fs
}

// StringFlag returns the value of a string flag, or "" when the command does
// not define it.
func StringFlag(cmd *cobra.Command, name string) string {
	if cmd == nil {
		return ""
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return v
}

// BoolFlag returns the value of a bool flag, or false when the command does
// not define it.
func BoolFlag(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}
	return v
}
