package cli

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFlags_Persistent(t *testing.T) {
	root := &cobra.Command{Use: "rag"}
	root.PersistentFlags().AddFlagSet(ClientFlags())

	var gotURL, gotToken string
	var gotOutput bool
	child := &cobra.Command{
		Use: "search",
		RunE: func(cmd *cobra.Command, args []string) error {
			gotURL = StringFlag(cmd, FlagAPIURL)
			gotToken = StringFlag(cmd, FlagAPIToken)
			gotOutput = BoolFlag(cmd, FlagOutput)
			return nil
		},
	}
	root.AddCommand(child)

	root.SetArgs([]string{"search", "--api-url", "http://rag:9000", "--api-token", "s3cret", "--output"})
	require.NoError(t, root.Execute())

	assert.Equal(t, "http://rag:9000", gotURL)
	assert.Equal(t, "s3cret", gotToken)
	assert.True(t, gotOutput)
}

func TestServeFlags_Shorthand(t *testing.T) {
	cmd := &cobra.Command{Use: "serve", RunE: func(*cobra.Command, []string) error { return nil }}
	cmd.Flags().AddFlagSet(ServeFlags())

	require.NoError(t, cmd.ParseFlags([]string{"-p", "9090", "--no-migrate"}))

	assert.Equal(t, "9090", StringFlag(cmd, FlagPort))
	assert.True(t, BoolFlag(cmd, FlagNoMigrate))
}

func TestFlagHelpers_UndefinedFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "bare"}

	assert.Equal(t, "", StringFlag(cmd, "missing"))
	assert.False(t, BoolFlag(cmd, "missing"))
	assert.Equal(t, "", StringFlag(nil, FlagAPIURL))
}
