package commands

import (
	"errors"
	"strings"
	"time"

	"github.com/flashbots/disco-relay/client"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Configuration keys, also readable as RELAYCTL_<KEY> and from --config.
const (
	keyRelayURL = "relay_url"
	keyTimeout  = "timeout"
	keySecret   = "key"
)

func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the relayctl command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	var configFile string

	root := &cobra.Command{
		Use:          "relayctl",
		Short:        "Publish and resolve peer records",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(v, configFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.String("relay", "http://localhost:8080", "relay base URL")
	flags.Duration("timeout", 10*time.Second, "request timeout")
	_ = v.BindPFlag(keyRelayURL, flags.Lookup("relay"))
	_ = v.BindPFlag(keyTimeout, flags.Lookup("timeout"))

	root.AddCommand(keygenCmd(), publishCmd(v), resolveCmd(v))
	return root
}

func loadConfig(v *viper.Viper, path string) error {
	v.SetEnvPrefix("RELAYCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}

func newClient(v *viper.Viper) *client.Client {
	return client.New(v.GetString(keyRelayURL))
}
