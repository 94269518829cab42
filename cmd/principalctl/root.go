package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultServer = "http://localhost:8080"

// newRootCmd builds the command tree. Settings resolve flag, then
// PRINCIPALCTL_* environment, then config file, then default.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:           "principalctl",
		Short:         "Command line client for the principal agent",
		Long:          `principalctl submits requests to a principal server, polls queued work and inspects specialists and recorded responses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(v, cfgFile)
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.principalctl.yaml)")
	root.PersistentFlags().String("server", defaultServer, "principal server URL (or set PRINCIPALCTL_SERVER)")
	root.PersistentFlags().Duration("timeout", 60*time.Second, "HTTP request timeout")
	root.PersistentFlags().String("admin-key", "", "admin key for specialist management (or set PRINCIPALCTL_ADMIN_KEY)")
	root.PersistentFlags().BoolP("json", "j", false, "print raw JSON")

	_ = v.BindPFlag("server", root.PersistentFlags().Lookup("server"))
	_ = v.BindPFlag("timeout", root.PersistentFlags().Lookup("timeout"))
	_ = v.BindPFlag("admin_key", root.PersistentFlags().Lookup("admin-key"))
	_ = v.BindPFlag("json", root.PersistentFlags().Lookup("json"))

	clientFor := func() *client {
		return newClient(v.GetString("server"), v.GetDuration("timeout"), v.GetString("admin_key"))
	}

	root.AddCommand(
		newProcessCmd(clientFor, v),
		newSubmitCmd(clientFor, v),
		newPollCmd(clientFor, v),
		newCancelCmd(clientFor),
		newStatusCmd(clientFor, v),
		newResponsesCmd(clientFor, v),
		newSpecialistCmd(clientFor),
	)
	return root
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix("PRINCIPALCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil //nolint:nilerr // no home, no config file
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".principalctl")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && cfgFile == "" {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}
