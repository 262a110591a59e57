package main

import (
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "SHAREDLOADING"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

// bindConfig binds the flags of cmd to v and reads the config file, if any.
func bindConfig(cmd *cobra.Command, v *viper.Viper) error {
	err := v.BindPFlags(cmd.Flags())
	if err != nil {
		return errors.Wrap(err, "bind flags")
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)

		err = v.ReadInConfig()
		if err != nil {
			return errors.Wrapf(err, "read config file %s", file)
		}
	}

	level, err := log.ParseLevel(v.GetString("log-level"))
	if err != nil {
		return errors.Wrap(err, "parse log level")
	}

	log.SetLevel(level)

	return nil
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "sharedloading",
		Short:         "Track concurrently running tasks behind a shared loading flag",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().String("config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().String("log-level", "info", "log level")

	cmd.AddCommand(newDemoCommand(), newStatusCommand())

	return cmd
}
