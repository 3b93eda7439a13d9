package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "unlockmap",
	Short: "Progress-driven watch map",
	Long: `unlockmap tracks which titles of a franchise you have watched and shows
the map of what that unlocks. Watching a title reveals the titles that
depend on it; finishing a phase's unlocker opens the next phase.`,
	SilenceUsage: true,
	RunE:         runMap,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .unlockmap.yaml)")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.String("log-level", "", "log level: trace, debug, info, warn, error, disabled")
	pf.String("catalog", "", "catalog TOML file (default: built-in MCU catalog)")
	pf.String("user", "", "viewer name; with a token, progress is stored per user")

	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("catalog_path", pf.Lookup("catalog"))
	_ = viper.BindPFlag("auth.username", pf.Lookup("user"))
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".unlockmap")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("UNLOCKMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}
