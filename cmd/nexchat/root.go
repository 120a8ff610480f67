package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexchat/nexchat-go/nexchat"
	"github.com/nexchat/nexchat-go/nexchat/rest"
)

var (
	cfgFile string
	verbose bool
)

const (
	serverURLKey = "server_url"
	socketURLKey = "socket_url"
	tokenKey     = "token"
	usernameKey  = "username"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "nexchat",
	Short: "Command-line client for a NexChat server",
	Long: `nexchat talks to a NexChat server over its REST API and joins room
topics over STOMP/WebSocket. Log in once with "nexchat login"; the token and
username are stored in the config file and used by every other command.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. It is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.nexchat.yaml)")
	rootCmd.PersistentFlags().String("server", "", "base URL of the REST API")
	rootCmd.PersistentFlags().String("socket-url", "", "WebSocket endpoint of the realtime channel")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	_ = viper.BindPFlag(serverURLKey, rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag(socketURLKey, rootCmd.PersistentFlags().Lookup("socket-url"))
	viper.SetDefault(serverURLKey, "http://localhost:8080")
	viper.SetDefault(socketURLKey, "ws://localhost:8080/chat")
}

// initConfig reads in the config file and environment variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".nexchat")
	}

	viper.SetEnvPrefix("NEXCHAT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Error reading config file:", err)
		}
	}
}

func credentials() nexchat.StaticCredentials {
	return nexchat.StaticCredentials{
		AuthToken: viper.GetString(tokenKey),
		User:      viper.GetString(usernameKey),
	}
}

func restClient() *rest.Client {
	return rest.NewClient(viper.GetString(serverURLKey), credentials())
}

func newLogger() nexchat.Logger {
	if !verbose {
		return nexchat.NopLogger()
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	return nexchat.NewSlogLogger(slog.New(h))
}

// saveCredentials persists the bearer token and username to the config file.
func saveCredentials(token, username string) error {
	viper.Set(tokenKey, token)
	viper.Set(usernameKey, username)
	if err := viper.WriteConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return viper.SafeWriteConfig()
		}
		return err
	}
	return nil
}
