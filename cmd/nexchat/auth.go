package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nexchat/nexchat-go/nexchat/rest"
)

var passwordFlag string

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Authenticate and store the bearer token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]
		password, err := readPassword()
		if err != nil {
			return err
		}

		resp, err := restClient().Login(cmd.Context(), rest.LoginRequest{
			UserName: username,
			Password: password,
		})
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if err := saveCredentials(resp.Token, username); err != nil {
			return fmt.Errorf("save credentials: %w", err)
		}
		fmt.Printf("Logged in as %s.\n", username)
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup <username> <email>",
	Short: "Create a new account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}

		err = restClient().Signup(cmd.Context(), rest.SignupRequest{
			UserName: args[0],
			Password: password,
			Email:    args[1],
		})
		if err != nil {
			return fmt.Errorf("signup: %w", err)
		}
		fmt.Println("Account created. Log in with: nexchat login", args[0])
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored token and username",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := saveCredentials("", ""); err != nil {
			return fmt.Errorf("clear credentials: %w", err)
		}
		fmt.Println("Logged out.")
		return nil
	},
}

var forgotPasswordCmd = &cobra.Command{
	Use:   "forgot-password <email>",
	Short: "Request a password reset link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := restClient().ForgotPassword(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("forgot-password: %w", err)
		}
		fmt.Println("If the account exists, a reset link has been sent.")
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <email> <token>",
	Short: "Set a new password using a reset token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword()
		if err != nil {
			return err
		}

		err = restClient().ResetPassword(cmd.Context(), rest.ResetPasswordRequest{
			Email:       args[0],
			Token:       args[1],
			NewPassword: password,
		})
		if err != nil {
			return fmt.Errorf("reset-password: %w", err)
		}
		fmt.Println("Password updated. Log in with the new password.")
		return nil
	},
}

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the current user's password",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print("Current password: ")
		current, err := readLine()
		if err != nil {
			return err
		}
		fmt.Print("New password: ")
		next, err := readLine()
		if err != nil {
			return err
		}

		err = restClient().ChangePassword(cmd.Context(), rest.ChangePasswordRequest{
			CurrentPassword: current,
			NewPassword:     next,
		})
		if err != nil {
			return fmt.Errorf("change password: %w", err)
		}
		fmt.Println("Password changed.")
		return nil
	},
}

func readPassword() (string, error) {
	if passwordFlag != "" {
		return passwordFlag, nil
	}
	fmt.Print("Password: ")
	return readLine()
}

func readLine() (string, error) {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in username",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		name := viper.GetString(usernameKey)
		if name == "" {
			fmt.Println("Not logged in.")
			return
		}
		fmt.Println(name)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, signupCmd, logoutCmd, forgotPasswordCmd, resetPasswordCmd, passwdCmd, whoamiCmd)
	for _, c := range []*cobra.Command{loginCmd, signupCmd, resetPasswordCmd} {
		c.Flags().StringVar(&passwordFlag, "password", "", "password (prompted when omitted)")
	}
}
