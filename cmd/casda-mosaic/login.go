// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/askap-tools/casda-mosaic/internal/creds"
)

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store the CASDA password in the operating system keyring",
	Long: `Login saves the archive password in the OS keyring under the service
name ` + creds.KeyringService + `. Later runs can then use a credentials file
holding only the username.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	username := args[0]

	fmt.Fprintf(os.Stderr, "Password for %s: ", username)
	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}
	password = strings.TrimRight(password, "\r\n")
	if password == "" {
		return fmt.Errorf("empty password")
	}

	if err := creds.Store(username, password); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Stored password for %s in keyring service %s\n", username, creds.KeyringService)
	return nil
}
