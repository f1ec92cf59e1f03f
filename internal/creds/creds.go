// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package creds resolves archive credentials. The primary source is an
// INI file with a [CASDA] section holding username and password; when the
// file has a username but no password, the password is looked up in the
// operating system keyring instead.
package creds

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/zalando/go-keyring"
)

// KeyringService is the keyring entry name shared with other archive
// clients.
const KeyringService = "casda.csiro.au"

// Credentials authenticate staging and download requests.
type Credentials struct {
	Username string
	Password string
}

// Load reads credentials from the INI file at path, falling back to the OS
// keyring for the password.
func Load(path string) (Credentials, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return Credentials{}, fmt.Errorf("reading credentials file %s: %w", path, err)
	}

	c := Credentials{
		Username: v.GetString("CASDA.username"),
		Password: v.GetString("CASDA.password"),
	}
	if c.Username == "" {
		return Credentials{}, fmt.Errorf("credentials file %s has no CASDA username", path)
	}
	if c.Password == "" {
		pw, err := keyring.Get(KeyringService, c.Username)
		if err != nil {
			return Credentials{}, fmt.Errorf("no password in %s and keyring lookup failed: %w", path, err)
		}
		c.Password = pw
	}
	return c, nil
}

// Store saves the password in the OS keyring so future runs can omit it
// from the credentials file.
func Store(username, password string) error {
	if err := keyring.Set(KeyringService, username, password); err != nil {
		return fmt.Errorf("storing password in keyring: %w", err)
	}
	return nil
}
