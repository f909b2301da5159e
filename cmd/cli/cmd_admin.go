package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"advocatehub/internal/auth"
	"advocatehub/internal/client"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in as the directory admin and store the token",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored admin token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := clearToken(tokenPath); err != nil {
			return fmt.Errorf("logout failed: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "logged out")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the bundled advocate dataset into the server's store",
	RunE:  runSeed,
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Print a bcrypt hash for ADVOCATES_ADMIN_PASSWORD_HASH",
	Long:  `Hashes the argument, or the first line of stdin when no argument is given.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHashPassword,
}

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "admin password (read from stdin when empty)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	password := loginPassword
	if password == "" {
		var err error
		if password, err = readSecret(cmd); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	token, err := client.New(apiURL).Login(ctx, password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	if err := saveToken(tokenPath, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "logged in")
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	token, err := loadToken(tokenPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	c := client.New(apiURL)
	c.Token = token
	n, err := c.Seed(ctx)
	if err != nil {
		return fmt.Errorf("seed failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "inserted %d advocates\n", n)
	return nil
}

func runHashPassword(cmd *cobra.Command, args []string) error {
	var password string
	if len(args) == 1 {
		password = args[0]
	} else {
		var err error
		if password, err = readSecret(cmd); err != nil {
			return err
		}
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), hash)
	return nil
}

func readSecret(cmd *cobra.Command) (string, error) {
	sc := bufio.NewScanner(cmd.InOrStdin())
	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return "", err
		}
		return "", errors.New("password required")
	}
	s := strings.TrimSpace(sc.Text())
	if s == "" {
		return "", errors.New("password required")
	}
	return s, nil
}
