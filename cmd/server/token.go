package main

import (
	"errors"
	"fmt"
	"time"

	"fitsymphony/internal/auth"
	"fitsymphony/internal/config"

	"github.com/spf13/cobra"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token for one user",
	Long:  `Prints a HS256 token signed with server.jwtSecret whose userId claim is --user.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		if cfg.Server.JWTSecret == "" {
			return errors.New("server.jwtSecret is not set; auth is disabled")
		}
		token, err := auth.GenerateJWT(cfg.Server.JWTSecret, tokenUser, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id to put in the token")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}
