package main

import (
	"fmt"
	"os"
	"phishvault/internal/config"
	"phishvault/pkg/domain"
	"phishvault/pkg/logger"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// signToken signs an RS256 token for userID valid for ttl.
func signToken(privateKeyPEM, issuer string, userID domain.UserID, ttl time.Duration) (string, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(privateKeyPEM))
	if err != nil {
		return "", fmt.Errorf("could not parse RSA private key: %w", err)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("could not sign JWT: %w", err)
	}

	return signed, nil
}

// JWTCommand constructs the 'jwt' subcommand that generates a signed RS256 JWT
// for a user ID and TTL using the configured private key. Without a subject a
// new user ID is generated.
func JWTCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jwt",
		Short: "Generates JWT token for given user ID",
		Run: func(cmd *cobra.Command, args []string) {
			ctx := cmd.Context()
			subject, _ := cmd.Flags().GetString("subject")
			TTL, _ := cmd.Flags().GetDuration("ttl")

			userID := domain.UserID(uuid.New())
			if subject != "" {
				id, err := domain.ParseUserID(subject)
				if err != nil {
					logger.Fatal(ctx, "subject must be a UUID", zap.String("subject", subject), zap.Error(err))
				}
				userID = id
			}

			signed, err := signToken(cfg.JWT.PrivateKey, cfg.JWT.Issuer, userID, TTL)
			if err != nil {
				logger.Fatal(ctx, "could not generate JWT", zap.Error(err))
			}

			fmt.Fprintln(os.Stderr, "user:", userID) //nolint: forbidigo
			fmt.Println(signed)                       //nolint: forbidigo
		},
	}

	cmd.Flags().String("subject", "", "JWT subject (user ID); a new one is generated when empty")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token TTL (e.g., 30s, 15m, 1h)")

	return cmd
}
