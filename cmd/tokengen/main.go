// Package main provides a CLI tool for generating bearer tokens for the clubid API.
// These tokens use the dev signing key and will NOT work in production.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	identity "clubid/internal/identity/models"
	jwttoken "clubid/internal/jwt_token"
	id "clubid/pkg/domain"
)

const (
	// Dev signing key - matches config.go when JWT_SIGNING_KEY is not set
	devSigningKey = "dev-secret-key-change-in-production"

	defaultIssuer   = "clubid"
	defaultTokenTTL = time.Hour
)

type tokenOutput struct {
	Token     string            `json:"token"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]any    `json:"claims"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	fs := flag.NewFlagSet("tokengen", flag.ExitOnError)
	personID := fs.String("person-id", "", "Person ID (UUID). Generated if empty.")
	role := fs.String("role", "", "Active role claim, e.g. club_admin. Empty uses the persisted active role.")
	signingKey := fs.String("key", devSigningKey, "HS256 signing key")
	issuer := fs.String("issuer", defaultIssuer, "Token issuer")
	ttl := fs.Duration("ttl", defaultTokenTTL, "Token time-to-live")
	jsonOutput := fs.Bool("json", false, "Output as JSON")
	_ = fs.Parse(os.Args[1:])

	pid := id.NewPersonID()
	if *personID != "" {
		parsed, err := id.ParsePersonID(*personID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid person-id UUID: %s\n", *personID)
			os.Exit(1)
		}
		pid = parsed
	}
	if *role != "" {
		if !identity.ParseRole(*role).IsValid() {
			fmt.Fprintf(os.Stderr, "Unknown role: %s\n", *role)
			os.Exit(1)
		}
	}

	svc := jwttoken.NewJWTService(*signingKey, *issuer, *ttl)
	token, err := svc.GenerateAccessToken(context.Background(), pid, *role)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating token: %v\n", err)
		os.Exit(1)
	}

	if *jsonOutput {
		printJSON(tokenOutput{
			Token:     token,
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"sub":         pid.String(),
				"active_role": *role,
				"iss":         *issuer,
			},
			Usage: map[string]string{
				"header": "Authorization: Bearer <token>",
			},
		})
		return
	}

	fmt.Println("Access Token (JWT)")
	fmt.Println("==================")
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Printf("Person ID:   %s\n", pid)
	if *role != "" {
		fmt.Printf("Active Role: %s\n", *role)
	}
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(token)
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  curl -H \"Authorization: Bearer <token>\" http://localhost:8080/me")
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
