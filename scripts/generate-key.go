// Package main is a development utility for generating a random JWT signing
// secret. It prints a 48-byte base64url value ready to paste into
// RSP_AUTH_JWT_SECRET or auth.jwt_secret in config.yaml. Generate a fresh
// secret per environment; rotating it invalidates every outstanding session
// token.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
)

func main() {
	randomBytes := make([]byte, 48)
	if _, err := rand.Read(randomBytes); err != nil {
		log.Fatal(err)
	}

	secret := base64.RawURLEncoding.EncodeToString(randomBytes)

	fmt.Println("Generated JWT signing secret:")
	fmt.Println()
	fmt.Printf("  %s\n", secret)
	fmt.Println()
	fmt.Println("Set it in the environment:")
	fmt.Printf("  export RSP_AUTH_JWT_SECRET=%q\n", secret)
}
