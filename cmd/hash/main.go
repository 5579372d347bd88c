// Package main is a utility for generating bcrypt hashes of passwords.
// The platform stores only bcrypt hashes of passwords — never the raw
// values — so this tool is used when manually seeding user records (for
// example the first admin account) in the database without running the full
// server. Pass the password as the first argument.
package main

import (
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <password>\n", os.Args[0])
		os.Exit(1)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(os.Args[1]), bcrypt.DefaultCost)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(hash))
}
