// issue-token печатает подписанный access-токен для email.
// Для ручной проверки API: секрет и TTL берутся из того же конфига, что и у сервера.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"realty/config"
	"realty/internal/auth"
)

func main() {
	email := flag.String("email", "", "email пользователя (subject токена)")
	flag.Parse()

	if *email == "" && flag.NArg() > 0 {
		*email = flag.Arg(0)
	}
	if strings.TrimSpace(*email) == "" {
		fmt.Fprintln(os.Stderr, "usage: issue-token -email user@example.com")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	token, exp, err := auth.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Issue(strings.ToLower(*email))
	if err != nil {
		fmt.Fprintf(os.Stderr, "issue token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Email:   %s\n", strings.ToLower(*email))
	fmt.Printf("Expires: %s\n", exp.UTC().Format("2006-01-02T15:04:05Z07:00"))
	fmt.Printf("\nAuthorization: Bearer %s\n", token)
}
