package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/nerrad567/blockenergy-core/internal/auth"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/config"
)

// runToken issues an admin API token signed with the configured secret.
func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)
	subject := fs.String("subject", "admin", "token subject")
	role := fs.String("role", string(auth.RoleViewer), "role: viewer or operator")
	ttl := fs.Duration("ttl", auth.DefaultTokenTTL, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(getConfigPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	tok, err := auth.GenerateToken(*subject, auth.Role(*role), cfg.Security.JWT.Secret, *ttl)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, tok)
	return nil
}
