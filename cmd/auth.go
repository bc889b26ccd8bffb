package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/shared"
	"github.com/urfave/cli/v3"
)

// Login authenticates with the backend and persists the session token.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.promptSecret("Password: "); err != nil {
			return err
		}
	}

	if err := r.session.Login(ctx, username, password); err != nil {
		return err
	}

	return r.writePlain("✓ Signed in as %s\n", username)
}

// Register creates a new account. On success the user still has to log in.
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	role := models.Role(strings.ToUpper(cmd.String("role")))
	if !role.Valid() {
		return fmt.Errorf("%w: role must be USER, ADMIN, or COMPANY", shared.ErrInvalidFlag)
	}

	password := cmd.String("password")
	if password == "" {
		var err error
		if password, err = r.promptSecret("Password: "); err != nil {
			return err
		}
	}

	req := models.RegisterRequest{
		Username:       cmd.String("username"),
		Email:          cmd.String("email"),
		Password:       password,
		Role:           role,
		CompanyName:    cmd.String("company-name"),
		CompanyAddress: cmd.String("company-address"),
	}

	if err := r.session.Register(ctx, req); err != nil {
		return err
	}

	return r.writePlain("✓ Account created. Run 'melodyctl auth login %s' to sign in.\n", req.Username)
}

// Logout clears the in-memory session and the persisted credential pair.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	r.session.Logout()
	return r.writePlain("✓ Signed out\n")
}

// Whoami shows the locally hydrated account, verifying it with the backend.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Initialize(ctx); err != nil {
		return err
	}

	user := r.session.CurrentUser()
	if user == nil {
		return fmt.Errorf("%w: no session", shared.ErrNotAuthenticated)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlain("%s <%s>\n", user.Username, user.Email)
	r.writePlain("Role: %s\n", user.Role)
	return nil
}

// promptSecret reads a line from stdin after printing a prompt.
func (r *Runner) promptSecret(prompt string) (string, error) {
	r.writePlain("%s", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}

	secret := strings.TrimSpace(line)
	if secret == "" {
		return "", fmt.Errorf("%w: password", shared.ErrMissingArgument)
	}
	return secret, nil
}
