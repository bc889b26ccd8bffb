package main

import (
	"context"

	"github.com/melodymix/melodyctl/internal/models"
	"github.com/urfave/cli/v3"
)

// ProfileShow fetches the profile from the backend and displays it.
func (r *Runner) ProfileShow(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize("/profile"); err != nil {
		return err
	}

	profile, err := r.session.FetchProfile(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(profile, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Profile")
	r.writePlain("Username: %s\n", profile.Username)
	r.writePlain("Email:    %s\n", profile.Email)
	r.writePlain("Role:     %s\n", profile.Role)
	if profile.Role == models.RoleCompany {
		r.writePlain("Company:  %s\n", profile.CompanyName)
		if profile.CompanyAddress != "" {
			r.writePlain("Address:  %s\n", profile.CompanyAddress)
		}
	}
	return nil
}

// ProfileUpdate sends changed fields to the backend and re-syncs the session.
func (r *Runner) ProfileUpdate(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize("/profile"); err != nil {
		return err
	}

	req := models.UpdateProfileRequest{
		Username:       cmd.String("username"),
		Email:          cmd.String("email"),
		CompanyName:    cmd.String("company-name"),
		CompanyAddress: cmd.String("company-address"),
	}
	if req == (models.UpdateProfileRequest{}) {
		return r.writePlain("Nothing to update.\n")
	}

	profile, err := r.session.UpdateProfile(ctx, req)
	if err != nil {
		return err
	}

	return r.writePlain("✓ Profile updated for %s\n", profile.Username)
}

// ChangePassword changes the account password.
func (r *Runner) ChangePassword(ctx context.Context, cmd *cli.Command) error {
	if err := r.authorize("/profile"); err != nil {
		return err
	}

	if err := r.session.ChangePassword(ctx, cmd.String("old"), cmd.String("new")); err != nil {
		return err
	}

	return r.writePlain("✓ Password changed\n")
}
