package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairwaylab/swingcoach/internal/models"
	"github.com/fairwaylab/swingcoach/internal/services/auth"
	"github.com/fairwaylab/swingcoach/internal/storage"
)

// RoleStore меняет и читает роль пользователя в Credential Store.
type RoleStore interface {
	SetRole(ctx context.Context, email string, role models.Role) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// AdminCreator создаёт администратора одной записью.
type AdminCreator interface {
	CreateAdmin(ctx context.Context, email, password string) (string, error)
}

var setRoleCmd = &cobra.Command{
	Use:   "set-role <email> <role>",
	Short: "Set a user's role directly",
	Long: `Set a user's stored role without a payment.

A role granted here is not bounded by a paid subscription window: any
lapsed expiry is cleared. The change is visible to the user after their
next login or profile refresh; tokens issued earlier keep the old role
until they expire.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()
		return setRole(cmd.Context(), store, args[0], args[1], time.Now(), cmd.OutOrStdout())
	},
}

var adminPassword string

var createAdminCmd = &cobra.Command{
	Use:   "create-admin <email>",
	Short: "Create a user with the admin role",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, err := openStorage(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		creator := auth.NewService(store, nil, nil, newLogger(cfg))
		return createAdmin(cmd.Context(), creator, args[0], adminPassword, cmd.OutOrStdout())
	},
}

func init() {
	createAdminCmd.Flags().StringVarP(&adminPassword, "password", "p", "", "initial password (min 8 characters)")
	_ = createAdminCmd.MarkFlagRequired("password")
}

// setRole сохраняет роль и перечитывает пользователя: в вывод попадает
// роль, которую получит следующий выданный токен.
func setRole(ctx context.Context, roles RoleStore, email, rawRole string, now time.Time, out io.Writer) error {
	role := models.ParseRole(rawRole)
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", rawRole)
	}
	email = auth.NormalizeEmail(email)
	if err := roles.SetRole(ctx, email, role); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("user %s not found", email)
		}
		return err
	}

	u, err := roles.GetUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if effective := u.EffectiveRole(now); effective != role {
		return fmt.Errorf("role %s is stored for %s but new tokens will carry %s", role, email, effective)
	}
	fmt.Fprintf(out, "%s is now %s\n", email, role)
	return nil
}

func createAdmin(ctx context.Context, creator AdminCreator, email, password string, out io.Writer) error {
	id, err := creator.CreateAdmin(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "admin %s created with id %s\n", auth.NormalizeEmail(email), id)
	return nil
}
