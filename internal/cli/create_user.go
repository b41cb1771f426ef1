package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/yodhcn/kikoeru-express/internal/config"
	"github.com/yodhcn/kikoeru-express/internal/entities"
)

// CreateUserCommand creates an account with a password.
type CreateUserCommand struct {
	Name         string
	Password     string
	Group        string
	DatabasePath string

	cfg *config.Config
	out io.Writer
}

func NewCreateUserCommand(cfg *config.Config) *CreateUserCommand {
	return &CreateUserCommand{cfg: cfg}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.Name, "name", "", "User name (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password (required)")
	fs.StringVar(&cmd.Group, "group", string(entities.UserGroupUser), "One of administrator, user, guest")
	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the catalog database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -name <name> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if cmd.Name == "" || cmd.Password == "" {
		return fmt.Errorf("required flags -name and -password not provided")
	}
	switch entities.UserGroup(cmd.Group) {
	case entities.UserGroupAdministrator, entities.UserGroupUser, entities.UserGroupGuest:
	default:
		return fmt.Errorf("unknown group %q", cmd.Group)
	}
	return nil
}

func (cmd *CreateUserCommand) Run(ctx context.Context) error {
	s, err := openSession(cmd.cfg, cmd.DatabasePath, false)
	if err != nil {
		return err
	}
	defer s.Close()

	user, err := s.db.Users.CreateUser(ctx, cmd.Name, cmd.Password, entities.UserGroup(cmd.Group))
	s.audit.LogUser(cmd.Name, "create", err)
	if err != nil {
		return err
	}

	fmt.Fprintf(output(cmd.out), "Created user %s (%s)\n", user.Name, user.Group)
	return nil
}
