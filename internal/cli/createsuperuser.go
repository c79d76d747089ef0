package cli

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/devops-offer/offer/internal/auth"
	"github.com/devops-offer/offer/internal/config"
	"github.com/devops-offer/offer/internal/database"
	"github.com/devops-offer/offer/internal/database/tokens"
	"github.com/devops-offer/offer/internal/database/users"
	"github.com/devops-offer/offer/internal/logging"
	"github.com/devops-offer/offer/internal/mail"
	"github.com/devops-offer/offer/internal/validation"
)

// CreateSuperuserCommand creates an account that can manage content.
type CreateSuperuserCommand struct {
	DatabaseURL string
	Username    string
	Email       string
	Password    string

	cfg *config.Config
	in  io.Reader
	out io.Writer
}

func NewCreateSuperuserCommand(cfg *config.Config) *CreateSuperuserCommand {
	return &CreateSuperuserCommand{cfg: cfg, in: os.Stdin, out: os.Stdout}
}

func (cmd *CreateSuperuserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("createsuperuser", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabaseURL, "db", cmd.cfg.Database.URL, "Database URL (sqlite path, postgres:// or mysql://)")
	fs.StringVar(&cmd.Username, "username", "", "Username (3-25 characters)")
	fs.StringVar(&cmd.Email, "email", "", "Email address")
	fs.StringVar(&cmd.Password, "password", os.Getenv("SUPERUSER_PASSWORD"), "Password (defaults to $SUPERUSER_PASSWORD, prompted when empty)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s createsuperuser [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a superuser account. Missing values are prompted for.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

// prompt reads the missing fields line by line from the command input.
func (cmd *CreateSuperuserCommand) prompt() error {
	reader := bufio.NewReader(cmd.in)
	ask := func(label string, dst *string) error {
		if *dst != "" {
			return nil
		}
		fmt.Fprintf(cmd.out, "%s: ", label)
		line, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
		}
		*dst = strings.TrimSpace(line)
		return nil
	}

	if err := ask("Username", &cmd.Username); err != nil {
		return err
	}
	if err := ask("Email", &cmd.Email); err != nil {
		return err
	}
	return ask("Password", &cmd.Password)
}

func (cmd *CreateSuperuserCommand) Run(ctx context.Context) error {
	if err := cmd.prompt(); err != nil {
		return err
	}

	log := logging.New(cmd.cfg.Logging)
	db, err := database.Open(config.Database{URL: cmd.DatabaseURL, LogLevel: cmd.cfg.Database.LogLevel}, log)
	if err != nil {
		return err
	}
	defer db.Close()

	service := auth.NewService(
		users.NewRepository(db.DB),
		tokens.NewRepository(db.DB),
		mail.NewLogSender(log),
		cmd.cfg.Auth,
		cmd.cfg.UI.BaseURL,
		log,
	)

	user, err := service.CreateSuperuser(ctx, cmd.Username, cmd.Email, cmd.Password)
	if err != nil {
		if verr, ok := validation.As(err); ok {
			for field, msg := range verr {
				fmt.Fprintf(cmd.out, "  %s: %s\n", field, msg)
			}
			return fmt.Errorf("invalid superuser details")
		}
		return fmt.Errorf("failed to create superuser: %w", err)
	}

	fmt.Fprintf(cmd.out, "Superuser %q created (id %d)\n", user.Username, user.ID)
	return nil
}
