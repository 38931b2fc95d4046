package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mrlokans/libraryhub/internal/auth"
	"github.com/mrlokans/libraryhub/internal/database"
	"github.com/mrlokans/libraryhub/internal/entities"
)

var errPasswordMismatch = errors.New("passwords do not match")

// CreateAdminOptions holds flags for create-admin.
type CreateAdminOptions struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// passwordPrompt reads a password after printing prompt.
type passwordPrompt func(prompt string) (string, error)

func NewCreateAdminCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateAdminOptions{}

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		Long: `Create an administrator account in the configured database.

The password is prompted for without echo unless --password is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := terminalPrompt(cmd.ErrOrStderr())
			if !term.IsTerminal(int(os.Stdin.Fd())) {
				prompt = linePrompt(cmd.InOrStdin(), cmd.ErrOrStderr())
			}
			return runCreateAdmin(cmd.Context(), rootOpts, opts, prompt, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Email, "email", "", "administrator email (required)")
	cmd.Flags().StringVar(&opts.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&opts.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&opts.Password, "password", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runCreateAdmin(ctx context.Context, rootOpts *RootOptions, opts *CreateAdminOptions, prompt passwordPrompt, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	password := opts.Password
	if password == "" {
		var err error
		if password, err = promptNewPassword(prompt); err != nil {
			return err
		}
	}

	cfg := rootOpts.LoadConfig()
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	service := auth.NewService(db.DB, cfg.Auth)
	profile, err := service.CreateProfile(ctx, auth.Registration{
		Email:     opts.Email,
		FirstName: opts.FirstName,
		LastName:  opts.LastName,
		Password:  password,
	}, entities.ProfileRoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create administrator: %w", err)
	}

	fmt.Fprintf(out, "Created administrator %s (library card %s)\n", profile.Email, profile.LibraryCardID)
	return nil
}

func promptNewPassword(prompt passwordPrompt) (string, error) {
	password, err := prompt("Password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	confirm, err := prompt("Confirm password: ")
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if password != confirm {
		return "", errPasswordMismatch
	}
	return password, nil
}

// terminalPrompt reads without echo.
func terminalPrompt(w io.Writer) passwordPrompt {
	return func(prompt string) (string, error) {
		fmt.Fprint(w, prompt)
		bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(bytePassword)), nil
	}
}

// linePrompt reads one line per prompt, for piped input.
func linePrompt(r io.Reader, w io.Writer) passwordPrompt {
	scanner := bufio.NewScanner(r)
	return func(prompt string) (string, error) {
		fmt.Fprint(w, prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}
}
