package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	authware "github.com/authware/authware-go"
)

func newLoginCmd() *cobra.Command {
	var identifier, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with an email or username",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				if err := a.sessions.Bootstrap(ctx); err != nil {
					return err
				}
				if a.sessions.State() == authware.StateAuthenticated {
					fmt.Printf("Already signed in as %s\n", a.sessions.CurrentUser().Username)
					return nil
				}

				var err error
				if identifier == "" {
					if identifier, err = prompt("Email or username: "); err != nil {
						return err
					}
				}
				if password == "" {
					if password, err = promptSecret("Password: "); err != nil {
						return err
					}
				}

				user, err := a.sessions.Login(ctx, authware.Credentials{
					Identifier: identifier,
					Password:   password,
				})
				if err != nil {
					return fmt.Errorf("%s", authware.ErrorMessage(err, "login failed"))
				}
				fmt.Printf("Signed in as %s (%s)\n", user.Username, user.Role)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&identifier, "user", "u", "", "email or username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored credential",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				if err := a.sessions.Bootstrap(ctx); err != nil {
					return err
				}
				if err := a.sessions.Logout(ctx); err != nil {
					return err
				}
				fmt.Println("Signed out")
				return nil
			})
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if err := a.sessions.Bootstrap(cmd.Context()); err != nil {
					return err
				}
				user := a.sessions.CurrentUser()
				if user == nil {
					fmt.Println("Not signed in")
					return nil
				}

				fmt.Printf("User:     %s\n", user.Username)
				fmt.Printf("Email:    %s\n", user.Email)
				fmt.Printf("Role:     %s\n", user.Role)
				fmt.Printf("Verified: %v\n", user.EmailVerified)

				if info, err := authware.DecodeToken(a.sessions.Token()); err == nil {
					if !info.ExpiresAt.IsZero() {
						fmt.Printf("Token expires: %s\n", info.ExpiresAt.Local())
					}
				}
				return nil
			})
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var in authware.RegisterInput
	var role string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				if err := a.sessions.Bootstrap(ctx); err != nil {
					return err
				}

				var err error
				if in.Password == "" {
					if in.Password, err = promptSecret("Password: "); err != nil {
						return err
					}
				}
				in.Role = authware.Role(role)

				user, err := a.sessions.Register(ctx, in)
				if err != nil {
					return fmt.Errorf("%s", authware.ErrorMessage(err, "registration failed"))
				}
				fmt.Printf("Registered and signed in as %s\n", user.Username)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&in.FullName, "fullname", "", "full name")
	cmd.Flags().StringVar(&in.Username, "username", "", "username")
	cmd.Flags().StringVar(&in.Email, "email", "", "email address")
	cmd.Flags().StringVar(&role, "role", string(authware.RoleUser), "account role")
	_ = cmd.MarkFlagRequired("fullname")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts (admin only)",
	}
	cmd.AddCommand(newUsersListCmd(), newUsersDeleteCmd(), newUsersStatsCmd())
	return cmd
}

func newUsersListCmd() *cobra.Command {
	var opts authware.ListOptions
	var role string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				if err := requireSession(ctx, a); err != nil {
					return err
				}

				opts.Role = authware.Role(role)
				page, err := a.admin.ListUsers(ctx, opts)
				if err != nil {
					return fmt.Errorf("%s", authware.ErrorMessage(err, "listing users failed"))
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tVERIFIED\tACTIVE")
				for _, u := range page.Users {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%v\n",
						u.ID, u.Username, u.Email, u.Role, u.EmailVerified, u.Active)
				}
				w.Flush()
				fmt.Printf("\nPage %d/%d, %d users total\n",
					page.CurrentPage, page.TotalPages, page.TotalUsers)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "page size")
	cmd.Flags().StringVar(&opts.Search, "search", "", "search name, username, or email")
	cmd.Flags().StringVar(&role, "role", "", "filter by role")
	cmd.Flags().StringVar(&opts.Status, "status", "", "filter by status (active, inactive)")
	cmd.Flags().StringVar(&opts.SortBy, "sort-by", "createdAt", "sort field")
	cmd.Flags().StringVar(&opts.SortOrder, "sort-order", "desc", "sort order (asc, desc)")
	return cmd
}

func newUsersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				if err := requireSession(ctx, a); err != nil {
					return err
				}
				if err := a.admin.DeleteUser(ctx, args[0]); err != nil {
					return fmt.Errorf("%s", authware.ErrorMessage(err, "deleting user failed"))
				}
				fmt.Printf("Deleted user %s\n", args[0])
				return nil
			})
		},
	}
}

func newUsersStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show user base statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ctx := cmd.Context()
				if err := requireSession(ctx, a); err != nil {
					return err
				}
				stats, err := a.admin.Stats(ctx)
				if err != nil {
					return fmt.Errorf("%s", authware.ErrorMessage(err, "loading stats failed"))
				}
				fmt.Printf("Total users:    %d\n", stats.TotalUsers)
				fmt.Printf("New this month: %d\n", stats.NewUsersThisMonth)
				fmt.Printf("Verified:       %d\n", stats.VerifiedUsers)
				fmt.Printf("Admins:         %d\n", stats.AdminUsers)
				fmt.Printf("Active:         %d\n", stats.ActiveUsers)
				return nil
			})
		},
	}
}

func newProductsCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the product catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				products, err := a.catalog.ListByCategory(cmd.Context(), category)
				if err != nil {
					return fmt.Errorf("%s", authware.ErrorMessage(err, "loading products failed"))
				}
				if len(products) == 0 {
					fmt.Println("No products found")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTITLE\tPRICE\tCATEGORY\tRATING")
				for _, p := range products {
					fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\t%.1f (%d)\n",
						p.ID, p.Title, p.Price, p.Category, p.Rating.Rate, p.Rating.Count)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "filter by category")
	return cmd
}

// requireSession bootstraps and fails when no session is held.
func requireSession(ctx context.Context, a *app) error {
	if err := a.sessions.Bootstrap(ctx); err != nil {
		return err
	}
	if a.sessions.State() != authware.StateAuthenticated {
		return fmt.Errorf("not signed in (run authctl login)")
	}
	return nil
}

func prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func promptSecret(label string) (string, error) {
	fmt.Print(label)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
