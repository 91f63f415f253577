// Command gatectl runs operational tasks: schema migrations, catalog seeding,
// and bootstrap admin creation.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"gatehouse.dev/internal/app"
	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/migrate"
	"gatehouse.dev/internal/store/pg"
)

const commandTimeout = 30 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "gatectl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: gatectl <command> [flags]

commands:
  migrate up|down|status|seed   manage the database schema
  seed                          install the default permission catalog and roles
  seed-permissions              install the default permission catalog only
  seed-roles                    install the default roles only
  create-admin                  register a user and grant the Admin role`)
}

func run(command string, args []string) error {
	cfg, err := app.LoadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	store, err := pg.Open(cfg.DatabaseDSN())
	if err != nil {
		return err
	}
	defer store.Close()

	switch command {
	case "migrate":
		return runMigrate(ctx, store, args)
	case "seed":
		return withService(store, func(svc *auth.Service) error {
			if err := svc.SeedDefaults(ctx); err != nil {
				return err
			}
			fmt.Println("seeded default permissions and roles")
			return nil
		})
	case "seed-permissions":
		return withService(store, func(svc *auth.Service) error {
			if err := svc.EnsurePermissions(ctx, auth.BuiltinPermissions); err != nil {
				return err
			}
			fmt.Printf("ensured %d permissions\n", len(auth.BuiltinPermissions))
			return nil
		})
	case "seed-roles":
		return withService(store, func(svc *auth.Service) error {
			for name, perms := range auth.DefaultRoles() {
				if _, err := svc.EnsureRole(ctx, name, perms); err != nil {
					return err
				}
				fmt.Printf("ensured role %s\n", name)
			}
			return nil
		})
	case "create-admin":
		return runCreateAdmin(ctx, store, args)
	case "help", "-h", "--help":
		usage()
		return nil
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func withService(store *pg.Store, fn func(*auth.Service) error) error {
	svc, err := auth.NewService(store)
	if err != nil {
		return err
	}
	return fn(svc)
}

func runMigrate(ctx context.Context, store *pg.Store, args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	dir := fs.String("dir", "ops/migrations/sql", "directory with .up.sql/.down.sql files")
	seeds := fs.String("seeds", "ops/migrations/seeds", "directory with seed scripts")
	if len(args) < 1 {
		return errors.New("migrate requires a subcommand: up, down, status, seed")
	}
	sub := args[0]
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	mgr := migrate.New(store.DB(), *dir, *seeds)
	switch sub {
	case "up":
		n, err := mgr.Up(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d migration(s)\n", n)
		return nil
	case "down":
		version, err := mgr.Down(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("rolled back %s\n", version)
		return nil
	case "status":
		migrations, err := mgr.Status(ctx)
		if err != nil {
			return err
		}
		for _, m := range migrations {
			state := "pending"
			if m.Applied {
				state = "applied"
			}
			fmt.Printf("%-40s %s\n", m.Version, state)
		}
		return nil
	case "seed":
		n, err := mgr.Seed(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("applied %d seed script(s)\n", n)
		return nil
	default:
		return fmt.Errorf("unknown migrate subcommand %q", sub)
	}
}

func runCreateAdmin(ctx context.Context, store *pg.Store, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "login email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" {
		return errors.New("create-admin requires -name and -email")
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	return withService(store, func(svc *auth.Service) error {
		user, err := svc.CreateAdmin(ctx, *name, *email, password)
		if err != nil {
			return err
		}
		fmt.Printf("created admin %s (%s)\n", user.Email, user.ID)
		return nil
	})
}

// promptPassword reads the password without echo when stdin is a terminal,
// with a confirmation pass. Piped input is read as a single line.
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
