// userctl manages accounts for the log viewer against the same SQLite
// database the server uses. Subcommands: list, create, delete, passwd.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/iliyamo/pm-log-viewer/internal/config"
	"github.com/iliyamo/pm-log-viewer/internal/database"
	"github.com/iliyamo/pm-log-viewer/internal/repository"
)

const minPasswordLen = 4

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg := config.Load()
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	users := repository.NewUserRepo(db)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch os.Args[1] {
	case "list":
		err = runList(ctx, users)
	case "create":
		err = runCreate(ctx, users, os.Args[2:])
	case "delete":
		err = runDelete(ctx, users, os.Args[2:])
	case "passwd":
		err = runPasswd(ctx, users, os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `usage: userctl <command> [flags]

commands:
  list                      list all users
  create [-u user] [-p pw]  create a user (prompts when flags are omitted)
  delete -u user            delete a user and its sessions
  passwd -u user            change a user's password
`)
}

func runList(ctx context.Context, users *repository.UserRepo) error {
	list, err := users.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("no users")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tCREATED\tLAST LOGIN")
	for _, u := range list {
		lastLogin := "never"
		if u.LastLogin.Valid {
			lastLogin = formatUnix(u.LastLogin.Int64)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, formatUnix(u.CreatedAt), lastLogin)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("total: %d user(s)\n", len(list))
	return nil
}

func runCreate(ctx context.Context, users *repository.UserRepo, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	username := fs.String("u", "", "username")
	password := fs.String("p", "", "password (prompted when omitted)")
	_ = fs.Parse(args)

	name, err := requireUsername(*username)
	if err != nil {
		return err
	}
	pw := *password
	if pw == "" {
		pw, err = promptNewPassword()
		if err != nil {
			return err
		}
	}
	if len(pw) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if _, err := users.Create(ctx, name, pw); err != nil {
		return err
	}
	fmt.Printf("user %q created\n", name)
	return nil
}

func runDelete(ctx context.Context, users *repository.UserRepo, args []string) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	username := fs.String("u", "", "username")
	_ = fs.Parse(args)

	name, err := requireUsername(*username)
	if err != nil {
		return err
	}
	fmt.Printf("delete user %q and all its sessions? (y/N): ", name)
	answer, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return err
	}
	if strings.ToLower(strings.TrimSpace(answer)) != "y" {
		fmt.Println("cancelled")
		return nil
	}
	if err := users.Delete(ctx, name); err != nil {
		return err
	}
	fmt.Printf("user %q deleted\n", name)
	return nil
}

func runPasswd(ctx context.Context, users *repository.UserRepo, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	username := fs.String("u", "", "username")
	_ = fs.Parse(args)

	name, err := requireUsername(*username)
	if err != nil {
		return err
	}
	pw, err := promptNewPassword()
	if err != nil {
		return err
	}
	if len(pw) < minPasswordLen {
		return fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}
	if err := users.ChangePassword(ctx, name, pw); err != nil {
		return err
	}
	fmt.Printf("password for %q changed\n", name)
	return nil
}

// requireUsername prompts when the flag was omitted and rejects empty
// input either way.
func requireUsername(flagValue string) (string, error) {
	name := strings.TrimSpace(flagValue)
	if name == "" {
		fmt.Print("username: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", err
		}
		name = strings.TrimSpace(line)
	}
	if name == "" {
		return "", errors.New("username must not be empty")
	}
	return name, nil
}

// promptNewPassword reads the password twice without echo and requires
// both entries to match.
func promptNewPassword() (string, error) {
	pw, err := readPassword("password: ")
	if err != nil {
		return "", err
	}
	confirm, err := readPassword("confirm password: ")
	if err != nil {
		return "", err
	}
	if pw != confirm {
		return "", errors.New("passwords do not match")
	}
	return pw, nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatUnix(sec int64) string {
	return time.Unix(sec, 0).Format("2006-01-02 15:04:05")
}
