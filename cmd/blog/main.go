package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/d60-Lab/gin-blog/config"
	"github.com/d60-Lab/gin-blog/internal/tui"
	"github.com/d60-Lab/gin-blog/pkg/client"
	"github.com/d60-Lab/gin-blog/pkg/logger"
	"github.com/d60-Lab/gin-blog/pkg/session"
)

const defaultAPIURL = "http://localhost:8080/api"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// homeDir returns BLOG_HOME, or ~/.gin-blog.
func homeDir() (string, error) {
	if dir := os.Getenv("BLOG_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".gin-blog"), nil
}

func run(args []string, in io.Reader, out io.Writer) error {
	apiURL := os.Getenv("BLOG_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	dir, err := homeDir()
	if err != nil {
		return err
	}

	if len(args) > 0 {
		switch args[0] {
		case "help", "--help", "-h":
			printHelp(out)
			return nil
		}
	}

	// Log to a file so the terminal UI stays clean.
	if err := logger.Init(config.LogConfig{
		Level:  "info",
		Format: "json",
		Output: filepath.Join(dir, "client.log"),
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	store, err := session.OpenFileStore(filepath.Join(dir, "storage.json"))
	if err != nil {
		return err
	}
	mgr, c := session.Open(apiURL, store)

	if len(args) > 0 {
		switch args[0] {
		case "login":
			return runLogin(mgr, in, out)
		case "logout":
			mgr.Initialize(context.Background())
			mgr.Logout(context.Background())
			fmt.Fprintln(out, "Logged out.")
			return nil
		case "whoami":
			return runWhoami(mgr, out)
		default:
			printHelp(out)
			return fmt.Errorf("unknown command %q", args[0])
		}
	}

	p := tea.NewProgram(tui.NewApp(mgr, c), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runLogin(mgr *session.Manager, in io.Reader, out io.Writer) error {
	r := bufio.NewReader(in)
	email, err := prompt(r, out, "Email: ")
	if err != nil {
		return err
	}
	password, err := prompt(r, out, "Password: ")
	if err != nil {
		return err
	}
	if err := mgr.Login(context.Background(), email, password); err != nil {
		return fmt.Errorf("login failed: %s", client.DisplayMessage(err, err.Error()))
	}
	u := mgr.User()
	fmt.Fprintf(out, "Logged in as %s <%s>\n", u.Name, u.Email)
	return nil
}

func runWhoami(mgr *session.Manager, out io.Writer) error {
	mgr.Initialize(context.Background())
	u := mgr.User()
	if u == nil {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}
	fmt.Fprintf(out, "%s <%s>\n", u.Name, u.Email)
	return nil
}

func prompt(r *bufio.Reader, out io.Writer, label string) (string, error) {
	fmt.Fprint(out, label)
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func printHelp(out io.Writer) {
	fmt.Fprint(out, `gin-blog terminal client

Usage:
  blog            open the post manager
  blog login      log in from the command line
  blog logout     revoke and forget the saved session
  blog whoami     show the logged-in account

Environment:
  BLOG_API_URL    API base URL (default `+defaultAPIURL+`)
  BLOG_HOME       session and log directory (default ~/.gin-blog)
`)
}
