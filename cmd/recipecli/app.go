package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"github.com/iliyamo/recipe-backend/internal/client"
)

const defaultServer = "http://localhost:5000"

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var errUsage = errors.New("usage: recipecli [-server URL] register|login|profile|generate|save|list|logout [flags]")

// App holds the I/O the commands use.
type App struct {
	In        io.Reader
	Out       io.Writer
	TokenPath string // empty disables token persistence

	reader *bufio.Reader
}

// Run parses global flags and dispatches one subcommand.
func (a *App) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("recipecli", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	server := fs.String("server", envOr("RECIPE_API_URL", defaultServer), "API base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errUsage
	}
	a.reader = bufio.NewReader(a.In)

	c := client.New(*server, client.WithToken(a.loadToken()))
	cmd, rest := fs.Arg(0), fs.Args()[1:]

	switch cmd {
	case "register":
		return a.register(ctx, c, rest)
	case "login":
		return a.login(ctx, c, rest)
	case "profile":
		p, err := c.Profile(ctx)
		if err != nil {
			return err
		}
		return a.print(p)
	case "generate":
		return a.generate(ctx, c, rest)
	case "save":
		return a.save(ctx, c, rest)
	case "list":
		recipes, err := c.SavedRecipes(ctx)
		if err != nil {
			return err
		}
		return a.print(recipes)
	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		a.storeToken("")
		fmt.Fprintln(a.Out, "Logged out")
		return nil
	default:
		return errUsage
	}
}

func (a *App) register(ctx context.Context, c *client.Client, args []string) error {
	email, err := a.emailFlag("register", args)
	if err != nil {
		return err
	}
	pw, err := a.password()
	if err != nil {
		return err
	}
	if err := c.Register(ctx, email, pw); err != nil {
		return err
	}
	fmt.Fprintln(a.Out, "User registered successfully")
	return nil
}

func (a *App) login(ctx context.Context, c *client.Client, args []string) error {
	email, err := a.emailFlag("login", args)
	if err != nil {
		return err
	}
	pw, err := a.password()
	if err != nil {
		return err
	}
	res, err := c.Login(ctx, email, pw)
	if err != nil {
		return err
	}
	a.storeToken(res.Token)
	fmt.Fprintf(a.Out, "Logged in until %s\n", res.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func (a *App) generate(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	tags := fs.String("tags", "", "comma-separated tags")
	ingredients := fs.String("ingredients", "", "comma-separated ingredients")
	if err := fs.Parse(args); err != nil {
		return err
	}
	out, err := c.GenerateRecipe(ctx, splitList(*tags), splitList(*ingredients))
	if err != nil {
		return err
	}
	if out.Result == nil {
		fmt.Fprintln(a.Out, out.Recipe)
		return nil
	}
	return a.print(out.Result)
}

func (a *App) save(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	fs.SetOutput(a.Out)
	name := fs.String("name", "", "recipe name")
	ingredients := fs.String("ingredients", "", "comma-separated ingredients")
	instructions := fs.String("instructions", "", "instructions text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	id, err := c.SaveRecipe(ctx, *name, splitList(*ingredients), *instructions)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.Out, "Recipe saved successfully (id %d)\n", id)
	return nil
}

func (a *App) emailFlag(name string, args []string) (string, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.Out)
	email := fs.String("email", "", "account email")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *email != "" {
		return *email, nil
	}
	fmt.Fprint(a.Out, "Email: ")
	line, err := a.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// password reads without echo when stdin is a terminal, otherwise one line.
func (a *App) password() (string, error) {
	fmt.Fprint(a.Out, "Password: ")
	if f, ok := a.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(a.Out)
		return string(pw), err
	}
	line, err := a.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *App) print(v any) error {
	enc := json.NewEncoder(a.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ----- token file -----

func defaultTokenPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "recipecli", "token")
}

func (a *App) loadToken() string {
	if a.TokenPath == "" {
		return ""
	}
	b, err := os.ReadFile(a.TokenPath)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func (a *App) storeToken(tok string) {
	if a.TokenPath == "" {
		return
	}
	if tok == "" {
		_ = os.Remove(a.TokenPath)
		return
	}
	if err := os.MkdirAll(filepath.Dir(a.TokenPath), 0o700); err != nil {
		fmt.Fprintln(a.Out, "warning: cannot store token:", err)
		return
	}
	if err := os.WriteFile(a.TokenPath, []byte(tok+"\n"), 0o600); err != nil {
		fmt.Fprintln(a.Out, "warning: cannot store token:", err)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
