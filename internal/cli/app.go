// Package cli implements the pamauth command.
package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-pam"
	"github.com/goliatone/go-pam/backend/libpam"
	"github.com/goliatone/go-pam/backend/userdb"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// PasswordEnv holds the secret when --password-stdin is not given.
const PasswordEnv = "PAMAUTH_PASSWORD"

// App carries the process collaborators so tests can replace them.
type App struct {
	ProcessEnv pam.ProcessEnv
	LookupEnv  func(key string) (string, bool)
}

// NewApp returns an App bound to the running process.
func NewApp() *App {
	return &App{
		ProcessEnv: pam.OSEnv{},
		LookupEnv:  os.LookupEnv,
	}
}

type rootFlags struct {
	configFile    string
	user          string
	passwordStdin bool
}

// NewRootCommand builds the pamauth command tree.
func (a *App) NewRootCommand() *cobra.Command {
	v := newViper()
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "pamauth",
		Short:         "Authenticate users and open sessions through PAM",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "config file (default ./pamauth.yaml or /etc/pamauth/pamauth.yaml)")
	pf.String("service", "login", "PAM service name")
	pf.String("backend", BackendLibPAM, "backend: libpam or userdb")
	pf.String("users-file", "", "users file for the userdb backend")
	pf.String("passwd-file", "", "passwd file used to build the session environment")
	pf.Bool("silent", false, "pass the silent flag to every backend call")
	pf.BoolP("verbose", "v", false, "log backend outcomes and activity events to stderr")

	for key, flag := range map[string]string{
		"service":     "service",
		"backend":     "backend",
		"users_file":  "users-file",
		"passwd_file": "passwd-file",
		"silent":      "silent",
		"verbose":     "verbose",
	} {
		_ = v.BindPFlag(key, pf.Lookup(flag))
	}

	root.AddCommand(
		a.newCheckCommand(v, flags),
		a.newSessionCommand(v, flags),
		a.newHashCommand(),
	)
	return root
}

func addCredentialFlags(cmd *cobra.Command, flags *rootFlags) {
	cmd.Flags().StringVarP(&flags.user, "user", "u", "", "user to authenticate")
	cmd.Flags().BoolVar(&flags.passwordStdin, "password-stdin", false, "read the password from the first line of stdin")
	_ = cmd.MarkFlagRequired("user")
}

func (a *App) newCheckCommand(v *viper.Viper, flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Authenticate a user and validate the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(v, flags.configFile)
			if err != nil {
				return err
			}

			secret, err := a.readSecret(cmd.InOrStdin(), flags.passwordStdin)
			if err != nil {
				return err
			}

			backend, opts, err := a.setup(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			authn, err := pam.NewFromConfig(backend, cfg, opts...)
			if err != nil {
				return err
			}
			defer authn.Close()

			if err := authn.SetCredentials(flags.user, secret); err != nil {
				return err
			}
			if err := authn.Authenticate(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: authenticated for service %s\n", flags.user, cfg.Service)
			return nil
		},
	}
	addCredentialFlags(cmd, flags)
	return cmd
}

func (a *App) newSessionCommand(v *viper.Viper, flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session [-- command [args...]]",
		Short: "Authenticate, open a session and print or run with its environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, flags.configFile)
			if err != nil {
				return err
			}

			secret, err := a.readSecret(cmd.InOrStdin(), flags.passwordStdin)
			if err != nil {
				return err
			}

			backend, opts, err := a.setup(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			authn, err := pam.NewFromConfig(backend, cfg, opts...)
			if err != nil {
				return err
			}
			defer authn.Close()

			ctx := cmd.Context()
			if err := authn.SetCredentials(flags.user, secret); err != nil {
				return err
			}
			if err := authn.Authenticate(ctx); err != nil {
				return err
			}
			if err := authn.OpenSession(ctx); err != nil {
				return err
			}

			env, err := authn.Environment()
			if err != nil {
				return err
			}

			if len(args) == 0 {
				out, err := json.MarshalIndent(env, "", "  ")
				if err != nil {
					return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to encode environment")
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return nil
			}
			return runWithEnv(ctx, cmd, env, args)
		},
	}
	addCredentialFlags(cmd, flags)
	return cmd
}

func (a *App) newHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash",
		Short: "Read a password from stdin and print its bcrypt hash for a users file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret, err := readLine(cmd.InOrStdin())
			if err != nil {
				return err
			}
			hash, err := userdb.HashPassword(secret)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

// setup builds the backend and the options matching cfg.
func (a *App) setup(cfg *Config, stderr io.Writer) (pam.Backend, []pam.Option, error) {
	opts := []pam.Option{pam.WithProcessEnv(a.ProcessEnv)}
	if cfg.Verbose {
		opts = append(opts,
			pam.WithLogger(writerLogger{w: stderr}),
			pam.WithActivitySink(activityPrinter(stderr)),
		)
	} else {
		opts = append(opts, pam.WithLogger(pam.NopLogger()))
	}

	switch cfg.Backend {
	case BackendUserDB:
		store, err := userdb.Load(cfg.UsersFile)
		if err != nil {
			return nil, nil, err
		}
		if cfg.PasswdFile == "" {
			opts = append(opts, pam.WithIdentityDB(store))
		} else {
			opts = append(opts, pam.WithIdentityDB(pam.PasswdDB{Path: cfg.PasswdFile}))
		}
		return userdb.New(store), opts, nil
	default:
		backend, err := libpam.New()
		if err != nil {
			return nil, nil, goerrors.Wrap(err, goerrors.CategoryOperation, "host PAM backend unavailable")
		}
		opts = append(opts, pam.WithIdentityDB(pam.PasswdDB{Path: cfg.PasswdFile}))
		return backend, opts, nil
	}
}

func (a *App) readSecret(stdin io.Reader, fromStdin bool) (string, error) {
	if fromStdin {
		return readLine(stdin)
	}
	if secret, ok := a.LookupEnv(PasswordEnv); ok {
		return secret, nil
	}
	return "", goerrors.New("no password supplied: use --password-stdin or "+PasswordEnv, goerrors.CategoryBadInput).
		WithTextCode("PASSWORD_REQUIRED")
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", goerrors.Wrap(err, goerrors.CategoryBadInput, "unable to read password")
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", goerrors.New("empty password", goerrors.CategoryBadInput).
			WithTextCode("PASSWORD_REQUIRED")
	}
	return line, nil
}

func runWithEnv(ctx context.Context, cmd *cobra.Command, env map[string]string, args []string) error {
	child := exec.CommandContext(ctx, args[0], args[1:]...)
	child.Stdin = cmd.InOrStdin()
	child.Stdout = cmd.OutOrStdout()
	child.Stderr = cmd.ErrOrStderr()
	child.Env = mergeEnv(os.Environ(), env)
	return child.Run()
}

// mergeEnv overlays session variables on base in KEY=value form.
func mergeEnv(base []string, session map[string]string) []string {
	out := make([]string, 0, len(base)+len(session))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := session[key]; ok {
			continue
		}
		out = append(out, kv)
	}

	keys := make([]string, 0, len(session))
	for k := range session {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, k+"="+session[k])
	}
	return out
}
