package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/dbMundada/nango/internal/config"
	"github.com/dbMundada/nango/internal/domain/repository"
	"github.com/dbMundada/nango/internal/jwt"
	"github.com/dbMundada/nango/internal/store/pg"
	migrations "github.com/dbMundada/nango/migrations/postgres"
)

func main() {
	_ = godotenv.Load()

	var configPath string

	root := &cobra.Command{
		Use:           "nangoctl",
		Short:         "CLI de operación para el servicio de connect sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", envOr("CONFIG_PATH", "config.yaml"), "Path to YAML config")

	loadConfig := func() (*config.Config, error) {
		return config.Load(configPath)
	}

	root.AddCommand(
		migrateCmd(loadConfig),
		tokenCmd(loadConfig),
		integrationsCmd(loadConfig),
		sessionsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

type configLoader func() (*config.Config, error)

func openStore(ctx context.Context, load configLoader) (*pg.Store, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if cfg.Storage.Driver != "postgres" {
		return nil, fmt.Errorf("storage.driver=%s: este comando requiere postgres", cfg.Storage.Driver)
	}
	return pg.Open(ctx, pg.Config{DSN: cfg.Storage.DSN})
}

func migrateCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones embebidas pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx, load)
			if err != nil {
				return err
			}
			defer st.Close()

			res, err := pg.NewMigrator(migrations.CoreFS, migrations.CoreDir).Run(ctx, st)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Printf("applied=%v skipped=%v (%s)\n", res.Applied, res.Skipped, res.Duration.Truncate(time.Millisecond))
			return nil
		},
	}
}

func tokenCmd(load configLoader) *cobra.Command {
	group := &cobra.Command{Use: "token", Short: "Tokens de tenant"}

	var account, env string
	var ttl time.Duration
	mint := &cobra.Command{
		Use:   "mint",
		Short: "Emite un JWT de tenant para llamar a la API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if account == "" || env == "" {
				return fmt.Errorf("--account y --env son requeridos")
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			codec, err := jwt.NewCodec(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
			if err != nil {
				return err
			}
			tok, err := codec.Mint(account, env, ttl)
			if err != nil {
				return err
			}
			fmt.Println(tok)
			return nil
		},
	}
	mint.Flags().StringVar(&account, "account", "", "Account ID")
	mint.Flags().StringVar(&env, "env", "", "Environment ID")
	mint.Flags().DurationVar(&ttl, "ttl", time.Hour, "Vida del token")

	group.AddCommand(mint)
	return group
}

func integrationsCmd(load configLoader) *cobra.Command {
	integrations := &cobra.Command{Use: "integrations", Short: "Integraciones de un environment"}

	var env, key, provider string
	add := &cobra.Command{
		Use:   "add",
		Short: "Registra una integración",
		RunE: func(cmd *cobra.Command, args []string) error {
			if env == "" || key == "" {
				return fmt.Errorf("--env y --key son requeridos")
			}
			if provider == "" {
				provider = key
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, load)
			if err != nil {
				return err
			}
			defer st.Close()

			it, err := st.Integrations().Create(ctx, repository.CreateIntegrationInput{
				EnvironmentID: env,
				UniqueKey:     key,
				Provider:      provider,
			})
			if err != nil {
				if repository.IsConflict(err) {
					return fmt.Errorf("la integración %q ya existe en %s", key, env)
				}
				return err
			}
			fmt.Printf("created %s (%s)\n", it.UniqueKey, it.ID)
			return nil
		},
	}
	add.Flags().StringVar(&env, "env", "", "Environment ID")
	add.Flags().StringVar(&key, "key", "", "Unique key (ej. github)")
	add.Flags().StringVar(&provider, "provider", "", "Provider (default: key)")

	list := &cobra.Command{
		Use:   "list",
		Short: "Lista las integraciones de un environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			if env == "" {
				return fmt.Errorf("--env es requerido")
			}
			ctx := cmd.Context()
			st, err := openStore(ctx, load)
			if err != nil {
				return err
			}
			defer st.Close()

			its, err := st.Integrations().ListByEnvironment(ctx, env)
			if err != nil {
				return err
			}
			for _, it := range its {
				fmt.Printf("%s\t%s\n", it.UniqueKey, it.Provider)
			}
			return nil
		},
	}
	list.Flags().StringVar(&env, "env", "", "Environment ID")

	integrations.AddCommand(add, list)
	return integrations
}

func sessionsCmd() *cobra.Command {
	sessions := &cobra.Command{Use: "sessions", Short: "Connect sessions (vía API)"}

	var (
		baseURL     = envOr("NANGO_API_URL", "http://localhost:3003")
		bearer      = envOr("NANGO_TENANT_TOKEN", "")
		allowed     []string
		endUserID   string
		email       string
		displayName string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Crea una connect session y muestra token y link",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bearer == "" {
				return fmt.Errorf("falta token (flag --token o env NANGO_TENANT_TOKEN)")
			}
			body := map[string]any{}
			if len(allowed) > 0 {
				body["allowed_integrations"] = allowed
			}
			if endUserID != "" || email != "" || displayName != "" {
				eu := map[string]any{}
				if endUserID != "" {
					eu["id"] = endUserID
				}
				if email != "" {
					eu["email"] = email
				}
				if displayName != "" {
					eu["display_name"] = displayName
				}
				body["end_user"] = eu
			}
			b, err := json.Marshal(body)
			if err != nil {
				return err
			}

			req, err := http.NewRequestWithContext(cmd.Context(), http.MethodPost,
				strings.TrimRight(baseURL, "/")+"/connect/sessions", bytes.NewReader(b))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+bearer)

			resp, err := (&http.Client{Timeout: 30 * time.Second}).Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			out, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusCreated {
				return fmt.Errorf("sessions create fallo: status=%d body=%s", resp.StatusCode, string(out))
			}
			printJSON(out)
			return nil
		},
	}
	create.Flags().StringVar(&baseURL, "url", baseURL, "URL base de la API (env NANGO_API_URL)")
	create.Flags().StringVar(&bearer, "token", bearer, "JWT de tenant (env NANGO_TENANT_TOKEN)")
	create.Flags().StringSliceVar(&allowed, "allowed", nil, "Integraciones permitidas (ej. github,slack)")
	create.Flags().StringVar(&endUserID, "end-user-id", "", "ID del end user")
	create.Flags().StringVar(&email, "email", "", "Email del end user")
	create.Flags().StringVar(&displayName, "display-name", "", "Nombre del end user")

	sessions.AddCommand(create)
	return sessions
}

func printJSON(b []byte) {
	var v any
	if json.Unmarshal(b, &v) == nil {
		p, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(p))
		return
	}
	fmt.Println(string(b))
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
