// Command provision creates a user with an explicit role. It is the only way
// to create an admin account.
//
//	provision -username a1 -email a1@example.com -password '...' -role admin
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"

	"task-manager/api/internal/config"
	"task-manager/api/internal/database"
	"task-manager/api/internal/models"
	"task-manager/api/internal/repositories"
	"task-manager/api/internal/services"
	"task-manager/api/pkg/logger"

	"github.com/rs/zerolog"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Init(logger.Options{Level: cfg.Log.Level, Pretty: true, Output: os.Stderr})

	if err := run(ctx, cfg, log, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (services.ProvisionInput, error) {
	var in services.ProvisionInput
	var role string

	fs := flag.NewFlagSet("provision", flag.ContinueOnError)
	fs.StringVar(&in.Username, "username", "", "username (required)")
	fs.StringVar(&in.Email, "email", "", "email address (required)")
	fs.StringVar(&in.Password, "password", os.Getenv("PROVISION_PASSWORD"), "password, defaults to $PROVISION_PASSWORD")
	fs.StringVar(&role, "role", string(models.RoleRegular), "admin or regular")
	fs.StringVar(&in.FirstName, "first-name", "", "first name")
	fs.StringVar(&in.LastName, "last-name", "", "last name")
	if err := fs.Parse(args); err != nil {
		return in, err
	}

	parsed, err := models.ParseRole(role)
	if err != nil {
		return in, err
	}
	in.Role = parsed
	return in, nil
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger, args []string, out io.Writer) error {
	in, err := parseFlags(args)
	if err != nil {
		return err
	}

	poolConfig := database.DefaultPoolConfig()
	poolConfig.Driver = cfg.Database.Driver
	poolConfig.DSN = cfg.GetDatabaseDSN()
	poolConfig.MaxOpenConns = 1
	poolConfig.MaxIdleConns = 1
	poolConfig.Logger = log

	pool, err := database.NewDatabasePool(poolConfig)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.Migrate(pool.DB); err != nil {
		return err
	}

	userService := services.NewUserService(repositories.NewUserRepository(pool.DB), cfg.Auth.BCryptCost, cfg.Tasks.PageSize, log)
	user, err := userService.Provision(ctx, in)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			return formatValidation(verr)
		}
		return err
	}

	fmt.Fprintf(out, "created %s user %s (%s)\n", user.Role, user.Username, user.ID)
	return nil
}

func formatValidation(verr *services.ValidationError) error {
	fields := make([]string, 0, len(verr.Fields))
	for field := range verr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	msg := "invalid input:"
	for _, field := range fields {
		for _, m := range verr.Fields[field] {
			msg += fmt.Sprintf("\n  %s: %s", field, m)
		}
	}
	return errors.New(msg)
}
