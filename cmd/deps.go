package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/hrmatcher/hr-matcher/internal/ai/gemini"
	"github.com/hrmatcher/hr-matcher/internal/apollo"
	"github.com/hrmatcher/hr-matcher/internal/logger"
	"github.com/hrmatcher/hr-matcher/internal/notify"
	"github.com/hrmatcher/hr-matcher/internal/requirement"
	"github.com/hrmatcher/hr-matcher/internal/secrets"
	"github.com/hrmatcher/hr-matcher/internal/store"
)

const providerGemini = "gemini"

// setup builds the logger and loads the config. It exits on failure.
func setup() (*zap.Logger, *Config) {
	lg, err := logger.New(logger.Options{
		JSON:   viper.GetBool("json"),
		Debug:  viper.GetBool("debug"),
		Output: viper.GetString("log-file"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		lg.Fatal("getting a config", zap.Error(err))
	}

	lg.Debug("starting", zap.String("app", app), zap.String("version", version))

	return lg, config
}

func newOracle(ctx context.Context, cfg *GeminiConfig, lg *zap.Logger) (*gemini.Oracle, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	aiLogger := logger.WithCommonFields(lg, providerGemini, cfg.Model)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model, cfg.Temperature, aiLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewOracle(generator, cfg.MaxLogLength, logger.WithComponent(aiLogger, "oracle")), nil
}

// newSearcher returns nil when no Apollo key is configured; global search then yields nothing.
func newSearcher(cfg *ApolloConfig, lg *zap.Logger) *apollo.Client {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "apollo api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   "APOLLO_API_KEY",
	})
	if err != nil {
		lg.Warn("global search disabled", zap.Error(err))
		return nil
	}

	client := apollo.New(apiKey, logger.WithComponent(lg, "apollo"))
	if cfg.URL != "" {
		client.APIURL = cfg.URL
	}
	if cfg.Timeout > 0 {
		client.HTTPClient.Timeout = cfg.Timeout
	}
	return client
}

// openStore returns nil when no database is configured.
func openStore(ctx context.Context, cfg *DatabaseConfig) (*store.DB, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, nil
	}

	db, err := store.Connect(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func newNotifier(config *Config, drafter notify.Drafter, lg *zap.Logger) (*notify.Service, error) {
	var password string
	if config.SMTP.Username != "" {
		var err error
		password, err = secrets.Load(secrets.Source{
			Name:  "smtp password",
			File:  config.SMTP.PasswordFile,
			Value: config.SMTP.Password,
			Env:   "SMTP_PASSWORD",
		})
		if err != nil {
			return nil, err
		}
	}

	sender, err := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     config.SMTP.Host,
		Port:     config.SMTP.Port,
		Username: config.SMTP.Username,
		Password: password,
		From:     config.SMTP.From,
		TLS:      config.SMTP.TLS,
	})
	if err != nil {
		return nil, err
	}

	return notify.New(drafter, sender, config.FrontendURL, logger.WithComponent(lg, "notify")), nil
}

// resolveRequirement finds a requirement file by path or by name inside the requirements folder.
func resolveRequirement(config *Config, name string) (string, *requirement.Requirement, error) {
	path := name
	if _, err := os.Stat(path); err != nil && !filepath.IsAbs(name) {
		path = filepath.Join(config.Folders.Requirements, name)
	}

	req, err := requirement.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return path, req, nil
}

func printJSON(v any) error {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(os.Stdout, string(pretty))
	return err
}
