// Package config loads the libbot configuration from a TOML file with
// environment-variable overrides for credentials.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath       = "config.toml"
	DefaultHTTPAddr         = ":8080"
	DefaultBotName          = "LibBot"
	DefaultLLMBaseURL       = "https://api.groq.com/openai/v1"
	DefaultLLMModel         = "llama-3.3-70b-versatile"
	DefaultEmbeddingModel   = "text-embedding-3-small"
	DefaultEmbeddingDims    = 1536
	DefaultPGHost           = "127.0.0.1"
	DefaultPGPort           = 5432
	DefaultPGUser           = "postgres"
	DefaultPGDatabase       = "libbot"
	DefaultPGSSLMode        = "disable"
	DefaultQdrantHost       = "127.0.0.1"
	DefaultQdrantPort       = 6334
	DefaultQdrantCollection = "library_documents"
	DefaultDocsPath         = "data/library_docs"
	DefaultHistoryWindow    = 10
	DefaultChunkTokens      = 400
	DefaultChunkOverlap     = 50
	DefaultSearchTopK       = 4
)

type Config struct {
	Log       LogConfig       `toml:"log"`
	Server    ServerConfig    `toml:"server"`
	Bot       BotConfig       `toml:"bot"`
	LLM       LLMConfig       `toml:"llm"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Qdrant    QdrantConfig    `toml:"qdrant"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	Channel   ChannelConfig   `toml:"channel"`
	Twilio    TwilioConfig    `toml:"twilio"`
	Meta      MetaConfig      `toml:"meta"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

// BotConfig carries the user-facing persona and the fixed reply texts used
// when the pipeline cannot produce a real answer.
type BotConfig struct {
	Name           string `toml:"name" validate:"required"`
	RunningMessage string `toml:"running_message"`
	FallbackReply  string `toml:"fallback_reply"`
	EmptyReply     string `toml:"empty_reply"`
	TextOnlyReply  string `toml:"text_only_reply"`
	HistoryWindow  int    `toml:"history_window" validate:"gte=0"`
}

type LLMConfig struct {
	BaseURL        string `toml:"base_url" validate:"required,url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model" validate:"required"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type EmbeddingConfig struct {
	BaseURL        string `toml:"base_url" validate:"required,url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model" validate:"required"`
	Dimensions     int    `toml:"dimensions" validate:"gt=0"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type PostgresConfig struct {
	// URL takes precedence over the discrete fields when set (DB_URL).
	URL      string `toml:"url"`
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// DSN returns the postgres connection string for pgx.
func (c PostgresConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.Database, c.SSLMode)
}

// MigrateURL returns the connection string for the golang-migrate pgx driver.
func (c PostgresConfig) MigrateURL() string {
	if c.URL != "" {
		for _, scheme := range []string{"postgresql://", "postgres://"} {
			if strings.HasPrefix(c.URL, scheme) {
				return "pgx5://" + strings.TrimPrefix(c.URL, scheme)
			}
		}
		return c.URL
	}
	return fmt.Sprintf("pgx5://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.User), url.QueryEscape(c.Password), c.Host, c.Port, c.Database, c.SSLMode)
}

type QdrantConfig struct {
	Host       string `toml:"host"`
	Port       int    `toml:"port"`
	APIKey     string `toml:"api_key"`
	UseTLS     bool   `toml:"use_tls"`
	Collection string `toml:"collection" validate:"required"`
}

type KnowledgeConfig struct {
	DocsPath     string `toml:"docs_path" validate:"required"`
	ChunkTokens  int    `toml:"chunk_tokens" validate:"gt=0"`
	ChunkOverlap int    `toml:"chunk_overlap" validate:"gte=0"`
	SearchTopK   int    `toml:"search_top_k" validate:"gt=0"`
	Recreate     bool   `toml:"recreate"`
	// RefreshCron re-ingests the docs folder on a cron schedule when set.
	RefreshCron string `toml:"refresh_cron"`
}

type ChannelConfig struct {
	Active string `toml:"active" validate:"oneof=twilio meta"`
}

type TwilioConfig struct {
	AccountSID     string `toml:"account_sid"`
	AuthToken      string `toml:"auth_token"`
	WhatsAppNumber string `toml:"whatsapp_number"`
}

type MetaConfig struct {
	AccessToken   string `toml:"access_token"`
	PhoneNumberID string `toml:"phone_number_id"`
	VerifyToken   string `toml:"verify_token"`
	GraphBaseURL  string `toml:"graph_base_url"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Bot: BotConfig{
			Name:           DefaultBotName,
			RunningMessage: "Library WhatsApp Bot is running!",
			FallbackReply:  "Something went wrong 🙈 Please try again!",
			EmptyReply:     "Oops! 😅 I couldn't process that.",
			TextOnlyReply:  "Sorry, I can only process text messages right now! 📝",
			HistoryWindow:  DefaultHistoryWindow,
		},
		LLM: LLMConfig{
			BaseURL:        DefaultLLMBaseURL,
			Model:          DefaultLLMModel,
			TimeoutSeconds: 60,
		},
		Embedding: EmbeddingConfig{
			BaseURL:        DefaultLLMBaseURL,
			Model:          DefaultEmbeddingModel,
			Dimensions:     DefaultEmbeddingDims,
			TimeoutSeconds: 30,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Qdrant: QdrantConfig{
			Host:       DefaultQdrantHost,
			Port:       DefaultQdrantPort,
			Collection: DefaultQdrantCollection,
		},
		Knowledge: KnowledgeConfig{
			DocsPath:     DefaultDocsPath,
			ChunkTokens:  DefaultChunkTokens,
			ChunkOverlap: DefaultChunkOverlap,
			SearchTopK:   DefaultSearchTopK,
		},
		Channel: ChannelConfig{
			Active: "twilio",
		},
		Meta: MetaConfig{
			GraphBaseURL: "https://graph.facebook.com/v18.0",
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return cfg, err
		}
	} else if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	applyEnv(&cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// applyEnv overlays credentials from the environment using the variable
// names the deployment scripts already export.
func applyEnv(cfg *Config) {
	setIfPresent(&cfg.LLM.APIKey, "LLM_API_KEY", "GROQ_API_KEY")
	setIfPresent(&cfg.Embedding.APIKey, "EMBEDDING_API_KEY", "LLM_API_KEY", "GROQ_API_KEY")
	setIfPresent(&cfg.Postgres.URL, "DB_URL")
	setIfPresent(&cfg.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	setIfPresent(&cfg.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	setIfPresent(&cfg.Twilio.WhatsAppNumber, "TWILIO_WHATSAPP_NUMBER")
	setIfPresent(&cfg.Meta.AccessToken, "META_WHATSAPP_TOKEN")
	setIfPresent(&cfg.Meta.PhoneNumberID, "META_PHONE_NUMBER_ID")
	setIfPresent(&cfg.Meta.VerifyToken, "META_VERIFY_TOKEN")
}

func setIfPresent(dst *string, keys ...string) {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			*dst = value
			return
		}
	}
}
