package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/meysamhadeli/guidescan/embed_data"
	"github.com/meysamhadeli/guidescan/providers"
	"github.com/meysamhadeli/guidescan/tools"
	"github.com/meysamhadeli/guidescan/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configFileName = "guidescan-config"
	envPrefix      = "GUIDESCAN"
	filePrefix     = "file:"
)

// Config represents the structure of the configuration file
type Config struct {
	Version       string        `mapstructure:"version"`
	RootDir       string        `mapstructure:"root_dir"`
	Instructions  string        `mapstructure:"instructions"`
	Guidance      string        `mapstructure:"guidance"`
	Excludes      []string      `mapstructure:"excludes"`
	IgnoreFile    string        `mapstructure:"ignore_file"`
	MultiThreaded bool          `mapstructure:"multi_threaded"`
	MaxThreads    int           `mapstructure:"max_threads"`
	ModuleTimeout time.Duration `mapstructure:"module_timeout"`
	NonRecursive  bool          `mapstructure:"non_recursive"`
	LogInputs     bool          `mapstructure:"log_inputs"`
	EnableCache   bool          `mapstructure:"enable_cache"`
	PrintResults  bool          `mapstructure:"print_results"`
	ReadOnlyTools bool          `mapstructure:"read_only_tools"`
	Theme         string        `mapstructure:"theme"`
	LogLevel      string        `mapstructure:"log_level"`
	MaxRounds     int           `mapstructure:"max_rounds"`
	// ConfigFile is the file the settings were read from, if any.
	ConfigFile       string                      `mapstructure:"-"`
	AIProviderConfig *providers.AIProviderConfig `mapstructure:"ai_provider_config"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:       "0.1.0",
	IgnoreFile:    ".guidescanignore",
	MaxThreads:    4,
	ModuleTimeout: 30 * time.Minute,
	EnableCache:   true,
	Theme:         "dracula",
	LogLevel:      "info",
	MaxRounds:     providers.DefaultMaxRounds,
	AIProviderConfig: &providers.AIProviderConfig{
		Provider: providers.ProviderAnthropic,
	},
}

// LoadConfigs reads defaults, the config file, .env, environment variables
// and the flags of rootCmd, in increasing order of precedence.
func LoadConfigs(rootCmd *cobra.Command, cwd string) (*Config, error) {
	if err := loadDotEnv(cwd); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	cfgFile := ""
	if f := lookupFlag(rootCmd, "config"); f != nil {
		cfgFile = f.Value.String()
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	} else {
		v.SetConfigName(configFileName)
		v.AddConfigPath(cwd)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		}
	}

	bindFlags(v, rootCmd)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if config.AIProviderConfig == nil {
		config.AIProviderConfig = &providers.AIProviderConfig{}
	}
	config.AIProviderConfig.MaxRounds = config.MaxRounds
	config.ConfigFile = v.ConfigFileUsed()

	if config.RootDir == "" {
		config.RootDir = cwd
	}
	if !filepath.IsAbs(config.RootDir) {
		config.RootDir = filepath.Join(cwd, config.RootDir)
	}
	return &config, nil
}

// loadDotEnv loads cwd/.env without overriding variables already set.
func loadDotEnv(cwd string) error {
	err := godotenv.Load(filepath.Join(cwd, ".env"))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// setDefaults sets all default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("version", DefaultConfig.Version)
	v.SetDefault("root_dir", "")
	v.SetDefault("instructions", "")
	v.SetDefault("guidance", "")
	v.SetDefault("excludes", []string{})
	v.SetDefault("ignore_file", DefaultConfig.IgnoreFile)
	v.SetDefault("multi_threaded", false)
	v.SetDefault("max_threads", DefaultConfig.MaxThreads)
	v.SetDefault("module_timeout", DefaultConfig.ModuleTimeout)
	v.SetDefault("non_recursive", false)
	v.SetDefault("log_inputs", false)
	v.SetDefault("enable_cache", DefaultConfig.EnableCache)
	v.SetDefault("print_results", false)
	v.SetDefault("read_only_tools", false)
	v.SetDefault("theme", DefaultConfig.Theme)
	v.SetDefault("log_level", DefaultConfig.LogLevel)
	v.SetDefault("max_rounds", DefaultConfig.MaxRounds)
	v.SetDefault("ai_provider_config.provider", DefaultConfig.AIProviderConfig.Provider)
	v.SetDefault("ai_provider_config.base_url", "")
	v.SetDefault("ai_provider_config.model", "")
	v.SetDefault("ai_provider_config.api_key", "")
	v.SetDefault("ai_provider_config.max_tokens", 0)
	v.SetDefault("ai_provider_config.requests_per_second", 0.0)
}

// bindEnv binds the unprefixed variables commonly used for providers.
func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("ai_provider_config.provider", envPrefix+"_PROVIDER", "PROVIDER")
	_ = v.BindEnv("ai_provider_config.model", envPrefix+"_MODEL", "MODEL")
	_ = v.BindEnv("ai_provider_config.base_url", envPrefix+"_BASE_URL", "BASE_URL")
	_ = v.BindEnv("ai_provider_config.api_key", envPrefix+"_API_KEY", "API_KEY")
	_ = v.BindEnv("ai_provider_config.temperature", envPrefix+"_TEMPERATURE", "TEMPERATURE")
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"root_dir":            "root_dir",
	"instructions":        "instructions",
	"guidance":            "guidance",
	"excludes":            "excludes",
	"ignore_file":         "ignore_file",
	"multi_threaded":      "multi_threaded",
	"max_threads":         "max_threads",
	"module_timeout":      "module_timeout",
	"non_recursive":       "non_recursive",
	"log_inputs":          "log_inputs",
	"enable_cache":        "enable_cache",
	"print_results":       "print_results",
	"read_only_tools":     "read_only_tools",
	"theme":               "theme",
	"log_level":           "log_level",
	"max_rounds":          "max_rounds",
	"provider":            "ai_provider_config.provider",
	"base_url":            "ai_provider_config.base_url",
	"model":               "ai_provider_config.model",
	"api_key":             "ai_provider_config.api_key",
	"max_tokens":          "ai_provider_config.max_tokens",
	"requests_per_second": "ai_provider_config.requests_per_second",
}

// bindFlags binds the CLI flags to configuration values. Temperature has
// no neutral default, so it only applies when set on the command line.
func bindFlags(v *viper.Viper, rootCmd *cobra.Command) {
	for name, key := range flagKeys {
		if f := lookupFlag(rootCmd, name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
	if f := lookupFlag(rootCmd, "temperature"); f != nil && f.Changed {
		if t, err := strconv.ParseFloat(f.Value.String(), 32); err == nil {
			v.Set("ai_provider_config.temperature", float32(t))
		}
	}
}

// lookupFlag finds a flag of cmd, including persistent flags that are not
// merged yet.
func lookupFlag(cmd *cobra.Command, name string) *pflag.Flag {
	if f := cmd.Flags().Lookup(name); f != nil {
		return f
	}
	return cmd.PersistentFlags().Lookup(name)
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()
	flags.StringP("config", "c", "", "Path to a configuration file (JSON or YAML).")

	flags.String("root_dir", "", "Project root to scan (default: working directory).")
	flags.String("instructions", "", "System instructions: literal text, 'file:<path>' or an http(s) URL.")
	flags.String("guidance", "", "Default guidance for locations without their own: literal text, 'file:<path>' or an http(s) URL.")
	flags.StringSlice("excludes", nil, "Gitignore-style patterns to exclude, relative to the project root.")
	flags.String("ignore_file", DefaultConfig.IgnoreFile, "Gitignore-style file with additional exclusions.")
	flags.Bool("multi_threaded", false, "Process sibling modules in parallel.")
	flags.Int("max_threads", DefaultConfig.MaxThreads, "Maximum number of modules processed in parallel.")
	flags.Duration("module_timeout", DefaultConfig.ModuleTimeout, "Time limit for one batch of parallel modules.")
	flags.Bool("non_recursive", false, "Only process the direct children of the scanned directory.")
	flags.Bool("log_inputs", false, "Write every composed request below .guidescan/inputs.")
	flags.Bool("enable_cache", DefaultConfig.EnableCache, "Cache extracted guidance between runs.")
	flags.Bool("print_results", false, "Render the model's answers in the terminal.")
	flags.Bool("read_only_tools", false, "Only offer tools that do not change files or run commands.")
	flags.String("theme", DefaultConfig.Theme, "Highlighting theme for printed results (e.g., 'dracula', 'monokai').")
	flags.String("log_level", DefaultConfig.LogLevel, "Log level: trace, debug, info, warn, error or disabled.")
	flags.Int("max_rounds", DefaultConfig.MaxRounds, "Maximum request/response rounds of one conversation.")

	flags.String("provider", DefaultConfig.AIProviderConfig.Provider, "AI provider: anthropic, gemini, ollama or none.")
	flags.String("base_url", "", "Base URL of the AI provider.")
	flags.String("model", "", "Model used for the conversation.")
	flags.String("api_key", "", "API key of the AI provider.")
	flags.Float32("temperature", 0, "Sampling temperature of the model.")
	flags.Int("max_tokens", 0, "Maximum output tokens per round.")
	flags.Float64("requests_per_second", 0, "Limit of requests per second sent to the provider (0 means unlimited).")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	}
	return ""
}

// ResolveText turns a text reference into its content. A reference is
// literal text, "file:<path>" (relative paths resolve against baseDir) or an
// http(s) URL.
func ResolveText(ctx context.Context, ref string, baseDir string, client *http.Client) (string, error) {
	trimmed := strings.TrimSpace(ref)
	switch {
	case trimmed == "":
		return "", nil
	case strings.HasPrefix(trimmed, filePrefix):
		path := strings.TrimSpace(strings.TrimPrefix(trimmed, filePrefix))
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return strings.TrimSpace(string(content)), nil
	case strings.HasPrefix(trimmed, "http://") || strings.HasPrefix(trimmed, "https://"):
		if client == nil {
			client = &http.Client{Timeout: 30 * time.Second}
		}
		text, err := tools.FetchText(ctx, client, trimmed)
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(text), nil
	default:
		return ref, nil
	}
}

// ResolveTexts resolves Instructions and Guidance in place. Empty
// instructions fall back to the embedded system prompt.
func (c *Config) ResolveTexts(ctx context.Context, baseDir string, client *http.Client) error {
	instructions, err := ResolveText(ctx, c.Instructions, baseDir, client)
	if err != nil {
		return fmt.Errorf("failed to resolve instructions: %w", err)
	}
	if instructions == "" {
		instructions = strings.TrimSpace(string(embed_data.SystemInstructionsPrompt))
	}
	c.Instructions = instructions

	guidanceText, err := ResolveText(ctx, c.Guidance, baseDir, client)
	if err != nil {
		return fmt.Errorf("failed to resolve guidance: %w", err)
	}
	c.Guidance = guidanceText
	return nil
}

// WorkDir returns the directory guidescan keeps its data in for root.
func WorkDir(root string) string {
	return filepath.Join(root, utils.WorkDirName)
}
