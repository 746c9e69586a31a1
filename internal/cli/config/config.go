package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "sponsor.yaml"

// Server represents an Auth API server entry
type Server struct {
	URL   string `yaml:"url"`
	Alias string `yaml:"alias"`
}

// Key is the identifier used to keep sessions for different servers apart
func (s *Server) Key() string {
	u, err := url.Parse(s.URL)
	if err != nil || u.Host == "" {
		return strings.NewReplacer("/", "_", ":", "_").Replace(s.URL)
	}
	return strings.ReplaceAll(u.Host, ":", "_")
}

// Validate checks that the entry points at an http(s) endpoint
func (s *Server) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("server %q has no url. Please edit %s and add the Auth API address", s.Alias, ConfigFileName)
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("server %q has an invalid url: %w", s.Alias, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server %q url must start with http:// or https://", s.Alias)
	}
	if u.Host == "" {
		return fmt.Errorf("server %q url has no host", s.Alias)
	}
	return nil
}

// Config represents the project configuration file
type Config struct {
	Servers   []Server `yaml:"servers"`
	Dashboard string   `yaml:"dashboard,omitempty"`
}

// FindConfigFile searches for sponsor.yaml in current directory and parent directories
func FindConfigFile() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := currentDir
	for {
		configPath := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return "", fmt.Errorf("%s not found in %s or any parent directory", ConfigFileName, currentDir)
}

// Load reads the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for i := range cfg.Servers {
		cfg.Servers[i].URL = strings.TrimRight(cfg.Servers[i].URL, "/")
	}

	return &cfg, nil
}

// LoadFromCurrentDir loads config from current directory or parent directories
func LoadFromCurrentDir() (*Config, error) {
	configPath, err := FindConfigFile()
	if err != nil {
		return nil, err
	}

	return Load(configPath)
}

// Save writes the configuration to a file
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetServerByAlias returns a server by its alias
func (c *Config) GetServerByAlias(alias string) (*Server, error) {
	for i := range c.Servers {
		if c.Servers[i].Alias == alias {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with alias '%s' not found", alias)
}

// GetServerByURL returns a server by its url
func (c *Config) GetServerByURL(rawURL string) (*Server, error) {
	rawURL = strings.TrimRight(rawURL, "/")
	for i := range c.Servers {
		if c.Servers[i].URL == rawURL {
			return &c.Servers[i], nil
		}
	}
	return nil, fmt.Errorf("server with url '%s' not found", rawURL)
}

// GetDefaultServer returns the first server in the list
func (c *Config) GetDefaultServer() (*Server, error) {
	if len(c.Servers) == 0 {
		return nil, fmt.Errorf("no servers configured in %s", ConfigFileName)
	}
	return &c.Servers[0], nil
}

// AddServer appends a server unless one with the same url exists. It
// reports whether the list changed.
func (c *Config) AddServer(rawURL, alias string) (*Server, bool) {
	if s, err := c.GetServerByURL(rawURL); err == nil {
		return s, false
	}
	c.Servers = append(c.Servers, Server{
		URL:   strings.TrimRight(rawURL, "/"),
		Alias: alias,
	})
	return &c.Servers[len(c.Servers)-1], true
}
