package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultWeatherMCPURL = "https://jiri-spilka--weather-mcp-server.apify.actor/mcp"

// ToolProviderConfig describes one MCP server. AuthHeader is the full
// Authorization value; Enabled is false when the credentials behind it are unset.
type ToolProviderConfig struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	Transport  string `yaml:"transport"`
	AuthHeader string `yaml:"-"`
	Enabled    bool   `yaml:"-"`

	// TokenEnv names the variable holding a bearer token for file providers.
	TokenEnv string `yaml:"token_env"`
}

type toolProvidersFile struct {
	Providers []ToolProviderConfig `yaml:"providers"`
}

// builtinProviders are the weather and Langfuse servers, enabled by their credentials.
func builtinProviders() []ToolProviderConfig {
	apifyToken := getEnv("APIFY_API_TOKEN", "")
	langfusePublic := getEnv("LANGFUSE_PUBLIC_KEY", "")
	langfuseSecret := getEnv("LANGFUSE_SECRET_KEY", "")
	langfuseHost := strings.TrimRight(getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"), "/")

	weather := ToolProviderConfig{
		Name:    "weather",
		URL:     getEnv("WEATHER_MCP_URL", defaultWeatherMCPURL),
		Enabled: apifyToken != "",
	}
	if apifyToken != "" {
		weather.AuthHeader = "Bearer " + apifyToken
	}

	langfuse := ToolProviderConfig{
		Name:    "langfuse",
		URL:     langfuseHost + "/api/public/mcp",
		Enabled: langfusePublic != "" && langfuseSecret != "",
	}
	if langfuse.Enabled {
		langfuse.AuthHeader = fmt.Sprintf("Bearer %s:%s", langfusePublic, langfuseSecret)
	}

	return []ToolProviderConfig{weather, langfuse}
}

// LoadToolProviders reads extra providers from a YAML file of the form
//
//	providers:
//	  - name: github
//	    url: https://example.com/mcp
//	    transport: streamable
//	    token_env: GITHUB_TOKEN
func LoadToolProviders(path string) ([]ToolProviderConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read providers file: %w", err)
	}

	var file toolProvidersFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse providers file: %w", err)
	}

	out := make([]ToolProviderConfig, 0, len(file.Providers))
	for i, p := range file.Providers {
		if p.Name == "" || p.URL == "" {
			return nil, fmt.Errorf("provider %d: name and url are required", i)
		}
		if strings.Contains(p.Name, "_") {
			return nil, fmt.Errorf("provider %q: name must not contain '_'", p.Name)
		}
		p.Enabled = true
		if p.TokenEnv != "" {
			token := getEnv(p.TokenEnv, "")
			p.Enabled = token != ""
			if token != "" {
				p.AuthHeader = "Bearer " + token
			}
		}
		out = append(out, p)
	}
	return out, nil
}

// MergeProviders appends extra to base; an extra entry replaces a base entry of the same name.
func MergeProviders(base, extra []ToolProviderConfig) []ToolProviderConfig {
	out := make([]ToolProviderConfig, 0, len(base)+len(extra))
	index := make(map[string]int, len(base)+len(extra))
	for _, p := range append(append([]ToolProviderConfig{}, base...), extra...) {
		if i, ok := index[p.Name]; ok {
			out[i] = p
			continue
		}
		index[p.Name] = len(out)
		out = append(out, p)
	}
	return out
}
