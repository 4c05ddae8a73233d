package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultInstructions = `You are the "RAG Control Engine".
Style: cyberpunk, precise, technical.
Rules:
1. ALWAYS call the searchFiles tool when the user asks for information.
2. Cite the source documents when the search returns data.
3. If the search returns nothing, say so plainly. Never invent facts.`

// AgentProfile customizes the persona and model settings of the chat agent.
type AgentProfile struct {
	Name         string  `yaml:"name"`
	Instructions string  `yaml:"instructions"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
}

// DefaultAgentProfile returns the built-in persona.
func DefaultAgentProfile() *AgentProfile {
	return &AgentProfile{
		Name:         "RAG Control Engine",
		Instructions: defaultInstructions,
	}
}

// LoadAgentProfile reads a YAML profile from path. An empty path or a missing
// file yields the default profile; fields left blank in the file keep their
// defaults.
func LoadAgentProfile(path string) (*AgentProfile, error) {
	profile := DefaultAgentProfile()
	if path == "" {
		return profile, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return profile, nil
		}
		return nil, fmt.Errorf("failed to read agent profile: %w", err)
	}

	var file AgentProfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse agent profile: %w", err)
	}

	if strings.TrimSpace(file.Name) != "" {
		profile.Name = file.Name
	}
	if strings.TrimSpace(file.Instructions) != "" {
		profile.Instructions = file.Instructions
	}
	profile.Model = file.Model
	profile.Temperature = file.Temperature

	return profile, nil
}
