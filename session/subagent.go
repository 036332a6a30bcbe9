package session

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SubAgent declares a delegate the primary session may hand work to through
// the Task tool. The CLI receives the full definition; the consumer uses only
// the name, to flag delegations to agents that were never declared.
type SubAgent struct {
	Name        string   `yaml:"name" json:"-"`
	Description string   `yaml:"description" json:"description"`
	Prompt      string   `yaml:"prompt" json:"prompt"`
	Tools       []string `yaml:"tools,omitempty" json:"tools,omitempty"`
	Model       string   `yaml:"model,omitempty" json:"model,omitempty"`
}

type subAgentFile struct {
	Agents []SubAgent `yaml:"agents"`
}

// LoadSubAgents reads sub-agent definitions from a YAML file with a top-level
// "agents" list. Each agent needs a name, a description, and a prompt.
func LoadSubAgents(path string) ([]SubAgent, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sub-agent file: %w", err)
	}

	var file subAgentFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse sub-agent file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(file.Agents))
	for i, agent := range file.Agents {
		if agent.Name == "" {
			return nil, fmt.Errorf("sub-agent %d: name is required", i)
		}
		if agent.Description == "" {
			return nil, fmt.Errorf("sub-agent %q: description is required", agent.Name)
		}
		if agent.Prompt == "" {
			return nil, fmt.Errorf("sub-agent %q: prompt is required", agent.Name)
		}
		if _, dup := seen[agent.Name]; dup {
			return nil, fmt.Errorf("sub-agent %q: duplicate name", agent.Name)
		}
		seen[agent.Name] = struct{}{}
	}

	return file.Agents, nil
}

// agentsFlagValue renders the --agents payload: a JSON object keyed by agent
// name. Name is excluded from the values since it is the key.
func agentsFlagValue(agents []SubAgent) (string, error) {
	byName := make(map[string]SubAgent, len(agents))
	for _, agent := range agents {
		byName[agent.Name] = agent
	}

	data, err := json.Marshal(byName)
	if err != nil {
		return "", fmt.Errorf("marshal sub-agent definitions: %w", err)
	}
	return string(data), nil
}
