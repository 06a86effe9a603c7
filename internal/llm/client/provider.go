package client

import (
	"fmt"

	"appforge/internal/models"
)

// Provider identifies which upstream model backend a session talks to.
type Provider string

const (
	ProviderOpenAI            Provider = "openai"
	ProviderClaude            Provider = "claude"
	ProviderGemini            Provider = "gemini"
	ProviderDeepSeek          Provider = "deepseek"
	ProviderDeepSeekReasoning Provider = "deepseek-reasoning"
)

// AllProviders lists every provider a session may be keyed by.
var AllProviders = []Provider{
	ProviderOpenAI,
	ProviderClaude,
	ProviderGemini,
	ProviderDeepSeek,
	ProviderDeepSeekReasoning,
}

// ParseProvider validates a raw provider string from the API.
func ParseProvider(value string) (Provider, error) {
	switch p := Provider(value); p {
	case ProviderOpenAI, ProviderClaude, ProviderGemini, ProviderDeepSeek, ProviderDeepSeekReasoning:
		return p, nil
	default:
		return "", fmt.Errorf("unknown provider %q", value)
	}
}

func (p Provider) String() string {
	return string(p)
}

type upgradeKey struct {
	provider Provider
	genType  models.CodeGenType
}

// providerUpgrades maps provider/mode pairs to a stronger provider. Vue
// projects drive an agent loop, which the plain deepseek chat model is too
// weak for.
var providerUpgrades = map[upgradeKey]Provider{
	{ProviderDeepSeek, models.CodeGenVueProject}: ProviderDeepSeekReasoning,
}

// EffectiveProvider applies the upgrade policy for a generation mode.
func EffectiveProvider(p Provider, genType models.CodeGenType) Provider {
	if upgraded, ok := providerUpgrades[upgradeKey{p, genType}]; ok {
		return upgraded
	}
	return p
}
