package config

import (
	"fmt"
	"strings"
)

// ConfigurationError lists every required key that is missing or invalid.
type ConfigurationError struct {
	Component string
	Keys      []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: missing required configuration: %s", e.Component, strings.Join(e.Keys, ", "))
}

type keyCheck struct {
	key   string
	value string
}

func require(component string, checks ...keyCheck) error {
	var missing []string
	for _, c := range checks {
		if strings.TrimSpace(c.value) == "" {
			missing = append(missing, c.key)
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Component: component, Keys: missing}
	}
	return nil
}

func (c YandexConfig) ValidateSpeechKit() error {
	return require("speechkit",
		keyCheck{"YANDEX_SPEECHKIT_API_KEY", c.SpeechKitAPIKey},
		keyCheck{"YANDEX_FOLDER_ID", c.FolderID},
	)
}

func (c YandexConfig) ValidateVision() error {
	return require("vision",
		keyCheck{"YANDEX_VISION_API_KEY", c.VisionAPIKey},
		keyCheck{"YANDEX_FOLDER_ID", c.FolderID},
	)
}

func (c YandexConfig) ValidateGPT() error {
	return require("yandexgpt",
		keyCheck{"YANDEX_GPT_API_KEY", c.GPTAPIKey},
		keyCheck{"YANDEX_FOLDER_ID", c.FolderID},
		keyCheck{"YANDEX_GPT_MODEL", c.GPTModel},
	)
}

func (c GigaChatConfig) Validate() error {
	return require("gigachat", keyCheck{"GIGACHAT_API_KEY", c.APIKey})
}

func (c LLMConfig) Validate() error {
	switch c.Provider {
	case LLMProviderYandexGPT, LLMProviderGigaChat:
		return nil
	default:
		return &ConfigurationError{Component: "llm", Keys: []string{"LLM_PROVIDER"}}
	}
}

func (c BotConfig) Validate() error {
	return require("bot",
		keyCheck{"TELEGRAM_BOT_TOKEN", c.TelegramToken},
		keyCheck{"PASSPORT_FUNCTION_URL", c.PassportURL},
		keyCheck{"AUDIO_FUNCTION_URL", c.AudioURL},
	)
}

func (c LimitsConfig) Validate() error {
	var bad []string
	if c.AudioMaxBytes <= 0 || c.AudioMinBytes > c.AudioMaxBytes {
		bad = append(bad, "AUDIO_MIN_BYTES/AUDIO_MAX_BYTES")
	}
	if c.ImageMaxBytes <= 0 || c.ImageMinBytes > c.ImageMaxBytes {
		bad = append(bad, "IMAGE_MIN_BYTES/IMAGE_MAX_BYTES")
	}
	if len(bad) > 0 {
		return &ConfigurationError{Component: "limits", Keys: bad}
	}
	return nil
}
