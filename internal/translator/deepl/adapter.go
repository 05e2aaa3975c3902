// Package deepl implements translator.Client against DeepL's REST API,
// building requests with github.com/aoliveti/curling's fluent HTTP builder.
package deepl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aoliveti/curling"

	"github.com/goliatone/go-cms-translate/internal/translator"
)

const defaultBaseURL = "https://api.deepl.com"

// Adapter talks to DeepL's REST API, sending authKey in a "DeepL-Auth-Key"
// Authorization header.
type Adapter struct {
	httpClient *http.Client
	baseURL    string
	authKey    string
}

// New builds an Adapter. baseURL lets tests (and DeepL Free accounts, whose
// endpoint differs) point at an alternate host; pass "" for the default.
func New(authKey, baseURL string, httpClient *http.Client) *Adapter {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Adapter{httpClient: httpClient, baseURL: baseURL, authKey: authKey}
}

type translateResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

func (a *Adapter) TranslateText(ctx context.Context, text, sourceLang, targetLang string, opts translator.Options) (string, error) {
	builder := curling.NewBuilder().
		Scheme("https").
		Method(http.MethodPost).
		URL(a.baseURL + "/v2/translate").
		AddHeader("Authorization", "DeepL-Auth-Key "+a.authKey).
		AddHeader("Content-Type", "application/json")

	body := map[string]any{
		"text":        []string{text},
		"target_lang": targetLang,
	}
	if sourceLang != "" {
		body["source_lang"] = sourceLang
	}
	if opts.PreserveFormatting {
		body["preserve_formatting"] = true
	}
	if opts.TagHandling != "" {
		body["tag_handling"] = opts.TagHandling
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("deepl: encode request: %w", err)
	}

	req, err := builder.BodyBytes(payload).Build(ctx)
	if err != nil {
		return "", fmt.Errorf("deepl: build request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepl: translate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepl: translate returned status %d", resp.StatusCode)
	}

	var parsed translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("deepl: decode response: %w", err)
	}
	if len(parsed.Translations) == 0 {
		return "", fmt.Errorf("deepl: empty translations in response")
	}
	return parsed.Translations[0].Text, nil
}

type usageResponse struct {
	CharacterCount int `json:"character_count"`
	CharacterLimit int `json:"character_limit"`
}

func (a *Adapter) GetUsage(ctx context.Context) (translator.Usage, error) {
	req, err := curling.NewBuilder().
		Scheme("https").
		Method(http.MethodGet).
		URL(a.baseURL + "/v2/usage").
		AddHeader("Authorization", "DeepL-Auth-Key "+a.authKey).
		Build(ctx)
	if err != nil {
		return translator.Usage{}, fmt.Errorf("deepl: build usage request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return translator.Usage{}, fmt.Errorf("deepl: usage request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return translator.Usage{}, fmt.Errorf("deepl: usage returned status %d", resp.StatusCode)
	}

	var parsed usageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return translator.Usage{}, fmt.Errorf("deepl: decode usage response: %w", err)
	}
	return translator.Usage{CharacterCount: parsed.CharacterCount, CharacterLimit: parsed.CharacterLimit}, nil
}

type languagesResponse []struct {
	LanguageCode string `json:"language"`
}

func (a *Adapter) fetchLanguages(ctx context.Context, kind string) ([]string, error) {
	req, err := curling.NewBuilder().
		Scheme("https").
		Method(http.MethodGet).
		URL(a.baseURL+"/v2/languages").
		AddQueryParameter("type", kind).
		AddHeader("Authorization", "DeepL-Auth-Key "+a.authKey).
		Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("deepl: build languages request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deepl: languages request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("deepl: languages returned status %d", resp.StatusCode)
	}

	var parsed languagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("deepl: decode languages response: %w", err)
	}

	codes := make([]string, len(parsed))
	for i, l := range parsed {
		codes[i] = l.LanguageCode
	}
	return codes, nil
}

func (a *Adapter) GetSourceLanguages(ctx context.Context) ([]string, error) {
	return a.fetchLanguages(ctx, "source")
}

func (a *Adapter) GetTargetLanguages(ctx context.Context) ([]string, error) {
	return a.fetchLanguages(ctx, "target")
}
