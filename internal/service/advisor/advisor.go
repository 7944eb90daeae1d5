package advisor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/models"
	"github.com/MTxiong-wang/fundinsight-ai/internal/domain/service"
	"github.com/MTxiong-wang/fundinsight-ai/internal/service/metrics"
	xhttp "github.com/MTxiong-wang/fundinsight-ai/pkg/http"
	"github.com/MTxiong-wang/fundinsight-ai/pkg/logger"
)

// defaultBaseURLs maps each supported provider to its OpenAI-compatible
// API root. All three expose the same /chat/completions contract.
var defaultBaseURLs = map[string]string{
	"zhipu":    "https://open.bigmodel.cn/api/paas/v4",
	"deepseek": "https://api.deepseek.com/v1",
	"openai":   "https://api.openai.com/v1",
}

// systemPrompts sets the analyst persona per provider.
var systemPrompts = map[string]string{
	"zhipu":    "你是专业的基金分析师，擅长数据分析和投资建议。",
	"deepseek": "你是专业的基金分析师。",
	"openai":   "你是专业的基金分析师。",
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// LLMAdvisor asks a chat-completion model for a second opinion on a
// fetched cohort. It renders the same fund attributes the scoring
// engine uses into a ranking prompt and returns the model's markdown
// verbatim.
type LLMAdvisor struct {
	provider    string
	model       string
	temperature float64
	baseURL     string
	system      string
	http        *xhttp.Client
	logger      *logger.Logger
}

// New creates an advisor for one of the supported chat providers.
// baseURL overrides the provider default when non-empty.
func New(provider, model, apiKey, baseURL string, temperature float64, timeout time.Duration, lgr *logger.Logger) (*LLMAdvisor, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("advisor: api key required for provider %q", provider)
	}
	system, ok := systemPrompts[provider]
	if !ok {
		return nil, fmt.Errorf("advisor: unsupported provider %q", provider)
	}
	if baseURL == "" {
		baseURL = defaultBaseURLs[provider]
	}

	metrics.Register()

	return &LLMAdvisor{
		provider:    provider,
		model:       model,
		temperature: temperature,
		baseURL:     strings.TrimRight(baseURL, "/"),
		system:      system,
		http: xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithDefaultHeaders(map[string]string{
				"Authorization": "Bearer " + apiKey,
				"Content-Type":  "application/json",
			}),
		),
		logger: lgr,
	}, nil
}

// Assess sends the sector cohort through the ranking prompt and returns
// the model's answer. One call covers the whole cohort.
func (a *LLMAdvisor) Assess(ctx context.Context, sector string, funds []models.Fund) (string, error) {
	prompt := buildSectorPrompt(sector, funds)

	a.logger.Info("requesting advisor assessment",
		logger.String("provider", a.provider),
		logger.String("model", a.model),
		logger.String("sector", sector),
		logger.Int("funds", len(funds)),
	)

	start := time.Now()
	answer, err := a.chat(ctx, prompt)
	metrics.AdvisorLatency.WithLabelValues(a.provider).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.AdvisorErrors.WithLabelValues(a.provider).Inc()
		return "", fmt.Errorf("advisor %s: %w", a.provider, err)
	}
	return answer, nil
}

func (a *LLMAdvisor) chat(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model: a.model,
		Messages: []chatMessage{
			{Role: "system", Content: a.system},
			{Role: "user", Content: prompt},
		},
		Temperature: a.temperature,
	}

	var resp chatResponse
	err := a.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    a.baseURL + "/chat/completions",
		Body:   req,
	}, &resp)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ service.Advisor = (*LLMAdvisor)(nil)
