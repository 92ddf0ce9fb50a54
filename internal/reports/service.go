// Package reports implements the report-creation collaborator of the batch
// pipeline: it turns an assembled request (property, period, inquiry
// summaries) into a persisted sales-status report, optionally generating the
// report body via an AI summarization backend, and enqueues a report-created
// notification for the email worker.
package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker/v2"

	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/queue"
	"github.com/RikitoMorikawa/IPPON-Backend-test-sub001/internal/types"
)

// SummaryGenerator produces the report body text from an assembled request.
type SummaryGenerator interface {
	Summarize(ctx context.Context, req types.ReportCreateRequest) (string, error)
}

// ReportStore abstracts report persistence.
type ReportStore interface {
	Create(ctx context.Context, rep *types.Report) error
}

// Notifier abstracts the report-created notification publish. Implemented by
// queue.ReportNotifier in production.
type Notifier interface {
	PublishReportCreated(ctx context.Context, msg queue.ReportCreatedMessage) error
}

// Service creates sales-status reports from batch requests.
type Service struct {
	summarizer SummaryGenerator // nil when AI summarization is disabled
	store      ReportStore
	notifier   Notifier
	now        func() time.Time
	logger     *slog.Logger
}

// NewService creates a report Service. summarizer may be nil, in which case
// reports are persisted with a plain fallback body instead of an AI summary.
func NewService(summarizer SummaryGenerator, store ReportStore, notifier Notifier, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		summarizer: summarizer,
		store:      store,
		notifier:   notifier,
		now:        time.Now,
		logger:     logger,
	}
}

// CreateFromBatch generates and persists one report. A summarization failure
// is returned as an error so the caller's retry semantics apply; a
// notification failure after the report is persisted is logged but does not
// fail the creation, since the report itself is durable.
func (s *Service) CreateFromBatch(ctx context.Context, req types.ReportCreateRequest) (*types.Report, error) {
	var (
		summary string
		err     error
	)
	if s.summarizer != nil {
		summary, err = s.summarizer.Summarize(ctx, req)
		if err != nil {
			return nil, types.NewAppError(types.ErrCodeUpstreamSummarizer, "failed to generate report summary", err)
		}
	} else {
		summary = fallbackSummary(req)
	}

	report := &types.Report{
		ID:           uuid.New().String(),
		ClientID:     req.ClientID,
		PropertyID:   req.PropertyID,
		Title:        fmt.Sprintf("%s 営業状況報告（%s〜%s）", req.PropertyName, req.PeriodStart, req.PeriodEnd),
		PeriodStart:  req.PeriodStart,
		PeriodEnd:    req.PeriodEnd,
		Summary:      summary,
		InquiryCount: len(req.Inquiries),
		CreatedAt:    s.now().UTC(),
	}

	if err := s.store.Create(ctx, report); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		msg := queue.ReportCreatedMessage{
			ReportID:     report.ID,
			ClientID:     report.ClientID,
			PropertyID:   report.PropertyID,
			PropertyName: req.PropertyName,
			PeriodStart:  report.PeriodStart,
			PeriodEnd:    report.PeriodEnd,
			CreatedAt:    report.CreatedAt,
		}
		if err := s.notifier.PublishReportCreated(ctx, msg); err != nil {
			s.logger.ErrorContext(ctx, "report persisted but notification failed",
				"report_id", report.ID,
				"client_id", report.ClientID,
				"error", err,
			)
		}
	}

	return report, nil
}

// fallbackSummary builds a minimal report body when AI summarization is
// disabled.
func fallbackSummary(req types.ReportCreateRequest) string {
	return fmt.Sprintf("%s：%s〜%sの期間に%d件の問い合わせがありました。",
		req.PropertyName, req.PeriodStart, req.PeriodEnd, len(req.Inquiries))
}

// ChatCompleter abstracts the OpenAI chat completion call for testability.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAISummarizer generates report bodies via the OpenAI chat completion
// API. All calls go through a circuit breaker so a degraded AI backend trips
// fast instead of stalling every setting in a cycle.
type OpenAISummarizer struct {
	client  ChatCompleter
	model   string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[string]
}

// OpenAISummarizerConfig holds the construction parameters.
type OpenAISummarizerConfig struct {
	APIKey  string
	BaseURL string // empty for api.openai.com
	Model   string
	Timeout time.Duration
}

// NewOpenAISummarizer creates a summarizer backed by the OpenAI API.
func NewOpenAISummarizer(cfg OpenAISummarizerConfig) *OpenAISummarizer {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "openai-summarizer",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &OpenAISummarizer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: timeout,
		breaker: breaker,
	}
}

const summarySystemPrompt = `あなたは不動産会社の営業報告書作成アシスタントです。` +
	`対象物件への問い合わせ一覧をもとに、オーナー向けの営業状況報告文を日本語で作成してください。` +
	`問い合わせの傾向（件数、種別、時期）を簡潔にまとめ、3〜5文の平文のみを出力してください。`

// Summarize builds the prompt from the request and returns the generated
// report body.
func (o *OpenAISummarizer) Summarize(ctx context.Context, req types.ReportCreateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var b strings.Builder
	fmt.Fprintf(&b, "物件名: %s\n", req.PropertyName)
	fmt.Fprintf(&b, "対象期間: %s 〜 %s\n", req.PeriodStart, req.PeriodEnd)
	fmt.Fprintf(&b, "問い合わせ件数: %d\n\n", len(req.Inquiries))
	for _, q := range req.Inquiries {
		fmt.Fprintf(&b, "[%s] %s (%s) %s\n",
			q.InquiredAt.Format("2006-01-02 15:04"), q.CustomerName, q.Category, q.Title)
	}

	summary, err := o.breaker.Execute(func() (string, error) {
		resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: o.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: summarySystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: b.String()},
			},
			Temperature: 0.3,
			MaxTokens:   1000,
		})
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("summarizer returned no choices")
		}
		return strings.TrimSpace(resp.Choices[0].Message.Content), nil
	})
	if err != nil {
		return "", fmt.Errorf("reports: summarization call failed: %w", err)
	}

	return summary, nil
}
