package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const (
	// DefaultOpenAIModel is the default model to use
	DefaultOpenAIModel = "gpt-4o-mini"
	// DefaultOpenAIBaseURL is the default OpenAI API base URL
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	// DefaultTimeout is the default timeout for API calls
	DefaultTimeout = 30 * time.Second

	// ErrNoChoicesInResponse is returned when the API response has no choices
	ErrNoChoicesInResponse = "no choices in response"
)

// OpenAIProvider implements the Provider interface using OpenAI's API
type OpenAIProvider struct {
	client    openai.Client
	model     string
	logger    *zap.Logger
	debugMode bool
}

var _ Provider = (*OpenAIProvider)(nil)

// NewOpenAIProvider creates a new OpenAI provider
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	return NewOpenAIProviderWithLogger(apiKey, DefaultOpenAIBaseURL, model, nil, false)
}

// NewOpenAIProviderWithLogger creates a new OpenAI provider with logger support
func NewOpenAIProviderWithLogger(apiKey string, baseURL string, model string, logger *zap.Logger, debugMode bool) *OpenAIProvider {
	if model == "" {
		model = DefaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}

	httpClient := &http.Client{
		Timeout: DefaultTimeout,
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		option.WithHTTPClient(httpClient),
	)

	return &OpenAIProvider{
		client:    client,
		model:     model,
		logger:    logger,
		debugMode: debugMode,
	}
}

// completeJSON sends a system+user prompt pair and returns the JSON response content
func (p *OpenAIProvider) completeJSON(ctx context.Context, operation, system, prompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(system),
		openai.UserMessage(prompt),
	}
	req := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_request",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("prompt_length", len(prompt)),
			zap.String("prompt_preview", SanitizePrompt(prompt, true)),
		)
	}

	start := time.Now()
	resp, err := p.client.Chat.Completions.New(ctx, req)
	latency := time.Since(start)
	if err != nil {
		if p.logger != nil && p.debugMode {
			p.logger.Debug("llm_api_error",
				zap.String("operation", operation),
				zap.String("model", p.model),
				zap.Error(err),
				zap.Int64("latency_ms", latency.Milliseconds()),
			)
		}
		if apiErr := ExtractAPIError(err); apiErr != nil {
			return "", fmt.Errorf("%s failed: %w", operation, apiErr)
		}
		return "", fmt.Errorf("%s failed: %w", operation, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New(ErrNoChoicesInResponse)
	}

	content := resp.Choices[0].Message.Content
	if p.logger != nil && p.debugMode {
		p.logger.Debug("llm_api_response",
			zap.String("operation", operation),
			zap.String("model", p.model),
			zap.Int("response_length", len(content)),
			zap.String("response_preview", SanitizeResponse(content, true)),
			zap.Int64("latency_ms", latency.Milliseconds()),
		)
	}

	return content, nil
}

// unmarshalLenient parses JSON content, falling back to the outermost brace
// pair when the model wrapped the object in prose.
func unmarshalLenient(content string, dest any) error {
	raw := content
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start == -1 || end == -1 || end <= start {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		if err := json.Unmarshal([]byte(raw[start:end+1]), dest); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return nil
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func normalizeRiskLevel(level string) string {
	switch strings.ToLower(level) {
	case "low", "medium", "high":
		return strings.ToLower(level)
	default:
		return "low"
	}
}

// ExtractDocument extracts structured fields from an uploaded document
func (p *OpenAIProvider) ExtractDocument(ctx context.Context, req ExtractionRequest) (*ExtractionResult, error) {
	start := time.Now()

	var sb strings.Builder
	sb.WriteString("Extract structured data from the following document.\n")
	fmt.Fprintf(&sb, "Filename: %s\nMIME type: %s\nDocument type: %s\n\n", req.Filename, req.MimeType, req.DocumentType)

	switch req.DocumentType {
	case DocumentTypeInvoice:
		sb.WriteString("Return JSON with keys: invoice_number, supplier_gstin, customer_gstin, invoice_date, due_date, taxable_amount, tax_amount, total_amount, items (array of {description, quantity, unit_price, total_price, tax_rate}), confidence (0-1).\n")
	case DocumentTypeGSTReturn:
		sb.WriteString("Return JSON with keys: gstin, return_period, total_tax_liability, total_tax_paid, confidence (0-1).\n")
	case DocumentTypeBankStatement:
		sb.WriteString("Return JSON with keys: account_number, statement_period, opening_balance, closing_balance, transactions (array of {date, description, amount}), confidence (0-1).\n")
	default:
		sb.WriteString("Return JSON with keys: document_type, summary, fields (object of notable values), confidence (0-1).\n")
	}

	sb.WriteString("\nDocument content:\n")
	sb.WriteString(TruncateString(req.Content, MaxDebugContentLength))

	content, err := p.completeJSON(ctx, "document_extraction",
		"You are an accounting document processor for an Indian CA firm. Extract fields precisely and respond with valid JSON only.",
		sb.String())
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if err := unmarshalLenient(content, &fields); err != nil {
		return nil, err
	}

	confidence := 0.0
	if c, ok := fields["confidence"].(float64); ok {
		confidence = clampConfidence(c)
	}
	delete(fields, "confidence")

	return &ExtractionResult{
		Fields:         fields,
		Confidence:     confidence,
		ProcessingTime: time.Since(start).Seconds(),
	}, nil
}

// ReconcileGST compares a client's GST filings for a period and reports discrepancies
func (p *OpenAIProvider) ReconcileGST(ctx context.Context, input GSTReconciliationInput) (*ReconciliationResult, error) {
	data, err := json.Marshal(input.Returns)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GST returns: %w", err)
	}

	prompt := fmt.Sprintf(
		"Reconcile the following GST returns for tax period %s. Flag mismatches between tax liability and tax paid, missing filings, and unusual values.\n"+
			"Return JSON with keys: discrepancies (array of strings), recommendations (array of strings), confidence (0-1).\n\nReturns:\n%s",
		input.Period, string(data))

	return p.reconcile(ctx, "gst_reconciliation", prompt)
}

// ReconcileTDS compares a client's TDS filings for a quarter and reports discrepancies
func (p *OpenAIProvider) ReconcileTDS(ctx context.Context, input TDSReconciliationInput) (*ReconciliationResult, error) {
	data, err := json.Marshal(input.Returns)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal TDS returns: %w", err)
	}

	prompt := fmt.Sprintf(
		"Reconcile the following TDS returns for quarter %s. Flag mismatches between TDS deducted and TDS deposited, missing filings, and unusual values.\n"+
			"Return JSON with keys: discrepancies (array of strings), recommendations (array of strings), confidence (0-1).\n\nReturns:\n%s",
		input.Quarter, string(data))

	return p.reconcile(ctx, "tds_reconciliation", prompt)
}

func (p *OpenAIProvider) reconcile(ctx context.Context, operation, prompt string) (*ReconciliationResult, error) {
	content, err := p.completeJSON(ctx, operation,
		"You are a tax reconciliation assistant for an Indian CA firm. Respond with valid JSON only.",
		prompt)
	if err != nil {
		return nil, err
	}

	var result ReconciliationResult
	if err := unmarshalLenient(content, &result); err != nil {
		return nil, err
	}
	result.Confidence = clampConfidence(result.Confidence)
	if result.Discrepancies == nil {
		result.Discrepancies = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}

	return &result, nil
}

// MonitorCompliance assesses deadline risk over the given compliance items
func (p *OpenAIProvider) MonitorCompliance(ctx context.Context, deadlines []DeadlineSummary) (*MonitoringResult, error) {
	data, err := json.Marshal(deadlines)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal deadlines: %w", err)
	}

	prompt := fmt.Sprintf(
		"Assess compliance deadline risk for an Indian CA firm as of %s. Consider overdue items and deadlines in the next 7 days.\n"+
			"Return JSON with keys: alerts (array of strings), risk_level (low/medium/high), recommendations (array of strings).\n\nItems:\n%s",
		time.Now().Format("2006-01-02"), string(data))

	content, err := p.completeJSON(ctx, "compliance_monitoring",
		"You are a statutory compliance monitoring assistant. Respond with valid JSON only.",
		prompt)
	if err != nil {
		return nil, err
	}

	var result MonitoringResult
	if err := unmarshalLenient(content, &result); err != nil {
		return nil, err
	}
	result.RiskLevel = normalizeRiskLevel(result.RiskLevel)
	if result.Alerts == nil {
		result.Alerts = []string{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}

	return &result, nil
}

// CategorizeTransaction suggests an account category for a transaction
func (p *OpenAIProvider) CategorizeTransaction(ctx context.Context, tx TransactionInput) (*CategorizationResult, error) {
	prompt := fmt.Sprintf(
		"Suggest an account category for this transaction.\nDescription: %s\nAmount: %.2f\nMerchant: %s\n"+
			"Return JSON with keys: category (string), confidence (0-1), alternatives (array of strings), reasoning (string).",
		tx.Description, tx.Amount, tx.Merchant)

	content, err := p.completeJSON(ctx, "smart_categorization",
		"You are a bookkeeping assistant that maps transactions to chart-of-accounts categories. Respond with valid JSON only.",
		prompt)
	if err != nil {
		return nil, err
	}

	var result CategorizationResult
	if err := unmarshalLenient(content, &result); err != nil {
		return nil, err
	}
	result.Confidence = clampConfidence(result.Confidence)
	if result.Alternatives == nil {
		result.Alternatives = []string{}
	}

	return &result, nil
}

// DetectAnomalies flags unusual entries in a ledger slice
func (p *OpenAIProvider) DetectAnomalies(ctx context.Context, input AnomalyInput) (*AnomalyReport, error) {
	data, err := json.Marshal(input.Entries)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger entries: %w", err)
	}

	prompt := fmt.Sprintf(
		"Detect anomalies in the following general ledger entries (duplicates, round-number patterns, outlier amounts, weekend postings).\n"+
			"Return JSON with keys: anomalies (array of {entry_id, description, severity}), recommendations (array of strings).\n\nEntries:\n%s",
		string(data))

	content, err := p.completeJSON(ctx, "anomaly_detection",
		"You are a financial audit assistant. Respond with valid JSON only.",
		prompt)
	if err != nil {
		return nil, err
	}

	var result AnomalyReport
	if err := unmarshalLenient(content, &result); err != nil {
		return nil, err
	}
	if result.Anomalies == nil {
		result.Anomalies = []Anomaly{}
	}
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	result.RiskLevel = RiskLevelForCount(len(result.Anomalies))

	return &result, nil
}
