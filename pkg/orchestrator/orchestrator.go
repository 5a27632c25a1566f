package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"roundtable-hq/roundtable/pkg/ledger"
	"roundtable-hq/roundtable/pkg/persona"
	"roundtable-hq/roundtable/pkg/processing/costs"
	"roundtable-hq/roundtable/pkg/processing/tokens"
	"roundtable-hq/roundtable/pkg/providers"
	"roundtable-hq/roundtable/pkg/structured"
)

// Registry resolves a provider adapter by name.
type Registry interface {
	Get(name string) (providers.Provider, bool)
}

// Sink receives incremental text chunks during a streaming call.
// Push returns false when the caller is no longer interested; the
// orchestrator then stops forwarding and closes the provider connection.
type Sink interface {
	Push(chunk string) bool
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(chunk string) bool

// Push calls f.
func (f SinkFunc) Push(chunk string) bool { return f(chunk) }

// Request is one respond invocation: a persona speaking against a
// message history. Sink is nil for non-streaming calls.
type Request struct {
	Persona          *persona.Persona
	History          []providers.Message
	UserID           string
	ConversationID   string
	StructuredOutput bool
	Sink             Sink
}

// Result is the uniform outcome of a respond invocation. Cost is always
// present, even when usage was estimated.
type Result struct {
	Structured  *structured.Response `json:"structured_response"`
	Usage       providers.TokenUsage `json:"usage"`
	Cost        *costs.Breakdown     `json:"cost"`
	Provider    string               `json:"provider"`
	Model       string               `json:"model"`
	PersonaID   string               `json:"persona_id,omitempty"`
	PersonaName string               `json:"persona_name"`
}

// Orchestrator is the top-level facade: it resolves the adapter for a
// persona, invokes it (streaming or not), normalizes the output, prices
// the usage, and appends a cost record. Calls share no mutable state and
// may run concurrently.
type Orchestrator struct {
	registry   Registry
	calculator *costs.Calculator
	estimator  *tokens.Estimator
	costSink   ledger.Store
	logger     *slog.Logger
}

// New creates an orchestrator. costSink may be nil, in which case no
// cost records are persisted (costs are still computed and returned).
func New(registry Registry, calculator *costs.Calculator, estimator *tokens.Estimator, costSink ledger.Store) *Orchestrator {
	return &Orchestrator{
		registry:   registry,
		calculator: calculator,
		estimator:  estimator,
		costSink:   costSink,
		logger:     slog.Default().With("component", "orchestrator"),
	}
}

// Respond invokes the persona's provider against the history and returns
// the normalized result. Identical inputs produce independent provider
// calls; there is no deduplication.
//
// On adapter failure the call fails as a whole, but chunks already
// pushed to the sink are not retracted; the caller must treat a failed
// streaming call as partial. Cost persistence is best-effort: a failed
// write is logged and never fails the response.
func (o *Orchestrator) Respond(ctx context.Context, req *Request) (*Result, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	p := req.Persona

	adapter, ok := o.registry.Get(p.Provider)
	if !ok {
		return nil, &UnsupportedProviderError{Provider: p.Provider}
	}

	chatReq := &providers.ChatRequest{
		Model:            p.Model,
		Messages:         req.History,
		Temperature:      p.Temperature,
		MaxTokens:        p.MaxTokens,
		PersonaName:      p.Name,
		Stream:           req.Sink != nil,
		StructuredOutput: req.StructuredOutput,
	}

	var resp *providers.ChatResponse
	var err error
	if req.Sink != nil {
		resp, err = o.stream(ctx, adapter, chatReq, req)
	} else {
		resp, err = adapter.SendChat(ctx, chatReq)
	}
	if err != nil {
		return nil, err
	}

	usage := resp.Usage
	if usage.PromptTokens == 0 && usage.CompletionTokens == 0 {
		completion := resp.Content
		if completion == "" {
			// Structured-only replies carry the text inside the payload.
			completion = resp.StructuredPayload
		}
		usage = o.estimator.EstimateUsage(req.History, completion, p.Model)
	}

	breakdown := o.calculator.Calculate(p.Provider, p.Model, usage)
	o.recordCost(req, usage, breakdown, false)

	return &Result{
		Structured:  structured.Normalize(resp, p.Name),
		Usage:       usage,
		Cost:        breakdown,
		Provider:    p.Provider,
		Model:       p.Model,
		PersonaID:   p.ID,
		PersonaName: p.Name,
	}, nil
}

// stream consumes the adapter's chunk channel, forwarding each delta to
// the sink in arrival order. When the sink declines a chunk the stream
// context is cancelled so the adapter closes its connection, and the
// channel is drained to completion.
func (o *Orchestrator) stream(ctx context.Context, adapter providers.Provider, chatReq *providers.ChatRequest, req *Request) (*providers.ChatResponse, error) {
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch, err := adapter.StreamChat(streamCtx, chatReq)
	if err != nil {
		return nil, err
	}

	var content strings.Builder
	var usage *providers.TokenUsage
	var id, model, finishReason, structuredPayload string
	var streamErr error
	abandoned := false

	for chunk := range ch {
		if chunk.Error != nil {
			streamErr = chunk.Error
			continue
		}
		if chunk.ID != "" {
			id = chunk.ID
		}
		if chunk.Model != "" {
			model = chunk.Model
		}
		if chunk.FinishReason != "" {
			finishReason = chunk.FinishReason
		}
		if chunk.Usage != nil {
			usage = chunk.Usage
		}
		if chunk.StructuredPayload != "" {
			structuredPayload = chunk.StructuredPayload
		}
		if chunk.Delta != "" {
			content.WriteString(chunk.Delta)
			if !abandoned && !req.Sink.Push(chunk.Delta) {
				abandoned = true
				cancel()
			}
		}
	}

	if abandoned || ctx.Err() != nil {
		// No charge for an abandoned call unless the provider reported
		// usage before the caller walked away.
		if usage != nil {
			breakdown := o.calculator.Calculate(req.Persona.Provider, req.Persona.Model, *usage)
			o.recordCost(req, *usage, breakdown, true)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrStreamAbandoned
	}

	if streamErr != nil {
		return nil, streamErr
	}

	resp := &providers.ChatResponse{
		ID:                id,
		Model:             model,
		Content:           content.String(),
		StructuredPayload: structuredPayload,
		FinishReason:      finishReason,
		Created:           time.Now().Unix(),
	}
	if resp.Model == "" {
		resp.Model = chatReq.Model
	}
	if usage != nil {
		resp.Usage = *usage
	}

	return resp, nil
}

// recordCost appends one cost record, best-effort.
func (o *Orchestrator) recordCost(req *Request, usage providers.TokenUsage, breakdown *costs.Breakdown, partial bool) {
	if o.costSink == nil {
		return
	}

	record := &ledger.CostRecord{
		ID:             uuid.NewString(),
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
		PersonaID:      req.Persona.ID,
		Provider:       req.Persona.Provider,
		Model:          req.Persona.Model,
		InputTokens:    usage.PromptTokens,
		OutputTokens:   usage.CompletionTokens,
		CachedTokens:   usage.CachedTokens,
		TotalCost:      breakdown.TotalCost,
		Partial:        partial,
		Estimated:      usage.Estimated,
		CreatedAt:      time.Now().UTC(),
	}

	// Cost persistence must never fail the caller-visible response.
	ctx, cancelWrite := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelWrite()
	if err := o.costSink.Append(ctx, record); err != nil {
		o.logger.Error("cost record write failed",
			"error", err,
			"provider", record.Provider,
			"model", record.Model,
			"user_id", record.UserID,
		)
	}
}

func validate(req *Request) error {
	if req.Persona == nil {
		return &providers.ValidationError{Field: "persona", Message: "persona is required"}
	}
	if req.Persona.Name == "" {
		return &providers.ValidationError{Field: "persona.name", Message: "persona name is required"}
	}
	if req.Persona.Provider == "" {
		return &providers.ValidationError{Field: "persona.provider", Message: "provider is required"}
	}
	if req.Persona.Model == "" {
		return &providers.ValidationError{Field: "persona.model", Message: "model is required"}
	}
	if len(req.History) == 0 {
		return &providers.ValidationError{Field: "history", Message: "message history cannot be empty"}
	}
	return nil
}
