package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/veridex/internal/model"
)

// InvocationError is raised after every attempt at a structured call has
// failed. It carries the last raw output and the last parse/validation
// errors so callers can log them and apply their own degradation policy.
type InvocationError struct {
	Name          string
	Attempts      int
	RawOutput     string
	ParseErr      error
	ValidationErr error
	TransportErr  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("llm invocation %q failed after %d attempts", e.Name, e.Attempts)
}

// Request is one structured call through the resilience layer
type Request struct {
	// Name identifies the call site in logs (e.g. "decompose", "judge")
	Name   string
	System string
	User   string
	// Reasoning selects chain-of-thought mode; the parser strips the
	// <think> block before extraction.
	Reasoning bool
	// MaxRetries is the number of retry attempts after the first.
	// Zero means use the configured default.
	MaxRetries int
	// Temperature / RetryTemperature override the configured defaults
	// when non-zero. Retries sample hotter to escape a bad basin.
	Temperature      float32
	RetryTemperature float32
	MaxTokens        int
	// Validate runs after schema unmarshaling succeeds, on the freshly
	// decoded value. Returning an error fails the attempt; validators
	// log soft issues themselves instead of returning them.
	Validate func(v any) error
}

// Invoker is the structured-output resilience layer: every generative
// call that must return machine-parseable data goes through Invoke,
// which handles extraction, validation, and temperature-escalated retry
// in one place.
type Invoker struct {
	client Client
	config model.LLMConfig
	logger *zap.Logger
	// pause between attempts, from config.RetryPause
	pause time.Duration
}

// NewInvoker creates the resilience layer around a model client
func NewInvoker(client Client, cfg model.LLMConfig, logger *zap.Logger) *Invoker {
	pause := cfg.RetryPause
	if pause <= 0 {
		pause = time.Second
	}
	return &Invoker{
		client: client,
		config: cfg,
		logger: logger.Named("invoker"),
		pause:  pause,
	}
}

// Invoke calls the model, extracts a JSON value from the reply, decodes
// it into out (which must be a non-nil pointer), and runs the semantic
// validator. On parse or validation failure it retries with the escalated
// temperature up to MaxRetries additional attempts; only after exhausting
// them does it return an *InvocationError.
func (inv *Invoker) Invoke(ctx context.Context, req Request, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("invoke %s: out must be a non-nil pointer", req.Name)
	}

	maxRetries := req.MaxRetries
	if maxRetries == 0 {
		maxRetries = inv.config.MaxRetries
	}
	temperature := req.Temperature
	if temperature == 0 {
		temperature = inv.config.Temperature
	}
	retryTemperature := req.RetryTemperature
	if retryTemperature == 0 {
		retryTemperature = inv.config.RetryTemperature
	}

	failure := &InvocationError{Name: req.Name, Attempts: maxRetries + 1}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				failure.TransportErr = ctx.Err()
				failure.Attempts = attempt
				return failure
			case <-time.After(inv.pause):
			}
		}

		temp := temperature
		if attempt > 0 {
			temp = retryTemperature
		}

		start := time.Now()
		resp, err := inv.client.Complete(ctx, CompletionRequest{
			Messages: []Message{
				{Role: RoleSystem, Content: req.System},
				{Role: RoleUser, Content: req.User},
			},
			Temperature: temp,
			MaxTokens:   req.MaxTokens,
			Reasoning:   req.Reasoning,
		})
		if err != nil {
			failure.TransportErr = err
			inv.logger.Warn("model call failed",
				zap.String("call", req.Name),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}
		latency := time.Since(start)
		failure.RawOutput = resp.Content

		data, err := ExtractJSON(resp.Content)
		if err != nil {
			failure.ParseErr = err
			inv.logger.Warn("JSON extraction failed",
				zap.String("call", req.Name),
				zap.Int("attempt", attempt+1),
				zap.Int("raw_length", len(resp.Content)))
			continue
		}

		// Decode into a fresh value so a half-filled result from an
		// earlier attempt never leaks through.
		fresh := reflect.New(rv.Elem().Type())
		if err := json.Unmarshal(data, fresh.Interface()); err != nil {
			failure.ValidationErr = err
			inv.logger.Warn("schema validation failed",
				zap.String("call", req.Name),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		if req.Validate != nil {
			if err := req.Validate(fresh.Interface()); err != nil {
				failure.ValidationErr = fmt.Errorf("semantic: %w", err)
				inv.logger.Warn("semantic validation failed",
					zap.String("call", req.Name),
					zap.Int("attempt", attempt+1),
					zap.Error(err))
				continue
			}
		}

		rv.Elem().Set(fresh.Elem())
		inv.logger.Debug("invocation succeeded",
			zap.String("call", req.Name),
			zap.Int("attempts", attempt+1),
			zap.Duration("latency", latency))
		return nil
	}

	return failure
}

// Raw calls the model without parsing or validation. Used where the
// caller needs the untouched text (the evidence agent's loop).
func (inv *Invoker) Raw(ctx context.Context, req CompletionRequest) (*Completion, error) {
	return inv.client.Complete(ctx, req)
}
