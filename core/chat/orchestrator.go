package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/memory"
	"github.com/leofalp/aigochat/providers/observability"
)

// DefaultPersistTimeout bounds the post-stream save.
const DefaultPersistTimeout = 10 * time.Second

var (
	// ErrModelUnavailable is returned by Start when the model is unknown or its
	// vendor is not configured.
	ErrModelUnavailable = errors.New("model not available")

	// ErrInvalidRequest is returned by Start for a request without a
	// conversation id or model.
	ErrInvalidRequest = errors.New("invalid chat request")
)

// Dispatcher resolves a model to a provider stream.
// *registry.Registry satisfies it.
type Dispatcher interface {
	IsModelAvailable(model string) bool
	StreamChat(ctx context.Context, messages []ai.Message, model string) (*ai.ChatStream, error)
}

// Repository is the part of memory.Store the orchestrator needs.
type Repository interface {
	EnsureConversation(ctx context.Context, id string) (*memory.Conversation, error)
	SaveTurn(ctx context.Context, user, assistant memory.NewMessage) ([]memory.StoredMessage, error)
}

// Request is one chat turn.
type Request struct {
	ConversationID string
	Message        string
	Model          string

	// History is the prior conversation, oldest first. It is sent to the
	// model ahead of Message.
	History []ai.Message
}

// Orchestrator runs chat turns. It is safe for concurrent use.
type Orchestrator struct {
	dispatcher     Dispatcher
	repository     Repository
	logger         *slog.Logger
	observer       observability.Provider
	persistTimeout time.Duration
	now            func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger for per-turn log lines.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithObserver enables spans and metrics for every turn. The observer is
// also placed on the context handed to the dispatcher so providers can
// trace their vendor calls.
func WithObserver(observer observability.Provider) Option {
	return func(o *Orchestrator) {
		o.observer = observer
	}
}

// WithPersistTimeout bounds the post-stream save. Non-positive values are ignored.
func WithPersistTimeout(timeout time.Duration) Option {
	return func(o *Orchestrator) {
		if timeout > 0 {
			o.persistTimeout = timeout
		}
	}
}

// WithClock overrides the time source used for durations.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// New returns an orchestrator that streams through dispatcher and saves
// through repository.
func New(dispatcher Dispatcher, repository Repository, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		dispatcher:     dispatcher,
		repository:     repository,
		logger:         slog.Default(),
		persistTimeout: DefaultPersistTimeout,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start prepares a turn. The conversation is created if needed before the
// model is checked, so it exists even when Start then fails with
// ErrModelUnavailable. Errors returned here happen before any event.
//
// The returned sequence runs the turn when ranged over and may be ranged
// only once; later ranges yield nothing. Stopping early, or cancelling ctx,
// aborts the vendor call and skips persistence.
func (o *Orchestrator) Start(ctx context.Context, req Request) (iter.Seq[Event], error) {
	if req.ConversationID == "" || req.Model == "" {
		return nil, fmt.Errorf("%w: conversation id and model are required", ErrInvalidRequest)
	}

	if _, err := o.repository.EnsureConversation(ctx, req.ConversationID); err != nil {
		return nil, fmt.Errorf("chat: ensure conversation %s: %w", req.ConversationID, err)
	}

	if !o.dispatcher.IsModelAvailable(req.Model) {
		o.logger.ErrorContext(ctx, "Model not available", observability.AttrLLMModel, req.Model)
		return nil, fmt.Errorf("%w: %s", ErrModelUnavailable, req.Model)
	}

	messages := append(slices.Clone(req.History), ai.Message{Role: ai.RoleUser, Content: req.Message})

	var started atomic.Bool
	return func(yield func(Event) bool) {
		if !started.CompareAndSwap(false, true) {
			return
		}
		o.run(ctx, req, messages, yield)
	}, nil
}

// streamResult is the outcome of the streaming phase.
type streamResult struct {
	reply     string
	fragments int
	duration  time.Duration
	err       error
	kind      FailureKind
	cancelled bool
}

func (r streamResult) outcome() string {
	switch {
	case r.cancelled:
		return "cancelled"
	case r.err != nil:
		return "errored"
	default:
		return "completed"
	}
}

// persistResult is the outcome of the persistence phase. It never reaches
// the caller.
type persistResult struct {
	attempted bool
	duration  time.Duration
	err       error
}

func (o *Orchestrator) run(ctx context.Context, req Request, messages []ai.Message, yield func(Event) bool) {
	var span observability.Span
	if o.observer != nil {
		ctx, span = o.observer.StartSpan(ctx, observability.SpanChatTurn,
			observability.String(observability.AttrChatConversationID, req.ConversationID),
			observability.String(observability.AttrLLMModel, req.Model),
			observability.Int(observability.AttrChatHistoryLength, len(req.History)),
		)
		ctx = observability.ContextWithSpan(ctx, span)
		ctx = observability.ContextWithObserver(ctx, o.observer)
		defer span.End()
	}

	sr := o.stream(ctx, req.Model, messages, yield)

	var pr persistResult
	switch {
	case sr.cancelled:
	case sr.err != nil:
		yield(Event{Type: EventError, Error: sr.kind.UserMessage()})
	default:
		pr = o.persist(ctx, req, sr.reply)
		yield(Event{Type: EventDone})
	}

	o.record(ctx, span, req, sr, pr)
}

// stream forwards fragments to the consumer while accumulating the reply.
func (o *Orchestrator) stream(ctx context.Context, model string, messages []ai.Message, yield func(Event) bool) (result streamResult) {
	start := o.now()
	var reply strings.Builder
	defer func() {
		result.reply = reply.String()
		result.duration = o.now().Sub(start)
	}()

	stream, err := o.dispatcher.StreamChat(ctx, messages, model)
	if err == nil {
		for fragment, fragmentErr := range stream.Iter() {
			if fragmentErr != nil {
				err = fragmentErr
				break
			}
			reply.WriteString(fragment)
			result.fragments++
			if !yield(Event{Type: EventContent, Content: fragment}) || ctx.Err() != nil {
				result.cancelled = true
				return result
			}
		}
	}

	if err != nil {
		result.err = err
		if ctx.Err() != nil {
			result.cancelled = true
			return result
		}
		result.kind = Classify(err)
	}
	return result
}

// persist saves the turn on a context that survives the caller's
// cancellation but is bounded by persistTimeout.
func (o *Orchestrator) persist(ctx context.Context, req Request, reply string) persistResult {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.persistTimeout)
	defer cancel()

	start := o.now()
	_, err := o.repository.SaveTurn(ctx,
		memory.NewMessage{ConversationID: req.ConversationID, Role: ai.RoleUser, Content: req.Message, Model: req.Model},
		memory.NewMessage{ConversationID: req.ConversationID, Role: ai.RoleAssistant, Content: reply, Model: req.Model},
	)
	return persistResult{attempted: true, duration: o.now().Sub(start), err: err}
}

// record joins both phase results into one log line and the turn metrics.
func (o *Orchestrator) record(ctx context.Context, span observability.Span, req Request, sr streamResult, pr persistResult) {
	persisted := pr.attempted && pr.err == nil
	attrs := []any{
		observability.AttrChatConversationID, req.ConversationID,
		observability.AttrLLMModel, req.Model,
		observability.AttrChatOutcome, sr.outcome(),
		observability.AttrLLMFragments, sr.fragments,
		observability.AttrChatReplyLength, len(sr.reply),
		observability.AttrDuration, sr.duration,
		observability.AttrChatPersisted, persisted,
	}

	switch {
	case sr.err != nil && !sr.cancelled:
		o.logger.ErrorContext(ctx, "Chat stream failed",
			append(attrs, observability.AttrChatFailureKind, string(sr.kind), observability.AttrError, sr.err)...)
	case pr.err != nil:
		o.logger.ErrorContext(ctx, "Failed to persist chat turn",
			append(attrs, "persist_duration", pr.duration, observability.AttrError, pr.err)...)
	case sr.cancelled:
		o.logger.InfoContext(ctx, "Chat turn cancelled by client", attrs...)
	default:
		o.logger.InfoContext(ctx, "Chat turn completed", append(attrs, "persist_duration", pr.duration)...)
	}

	if o.observer == nil {
		return
	}

	outcome := observability.String(observability.AttrChatOutcome, sr.outcome())
	model := observability.String(observability.AttrLLMModel, req.Model)
	o.observer.Counter(observability.MetricChatTurns).Add(ctx, 1, outcome, model)
	o.observer.Histogram(observability.MetricChatStreamDuration).Record(ctx, float64(sr.duration.Milliseconds()), outcome, model)
	if pr.err != nil {
		o.observer.Counter(observability.MetricChatPersistFailures).Add(ctx, 1, model)
	}

	span.SetAttributes(
		outcome,
		observability.Int(observability.AttrLLMFragments, sr.fragments),
		observability.Int(observability.AttrChatReplyLength, len(sr.reply)),
		observability.Bool(observability.AttrChatPersisted, persisted),
	)
	if sr.err != nil && !sr.cancelled {
		span.RecordError(sr.err)
		span.SetAttributes(observability.String(observability.AttrChatFailureKind, string(sr.kind)))
		span.SetStatus(observability.StatusError, "chat stream failed")
	} else {
		span.SetStatus(observability.StatusOK, "")
	}
}
