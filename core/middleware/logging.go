package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/leofalp/aigochat/internal/utils"
	"github.com/leofalp/aigochat/providers/ai"
	"github.com/leofalp/aigochat/providers/observability"
)

// LogLevel controls how much detail the logging middleware emits per stream.
type LogLevel int

const (
	// LogLevelMinimal logs the model and the duration.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count and the fragment count.
	LogLevelStandard

	// LogLevelVerbose adds the last prompt message and the reply, each
	// truncated to 500 characters.
	//
	// WARNING: it writes user prompts and model output to the log. Use it
	// for local debugging only.
	LogLevelVerbose
)

// truncateLen is the maximum content length included in verbose output.
const truncateLen = 500

// NewLogging logs when a stream starts and once it ends. The end entry is
// "llm stream completed", "llm stream failed" or "llm stream abandoned"
// when the consumer stopped ranging early.
func NewLogging(logger *slog.Logger, level LogLevel) Middleware {
	return func(next StreamFunc) StreamFunc {
		return func(ctx context.Context, messages []ai.Message, model string) (*ai.ChatStream, error) {
			logger.DebugContext(ctx, "llm stream", requestAttrs(messages, model, level)...)

			start := time.Now()
			stream, err := next(ctx, messages, model)
			if err != nil {
				logger.ErrorContext(ctx, "llm stream failed",
					observability.AttrLLMModel, model,
					observability.AttrDuration, time.Since(start),
					observability.AttrError, err.Error(),
				)
				return nil, err
			}
			return logStream(ctx, stream, logger, model, level, start), nil
		}
	}
}

func logStream(ctx context.Context, stream *ai.ChatStream, logger *slog.Logger, model string, level LogLevel, start time.Time) *ai.ChatStream {
	return ai.NewChatStream(func(yield func(string, error) bool) {
		var (
			fragments int
			reply     []byte
		)
		attrs := func() []any {
			attrs := []any{
				observability.AttrLLMModel, model,
				observability.AttrDuration, time.Since(start),
			}
			if level >= LogLevelStandard {
				attrs = append(attrs, observability.AttrLLMFragments, fragments)
			}
			if level >= LogLevelVerbose {
				attrs = append(attrs, "reply", utils.TruncateString(string(reply), truncateLen))
			}
			return attrs
		}

		for fragment, err := range stream.Iter() {
			if err != nil {
				logger.ErrorContext(ctx, "llm stream failed", append(attrs(), observability.AttrError, err.Error())...)
				yield("", err)
				return
			}

			fragments++
			if level >= LogLevelVerbose && len(reply) <= truncateLen {
				reply = append(reply, fragment...)
			}

			if !yield(fragment, nil) {
				logger.InfoContext(ctx, "llm stream abandoned", attrs()...)
				return
			}
		}

		logger.InfoContext(ctx, "llm stream completed", attrs()...)
	})
}

func requestAttrs(messages []ai.Message, model string, level LogLevel) []any {
	attrs := []any{observability.AttrLLMModel, model}

	if level >= LogLevelStandard {
		attrs = append(attrs, "message_count", len(messages))
	}

	if level >= LogLevelVerbose && len(messages) > 0 {
		last := messages[len(messages)-1]
		attrs = append(attrs,
			"last_message_role", string(last.Role),
			"last_message_content", utils.TruncateString(last.Content, truncateLen),
		)
	}

	return attrs
}
