package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/leofalp/aigochat/internal/utils"
	"github.com/leofalp/aigochat/providers/observability"
)

// DecodeFunc turns one SSE data payload into a text fragment. An empty
// fragment with a nil error means the payload carried no text (a control
// event) and is skipped. A non-nil error ends the stream.
type DecodeFunc func(payload string) (string, error)

// OpenFunc issues the vendor request. It is called at most once, on the first
// iteration of the stream, with the stream's context.
type OpenFunc func(ctx context.Context) (*http.Response, error)

// StreamSSE builds the ChatStream shared by all SSE-speaking vendors. The
// request is opened lazily, every data payload goes through decode, and the
// response body is closed when iteration stops for any reason.
//
// When an observer is present in ctx the whole vendor call is recorded as an
// observability.SpanLLMStream span.
func StreamSSE(ctx context.Context, vendor Vendor, model string, open OpenFunc, decode DecodeFunc) *ChatStream {
	return NewChatStream(func(yield func(string, error) bool) {
		streamCtx := ctx
		var span observability.Span
		if observer := observability.ObserverFromContext(ctx); observer != nil {
			streamCtx, span = observer.StartSpan(ctx, observability.SpanLLMStream,
				observability.String(observability.AttrLLMProvider, string(vendor)),
				observability.String(observability.AttrLLMModel, model),
			)
			defer span.End()
		}

		fragments := 0
		fail := func(err error) {
			if span != nil {
				span.RecordError(err)
				span.SetStatus(observability.StatusError, err.Error())
			}
			yield("", err)
		}

		response, err := open(streamCtx)
		if err != nil {
			fail(WrapRequestError(vendor, err))
			return
		}
		defer utils.CloseWithLog(response.Body)

		events := utils.NewSSEReader(response.Body)
		for {
			if err := streamCtx.Err(); err != nil {
				fail(err)
				return
			}

			event, err := events.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				if ctxErr := streamCtx.Err(); ctxErr != nil {
					err = ctxErr
				}
				fail(fmt.Errorf("%s stream read failed: %w", vendor, err))
				return
			}

			fragment, err := decode(event.Data)
			if err != nil {
				fail(err)
				return
			}
			if fragment == "" {
				continue
			}

			if fragments == 0 && span != nil {
				span.AddEvent(observability.EventFirstFragment)
			}
			fragments++
			if !yield(fragment, nil) {
				return
			}
		}

		if span != nil {
			span.AddEvent(observability.EventStreamEnd, observability.Int(observability.AttrLLMFragments, fragments))
			span.SetStatus(observability.StatusOK, "")
		}
	})
}
