package mid

import (
	"context"
	"net/http"

	"github.com/jcpaschoal/crm-tenancy/app/sdk/errs"
	"github.com/jcpaschoal/crm-tenancy/business/sdk/web"
	"github.com/jcpaschoal/crm-tenancy/foundation/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Otel stores the tracer and trace id in the context and annotates the
// request span with the matched route and the error code of a failed call.
func Otel(tracer trace.Tracer) web.MidFunc {
	m := func(next web.HandlerFunc) web.HandlerFunc {
		h := func(ctx context.Context, r *http.Request) web.Encoder {
			ctx = otel.InjectTracing(ctx, tracer)

			span := trace.SpanFromContext(ctx)
			if r.Pattern != "" {
				span.SetAttributes(attribute.String("http.route", r.Pattern))
			}

			resp := next(ctx, r)

			if e, ok := resp.(*errs.Error); ok {
				span.SetAttributes(attribute.String("crm.error_code", e.Code.String()))
				if e.HTTPStatus() >= http.StatusInternalServerError {
					span.SetStatus(codes.Error, e.Message)
				}
			}

			return resp
		}

		return h
	}

	return m
}
