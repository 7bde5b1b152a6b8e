package services

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dmitrijs2005/gophgate/internal/common"
	"github.com/dmitrijs2005/gophgate/internal/logging"
)

const tracerName = "github.com/dmitrijs2005/gophgate/internal/server/services"

func tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// infraError logs the cause with its context and returns a generic
// ErrInfrastructure naming only the operation.
func infraError(ctx context.Context, logger logging.Logger, op string, err error, kv ...any) error {
	logger.Error(ctx, op+" failed", append(kv, "error", err)...)
	return fmt.Errorf("%s: %w", op, common.ErrInfrastructure)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
