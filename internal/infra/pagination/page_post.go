package pagination

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// pagePostStrategy walks POST search endpoints with a 1-based page index. It
// stops when the running item count reaches the reported total or a page
// comes back empty, whichever happens first, so a missing or wrong total
// cannot keep it looping.
type pagePostStrategy struct {
	sender Sender
	opts   Options
}

func (s *pagePostStrategy) Kind() Kind {
	return KindPagePost
}

func (s *pagePostStrategy) Drain(ctx context.Context, req Request) ([]json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "PagePost.Drain")
	defer span.End()
	span.SetAttributes(
		attribute.String("pagination.kind", string(KindPagePost)),
		attribute.String("crm.path", req.Path),
	)

	out := newCollector()
	received := 0
	page := 0

	for {
		if s.opts.MaxPages > 0 && page >= s.opts.MaxPages {
			return nil, pageLimitError(KindPagePost, req.Path, s.opts.MaxPages)
		}
		page++

		payload := make(map[string]any, len(req.Params)+2)
		for k, v := range req.Params {
			payload[k] = v
		}
		payload["page"] = page
		payload["limit"] = s.opts.PageSize

		body, err := s.sender.Send(ctx, http.MethodPost, req.Path, nil, payload)
		if err != nil {
			return nil, err
		}
		s.opts.Metrics.IncrPages(string(KindPagePost))

		items, err := pageItems(body, req.ItemsKey)
		if err != nil {
			return nil, err
		}
		received += len(items)
		out.add(items)

		total, hasTotal := intValue(field(body, "total"))
		s.opts.Logger.Debug("pagination: page received",
			zap.String("kind", string(KindPagePost)),
			zap.String("path", req.Path),
			zap.Int("page", page),
			zap.Int("items", len(items)),
			zap.Int("received", received),
			zap.Int("total", total),
		)

		if len(items) == 0 {
			break
		}
		if hasTotal && received >= total {
			break
		}
	}

	span.SetAttributes(
		attribute.Int("pagination.pages", page),
		attribute.Int("pagination.items", len(out.items)),
	)
	return out.items, nil
}
