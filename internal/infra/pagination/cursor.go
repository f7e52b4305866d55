package pagination

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// cursorStrategy walks GET listings. Each follow-up page is anchored on the
// id of the last item received. More data is signalled by meta.nextPageUrl,
// or, when acceptToken is set, also by a nextPageToken which is forwarded as
// the pageToken parameter.
type cursorStrategy struct {
	sender      Sender
	opts        Options
	acceptToken bool
}

func (s *cursorStrategy) Kind() Kind {
	if s.acceptToken {
		return KindCursorToken
	}
	return KindCursor
}

func (s *cursorStrategy) Drain(ctx context.Context, req Request) ([]json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "Cursor.Drain")
	defer span.End()
	span.SetAttributes(
		attribute.String("pagination.kind", string(s.Kind())),
		attribute.String("crm.path", req.Path),
	)

	base := url.Values{}
	for k, v := range req.Params {
		base.Set(k, v)
	}
	base.Set("limit", strconv.Itoa(s.opts.PageSize))

	query := base
	out := newCollector()
	pages := 0

	for {
		if s.opts.MaxPages > 0 && pages >= s.opts.MaxPages {
			return nil, pageLimitError(s.Kind(), req.Path, s.opts.MaxPages)
		}

		body, err := s.sender.Send(ctx, http.MethodGet, req.Path, query, nil)
		if err != nil {
			return nil, err
		}
		pages++
		s.opts.Metrics.IncrPages(string(s.Kind()))

		items, err := pageItems(body, req.ItemsKey)
		if err != nil {
			return nil, err
		}
		out.add(items)

		s.opts.Logger.Debug("pagination: page received",
			zap.String("kind", string(s.Kind())),
			zap.String("path", req.Path),
			zap.Int("page", pages),
			zap.Int("items", len(items)),
		)

		if len(items) == 0 {
			break
		}
		hasNext, token := s.nextSignal(body)
		if !hasNext {
			break
		}

		cursor := lastItemID(items)
		if cursor == "" && token == "" {
			// Nothing to anchor the next request on; asking again would
			// return the same page.
			s.opts.Logger.Warn("pagination: more data signalled but no cursor available",
				zap.String("path", req.Path),
				zap.Int("page", pages),
			)
			break
		}

		query = cloneValues(base)
		if cursor != "" {
			query.Set("startAfterId", cursor)
		}
		if startAfter := scalarText(metaField(body, "startAfter")); startAfter != "" {
			query.Set("startAfter", startAfter)
		}
		if token != "" {
			query.Set("pageToken", token)
		}
	}

	span.SetAttributes(
		attribute.Int("pagination.pages", pages),
		attribute.Int("pagination.items", len(out.items)),
	)
	return out.items, nil
}

// nextSignal reports whether the server announced another page, and the
// next-page token if one was given.
func (s *cursorStrategy) nextSignal(body map[string]json.RawMessage) (bool, string) {
	nextURL := scalarText(metaField(body, "nextPageUrl"))
	if !s.acceptToken {
		return nextURL != "", ""
	}
	token := scalarText(field(body, "nextPageToken"))
	return nextURL != "" || token != "", token
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}
