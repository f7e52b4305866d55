package pagination_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/observability"
	"github.com/boddenberg/crm-dashboard-go/internal/infra/pagination"

	"go.uber.org/zap"
)

// --- Fake sender ---

type call struct {
	method string
	path   string
	query  url.Values
	body   map[string]any
}

// scriptedSender replays one response per call and records every request.
type scriptedSender struct {
	responses []string
	err       error
	errAt     int // 1-based call index returning err; 0 = never
	calls     []call
}

func (s *scriptedSender) Send(_ context.Context, method, path string, query url.Values, body any) (map[string]json.RawMessage, error) {
	c := call{method: method, path: path, query: query}
	if body != nil {
		c.body = body.(map[string]any)
	}
	s.calls = append(s.calls, c)

	if s.errAt == len(s.calls) {
		return nil, s.err
	}
	if len(s.calls) > len(s.responses) {
		return nil, fmt.Errorf("unexpected request #%d", len(s.calls))
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s.responses[len(s.calls)-1]), &decoded); err != nil {
		return nil, err
	}
	return decoded, nil
}

func newStrategy(t *testing.T, kind pagination.Kind, sender pagination.Sender, pageSize int) pagination.Strategy {
	t.Helper()
	s, err := pagination.New(kind, sender, pagination.Options{
		PageSize: pageSize,
		MaxPages: 50,
		Metrics:  observability.NewMetrics(),
		Logger:   zap.NewNop(),
	})
	if err != nil {
		t.Fatalf("new strategy: %v", err)
	}
	return s
}

func ids(t *testing.T, items []json.RawMessage) string {
	t.Helper()
	out := make([]string, 0, len(items))
	for _, item := range items {
		var v struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(item, &v); err != nil {
			t.Fatalf("decode item: %v", err)
		}
		out = append(out, v.ID)
	}
	return strings.Join(out, ",")
}

var contactsReq = pagination.Request{
	Path:     "/contacts",
	ItemsKey: "contacts",
	Params:   map[string]string{"locationId": "loc-1"},
}

// --- Cursor-GET ---

func TestCursor_NoNextSignalStopsAfterOneRequest(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"contacts":[{"id":"a"},{"id":"b"},{"id":"c"}],"meta":{"total":900}}`,
	}}

	items, err := newStrategy(t, pagination.KindCursor, sender, 3).Drain(context.Background(), contactsReq)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sender.calls) != 1 {
		t.Fatalf("expected 1 request, got %d", len(sender.calls))
	}
	if got := ids(t, items); got != "a,b,c" {
		t.Errorf("expected a,b,c, got %s", got)
	}
}

func TestCursor_FollowsStartAfterID(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"contacts":[{"id":"a"},{"id":"b"}],"meta":{"nextPageUrl":"https://crm/contacts?page=2","startAfter":1700000000000}}`,
		`{"contacts":[{"id":"c"},{"id":"d"}],"meta":{"nextPageUrl":"https://crm/contacts?page=3"}}`,
		`{"contacts":[{"id":"e"}],"meta":{"nextPageUrl":null}}`,
	}}

	items, err := newStrategy(t, pagination.KindCursor, sender, 2).Drain(context.Background(), contactsReq)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := ids(t, items); got != "a,b,c,d,e" {
		t.Errorf("expected a,b,c,d,e, got %s", got)
	}
	if len(sender.calls) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(sender.calls))
	}

	first := sender.calls[0]
	if first.method != http.MethodGet {
		t.Errorf("expected GET, got %s", first.method)
	}
	if first.query.Get("startAfterId") != "" {
		t.Errorf("first page must not carry a cursor, got %q", first.query.Get("startAfterId"))
	}
	if first.query.Get("limit") != "2" || first.query.Get("locationId") != "loc-1" {
		t.Errorf("unexpected first query: %v", first.query)
	}

	second := sender.calls[1].query
	if second.Get("startAfterId") != "b" {
		t.Errorf("expected cursor b, got %q", second.Get("startAfterId"))
	}
	if second.Get("startAfter") != "1700000000000" {
		t.Errorf("expected startAfter echoed, got %q", second.Get("startAfter"))
	}
	if sender.calls[2].query.Get("startAfterId") != "d" {
		t.Errorf("expected cursor d, got %q", sender.calls[2].query.Get("startAfterId"))
	}
}

func TestCursor_EmptyPageStopsEvenWithNextSignal(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"contacts":[],"meta":{"nextPageUrl":"https://crm/contacts?page=2"}}`,
	}}

	items, err := newStrategy(t, pagination.KindCursor, sender, 100).Drain(context.Background(), contactsReq)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected empty result, got %d items", len(items))
	}
	if items == nil {
		t.Error("expected non-nil empty slice")
	}
	if len(sender.calls) != 1 {
		t.Errorf("expected 1 request, got %d", len(sender.calls))
	}
}

func TestCursor_IgnoresTokenWithoutNextURL(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"contacts":[{"id":"a"}],"nextPageToken":"tok-2"}`,
	}}

	if _, err := newStrategy(t, pagination.KindCursor, sender, 1).Drain(context.Background(), contactsReq); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sender.calls) != 1 {
		t.Errorf("v1 cursor must not follow tokens, got %d requests", len(sender.calls))
	}
}

func TestCursor_DeduplicatesRepeatedBoundaryItems(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"contacts":[{"id":"a"},{"id":"b"}],"meta":{"nextPageUrl":"next"}}`,
		`{"contacts":[{"id":"b"},{"id":"c"}],"meta":{}}`,
	}}

	items, err := newStrategy(t, pagination.KindCursor, sender, 2).Drain(context.Background(), contactsReq)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := ids(t, items); got != "a,b,c" {
		t.Errorf("expected a,b,c, got %s", got)
	}
}

func TestCursor_PageFailureAbortsDrain(t *testing.T) {
	want := &domain.TransportError{StatusCode: 502, Message: "bad gateway"}
	sender := &scriptedSender{
		responses: []string{`{"contacts":[{"id":"a"}],"meta":{"nextPageUrl":"next"}}`},
		err:       want,
		errAt:     2,
	}

	items, err := newStrategy(t, pagination.KindCursor, sender, 1).Drain(context.Background(), contactsReq)
	if items != nil {
		t.Errorf("expected no partial result, got %d items", len(items))
	}
	var te *domain.TransportError
	if !errors.As(err, &te) || te.StatusCode != 502 {
		t.Fatalf("expected transport error 502, got %v", err)
	}
}

func TestCursor_MaxPagesFailsDrain(t *testing.T) {
	responses := make([]string, 0, 60)
	for i := 0; i < 60; i++ {
		responses = append(responses, fmt.Sprintf(`{"contacts":[{"id":"c%d"}],"meta":{"nextPageUrl":"next"}}`, i))
	}
	sender := &scriptedSender{responses: responses}

	_, err := newStrategy(t, pagination.KindCursor, sender, 1).Drain(context.Background(), contactsReq)

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if len(sender.calls) != 50 {
		t.Errorf("expected exactly 50 requests, got %d", len(sender.calls))
	}
}

func TestCursor_MalformedItemsIsTransportError(t *testing.T) {
	sender := &scriptedSender{responses: []string{`{"contacts":{"id":"a"}}`}}

	_, err := newStrategy(t, pagination.KindCursor, sender, 1).Drain(context.Background(), contactsReq)

	var te *domain.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

// --- Cursor-GET-token ---

func TestCursorToken_FollowsToken(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"conversations":[{"id":"x"}],"nextPageToken":"tok-2"}`,
		`{"conversations":[{"id":"y"}],"meta":{"nextPageToken":"tok-3"}}`,
		`{"conversations":[{"id":"z"}],"nextPageToken":""}`,
	}}
	req := pagination.Request{Path: "/conversations/search", ItemsKey: "conversations"}

	items, err := newStrategy(t, pagination.KindCursorToken, sender, 1).Drain(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := ids(t, items); got != "x,y,z" {
		t.Errorf("expected x,y,z, got %s", got)
	}
	if len(sender.calls) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(sender.calls))
	}
	if got := sender.calls[1].query.Get("pageToken"); got != "tok-2" {
		t.Errorf("expected pageToken tok-2, got %q", got)
	}
	if got := sender.calls[2].query.Get("pageToken"); got != "tok-3" {
		t.Errorf("expected pageToken tok-3, got %q", got)
	}
	if got := sender.calls[2].query.Get("startAfterId"); got != "y" {
		t.Errorf("expected startAfterId y, got %q", got)
	}
}

func TestCursorToken_AcceptsNextPageURL(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"pipelines":[{"id":"p1"}],"meta":{"nextPageUrl":"next"}}`,
		`{"pipelines":[{"id":"p2"}]}`,
	}}
	req := pagination.Request{Path: "/opportunities/pipelines", ItemsKey: "pipelines"}

	items, err := newStrategy(t, pagination.KindCursorToken, sender, 1).Drain(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := ids(t, items); got != "p1,p2" {
		t.Errorf("expected p1,p2, got %s", got)
	}
}

// --- Page-POST ---

func TestPagePost_EmptyTotalZeroStopsAfterOneRequest(t *testing.T) {
	sender := &scriptedSender{responses: []string{`{"contacts":[],"total":0}`}}
	req := pagination.Request{Path: "/contacts/search", ItemsKey: "contacts", Params: map[string]string{"locationId": "loc-1"}}

	items, err := newStrategy(t, pagination.KindPagePost, sender, 100).Drain(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
	if len(sender.calls) != 1 {
		t.Errorf("expected 1 request, got %d", len(sender.calls))
	}
}

func TestPagePost_StopsWhenTotalReached(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"contacts":[{"id":"a"},{"id":"b"}],"total":3}`,
		`{"contacts":[{"id":"c"}],"total":3}`,
	}}
	req := pagination.Request{Path: "/contacts/search", ItemsKey: "contacts", Params: map[string]string{"locationId": "loc-1"}}

	items, err := newStrategy(t, pagination.KindPagePost, sender, 2).Drain(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := ids(t, items); got != "a,b,c" {
		t.Errorf("expected a,b,c, got %s", got)
	}
	if len(sender.calls) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(sender.calls))
	}

	for i, c := range sender.calls {
		if c.method != http.MethodPost {
			t.Errorf("call %d: expected POST, got %s", i, c.method)
		}
		if c.body["page"] != i+1 {
			t.Errorf("call %d: expected page %d, got %v", i, i+1, c.body["page"])
		}
		if c.body["limit"] != 2 {
			t.Errorf("call %d: expected limit 2, got %v", i, c.body["limit"])
		}
		if c.body["locationId"] != "loc-1" {
			t.Errorf("call %d: expected locationId in body, got %v", i, c.body["locationId"])
		}
	}
}

func TestPagePost_TotalInMeta(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"opportunities":[{"id":"o1"}],"meta":{"total":"1"}}`,
	}}
	req := pagination.Request{Path: "/opportunities/search", ItemsKey: "opportunities"}

	if _, err := newStrategy(t, pagination.KindPagePost, sender, 10).Drain(context.Background(), req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sender.calls) != 1 {
		t.Errorf("expected 1 request, got %d", len(sender.calls))
	}
}

func TestPagePost_MissingTotalRunsUntilEmptyPage(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"contacts":[{"id":"a"}]}`,
		`{"contacts":[{"id":"b"}]}`,
		`{"contacts":[]}`,
	}}
	req := pagination.Request{Path: "/contacts/search", ItemsKey: "contacts"}

	items, err := newStrategy(t, pagination.KindPagePost, sender, 1).Drain(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := ids(t, items); got != "a,b" {
		t.Errorf("expected a,b, got %s", got)
	}
	if len(sender.calls) != 3 {
		t.Errorf("expected 3 requests, got %d", len(sender.calls))
	}
}

func TestPagePost_InflatedTotalStopsOnEmptyPage(t *testing.T) {
	sender := &scriptedSender{responses: []string{
		`{"contacts":[{"id":"a"}],"total":1000}`,
		`{"contacts":[],"total":1000}`,
	}}
	req := pagination.Request{Path: "/contacts/search", ItemsKey: "contacts"}

	if _, err := newStrategy(t, pagination.KindPagePost, sender, 1).Drain(context.Background(), req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(sender.calls) != 2 {
		t.Errorf("expected 2 requests, got %d", len(sender.calls))
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := pagination.New("offset", &scriptedSender{}, pagination.Options{})

	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestNew_KindRoundTrip(t *testing.T) {
	for _, kind := range []pagination.Kind{pagination.KindCursor, pagination.KindCursorToken, pagination.KindPagePost} {
		s, err := pagination.New(kind, &scriptedSender{}, pagination.Options{})
		if err != nil {
			t.Fatalf("%s: %v", kind, err)
		}
		if s.Kind() != kind {
			t.Errorf("expected kind %s, got %s", kind, s.Kind())
		}
	}
}
