package parse

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

// mockNotifier records Send calls.
type mockNotifier struct {
	mu    sync.Mutex
	calls []string // parse ids
	err   error
}

func (m *mockNotifier) Send(_ context.Context, parseID string, _ *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, parseID)
	return m.err
}

func (m *mockNotifier) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func newTestService(provider *mockProvider, notifier Notifier) *Service {
	engine := NewEngine(provider, log.Nop(), EngineHooks{})
	return NewService(engine, log.Nop(), nil, notifier)
}

func TestParse_RejectsShortInput(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{}
	svc := newTestService(provider, nil)

	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"whitespace only", "          "},
		{"nine chars", "db broke!"},
		{"padded short text", "   short    "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Parse(context.Background(), tt.text)
			assertKind(t, err, KindInputTooShort, "")
		})
	}

	// precondition failures must never reach the provider
	if provider.calls() != 0 {
		t.Errorf("provider calls = %d, want 0", provider.calls())
	}
}

func TestParse_Success(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{responses: []*LLMResponse{textResponse(validResponseBody)}}
	svc := newTestService(provider, nil)

	rec, err := svc.Parse(context.Background(), "the production database US-East-1 just timed out")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if rec.Severity != SeverityHigh || rec.ImpactCount != 500 {
		t.Errorf("record = %+v", rec)
	}
	if provider.calls() != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls())
	}
}

func TestParse_TrimsInputBeforeLengthCheck(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{responses: []*LLMResponse{textResponse(validResponseBody)}}
	svc := newTestService(provider, nil)

	padded := "   " + strings.Repeat("db down us-east-1 ", 3) + "   "
	if _, err := svc.Parse(context.Background(), padded); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if !strings.Contains(provider.lastReq.Messages[0].Content, "db down us-east-1") {
		t.Error("expected trimmed text in user turn")
	}
	if strings.Contains(provider.lastReq.Messages[0].Content, "   db down") {
		t.Error("expected leading whitespace to be trimmed")
	}
}

func TestParse_PropagatesEngineFailure(t *testing.T) {
	t.Parallel()

	provider := &mockProvider{errs: []error{errors.New("dial tcp: timeout")}}
	svc := newTestService(provider, nil)

	_, err := svc.Parse(context.Background(), "the production database just timed out")
	assertKind(t, err, KindUpstreamUnavailable, "")
}

func TestParse_NotifiesOnHighSeverity(t *testing.T) {
	t.Parallel()

	notifier := &mockNotifier{}
	provider := &mockProvider{responses: []*LLMResponse{textResponse(validResponseBody)}}
	svc := newTestService(provider, notifier)

	if _, err := svc.Parse(context.Background(), "the production database just timed out"); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	// notification is dispatched async
	waitFor(t, func() bool { return notifier.callCount() == 1 })
}

func TestParse_NoNotifyBelowHigh(t *testing.T) {
	t.Parallel()

	notifier := &mockNotifier{}
	body := `{"severity":"Low","component":"CDN","timestamp":"2026-08-25T18:30:00Z","suspected_cause":"cache miss","impact_count":3}`
	provider := &mockProvider{responses: []*LLMResponse{textResponse(body)}}
	svc := newTestService(provider, notifier)

	if _, err := svc.Parse(context.Background(), "cdn is a little slow today folks"); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if notifier.callCount() != 0 {
		t.Errorf("notify calls = %d, want 0", notifier.callCount())
	}
}

func TestParse_NotifySurvivesCanceledRequestContext(t *testing.T) {
	t.Parallel()

	notifier := &mockNotifier{}
	provider := &mockProvider{responses: []*LLMResponse{textResponse(validResponseBody)}}
	svc := newTestService(provider, notifier)

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := svc.Parse(ctx, "the production database just timed out"); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	cancel()

	waitFor(t, func() bool { return notifier.callCount() == 1 })
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
