package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alfredjeanlab/hackops/internal/model"
)

type recordingSender struct {
	mu     sync.Mutex
	sent   []Message
	failTo string
}

func (r *recordingSender) Send(_ context.Context, msg Message) error {
	if msg.ToEmail == r.failTo {
		return errors.New("mailbox unavailable")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTransfers() []model.PendingTransfer {
	return []model.PendingTransfer{
		{ID: "tr-1", ParticipantID: "pt-1", Name: "Noura", Email: "noura@example.com", FromTeamName: "Team 1", ToTeamName: "Team 2"},
		{ID: "tr-2", ParticipantID: "pt-2", Name: "", Email: "omar@example.com", FromTeamName: "Team 3", ToTeamName: "Team <1>"},
	}
}

func TestDispatch_Empty(t *testing.T) {
	rec := &recordingSender{}
	d := NewDispatcher(rec, "HackOps", quietLogger())

	res, err := d.DispatchTransferNotifications(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != "no pending transfers" {
		t.Errorf("Message = %q", res.Message)
	}
	if len(rec.sent) != 0 {
		t.Errorf("sent %d messages, want 0", len(rec.sent))
	}
}

func TestDispatch_OneMessagePerTransfer(t *testing.T) {
	rec := &recordingSender{}
	d := NewDispatcher(rec, "HackOps", quietLogger())

	res, err := d.DispatchTransferNotifications(context.Background(), sampleTransfers())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Message != "2 transfer notification(s) sent" {
		t.Errorf("Message = %q", res.Message)
	}
	if len(rec.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(rec.sent))
	}

	first := rec.sent[0]
	if first.ToEmail != "noura@example.com" {
		t.Errorf("ToEmail = %q", first.ToEmail)
	}
	if first.Subject != "[HackOps] You have moved to Team 2" {
		t.Errorf("Subject = %q", first.Subject)
	}
	if !strings.Contains(first.Text, "from Team 1 to Team 2") {
		t.Errorf("Text = %q", first.Text)
	}

	second := rec.sent[1]
	if !strings.HasPrefix(second.Text, "Hi there,") {
		t.Errorf("blank name should greet generically, got %q", second.Text)
	}
	if !strings.Contains(second.HTML, "Team &lt;1&gt;") {
		t.Errorf("HTML not escaped: %q", second.HTML)
	}
}

func TestDispatch_PartialFailure(t *testing.T) {
	rec := &recordingSender{failTo: "omar@example.com"}
	d := NewDispatcher(rec, "", quietLogger())

	res, err := d.DispatchTransferNotifications(context.Background(), sampleTransfers())
	if err == nil {
		t.Fatal("expected error")
	}
	if res != nil {
		t.Errorf("expected nil result on failure, got %+v", res)
	}
	if !strings.Contains(err.Error(), "tr-2") {
		t.Errorf("error should name the failed transfer: %v", err)
	}
	if len(rec.sent) != 1 {
		t.Errorf("sent %d messages, want 1 (every transfer is attempted)", len(rec.sent))
	}
}

func TestDispatch_RetrySkipsDelivered(t *testing.T) {
	rec := &recordingSender{failTo: "omar@example.com"}
	d := NewDispatcher(rec, "", quietLogger())

	if _, err := d.DispatchTransferNotifications(context.Background(), sampleTransfers()); err == nil {
		t.Fatal("expected error on first attempt")
	}

	rec.failTo = ""
	res, err := d.DispatchTransferNotifications(context.Background(), sampleTransfers())
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if res.Message != "2 transfer notification(s) sent" {
		t.Errorf("Message = %q", res.Message)
	}
	var to []string
	for _, m := range rec.sent {
		to = append(to, m.ToEmail)
	}
	if len(to) != 2 || to[0] != "noura@example.com" || to[1] != "omar@example.com" {
		t.Errorf("sent to %v, want each participant once", to)
	}
	if len(d.delivered) != 0 {
		t.Errorf("delivered set not cleared after a full batch: %v", d.delivered)
	}
}

func TestDispatch_MissingEmail(t *testing.T) {
	rec := &recordingSender{}
	d := NewDispatcher(rec, "", quietLogger())

	_, err := d.DispatchTransferNotifications(context.Background(), []model.PendingTransfer{{ID: "tr-9", ParticipantID: "pt-9"}})
	if err == nil || !strings.Contains(err.Error(), "no email") {
		t.Fatalf("expected missing email error, got %v", err)
	}
}

func TestLogSender(t *testing.T) {
	var buf strings.Builder
	s := LogSender{Logger: slog.New(slog.NewTextHandler(&buf, nil))}
	if err := s.Send(context.Background(), Message{ToEmail: "a@b.c", Subject: "hello"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if !strings.Contains(buf.String(), "to=a@b.c") {
		t.Errorf("log output = %q", buf.String())
	}
}

func TestSendGridSender_Send(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendGridSender("sg-key", "HackOps", "noreply@hackops.local").WithHost(srv.URL)
	err := s.Send(context.Background(), Message{
		ToName: "Noura", ToEmail: "noura@example.com", Subject: "moved", Text: "t", HTML: "<p>h</p>",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if gotPath != sendgridEndpoint {
		t.Errorf("path = %q, want %q", gotPath, sendgridEndpoint)
	}
	if gotAuth != "Bearer sg-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	from, _ := gotBody["from"].(map[string]any)
	if from["email"] != "noreply@hackops.local" {
		t.Errorf("from = %v", gotBody["from"])
	}
	pers, _ := gotBody["personalizations"].([]any)
	if len(pers) != 1 {
		t.Fatalf("personalizations = %v", gotBody["personalizations"])
	}
}

func TestSendGridSender_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	s := NewSendGridSender("wrong", "HackOps", "noreply@hackops.local").WithHost(srv.URL)
	err := s.Send(context.Background(), Message{ToEmail: "x@example.com"})
	if err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected 401 error, got %v", err)
	}
}
