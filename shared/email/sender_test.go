package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/config"
	"shorts-studio/shared/logger"
)

func testReport() *models.DigestReport {
	return &models.DigestReport{
		Date:     time.Date(2026, 7, 4, 9, 0, 0, 0, time.UTC),
		Keywords: 15,
		Videos: []models.ScoredVideo{
			{VideoID: "abc", Title: "Cats <3 boxes", Stats: models.VideoStats{Views: 50000, Subs: 200}, ViralScore: 250},
			{VideoID: "def", Title: "Chili in 30s", Stats: models.VideoStats{Views: 9000, Subs: 300}, ViralScore: 30},
		},
		QuotaExceeded: true,
	}
}

func TestRenderDigest(t *testing.T) {
	body, err := RenderDigest(testReport())
	if err != nil {
		t.Fatalf("RenderDigest() error = %v", err)
	}

	for _, want := range []string{
		"Jul 4, 2026",
		"https://www.youtube.com/shorts/abc",
		"Cats &lt;3 boxes",
		"250.00x",
		"quota ran out",
		"across 15 categories",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, "best-scoring videos overall") {
		t.Error("unfiltered note shown for a filtered report")
	}
}

func TestSendDigest(t *testing.T) {
	cfg := &config.EmailConfig{SMTPServer: "smtp.example.com", SMTPPort: 587, FromEmail: "bot@example.com", ToEmail: "me@example.com"}

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	sender := NewSender(cfg, logger.NewNop()).WithSendFunc(func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	})

	if err := sender.SendDigest(testReport()); err != nil {
		t.Fatalf("SendDigest() error = %v", err)
	}
	if gotAddr != "smtp.example.com:587" || len(gotTo) != 1 || gotTo[0] != "me@example.com" {
		t.Errorf("addr = %s, to = %v", gotAddr, gotTo)
	}
	if !strings.Contains(string(gotMsg), "Subject: Viral Shorts Digest - 2 Videos (Jul 4, 2026)") {
		t.Errorf("subject missing from message: %s", gotMsg[:120])
	}
}

func TestSendDigestSkipsEmptyReport(t *testing.T) {
	called := false
	sender := NewSender(&config.EmailConfig{}, logger.NewNop()).WithSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	})

	if err := sender.SendDigest(&models.DigestReport{}); err != nil {
		t.Fatal(err)
	}
	if called {
		t.Error("empty digest should not be sent")
	}
	if err := sender.SendDigest(nil); err == nil {
		t.Error("nil report should error")
	}
}

func TestSendDigestTransportError(t *testing.T) {
	sender := NewSender(&config.EmailConfig{SMTPServer: "x"}, logger.NewNop()).WithSendFunc(func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	})
	if err := sender.SendDigest(testReport()); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("err = %v", err)
	}
}
