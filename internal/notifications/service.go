package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tunescan/internal/config"
)

const userAgent = "tunescan/1.0"

// RunReport summarizes one pipeline run for the completion notification.
type RunReport struct {
	ImagesScanned int
	TracksAdded   int
	Matched       int
	NotFound      int
	Duplicates    int
	Downloaded    int
	Skipped       int
	Failed        int
	Duration      time.Duration
}

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyRunCompleted(ctx context.Context, report RunReport) error
	NotifyTrackFailed(ctx context.Context, label string, err error) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:    topic,
		client:      &http.Client{Timeout: timeout},
		runComplete: cfg.Notifications.RunComplete,
		errors:      cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint    string
	client      *http.Client
	runComplete bool
	errors      bool
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, r RunReport) error {
	if !n.runComplete {
		return nil
	}
	// Runs that found nothing to do stay quiet.
	if r.TracksAdded == 0 && r.Matched == 0 && r.Downloaded == 0 && r.Failed == 0 && r.NotFound == 0 {
		return nil
	}
	duration := r.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎵 Downloaded %d track(s) in %s", r.Downloaded, duration)
	fmt.Fprintf(&b, "\nScanned %d image(s), %d new line(s)", r.ImagesScanned, r.TracksAdded)
	fmt.Fprintf(&b, "\nMatched %d, not found %d, duplicates %d", r.Matched, r.NotFound, r.Duplicates)
	if r.Skipped > 0 {
		fmt.Fprintf(&b, "\nSkipped %d large download(s)", r.Skipped)
	}

	data := payload{
		title:   "tunescan - Run Complete",
		message: b.String(),
		tags:    []string{"tunescan", "run", "completed"},
	}
	if r.Failed > 0 {
		data.title = "tunescan - Run Complete (with errors)"
		data.message += fmt.Sprintf("\nFailed %d", r.Failed)
		data.tags = append(data.tags, "warning")
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyTrackFailed(ctx context.Context, label string, err error) error {
	if !n.errors {
		return nil
	}
	message := fmt.Sprintf("❌ Gave up on %s", strings.TrimSpace(label))
	if err != nil {
		message += ": " + strings.TrimSpace(err.Error())
	}
	return n.send(ctx, payload{
		title:   "tunescan - Download Failed",
		message: message,
		tags:    []string{"tunescan", "download", "failed"},
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	return n.send(ctx, payload{
		title:    "tunescan - Error",
		message:  builder.String(),
		tags:     []string{"tunescan", "error", "alert"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:    "tunescan - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"tunescan", "test"},
		priority: "low",
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunCompleted(context.Context, RunReport) error    { return nil }
func (noopService) NotifyTrackFailed(context.Context, string, error) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error       { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
