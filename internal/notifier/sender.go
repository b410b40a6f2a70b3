package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/plantmanager/internal/constants"
	"github.com/julianstephens/plantmanager/internal/logger"
)

var (
	userConfigDirFunc = os.UserConfigDir
	findProcessFunc   = ps.FindProcess
)

// Message is what a Sender shows the user.
type Message struct {
	Title string
	Body  string
}

// Sender delivers a fired reminder to the user.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// TraySender posts to the companion tray app's localhost webhook. The tray
// advertises itself through a "port|pid|secret" lockfile.
type TraySender struct {
	client *resty.Client
}

type webhookPayload struct {
	Text       string `json:"text"`
	DurationMs uint32 `json:"duration_ms"`
}

func NewTraySender() *TraySender {
	return &TraySender{
		client: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(5 * time.Second),
	}
}

func (s *TraySender) Send(ctx context.Context, msg Message) error {
	dir, err := GetTrayAppConfigDir()
	if err != nil {
		return err
	}

	port, secret, err := findAndValidateTrayProcess(filepath.Join(dir, constants.NotifierLockfileName))
	if err != nil {
		return err
	}

	text := msg.Title
	if msg.Body != "" {
		text += "\n" + msg.Body
	}
	return s.post(ctx, "http://127.0.0.1:"+port, secret, webhookPayload{
		Text:       text,
		DurationMs: constants.NotificationDurationMs,
	})
}

func (s *TraySender) post(ctx context.Context, url, secret string, payload webhookPayload) error {
	res, err := s.client.R().
		SetContext(ctx).
		SetHeader("X-Plantmanager-Secret", secret).
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("tray webhook: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("notification failed with status %d: %s", res.StatusCode(), strings.TrimSpace(res.String()))
	}
	return nil
}

// GetTrayAppConfigDir returns the tray app's config directory, honouring a
// lockfile_dir override in its settings.json.
func GetTrayAppConfigDir() (string, error) {
	configDir, err := userConfigDirFunc()
	if err != nil {
		return "", fmt.Errorf("failed to get user config dir: %w", err)
	}

	trayConfigDir := filepath.Join(configDir, constants.TrayAppIdentifier)

	data, err := os.ReadFile(filepath.Join(trayConfigDir, "settings.json"))
	if err != nil {
		return trayConfigDir, nil
	}
	var settings struct {
		Settings struct {
			LockfileDir *string `json:"lockfile_dir"`
		} `json:"settings"`
	}
	if err := json.Unmarshal(data, &settings); err == nil {
		if d := settings.Settings.LockfileDir; d != nil && *d != "" {
			return *d, nil
		}
	}
	return trayConfigDir, nil
}

func findAndValidateTrayProcess(lockfilePath string) (string, string, error) {
	content, err := os.ReadFile(lockfilePath)
	if err != nil {
		return "", "", errors.New("plantmanager-tray is not running")
	}

	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 3 {
		return "", "", errors.New("lockfile is malformed")
	}

	port := strings.TrimSpace(parts[0])
	if port == "" {
		return "", "", errors.New("port in lockfile is empty")
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", "", errors.New("invalid port number in lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", "", errors.New("invalid process ID in lockfile")
	}
	secret := strings.TrimSpace(parts[2])
	if secret == "" {
		return "", "", errors.New("secret in lockfile is empty")
	}

	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", "", errors.New("plantmanager-tray process not running")
	}
	if !strings.HasPrefix(process.Executable(), constants.TrayExecutablePrefix) {
		return "", "", fmt.Errorf("process with PID %d is not %s (is %s)", pid, constants.TrayExecutablePrefix, process.Executable())
	}

	return port, secret, nil
}

// LogSender writes reminders to w and the log file. It is the fallback
// when no tray app is running.
type LogSender struct {
	w io.Writer
}

func NewLogSender(w io.Writer) *LogSender {
	if w == nil {
		w = io.Discard
	}
	return &LogSender{w: w}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	logger.Info("Reminder", "title", msg.Title, "body", msg.Body)
	if msg.Body == "" {
		_, err := fmt.Fprintf(s.w, "🌱 %s\n", msg.Title)
		return err
	}
	_, err := fmt.Fprintf(s.w, "🌱 %s: %s\n", msg.Title, msg.Body)
	return err
}

// FallbackSender tries Primary and hands the message to Fallback when it fails.
type FallbackSender struct {
	Primary  Sender
	Fallback Sender
}

func (s FallbackSender) Send(ctx context.Context, msg Message) error {
	err := s.Primary.Send(ctx, msg)
	if err == nil || s.Fallback == nil {
		return err
	}
	logger.Debug("Primary sender failed, using fallback", "error", err)
	return s.Fallback.Send(ctx, msg)
}
