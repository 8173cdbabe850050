// Package mail delivers rendered reports.
package mail

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"
)

const charset = "UTF-8"

// ErrNoRecipients is returned when a message has no destination.
var ErrNoRecipients = errors.New("mail: no recipients")

// Message is one report email.
type Message struct {
	// Project names the report; DirSender uses it for the file name.
	Project string
	From    string
	To      []string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recipients picks the destination of a project's report: the project's own
// list, else the global list, else the sender itself.
func Recipients(project, global []string, sender string) []string {
	if list := clean(project); len(list) > 0 {
		return list
	}
	if list := clean(global); len(list) > 0 {
		return list
	}
	if sender = strings.TrimSpace(sender); sender != "" {
		return []string{sender}
	}
	return nil
}

func clean(list []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(list))
	for _, addr := range list {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, addr)
	}
	return out
}

// SendEmailAPI is the subset of the SES v2 client used here.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender sends messages through Amazon SES.
type SESSender struct {
	api SendEmailAPI
	log logrus.FieldLogger
}

// NewSESSender creates an SES sender.
func NewSESSender(api SendEmailAPI, log logrus.FieldLogger) *SESSender {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SESSender{api: api, log: log}
}

// Send implements Sender.
func (s *SESSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("%w: %s", ErrNoRecipients, msg.Project)
	}
	if msg.From == "" {
		return errors.New("mail: sender address is not set")
	}

	out, err := s.api.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &sestypes.Destination{ToAddresses: msg.To},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(msg.Subject), Charset: aws.String(charset)},
				Body: &sestypes.Body{
					Html: &sestypes.Content{Data: aws.String(msg.HTML), Charset: aws.String(charset)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("mail: sending %s: %w", msg.Project, err)
	}

	s.log.WithFields(logrus.Fields{
		"project":    msg.Project,
		"recipients": len(msg.To),
		"message_id": aws.ToString(out.MessageId),
	}).Info("report sent")
	return nil
}

// DirSender writes each message to <dir>/<project>.html.
type DirSender struct {
	Dir string
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Send implements Sender.
func (d DirSender) Send(_ context.Context, msg Message) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return fmt.Errorf("mail: creating %s: %w", d.Dir, err)
	}
	path := d.Path(msg.Project)
	if err := os.WriteFile(path, []byte(msg.HTML), 0o644); err != nil {
		return fmt.Errorf("mail: writing %s: %w", path, err)
	}
	return nil
}

// Path returns the file DirSender writes for a project.
func (d DirSender) Path(project string) string {
	name := unsafeName.ReplaceAllString(project, "_")
	if name == "" {
		name = "report"
	}
	return filepath.Join(d.Dir, name+".html")
}

// WriterSender writes a short header and the HTML of each message to W.
type WriterSender struct {
	W  io.Writer
	mu sync.Mutex
}

// Send implements Sender.
func (w *WriterSender) Send(_ context.Context, msg Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := fmt.Fprintf(w.W, "From: %s\nTo: %s\nSubject: %s\n\n%s\n",
		msg.From, strings.Join(msg.To, ", "), msg.Subject, msg.HTML)
	return err
}
