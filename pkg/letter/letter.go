package letter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wailsapp/mimetype"

	"tableflip.dev/pismo/pkg/container"
)

// Letter is a composed message, identified by its creation time.
type Letter struct {
	Time       time.Time    `json:"time"`
	Topic      string       `json:"topic"`
	Text       string       `json:"text"`
	Attachment []Attachment `json:"attachment"`
}

// Attachment is a file embedded in a letter.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content_bytes"`
}

// Container stores letters keyed by creation time.
type Container = container.Container[Letter]

// Layout is the textual form of a letter's creation time used as identity.
const Layout = time.RFC3339Nano

// New returns an empty letter stamped with the current time.
func New() Letter {
	return NewAt(time.Now())
}

// NewAt returns an empty letter stamped with t.
func NewAt(t time.Time) Letter {
	return Letter{Time: t.UTC(), Attachment: []Attachment{}}
}

// Identity is the creation time formatted with Layout.
func (l Letter) Identity() container.Identity {
	return l.Time.UTC().Format(Layout)
}

// Field names an editable letter field.
type Field string

const (
	FieldTopic Field = "topic"
	FieldText  Field = "text"
)

// ErrUnknownField is returned by Get and Set for fields a letter lacks.
var ErrUnknownField = errors.New("letter: unknown field")

// Get returns the value of field f.
func (l Letter) Get(f Field) (string, error) {
	switch f {
	case FieldTopic:
		return l.Topic, nil
	case FieldText:
		return l.Text, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, f)
}

// Set assigns v to field f.
func (l *Letter) Set(f Field, v string) error {
	switch f {
	case FieldTopic:
		l.Topic = v
	case FieldText:
		l.Text = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return nil
}

// AttachFile reads path and appends it as an attachment. The content type
// is sniffed from the file's bytes.
func (l *Letter) AttachFile(path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("letter: attachment path required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("letter: attach: %w", err)
	}
	l.Attach(filepath.Base(path), data)
	return nil
}

// Attach appends data under filename.
func (l *Letter) Attach(filename string, data []byte) {
	l.Attachment = append(l.Attachment, Attachment{
		Filename:    filename,
		ContentType: mimetype.Detect(data).String(),
		Content:     data,
	})
}

// ClearAttachment drops every attachment.
func (l *Letter) ClearAttachment() {
	l.Attachment = []Attachment{}
}

// AttachmentInfo summarizes the attachments for display.
func (l Letter) AttachmentInfo() string {
	if len(l.Attachment) == 0 {
		return "[no attachments]"
	}
	info := make([]string, 0, len(l.Attachment))
	for _, a := range l.Attachment {
		info = append(info, fmt.Sprintf("[%s (%d bytes)]", a.Filename, len(a.Content)))
	}
	return strings.Join(info, " ")
}

// Clone returns a deep copy, so edits to the copy never reach l.
func (l Letter) Clone() Letter {
	cp := l
	cp.Attachment = make([]Attachment, len(l.Attachment))
	for i, a := range l.Attachment {
		a.Content = append([]byte(nil), a.Content...)
		cp.Attachment[i] = a
	}
	return cp
}
