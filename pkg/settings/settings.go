// Package settings loads and saves the mail settings kept in a dotenv file.
//
// Values are layered: built-in defaults, then the settings file, then the
// process environment (SMTP_RELAY, SMTP_USER, ...).
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Settings configures delivery and the text wrapped around each letter.
type Settings struct {
	SMTPRelay       string `mapstructure:"smtp_relay"`
	SMTPPort        int    `mapstructure:"smtp_port"`
	SMTPUser        string `mapstructure:"smtp_user"`
	SMTPPassword    string `mapstructure:"smtp_password"`
	LetterFrom      string `mapstructure:"letter_from"`
	PluralTitle     string `mapstructure:"plural_title"`
	SingleGreet     string `mapstructure:"single_greet"`
	LetterSignature string `mapstructure:"letter_signature"`
}

// Field names a settings entry. The value is the dotenv key.
type Field string

const (
	FieldSMTPRelay       Field = "SMTP_RELAY"
	FieldSMTPPort        Field = "SMTP_PORT"
	FieldSMTPUser        Field = "SMTP_USER"
	FieldSMTPPassword    Field = "SMTP_PASSWORD"
	FieldLetterFrom      Field = "LETTER_FROM"
	FieldPluralTitle     Field = "PLURAL_TITLE"
	FieldSingleGreet     Field = "SINGLE_GREET"
	FieldLetterSignature Field = "LETTER_SIGNATURE"
)

// ErrUnknownField is returned by Get and Set for keys Settings lacks.
var ErrUnknownField = errors.New("settings: unknown field")

// ErrUnstorable is returned by Save for a value the dotenv format cannot
// carry back unchanged.
var ErrUnstorable = errors.New("settings: value cannot be stored")

// Fields lists every entry in file order.
func Fields() []Field {
	return []Field{
		FieldSMTPRelay,
		FieldSMTPPort,
		FieldSMTPUser,
		FieldSMTPPassword,
		FieldLetterFrom,
		FieldPluralTitle,
		FieldSingleGreet,
		FieldLetterSignature,
	}
}

func (f Field) key() string {
	return strings.ToLower(string(f))
}

// Label is the caption shown next to the field in forms.
func (f Field) Label() string {
	switch f {
	case FieldSMTPRelay:
		return "SMTP server"
	case FieldSMTPPort:
		return "SMTP port"
	case FieldSMTPUser:
		return "SMTP user"
	case FieldSMTPPassword:
		return "SMTP password"
	case FieldLetterFrom:
		return "Sender"
	case FieldPluralTitle:
		return "Greeting (many)"
	case FieldSingleGreet:
		return "Greeting (one)"
	case FieldLetterSignature:
		return "Signature"
	}
	return string(f)
}

// Secret reports whether the field should be masked on screen.
func (f Field) Secret() bool {
	return f == FieldSMTPPassword
}

// Multiline reports whether the field usually spans lines.
func (f Field) Multiline() bool {
	return f == FieldLetterSignature
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		SMTPRelay:       "localhost",
		SMTPPort:        587,
		LetterFrom:      "john@doe.com",
		PluralTitle:     "Dear colleagues!",
		SingleGreet:     "Dear {{.Name}} {{.Surname}}!",
		LetterSignature: "Best regards.",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	for _, f := range Fields() {
		val, _ := d.Get(f)
		v.SetDefault(f.key(), val)
	}
}

// Load builds settings from defaults, the dotenv file at path (when it
// exists) and the environment. A missing file is not an error.
func Load(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("settings: read %s: %w", path, err)
			}
		}
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("settings: decode: %w", err)
	}
	return s, nil
}

// Save writes every field to path as KEY="value" lines, replacing the file.
func (s *Settings) Save(path string) error {
	if path == "" {
		return errors.New("settings: path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("settings: ensure dir: %w", err)
	}
	var b strings.Builder
	for _, f := range Fields() {
		val, _ := s.Get(f)
		q, err := quote(val)
		if err != nil {
			return fmt.Errorf("settings: %s: %w", f, err)
		}
		fmt.Fprintf(&b, "%s=%s\n", f, q)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("settings: write: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("settings: write: %w", err)
	}
	return nil
}

// quote renders v as a single dotenv value. Double quotes are the norm.
// Inside them the reader turns \n and \r into line breaks before it drops
// escaping backslashes, so a literal backslash followed by n or r only
// survives in single quotes, which take the text verbatim.
func quote(v string) (string, error) {
	v = strings.ReplaceAll(v, "\r\n", "\n")
	breaks := strings.ContainsAny(v, "\r\n")
	if strings.Contains(v, `\n`) || strings.Contains(v, `\r`) {
		if breaks || strings.Contains(v, `\$`) {
			return "", ErrUnstorable
		}
		return "'" + v + "'", nil
	}
	// The reader splits a value holding '=' at its line breaks and parses
	// the rest as more assignments.
	if breaks && strings.Contains(v, "=") {
		return "", ErrUnstorable
	}
	return `"` + escape(v) + `"`, nil
}

// escape keeps a value on one line inside double quotes.
func escape(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `"`, `\"`)
	v = strings.ReplaceAll(v, `$`, `\$`)
	v = strings.ReplaceAll(v, "\r", `\r`)
	return strings.ReplaceAll(v, "\n", `\n`)
}

// Get returns the value of f as text.
func (s Settings) Get(f Field) (string, error) {
	switch f {
	case FieldSMTPRelay:
		return s.SMTPRelay, nil
	case FieldSMTPPort:
		return strconv.Itoa(s.SMTPPort), nil
	case FieldSMTPUser:
		return s.SMTPUser, nil
	case FieldSMTPPassword:
		return s.SMTPPassword, nil
	case FieldLetterFrom:
		return s.LetterFrom, nil
	case FieldPluralTitle:
		return s.PluralTitle, nil
	case FieldSingleGreet:
		return s.SingleGreet, nil
	case FieldLetterSignature:
		return s.LetterSignature, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, f)
}

// Set assigns the textual value v to f.
func (s *Settings) Set(f Field, v string) error {
	switch f {
	case FieldSMTPRelay:
		s.SMTPRelay = strings.TrimSpace(v)
	case FieldSMTPPort:
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("settings: invalid port %q", v)
		}
		s.SMTPPort = port
	case FieldSMTPUser:
		s.SMTPUser = strings.TrimSpace(v)
	case FieldSMTPPassword:
		s.SMTPPassword = v
	case FieldLetterFrom:
		s.LetterFrom = strings.TrimSpace(v)
	case FieldPluralTitle:
		s.PluralTitle = v
	case FieldSingleGreet:
		s.SingleGreet = v
	case FieldLetterSignature:
		s.LetterSignature = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return nil
}

// Addr is the relay host and port joined for dialing.
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.SMTPRelay, s.SMTPPort)
}

// Masked returns a copy with the password hidden.
func (s Settings) Masked() Settings {
	if s.SMTPPassword != "" {
		s.SMTPPassword = "********"
	}
	return s
}
