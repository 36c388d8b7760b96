// Package controller runs the signal dispatch loop. Every change to the
// record containers happens on the loop's goroutine, one signal per tick.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"tableflip.dev/pismo/pkg/container"
	"tableflip.dev/pismo/pkg/letter"
	"tableflip.dev/pismo/pkg/mailer"
	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/settings"
	"tableflip.dev/pismo/pkg/store"
	"tableflip.dev/pismo/pkg/tag"
)

// DefaultTick is the pause between two steps of Run.
const DefaultTick = 15 * time.Millisecond

// Options wires a Controller.
type Options struct {
	// Data is required.
	Data      *store.Data
	Presenter Presenter

	// Settings is shared with the caller; SaveSettings replaces it in place.
	Settings     *settings.Settings
	SettingsPath string

	// Outbox archives deliveries. Nil disables archiving.
	Outbox store.Outbox
	// Sender builds the transport for the current settings. Nil means SMTP.
	Sender func(settings.Settings) mailer.Sender

	Logger *zap.Logger
	Tick   time.Duration
}

// Controller owns the containers and reacts to signals.
type Controller struct {
	queue Queue

	data         *store.Data
	presenter    Presenter
	settings     *settings.Settings
	settingsPath string
	outbox       store.Outbox
	sender       func(settings.Settings) mailer.Sender
	log          *zap.Logger
	tick         time.Duration

	sends   sync.WaitGroup
	stopped bool
	err     error
}

// New returns a running controller.
func New(opts Options) *Controller {
	c := &Controller{
		data:         opts.Data,
		presenter:    opts.Presenter,
		settings:     opts.Settings,
		settingsPath: opts.SettingsPath,
		outbox:       opts.Outbox,
		sender:       opts.Sender,
		log:          opts.Logger,
		tick:         opts.Tick,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.tick <= 0 {
		c.tick = DefaultTick
	}
	if c.settings == nil {
		s := settings.Default()
		c.settings = &s
	}
	if c.sender == nil {
		c.sender = func(s settings.Settings) mailer.Sender { return mailer.NewSMTP(s) }
	}
	return c
}

// Push enqueues s. It is safe to call from any goroutine.
func (c *Controller) Push(s Signal) {
	c.queue.Push(s)
}

// Stopped reports whether Quit has been handled.
func (c *Controller) Stopped() bool {
	return c.stopped
}

// Err is the result of the final save, once stopped.
func (c *Controller) Err() error {
	return c.err
}

// Run steps the loop once per tick until Quit is handled. Cancelling ctx
// is handled as Quit, so the containers are always saved.
func (c *Controller) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()
	for !c.stopped {
		select {
		case <-ctx.Done():
			c.quit()
		case <-ticker.C:
			c.Step(ctx)
		}
	}
	return c.err
}

// Step handles at most one pending signal without blocking. It reports
// whether the loop is still running.
func (c *Controller) Step(ctx context.Context) bool {
	if c.stopped {
		return false
	}
	s, ok := c.queue.TryPop()
	if !ok {
		return true
	}
	c.log.Debug("dispatch", zap.Stringer("group", GroupOf(s)), zap.String("signal", fmt.Sprintf("%T", s)))
	switch GroupOf(s) {
	case GroupLifecycle:
		c.lifecycle(ctx, s)
	case GroupPersona:
		c.persona(s)
	case GroupTag:
		c.tag(s)
	case GroupLetter:
		c.letter(ctx, s)
	default:
		c.unsupported(s)
	}
	return !c.stopped
}

func (c *Controller) unsupported(s Signal) {
	c.log.Warn("unsupported signal", zap.String("signal", fmt.Sprintf("%T", s)))
}

func (c *Controller) info(format string, args ...any) {
	c.queue.Push(Log{Info: fmt.Sprintf(format, args...)})
}

func (c *Controller) quit() {
	if c.stopped {
		return
	}
	c.sends.Wait()
	c.err = c.data.Finalize()
	if c.err != nil {
		c.log.Error("failed to save records", zap.Error(c.err))
	}
	if c.presenter != nil {
		c.presenter.Close()
	}
	c.stopped = true
}

func (c *Controller) lifecycle(ctx context.Context, s Signal) {
	switch s := s.(type) {
	case Noop:
	case Log:
		c.log.Info(s.Info)
		c.present(func(p Presenter) { p.PresentInfo(s.Info) })
	case Quit:
		c.quit()
	case OpenSettings:
		cp := *c.settings
		c.present(func(p Presenter) { p.SettingsForm(cp) })
	case SaveSettings:
		*c.settings = s.Settings
		if c.settingsPath == "" {
			c.info("Settings updated for this session")
			return
		}
		if err := c.settings.Save(c.settingsPath); err != nil {
			c.log.Error("failed to save settings", zap.Error(err))
			c.info("Failed to save settings: %v", err)
			return
		}
		c.info("Settings saved")
	case ReloadSettings:
		if c.settingsPath == "" {
			return
		}
		loaded, err := settings.Load(c.settingsPath)
		if err != nil {
			c.log.Warn("failed to reload settings", zap.Error(err))
			c.info("Failed to reload settings: %v", err)
			return
		}
		if *loaded == *c.settings {
			return
		}
		*c.settings = *loaded
		c.info("Settings reloaded from %s", c.settingsPath)
	default:
		c.unsupported(s)
	}
}

func (c *Controller) present(fn func(Presenter)) {
	if c.presenter == nil {
		return
	}
	fn(c.presenter)
}

func (c *Controller) persona(s Signal) {
	people := c.data.Persona
	switch s := s.(type) {
	case NewPersona:
		c.present(func(p Presenter) { p.PersonaForm("", persona.New()) })
	case ImportPersonaFile:
		f, err := os.Open(s.Path)
		if err != nil {
			c.info("Failed to import: %v", err)
			return
		}
		defer f.Close()
		batch, err := persona.Import(f)
		if err != nil {
			c.info("Failed to import %s: %v", s.Path, err)
			return
		}
		c.queue.Push(ImportPersona{Persona: batch.Persona, Skipped: batch.Skipped})
	case ImportPersona:
		for _, p := range s.Persona {
			people.Upsert(p)
		}
		if s.Skipped > 0 {
			c.info("Imported %d, skipped %d, now %d", len(s.Persona), s.Skipped, people.Size())
			return
		}
		c.info("Imported %d, now %d", len(s.Persona), people.Size())
	case SelectPersona:
		all := slices.Collect(people.Records())
		c.present(func(p Presenter) { p.SelectPersonaForm(all) })
	case EditPersona:
		found, ok := c.lookupPersona(s.Key)
		if !ok {
			return
		}
		c.present(func(p Presenter) { p.PersonaForm(s.Key, found) })
	case CompleteEditPersona:
		if s.Persona.Blank() {
			c.info("A persona needs a name")
			return
		}
		id := s.Persona.Identity()
		people.UpdateIdentity(s.Key, s.Persona)
		if s.Key != "" && s.Key != id {
			c.eachTag(func(t *tag.Tag) bool { return t.Rename(s.Key, id) })
		}
		c.info("Saved %s", id)
	case RemovePersonaAlert:
		found, ok := c.lookupPersona(s.Key)
		if !ok {
			return
		}
		c.present(func(p Presenter) { p.RemovePersonaDialog(found) })
	case RemovePersona:
		removed, err := people.RemoveIdentity(s.Key)
		if err != nil {
			c.info("Nothing to remove: %q", s.Key)
			return
		}
		c.eachTag(func(t *tag.Tag) bool { return t.Drop(s.Key) })
		c.info("Removed %s, now %d", removed.Identity(), people.Size())
	default:
		c.unsupported(s)
	}
}

func (c *Controller) lookupPersona(key container.Identity) (persona.Persona, bool) {
	if key == "" {
		c.info("Select a persona first")
		return persona.Persona{}, false
	}
	p, ok := c.data.Persona.Get(key)
	if !ok {
		c.info("No persona %q", key)
	}
	return p, ok
}

// eachTag applies fn to a copy of every tag and commits the copies fn
// reports as changed.
func (c *Controller) eachTag(fn func(t *tag.Tag) bool) {
	for t := range c.data.Tag.Records() {
		if fn(&t) {
			c.data.Tag.Upsert(t)
		}
	}
}

func (c *Controller) personaIDs() []container.Identity {
	return slices.Collect(c.data.Persona.Identities())
}

func (c *Controller) tag(s Signal) {
	tags := c.data.Tag
	switch s := s.(type) {
	case NewTag:
		ids := c.personaIDs()
		c.present(func(p Presenter) { p.TagForm("", tag.New("New"), ids) })
	case SelectTag:
		all := slices.Collect(tags.Records())
		c.present(func(p Presenter) { p.SelectTagForm(all) })
	case EditTag:
		found, ok := c.lookupTag(s.Key)
		if !ok {
			return
		}
		ids := c.personaIDs()
		c.present(func(p Presenter) { p.TagForm(s.Key, found, ids) })
	case CompleteEditTag:
		t := s.Tag
		t.Label = tag.New(t.Label).Label
		if t.Label == "" {
			c.info("A tag needs a label")
			return
		}
		t.SetPersona(t.Persona)
		tags.UpdateIdentity(s.Key, t)
		c.info("Saved tag %s (%d members)", t.Label, len(t.Persona))
	case RemoveTagAlert:
		found, ok := c.lookupTag(s.Key)
		if !ok {
			return
		}
		c.present(func(p Presenter) { p.RemoveTagDialog(found) })
	case RemoveTag:
		if _, err := tags.RemoveIdentity(s.Key); err != nil {
			c.info("Nothing to remove: %q", s.Key)
			return
		}
		c.info("Removed tag %s, now %d", s.Key, tags.Size())
	default:
		c.unsupported(s)
	}
}

func (c *Controller) lookupTag(key container.Identity) (tag.Tag, bool) {
	if key == "" {
		c.info("Select a tag first")
		return tag.Tag{}, false
	}
	t, ok := c.data.Tag.Get(key)
	if !ok {
		c.info("No tag %q", key)
	}
	return t, ok
}

func (c *Controller) letter(ctx context.Context, s Signal) {
	letters := c.data.Letter
	switch s := s.(type) {
	case NewLetter:
		c.present(func(p Presenter) { p.LetterForm("", letter.New()) })
	case SelectLetter:
		all := slices.Collect(letters.Records())
		c.present(func(p Presenter) { p.SelectLetterForm(all) })
	case EditLetter:
		found, ok := c.lookupLetter(s.Key)
		if !ok {
			return
		}
		c.present(func(p Presenter) { p.LetterForm(s.Key, found.Clone()) })
	case CompleteEditLetter:
		letters.UpdateIdentity(s.Key, s.Letter.Clone())
		c.info("Saved letter %q", s.Letter.Topic)
	case OpenLetterToSend:
		found, ok := c.lookupLetter(s.Key)
		if !ok {
			return
		}
		people := slices.Collect(c.data.Persona.Records())
		tags := slices.Collect(c.data.Tag.Records())
		c.present(func(p Presenter) { p.SendLetterForm(found.Clone(), people, tags) })
	case SendLetter:
		c.send(ctx, s)
	case RemoveLetterAlert:
		found, ok := c.lookupLetter(s.Key)
		if !ok {
			return
		}
		c.present(func(p Presenter) { p.RemoveLetterDialog(found.Clone()) })
	case RemoveLetter:
		removed, err := letters.RemoveIdentity(s.Key)
		if err != nil {
			c.info("Nothing to remove: %q", s.Key)
			return
		}
		c.info("Removed letter %q, now %d", removed.Topic, letters.Size())
	default:
		c.unsupported(s)
	}
}

func (c *Controller) lookupLetter(key container.Identity) (letter.Letter, bool) {
	if key == "" {
		c.info("Select a letter first")
		return letter.Letter{}, false
	}
	l, ok := c.data.Letter.Get(key)
	if !ok {
		c.info("No letter %q", key)
	}
	return l, ok
}

// Recipients resolves persona ids and the members of tags into personas,
// each at most once, in identity order. Unknown ids are ignored.
func (c *Controller) Recipients(ids, tags []container.Identity) []persona.Persona {
	want := slices.Clone(ids)
	for _, key := range tags {
		if t, ok := c.data.Tag.Get(key); ok {
			want = append(want, t.Persona...)
		}
	}
	slices.Sort(want)
	want = slices.Compact(want)

	people := make([]persona.Persona, 0, len(want))
	for _, id := range want {
		if p, ok := c.data.Persona.Get(id); ok {
			people = append(people, p)
		}
	}
	return people
}

func (c *Controller) send(ctx context.Context, s SendLetter) {
	l, ok := c.lookupLetter(s.Key)
	if !ok {
		return
	}
	people := c.Recipients(s.Persona, s.Tags)
	cfg := *c.settings
	msg, err := mailer.Compose(cfg, l, people)
	if err != nil {
		if errors.Is(err, mailer.ErrNoRecipients) {
			c.info("Choose at least one recipient with an email address")
			return
		}
		c.info("Failed to compose %q: %v", l.Topic, err)
		return
	}

	sender := c.sender(cfg)
	c.sends.Add(1)
	go func() {
		defer c.sends.Done()
		log := c.log.With(zap.String("letter", l.Identity()), zap.Strings("to", msg.To))
		if err := sender.Send(ctx, msg); err != nil {
			log.Warn("delivery failed", zap.Error(err))
			c.info("Failed to send %q: %v", l.Topic, err)
			return
		}
		log.Info("delivered")
		if c.outbox != nil {
			if _, err := c.outbox.Record(context.WithoutCancel(ctx), store.Sent{
				Letter: l.Identity(),
				Topic:  l.Topic,
				To:     msg.To,
			}); err != nil {
				log.Warn("failed to archive delivery", zap.Error(err))
			}
		}
		c.info("Sent %q to %d recipient(s)", l.Topic, len(msg.To))
	}()
}
