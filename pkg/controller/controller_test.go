package controller

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"tableflip.dev/pismo/pkg/container"
	"tableflip.dev/pismo/pkg/letter"
	"tableflip.dev/pismo/pkg/mailer"
	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/settings"
	"tableflip.dev/pismo/pkg/store"
	"tableflip.dev/pismo/pkg/tag"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	ivan = persona.Persona{Family: "Ivanov", Name: "Ivan", Surname: "Ivanovich", Email: "ii@x.ru"}
	petr = persona.Persona{Family: "Petrov", Name: "Petr", Surname: "Petrovich", Email: "pp@x.ru"}
)

type call struct {
	method string
	key    container.Identity
	value  any
}

type fakePresenter struct {
	mu     sync.Mutex
	calls  []call
	closed int
}

func (f *fakePresenter) record(method string, key container.Identity, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{method: method, key: key, value: value})
}

// lastOf returns the most recent call of method.
func (f *fakePresenter) lastOf(method string) call {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.calls) - 1; i >= 0; i-- {
		if f.calls[i].method == method {
			return f.calls[i]
		}
	}
	return call{}
}

func (f *fakePresenter) infos() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.method == "PresentInfo" {
			out = append(out, c.value.(string))
		}
	}
	return out
}

func (f *fakePresenter) PresentInfo(info string)          { f.record("PresentInfo", "", info) }
func (f *fakePresenter) SettingsForm(s settings.Settings) { f.record("SettingsForm", "", s) }
func (f *fakePresenter) PersonaForm(key container.Identity, p persona.Persona) {
	f.record("PersonaForm", key, p)
}
func (f *fakePresenter) SelectPersonaForm(people []persona.Persona) {
	f.record("SelectPersonaForm", "", people)
}
func (f *fakePresenter) RemovePersonaDialog(p persona.Persona) {
	f.record("RemovePersonaDialog", p.Identity(), p)
}
func (f *fakePresenter) TagForm(key container.Identity, t tag.Tag, people []container.Identity) {
	f.record("TagForm", key, []any{t, people})
}
func (f *fakePresenter) SelectTagForm(tags []tag.Tag) { f.record("SelectTagForm", "", tags) }
func (f *fakePresenter) RemoveTagDialog(t tag.Tag)    { f.record("RemoveTagDialog", t.Identity(), t) }
func (f *fakePresenter) LetterForm(key container.Identity, l letter.Letter) {
	f.record("LetterForm", key, l)
}
func (f *fakePresenter) SelectLetterForm(letters []letter.Letter) {
	f.record("SelectLetterForm", "", letters)
}
func (f *fakePresenter) SendLetterForm(l letter.Letter, people []persona.Persona, tags []tag.Tag) {
	f.record("SendLetterForm", l.Identity(), []any{people, tags})
}
func (f *fakePresenter) RemoveLetterDialog(l letter.Letter) {
	f.record("RemoveLetterDialog", l.Identity(), l)
}
func (f *fakePresenter) Close() {
	f.mu.Lock()
	f.closed++
	f.mu.Unlock()
}

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

type fakeOutbox struct {
	mu   sync.Mutex
	sent []store.Sent
}

func (f *fakeOutbox) Record(_ context.Context, s store.Sent) (store.Sent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
	return s, nil
}

func (f *fakeOutbox) List(context.Context, container.Identity) ([]store.Sent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.sent), nil
}

type fixture struct {
	t       *testing.T
	dir     string
	ui      *fakePresenter
	sender  *fakeSender
	outbox  *fakeOutbox
	ctl     *Controller
	setting *settings.Settings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		t:      t,
		dir:    dir,
		ui:     &fakePresenter{},
		sender: &fakeSender{},
		outbox: &fakeOutbox{},
	}
	s := settings.Default()
	f.setting = &s
	f.ctl = New(Options{
		Data:         store.Open(dir, nil),
		Presenter:    f.ui,
		Settings:     f.setting,
		SettingsPath: filepath.Join(dir, "settings.env"),
		Outbox:       f.outbox,
		Sender:       func(settings.Settings) mailer.Sender { return f.sender },
	})
	return f
}

// drain steps until the queue is empty.
func (f *fixture) drain() {
	f.t.Helper()
	for i := 0; i < 100 && f.ctl.queue.Len() > 0; i++ {
		f.ctl.Step(context.Background())
	}
}

func (f *fixture) dispatch(s ...Signal) {
	f.t.Helper()
	for _, sig := range s {
		f.ctl.Push(sig)
	}
	f.drain()
}

func (f *fixture) waitSends() {
	f.ctl.sends.Wait()
	f.drain()
}

func TestQueueFIFO(t *testing.T) {
	var q Queue
	_, ok := q.TryPop()
	assert.False(t, ok)
	q.Push(Log{Info: "a"})
	q.Push(nil)
	q.Push(Log{Info: "b"})
	assert.Equal(t, 2, q.Len())
	first, _ := q.TryPop()
	second, _ := q.TryPop()
	assert.Equal(t, Log{Info: "a"}, first)
	assert.Equal(t, Log{Info: "b"}, second)
	assert.Equal(t, 0, q.Len())
}

func TestStepOneSignalPerTick(t *testing.T) {
	f := newFixture(t)
	f.ctl.Push(Log{Info: "one"})
	f.ctl.Push(Log{Info: "two"})
	require.True(t, f.ctl.Step(context.Background()))
	assert.Equal(t, []string{"one"}, f.ui.infos())
	require.True(t, f.ctl.Step(context.Background()))
	assert.Equal(t, []string{"one", "two"}, f.ui.infos())
	require.True(t, f.ctl.Step(context.Background()), "empty queue keeps running")
}

func TestEditThenQuitPersistsOnce(t *testing.T) {
	f := newFixture(t)
	f.ctl.Push(CompleteEditPersona{Persona: ivan})
	f.ctl.Push(Quit{})

	require.True(t, f.ctl.Step(context.Background()))
	_, err := os.Stat(filepath.Join(f.dir, store.PersonaFile))
	require.ErrorIs(t, err, os.ErrNotExist, "nothing is written before quit")

	require.False(t, f.ctl.Step(context.Background()))
	require.False(t, f.ctl.Step(context.Background()))
	assert.Equal(t, 1, f.ui.closed)

	c, err := container.Restore[persona.Persona](filepath.Join(f.dir, store.PersonaFile))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Size())
	got, ok := c.Get("Ivanov Ivan Ivanovich")
	require.True(t, ok)
	assert.Equal(t, ivan, got)
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.ctl.Push(CompleteEditPersona{Persona: petr})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.ctl.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(f.ui.infos()) > 0
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
	_, err := os.Stat(filepath.Join(f.dir, store.PersonaFile))
	require.NoError(t, err)
}

func TestRunStopsOnQuit(t *testing.T) {
	f := newFixture(t)
	f.ctl.Push(Quit{})
	require.NoError(t, f.ctl.Run(context.Background()))
	assert.True(t, f.ctl.Stopped())
	assert.NoError(t, f.ctl.Err())
}

func TestNewAndEditPersona(t *testing.T) {
	f := newFixture(t)
	f.dispatch(NewPersona{})
	got := f.ui.lastOf("PersonaForm")
	assert.Equal(t, "PersonaForm", got.method)
	assert.Equal(t, container.Identity(""), got.key)
	assert.Equal(t, persona.New(), got.value)

	f.dispatch(CompleteEditPersona{Persona: ivan}, EditPersona{Key: ivan.Identity()})
	got = f.ui.lastOf("PersonaForm")
	assert.Equal(t, "PersonaForm", got.method)
	assert.Equal(t, ivan.Identity(), got.key)
	assert.Equal(t, ivan, got.value)
}

func TestEditPersonaWithoutSelection(t *testing.T) {
	f := newFixture(t)
	f.dispatch(EditPersona{}, EditPersona{Key: "Nobody"})
	assert.Equal(t, []string{"Select a persona first", `No persona "Nobody"`}, f.ui.infos())
}

func TestSaveNamelessPersonaRejected(t *testing.T) {
	f := newFixture(t)
	f.dispatch(CompleteEditPersona{Persona: persona.Persona{Family: " ", Email: "who@x.ru"}})
	assert.Equal(t, 0, f.ctl.data.Persona.Size())
	assert.Equal(t, []string{"A persona needs a name"}, f.ui.infos())

	f.dispatch(CompleteEditPersona{Key: ivan.Identity(), Persona: persona.New()})
	assert.Equal(t, 0, f.ctl.data.Persona.Size())
}

func TestRenamePersonaUpdatesTags(t *testing.T) {
	f := newFixture(t)
	team := tag.New("team")
	team.SetPersona([]container.Identity{ivan.Identity(), petr.Identity()})
	f.dispatch(
		CompleteEditPersona{Persona: ivan},
		CompleteEditPersona{Persona: petr},
		CompleteEditTag{Tag: team},
	)

	renamed := ivan
	renamed.Family = "Sidorov"
	f.dispatch(CompleteEditPersona{Key: ivan.Identity(), Persona: renamed})

	assert.Equal(t, 2, f.ctl.data.Persona.Size())
	_, ok := f.ctl.data.Persona.Get(ivan.Identity())
	assert.False(t, ok)
	got, _ := f.ctl.data.Tag.Get("team")
	assert.Equal(t, []container.Identity{petr.Identity(), renamed.Identity()}, got.Persona)
}

func TestRemovePersonaDropsFromTags(t *testing.T) {
	f := newFixture(t)
	team := tag.New("team")
	team.SetPersona([]container.Identity{ivan.Identity(), petr.Identity()})
	f.dispatch(CompleteEditPersona{Persona: ivan}, CompleteEditPersona{Persona: petr}, CompleteEditTag{Tag: team})

	f.dispatch(RemovePersonaAlert{Key: ivan.Identity()})
	assert.Equal(t, ivan.Identity(), f.ui.lastOf("RemovePersonaDialog").key)

	f.dispatch(RemovePersona{Key: ivan.Identity()})
	assert.Equal(t, 1, f.ctl.data.Persona.Size())
	got, _ := f.ctl.data.Tag.Get("team")
	assert.Equal(t, []container.Identity{petr.Identity()}, got.Persona)

	f.dispatch(RemovePersona{Key: ivan.Identity()})
	assert.Equal(t, 1, f.ctl.data.Persona.Size())
	infos := f.ui.infos()
	assert.Equal(t, `Nothing to remove: "Ivanov Ivan Ivanovich"`, infos[len(infos)-1])
}

func TestImportPersonaFile(t *testing.T) {
	f := newFixture(t)
	cols := make([]string, 16)
	cols[0], cols[1], cols[2], cols[15] = "Ivanov", "Ivan", "Ivanovich", "ii@x.ru"
	data := "header\n" + strings.Join(cols, "\t") + "\nshort\trow\n"
	path := filepath.Join(f.dir, "persona.tsv")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	f.dispatch(ImportPersonaFile{Path: path})
	assert.Equal(t, 1, f.ctl.data.Persona.Size())
	assert.Equal(t, []string{"Imported 1, skipped 1, now 1"}, f.ui.infos())

	f.dispatch(ImportPersonaFile{Path: filepath.Join(f.dir, "missing.tsv")})
	infos := f.ui.infos()
	assert.True(t, strings.HasPrefix(infos[len(infos)-1], "Failed to import"))
}

func TestTagLifecycle(t *testing.T) {
	f := newFixture(t)
	f.dispatch(CompleteEditPersona{Persona: ivan}, NewTag{})
	got := f.ui.lastOf("TagForm")
	require.Equal(t, "TagForm", got.method)
	args := got.value.([]any)
	assert.Equal(t, "New", args[0].(tag.Tag).Label)
	assert.Equal(t, []container.Identity{ivan.Identity()}, args[1])

	edited := tag.New("friends")
	edited.Toggle(ivan.Identity())
	f.dispatch(CompleteEditTag{Tag: edited}, SelectTag{})
	assert.Equal(t, []tag.Tag{edited}, f.ui.lastOf("SelectTagForm").value)

	renamed := edited
	renamed.Label = "family"
	f.dispatch(CompleteEditTag{Key: "friends", Tag: renamed})
	assert.Equal(t, []container.Identity{"family"}, slices.Collect(f.ctl.data.Tag.Identities()))

	f.dispatch(CompleteEditTag{Tag: tag.New("   ")})
	assert.Equal(t, 1, f.ctl.data.Tag.Size())

	f.dispatch(RemoveTagAlert{Key: "family"})
	assert.Equal(t, container.Identity("family"), f.ui.lastOf("RemoveTagDialog").key)
	f.dispatch(RemoveTag{Key: "family"})
	assert.Equal(t, 0, f.ctl.data.Tag.Size())
}

func TestLetterLifecycle(t *testing.T) {
	f := newFixture(t)
	f.dispatch(NewLetter{})
	got := f.ui.lastOf("LetterForm")
	require.Equal(t, "LetterForm", got.method)
	l := got.value.(letter.Letter)
	l.Topic = "Hello"

	f.dispatch(CompleteEditLetter{Letter: l}, SelectLetter{})
	assert.Len(t, f.ui.lastOf("SelectLetterForm").value, 1)

	f.dispatch(EditLetter{Key: l.Identity()})
	assert.Equal(t, l.Identity(), f.ui.lastOf("LetterForm").key)

	f.dispatch(RemoveLetterAlert{Key: l.Identity()})
	assert.Equal(t, l.Identity(), f.ui.lastOf("RemoveLetterDialog").key)
	f.dispatch(RemoveLetter{Key: l.Identity()})
	assert.Equal(t, 0, f.ctl.data.Letter.Size())
}

func TestSendLetterResolvesRecipients(t *testing.T) {
	f := newFixture(t)
	l := letter.NewAt(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	l.Topic = "Hello"
	team := tag.New("team")
	team.SetPersona([]container.Identity{ivan.Identity(), petr.Identity()})
	f.dispatch(
		CompleteEditPersona{Persona: ivan},
		CompleteEditPersona{Persona: petr},
		CompleteEditTag{Tag: team},
		CompleteEditLetter{Letter: l},
		OpenLetterToSend{Key: l.Identity()},
	)
	assert.Equal(t, l.Identity(), f.ui.lastOf("SendLetterForm").key)

	f.dispatch(SendLetter{Key: l.Identity(), Persona: []container.Identity{ivan.Identity()}, Tags: []container.Identity{"team"}})
	f.waitSends()

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, []string{"ii@x.ru", "pp@x.ru"}, f.sender.sent[0].To)
	require.Len(t, f.outbox.sent, 1)
	assert.Equal(t, l.Identity(), f.outbox.sent[0].Letter)
	infos := f.ui.infos()
	assert.Equal(t, `Sent "Hello" to 2 recipient(s)`, infos[len(infos)-1])
}

func TestSendLetterFailureKeepsLetter(t *testing.T) {
	f := newFixture(t)
	f.sender.err = errors.New("relay down")
	l := letter.New()
	l.Topic = "Hello"
	f.dispatch(CompleteEditPersona{Persona: ivan}, CompleteEditLetter{Letter: l})
	f.dispatch(SendLetter{Key: l.Identity(), Persona: []container.Identity{ivan.Identity()}})
	f.waitSends()

	assert.Empty(t, f.outbox.sent)
	assert.Equal(t, 1, f.ctl.data.Letter.Size())
	infos := f.ui.infos()
	assert.Equal(t, `Failed to send "Hello": relay down`, infos[len(infos)-1])
}

func TestSendLetterWithoutRecipients(t *testing.T) {
	f := newFixture(t)
	l := letter.New()
	f.dispatch(CompleteEditLetter{Letter: l}, SendLetter{Key: l.Identity()})
	f.waitSends()
	assert.Empty(t, f.sender.sent)
	infos := f.ui.infos()
	assert.Equal(t, "Choose at least one recipient with an email address", infos[len(infos)-1])
}

func TestQuitWaitsForDelivery(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	var delivered bool
	f.ctl.sender = func(settings.Settings) mailer.Sender {
		return senderFunc(func(context.Context, mailer.Message) error {
			<-release
			delivered = true
			return nil
		})
	}
	l := letter.New()
	f.dispatch(CompleteEditPersona{Persona: ivan}, CompleteEditLetter{Letter: l})
	f.ctl.Push(SendLetter{Key: l.Identity(), Persona: []container.Identity{ivan.Identity()}})
	f.ctl.Step(context.Background())

	time.AfterFunc(20*time.Millisecond, func() { close(release) })
	f.ctl.Push(Quit{})
	for f.ctl.Step(context.Background()) {
	}
	assert.True(t, delivered)
	assert.Len(t, f.outbox.sent, 1)
}

type senderFunc func(context.Context, mailer.Message) error

func (f senderFunc) Send(ctx context.Context, m mailer.Message) error { return f(ctx, m) }

func TestSettingsSaveAndReload(t *testing.T) {
	f := newFixture(t)
	f.dispatch(OpenSettings{})
	got := f.ui.lastOf("SettingsForm")
	require.Equal(t, "SettingsForm", got.method)
	s := got.value.(settings.Settings)
	s.SMTPRelay = "mail.example.org"

	f.dispatch(SaveSettings{Settings: s})
	assert.Equal(t, "mail.example.org", f.setting.SMTPRelay)
	assert.Equal(t, "Settings saved", f.ui.infos()[0])

	f.dispatch(ReloadSettings{})
	assert.Len(t, f.ui.infos(), 1, "unchanged file reloads silently")

	changed := s
	changed.SMTPPort = 2525
	require.NoError(t, changed.Save(filepath.Join(f.dir, "settings.env")))
	f.dispatch(ReloadSettings{})
	assert.Equal(t, 2525, f.setting.SMTPPort)
	assert.Len(t, f.ui.infos(), 2)
}

func TestGroupOf(t *testing.T) {
	assert.Equal(t, GroupLifecycle, GroupOf(Quit{}))
	assert.Equal(t, GroupPersona, GroupOf(RemovePersona{}))
	assert.Equal(t, GroupTag, GroupOf(NewTag{}))
	assert.Equal(t, GroupLetter, GroupOf(SendLetter{}))
	assert.Equal(t, "letter", GroupLetter.String())
}
