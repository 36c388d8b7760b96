package store

import (
	"errors"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"tableflip.dev/pismo/pkg/container"
	"tableflip.dev/pismo/pkg/letter"
	"tableflip.dev/pismo/pkg/persona"
	"tableflip.dev/pismo/pkg/tag"
)

// Record files inside the data directory.
const (
	PersonaFile = "persona.json"
	TagFile     = "tag.json"
	LetterFile  = "letter.json"
)

// Data is the set of record containers restored from a data directory.
type Data struct {
	Persona *persona.Container
	Tag     *tag.Container
	Letter  *letter.Container

	dir string
	log *zap.Logger
}

// Open restores every container under dir. A missing or unreadable file
// yields an empty container and a warning, never an error.
func Open(dir string, log *zap.Logger) *Data {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Data{dir: dir, log: log}
	d.Persona = restore[persona.Persona](d, PersonaFile)
	d.Tag = restore[tag.Tag](d, TagFile)
	d.Letter = restore[letter.Letter](d, LetterFile)
	return d
}

func restore[R container.Record](d *Data, name string) *container.Container[R] {
	path := filepath.Join(d.dir, name)
	c, err := container.Restore[R](path)
	switch {
	case err == nil:
		d.log.Debug("restored container", zap.String("path", path), zap.Int("size", c.Size()))
		return c
	case errors.Is(err, fs.ErrNotExist):
		d.log.Debug("no saved container", zap.String("path", path))
	case errors.Is(err, container.ErrDecode):
		d.log.Warn("container file is malformed, starting empty", zap.String("path", path), zap.Error(err))
	default:
		d.log.Warn("failed to read container, starting empty", zap.String("path", path), zap.Error(err))
	}
	return container.New[R]()
}

// Dir is the data directory.
func (d *Data) Dir() string {
	return d.dir
}

// Finalize writes every container back to its file. All writes are
// attempted; the failures are joined.
func (d *Data) Finalize() error {
	var errs []error
	for name, c := range map[string]interface{ Finalize(string) error }{
		PersonaFile: d.Persona,
		TagFile:     d.Tag,
		LetterFile:  d.Letter,
	} {
		path := filepath.Join(d.dir, name)
		if err := c.Finalize(path); err != nil {
			d.log.Error("failed to save container", zap.String("path", path), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		d.log.Debug("saved container", zap.String("path", path))
	}
	return errors.Join(errs...)
}
