package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/AndreyBeserra/Helppybot/catalog"
	"github.com/AndreyBeserra/Helppybot/lib/tracer"

	"github.com/dustin/go-humanize"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

const (
	MsgImagesSoon       = "📷 As imagens estarão disponíveis em breve!"
	MsgImageFailed      = "⚠️ Não foi possível carregar %s"
	MsgUnexpected       = "😕 Ocorreu um erro inesperado. Por favor, tente novamente mais tarde!"
	MsgTeamFolderAbsent = "⚠️ Pasta da equipe não encontrada!"
	MsgPhotoUnavailable = "\n\n⚠️ Foto temporariamente indisponível"
)

// ErrTeamFolderMissing is returned by SendTeam after the user has been told
// that the team folder is absent.
var ErrTeamFolderMissing = errors.New("team folder missing")

var imageExtensions = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Sender is the part of tele.Context the library needs.
type Sender interface {
	Send(what interface{}, opts ...interface{}) error
}

type Library struct {
	root string
	log  *zap.Logger
}

func New(root string, log *zap.Logger) *Library {
	return &Library{root: root, log: log}
}

func (l *Library) Dir(folder string) string {
	return filepath.Join(l.root, folder)
}

// Images lists image file names in dir, sorted.
func Images(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsImage(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func IsImage(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

// SendFolder sends every image of folder as a separate photo. A missing folder
// is reported to the user once; a photo that fails is skipped with a notice.
func (l *Library) SendFolder(ctx context.Context, s Sender, folder string) error {
	_, span := tracer.Open(ctx, tracer.Named("SendFolder"))
	defer span.Close()

	dir := l.Dir(folder)
	log := l.log.With(zap.String("dir", dir))
	log.Debug("Looking for images")

	if !exists(dir) {
		log.Warn("Image folder not found")
		return s.Send(MsgImagesSoon)
	}

	names, err := Images(dir)
	if err != nil {
		log.Error("Cannot list images", zap.Error(err))
		return s.Send(MsgUnexpected)
	}

	for _, name := range names {
		photo := &tele.Photo{File: tele.FromDisk(filepath.Join(dir, name))}
		if err := s.Send(photo); err != nil {
			log.Warn("Cannot send image", zap.String("file", name), zap.Error(err))
			stem := strings.TrimSuffix(name, filepath.Ext(name))
			if err := s.Send(fmt.Sprintf(MsgImageFailed, stem)); err != nil {
				return fmt.Errorf("notifying about %s: %w", name, err)
			}
			continue
		}
		log.Debug("Image sent", zap.String("file", name))
	}
	return nil
}

// SendTeam sends one message per member: the photo captioned with the
// description, or the description alone when the photo cannot be used.
func (l *Library) SendTeam(ctx context.Context, s Sender, folder string, members []catalog.Member) error {
	_, span := tracer.Open(ctx, tracer.Named("SendTeam"))
	defer span.Close()

	dir := l.Dir(folder)
	if !exists(dir) {
		l.log.Warn("Team folder not found", zap.String("dir", dir))
		if err := s.Send(MsgTeamFolderAbsent); err != nil {
			return err
		}
		return ErrTeamFolderMissing
	}

	for _, m := range members {
		path := filepath.Join(dir, m.Photo)
		if m.Photo == "" || !exists(path) {
			if err := s.Send(m.Description + MsgPhotoUnavailable); err != nil {
				return fmt.Errorf("sending member %q: %w", m.Photo, err)
			}
			continue
		}
		// Something sits at the photo path; if it cannot be sent as a photo the
		// member still gets the plain description.
		var err error
		if isFile(path) {
			err = s.Send(&tele.Photo{File: tele.FromDisk(path), Caption: m.Description})
		} else {
			err = fmt.Errorf("%s is not a regular file", path)
		}
		if err != nil {
			l.log.Warn("Cannot send team photo", zap.String("file", m.Photo), zap.Error(err))
			if err := s.Send(m.Description); err != nil {
				return fmt.Errorf("sending member %q: %w", m.Photo, err)
			}
		}
	}
	return nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

type FolderReport struct {
	Folder  string
	Images  int
	Bytes   int64
	Missing bool
}

// Preflight inspects the folders the catalog refers to. Missing folders are
// collected into the returned error; the bot still runs without them.
func (l *Library) Preflight(folders []string) ([]FolderReport, error) {
	var result *multierror.Error
	reports := make([]FolderReport, 0, len(folders))
	for _, folder := range folders {
		report := FolderReport{Folder: folder}
		dir := l.Dir(folder)
		names, err := Images(dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			report.Missing = true
			result = multierror.Append(result, fmt.Errorf("folder %q not found in %s", folder, l.root))
			l.log.Warn("Assets folder not found", zap.String("folder", folder), zap.String("dir", dir))
		case err != nil:
			result = multierror.Append(result, fmt.Errorf("folder %q: %w", folder, err))
			l.log.Warn("Assets folder unreadable", zap.String("folder", folder), zap.Error(err))
		default:
			report.Images = len(names)
			for _, name := range names {
				if info, err := os.Stat(filepath.Join(dir, name)); err == nil {
					report.Bytes += info.Size()
				}
			}
			l.log.Info("Assets folder ready",
				zap.String("folder", folder),
				zap.Int("images", report.Images),
				zap.String("size", humanize.Bytes(uint64(report.Bytes))),
			)
		}
		reports = append(reports, report)
	}
	return reports, result.ErrorOrNil()
}
