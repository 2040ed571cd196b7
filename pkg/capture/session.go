package capture

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/entrhq/scrapbook/pkg/capture/browser"
	"github.com/entrhq/scrapbook/pkg/clipboard"
	"github.com/entrhq/scrapbook/pkg/config"
	"github.com/entrhq/scrapbook/pkg/logging"
	"github.com/entrhq/scrapbook/pkg/storage"
)

const sourcePrefix = "source: "

// ImageMeta correlates a saved image with where it came from. One metadata
// file is written per image, next to the image directory.
type ImageMeta struct {
	Sequence  int    `yaml:"sequence"`
	File      string `yaml:"file"`
	PageURL   string `yaml:"page_url"`
	SourceURL string `yaml:"source_url"`
	Caption   string `yaml:"caption,omitempty"`
}

// Session is the long-lived state of one interactive capture run: the tab
// tracker, the numbered artifact allocators, the duplicate sets and the
// index files. A restarted session recovers counters and duplicate sets
// from the output tree, so numbering resumes where it stopped.
type Session struct {
	store    storage.Store
	tracker  *browser.Tracker
	clip     clipboard.Source
	prompter Prompter
	log      *logging.Logger
	client   *http.Client

	linksDir   string
	imagesDir  string
	metaDir    string
	linkIndex  string
	imageIndex string

	links  *Allocator
	images *Allocator

	savedLinks  map[string]struct{}
	savedImages map[string]struct{}
}

// Option configures a Session.
type Option func(*Session)

// WithHTTPClient sets the client used for image downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Session) {
		s.client = c
	}
}

// WithLogger sets the session logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// NewSession creates the output tree under cfg.OutputDir, recovers the
// allocators and duplicate sets from it, and returns a ready session.
func NewSession(store storage.Store, tracker *browser.Tracker, clip clipboard.Source, prompter Prompter, cfg config.Config, opts ...Option) (*Session, error) {
	s := &Session{
		store:       store,
		tracker:     tracker,
		clip:        clip,
		prompter:    prompter,
		client:      http.DefaultClient,
		linksDir:    filepath.Join(cfg.OutputDir, "links"),
		imagesDir:   filepath.Join(cfg.OutputDir, "images"),
		metaDir:     filepath.Join(cfg.OutputDir, "images", "meta"),
		linkIndex:   filepath.Join(cfg.OutputDir, "links.txt"),
		imageIndex:  filepath.Join(cfg.OutputDir, "images.txt"),
		savedLinks:  make(map[string]struct{}),
		savedImages: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		logger, _ := logging.NewLogger("capture")
		s.log = logger
	}

	for _, dir := range []string{s.linksDir, s.imagesDir, s.metaDir} {
		if err := store.MkdirAll(dir); err != nil {
			return nil, err
		}
	}

	var err error
	if s.links, err = NewAllocator(store, s.linksDir, cfg.LinkPrefix, cfg.PadWidth); err != nil {
		return nil, err
	}
	if s.images, err = NewAllocator(store, s.imagesDir, cfg.ImagePrefix, cfg.PadWidth); err != nil {
		return nil, err
	}

	// Replay the index files so duplicate detection survives restarts.
	lines, err := store.ReadLines(s.linkIndex)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		s.savedLinks[line] = struct{}{}
	}
	lines, err = store.ReadLines(s.imageIndex)
	if err != nil {
		return nil, err
	}
	for _, line := range lines {
		s.savedImages[line] = struct{}{}
	}

	s.log.Infof("session ready: %d links, %d images recovered", len(s.savedLinks), len(s.savedImages))
	return s, nil
}

// Tracker returns the tab tracker driving this session.
func (s *Session) Tracker() *browser.Tracker {
	return s.tracker
}

// IsSaved reports whether a URL is already recorded as a link capture.
func (s *Session) IsSaved(u string) bool {
	_, ok := s.savedLinks[u]
	return ok
}

// SavedLinkCount returns the next link sequence number.
func (s *Session) SavedLinkCount() int {
	return s.links.Next()
}

// SavedImageCount returns the next image sequence number.
func (s *Session) SavedImageCount() int {
	return s.images.Next()
}

// SaveText captures the clipboard contents as the next numbered text
// artifact, keyed by the active tab's URL. The artifact is written before
// the index is appended, so a crash between the two leaves an unindexed
// artifact the next startup scan absorbs, never a dangling index entry.
func (s *Session) SaveText() (int, error) {
	text, err := s.clip.Read()
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyCapture
	}

	tab, ok := s.tracker.Active()
	if !ok {
		return 0, ErrNoActiveTab
	}
	pageURL := tab.URL()
	if _, dup := s.savedLinks[pageURL]; dup {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateEntry, pageURL)
	}

	n, artifactPath, err := s.links.Reserve(s.prompter, ".txt")
	if err != nil {
		return 0, err
	}

	content := sourcePrefix + pageURL + "\n\n" + text + "\n"
	if err := s.store.WriteArtifact(artifactPath, []byte(content)); err != nil {
		return 0, err
	}
	if err := s.store.AppendLine(s.linkIndex, pageURL); err != nil {
		return 0, err
	}

	s.links.Commit()
	s.savedLinks[pageURL] = struct{}{}
	s.log.Infof("saved text %d for %s", n, pageURL)
	return n, nil
}

// UndoText reverses the most recent SaveText. The artifact's recorded
// source URL must match the last index entry; on a mismatch the file is
// left in place, only the duplicate-set entry is dropped, and
// ErrVerificationMismatch is returned so the operator is warned instead of
// losing unrelated data.
func (s *Session) UndoText() (int, error) {
	if s.links.Next() == 0 {
		return 0, ErrNothingToUndo
	}

	lastURL, err := s.store.LastLine(s.linkIndex)
	if err != nil {
		return 0, err
	}
	if lastURL == "" {
		return 0, ErrNothingToUndo
	}

	n := s.links.Rollback()
	artifactPath := s.links.Path(n, ".txt")

	content, err := s.store.ReadArtifact(artifactPath)
	if err != nil {
		s.links.Commit() // restore; nothing was deleted
		return 0, err
	}
	recorded := parseSourceURL(string(content))
	if recorded != lastURL {
		s.links.Commit()
		delete(s.savedLinks, lastURL)
		return 0, fmt.Errorf("%w: artifact records %q, index records %q", ErrVerificationMismatch, recorded, lastURL)
	}

	if err := s.store.Delete(artifactPath); err != nil {
		s.links.Commit()
		return 0, err
	}
	if err := s.store.TruncateLastLine(s.linkIndex); err != nil {
		return 0, err
	}
	delete(s.savedLinks, lastURL)
	s.log.Infof("undid text %d for %s", n, lastURL)
	return n, nil
}

// SaveImage downloads srcURL and stores it as the next numbered image
// artifact with a metadata file recording the page URL and caption.
func (s *Session) SaveImage(srcURL, caption string) (int, error) {
	if strings.TrimSpace(srcURL) == "" {
		return 0, ErrEmptyCapture
	}
	if _, dup := s.savedImages[srcURL]; dup {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateEntry, srcURL)
	}

	pageURL := ""
	if tab, ok := s.tracker.Active(); ok {
		pageURL = tab.URL()
	}

	data, err := s.download(srcURL)
	if err != nil {
		return 0, err
	}

	ext := imageExt(srcURL)
	n, imagePath, err := s.images.Reserve(s.prompter, ext)
	if err != nil {
		return 0, err
	}

	if err := s.store.WriteArtifact(imagePath, data); err != nil {
		return 0, err
	}

	meta := ImageMeta{
		Sequence:  n,
		File:      s.images.Filename(n, ext),
		PageURL:   pageURL,
		SourceURL: srcURL,
		Caption:   caption,
	}
	metaBytes, err := yaml.Marshal(meta)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal image metadata: %w", err)
	}
	if err := s.store.WriteArtifact(s.metaPath(n), metaBytes); err != nil {
		return 0, err
	}
	if err := s.store.AppendLine(s.imageIndex, srcURL); err != nil {
		return 0, err
	}

	s.images.Commit()
	s.savedImages[srcURL] = struct{}{}
	s.log.Infof("saved image %d from %s", n, srcURL)
	return n, nil
}

// UndoImage reverses the most recent SaveImage, verifying the metadata's
// source URL against the last image index entry before deleting anything.
func (s *Session) UndoImage() (int, error) {
	if s.images.Next() == 0 {
		return 0, ErrNothingToUndo
	}

	lastURL, err := s.store.LastLine(s.imageIndex)
	if err != nil {
		return 0, err
	}
	if lastURL == "" {
		return 0, ErrNothingToUndo
	}

	n := s.images.Rollback()

	metaBytes, err := s.store.ReadArtifact(s.metaPath(n))
	if err != nil {
		s.images.Commit()
		return 0, err
	}
	var meta ImageMeta
	if err := yaml.Unmarshal(metaBytes, &meta); err != nil {
		s.images.Commit()
		return 0, fmt.Errorf("failed to parse image metadata: %w", err)
	}
	if meta.SourceURL != lastURL {
		s.images.Commit()
		delete(s.savedImages, lastURL)
		return 0, fmt.Errorf("%w: metadata records %q, index records %q", ErrVerificationMismatch, meta.SourceURL, lastURL)
	}

	if err := s.store.Delete(filepath.Join(s.imagesDir, meta.File)); err != nil {
		s.images.Commit()
		return 0, err
	}
	if err := s.store.Delete(s.metaPath(n)); err != nil {
		return 0, err
	}
	if err := s.store.TruncateLastLine(s.imageIndex); err != nil {
		return 0, err
	}
	delete(s.savedImages, lastURL)
	s.log.Infof("undid image %d from %s", n, lastURL)
	return n, nil
}

// LastText returns the content of the most recently saved text artifact.
func (s *Session) LastText() (string, error) {
	if s.links.Next() == 0 {
		return "", ErrNothingToUndo
	}
	content, err := s.store.ReadArtifact(s.links.Path(s.links.Next()-1, ".txt"))
	if err != nil {
		return "", err
	}
	return string(content), nil
}

func (s *Session) metaPath(n int) string {
	return filepath.Join(s.metaDir, s.images.Filename(n, ".yaml"))
}

func (s *Session) download(srcURL string) ([]byte, error) {
	resp, err := s.client.Get(srcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s: %w", srcURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download %s: status %s", srcURL, resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return data, nil
}

func parseSourceURL(content string) string {
	line := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	return strings.TrimPrefix(strings.TrimSpace(line), sourcePrefix)
}

func imageExt(srcURL string) string {
	u, err := url.Parse(srcURL)
	if err != nil {
		return ".jpg"
	}
	ext := strings.ToLower(path.Ext(u.Path))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg":
		return ext
	default:
		return ".jpg"
	}
}
