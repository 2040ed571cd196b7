package capture

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/entrhq/scrapbook/pkg/storage"
)

// Allocator hands out zero-padded sequence numbers for one kind of
// numbered artifact in one directory. The counter is never persisted: it
// is recovered from the directory contents at construction, so a restarted
// session resumes numbering where the previous one stopped.
type Allocator struct {
	store  storage.Store
	dir    string
	prefix string
	width  int
	next   int
	re     *regexp.Regexp
}

// NewAllocator creates an allocator for <dir>/<prefix>-NNNNN.<ext> files,
// creating dir if needed and resuming the counter at one past the highest
// existing number (0 for an empty directory).
func NewAllocator(store storage.Store, dir, prefix string, width int) (*Allocator, error) {
	if err := store.MkdirAll(dir); err != nil {
		return nil, err
	}

	a := &Allocator{
		store:  store,
		dir:    dir,
		prefix: prefix,
		width:  width,
		re:     regexp.MustCompile(`^` + regexp.QuoteMeta(prefix) + `-(\d+)\.[A-Za-z0-9]+$`),
	}

	names, err := store.ListDir(dir)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		m := a.re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if n+1 > a.next {
			a.next = n + 1
		}
	}

	return a, nil
}

// Next returns the number the next Reserve will try.
func (a *Allocator) Next() int {
	return a.next
}

// Filename renders the artifact filename for sequence number n.
func (a *Allocator) Filename(n int, ext string) string {
	return fmt.Sprintf("%s-%0*d%s", a.prefix, a.width, n, ext)
}

// Path renders the full artifact path for sequence number n.
func (a *Allocator) Path(n int, ext string) string {
	return filepath.Join(a.dir, a.Filename(n, ext))
}

// Reserve finds a free slot starting at the current counter. If the target
// path already exists — concurrent or manual file manipulation — the
// operator is prompted for a replacement starting number; non-numeric or
// negative input re-prompts. Reserve does not advance the counter: call
// Commit after the artifact write succeeds.
func (a *Allocator) Reserve(prompter Prompter, ext string) (int, string, error) {
	for {
		path := a.Path(a.next, ext)
		exists, err := a.store.Exists(path)
		if err != nil {
			return 0, "", err
		}
		if !exists {
			return a.next, path, nil
		}

		text := fmt.Sprintf("%s already exists; enter a new starting number: ", a.Filename(a.next, ext))
		for {
			answer, err := prompter.Prompt(text)
			if err != nil {
				return 0, "", fmt.Errorf("%w: %v", ErrArtifactCollision, err)
			}
			n, convErr := strconv.Atoi(answer)
			if convErr != nil || n < 0 {
				text = "invalid number; enter a non-negative starting number: "
				continue
			}
			a.next = n
			break
		}
	}
}

// Commit advances the counter past a successfully written artifact.
func (a *Allocator) Commit() {
	a.next++
}

// Rollback frees the most recently committed number and returns it.
func (a *Allocator) Rollback() int {
	a.next--
	return a.next
}
