// Package docs resolves application documents from a directory tree
// laid out as <dir>/<jobID>/<type>.<ext>, with a shared fallback under
// <dir>/default/.
package docs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/khansari2403/Auto-Application-sub000/internal/domain"
)

// ErrNotFound means no rendering of the requested document exists.
var ErrNotFound = errors.New("docs: document not found")

// renderings in preference order. A form that rejects one rendering is
// retried with the next by the caller.
var renderings = []string{"pdf", "html", "docx", "txt"}

// Store locates documents on the local filesystem.
type Store struct {
	Dir string
}

func NewStore(dir string) *Store {
	return &Store{Dir: dir}
}

// Locate returns the preferred existing rendering for a document, job
// specific first, then the shared default set.
func (s *Store) Locate(jobID string, doc domain.DocumentType) (string, error) {
	paths, err := s.Renderings(jobID, doc)
	if err != nil {
		return "", err
	}
	return paths[0], nil
}

// Renderings returns every existing rendering of a document in
// preference order. Used when an upload is rejected and an alternate
// format should be tried.
func (s *Store) Renderings(jobID string, doc domain.DocumentType) ([]string, error) {
	var out []string
	for _, base := range []string{jobID, "default"} {
		if base == "" {
			continue
		}
		for _, ext := range renderings {
			p := filepath.Join(s.Dir, base, fmt.Sprintf("%s.%s", doc, ext))
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s for job %s", ErrNotFound, doc, jobID)
	}
	return out, nil
}
