package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/user/trackscope/internal/artifact"
	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
)

// ResultStore keeps one indented JSON document per (profile, domain) under
// <dir>/<profile>/<domain>.json.
type ResultStore struct {
	dir string
}

func NewResultStore(dir string) *ResultStore {
	return &ResultStore{dir: dir}
}

func (s *ResultStore) path(profile, domain string) string {
	return filepath.Join(s.dir, safeName(profile), safeName(domain)+".json")
}

// Save writes the document atomically.
func (s *ResultStore) Save(ctx context.Context, doc *entity.ResultDocument) error {
	if doc.Profile == "" || doc.Domain == "" {
		return errors.New("result document needs a profile and a domain")
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result for %s/%s: %w", doc.Profile, doc.Domain, err)
	}
	return writeFileAtomic(s.path(doc.Profile, doc.Domain), append(data, '\n'))
}

func (s *ResultStore) Load(ctx context.Context, profile, domain string) (*entity.ResultDocument, error) {
	data, err := s.Raw(ctx, profile, domain)
	if err != nil {
		return nil, err
	}
	if err := artifact.Validate(data); err != nil {
		return nil, fmt.Errorf("%s/%s: %w", profile, domain, err)
	}
	var doc entity.ResultDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s/%s: %w: %v", profile, domain, repository.ErrCorruptArtifact, err)
	}
	return &doc, nil
}

func (s *ResultStore) Exists(ctx context.Context, profile, domain string) (bool, error) {
	_, err := os.Stat(s.path(profile, domain))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *ResultStore) Delete(ctx context.Context, profile, domain string) error {
	err := os.Remove(s.path(profile, domain))
	if errors.Is(err, os.ErrNotExist) {
		return repository.ErrNotFound
	}
	return err
}

func (s *ResultStore) Raw(ctx context.Context, profile, domain string) ([]byte, error) {
	data, err := os.ReadFile(s.path(profile, domain))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s/%s: %w", profile, domain, repository.ErrNotFound)
	}
	return data, err
}

// List walks the profile directories. An empty profile lists all of them.
func (s *ResultStore) List(ctx context.Context, profile string) ([]repository.ArtifactRef, error) {
	profiles := []string{profile}
	if profile == "" {
		entries, err := os.ReadDir(s.dir)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		profiles = profiles[:0]
		for _, e := range entries {
			if e.IsDir() {
				profiles = append(profiles, e.Name())
			}
		}
	}

	var refs []repository.ArtifactRef
	for _, p := range profiles {
		entries, err := os.ReadDir(filepath.Join(s.dir, safeName(p)))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
				continue
			}
			refs = append(refs, repository.ArtifactRef{
				Profile:  p,
				Domain:   strings.TrimSuffix(e.Name(), ".json"),
				Location: filepath.Join(s.dir, safeName(p), e.Name()),
			})
		}
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Profile != refs[j].Profile {
			return refs[i].Profile < refs[j].Profile
		}
		return refs[i].Domain < refs[j].Domain
	})
	return refs, nil
}

// Move relocates an artifact to <destDir>/<profile>/<domain>.json.
func (s *ResultStore) Move(ctx context.Context, ref repository.ArtifactRef, destDir string) error {
	dest := filepath.Join(destDir, safeName(ref.Profile), safeName(ref.Domain)+".json")
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.Rename(s.path(ref.Profile, ref.Domain), dest)
}

// safeName keeps a key usable as a single path element.
func safeName(s string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
