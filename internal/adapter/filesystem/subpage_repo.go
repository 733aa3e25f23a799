package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
)

// SubpageRepo reads and writes <dir>/<domain with dots as underscores>.json.
type SubpageRepo struct {
	dir string
}

func NewSubpageRepo(dir string) *SubpageRepo {
	return &SubpageRepo{dir: dir}
}

func (r *SubpageRepo) path(domain string) string {
	return filepath.Join(r.dir, strings.ReplaceAll(safeName(domain), ".", "_")+".json")
}

func (r *SubpageRepo) Load(ctx context.Context, domain string) (*entity.SubpageList, error) {
	data, err := os.ReadFile(r.path(domain))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no subpage list for %s: %w", domain, repository.ErrMissingPrerequisite)
	}
	if err != nil {
		return nil, err
	}
	var list entity.SubpageList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode subpage list for %s: %w", domain, err)
	}
	if len(list.Pages) == 0 {
		return nil, fmt.Errorf("empty subpage list for %s: %w", domain, repository.ErrMissingPrerequisite)
	}
	if list.Domain == "" {
		list.Domain = domain
	}
	return &list, nil
}

func (r *SubpageRepo) Save(ctx context.Context, list *entity.SubpageList) error {
	list.Count = len(list.Pages)
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(r.path(list.Domain), append(data, '\n'))
}
