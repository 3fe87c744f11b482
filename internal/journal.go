package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"
	"github.com/go-git/go-git/v5/storage/filesystem"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	DefaultBranch = "main"
	DefaultAuthor = "aura"
	DefaultEmail  = "aura@local"

	recordsDir = "records"
)

// Journal persists memory records as JSON files inside a git repository, one
// commit per mutation. Records are loaded fully at startup and appended
// incrementally; git history doubles as an audit trail of what the assistant
// remembered and forgot.
type Journal struct {
	repo     *git.Repository
	worktree *git.Worktree
	rootPath string
}

// JournalEntry is one commit in the journal history.
type JournalEntry struct {
	Hash      string
	Message   string
	Timestamp time.Time
}

// OpenJournal opens the journal at path, initializing it on first use.
func OpenJournal(path string) (*Journal, error) {
	gitPath := filepath.Join(path, ".git")
	if _, err := os.Stat(gitPath); os.IsNotExist(err) {
		if err := initJournal(path); err != nil {
			return nil, err
		}
	}

	fs := osfs.New(gitPath)
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(path)

	repo, err := git.Open(storage, wt)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	return &Journal{
		repo:     repo,
		worktree: worktree,
		rootPath: path,
	}, nil
}

func initJournal(path string) error {
	if err := os.MkdirAll(filepath.Join(path, recordsDir), 0755); err != nil {
		return fmt.Errorf("create journal directory: %w", err)
	}

	fs := osfs.New(filepath.Join(path, ".git"))
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(path)

	repo, err := git.Init(storage, wt)
	if err != nil {
		return fmt.Errorf("init journal: %w", err)
	}

	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("get config: %w", err)
	}
	cfg.Init.DefaultBranch = DefaultBranch
	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("set config: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("get worktree: %w", err)
	}

	markerPath := filepath.Join(path, ".aura-journal")
	if err := os.WriteFile(markerPath, []byte("aura memory journal\n"), 0644); err != nil {
		return fmt.Errorf("write marker file: %w", err)
	}

	if _, err := worktree.Add(".aura-journal"); err != nil {
		return fmt.Errorf("stage marker file: %w", err)
	}

	_, err = worktree.Commit("init: memory journal", &git.CommitOptions{
		Author: signature(),
	})
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}

	return nil
}

func signature() *object.Signature {
	return &object.Signature{
		Name:  DefaultAuthor,
		Email: DefaultEmail,
		When:  time.Now(),
	}
}

func recordFilename(id int64) string {
	return fmt.Sprintf("%08d.json", id)
}

// Append writes and commits a record file.
func (j *Journal) Append(ctx context.Context, rec MemoryRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	relPath := filepath.Join(recordsDir, recordFilename(rec.ID))
	path := filepath.Join(j.rootPath, relPath)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create records directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	if _, err := j.worktree.Add(relPath); err != nil {
		return fmt.Errorf("stage record: %w", err)
	}

	msg := fmt.Sprintf("memory: add %s record %d", rec.Kind, rec.ID)
	if _, err := j.worktree.Commit(msg, &git.CommitOptions{Author: signature()}); err != nil {
		return fmt.Errorf("commit record: %w", err)
	}

	return nil
}

// Remove evicts a record file and commits the removal.
func (j *Journal) Remove(ctx context.Context, id int64) error {
	relPath := filepath.Join(recordsDir, recordFilename(id))

	if _, err := os.Stat(filepath.Join(j.rootPath, relPath)); os.IsNotExist(err) {
		return nil
	}

	if _, err := j.worktree.Remove(relPath); err != nil {
		return fmt.Errorf("remove record: %w", err)
	}

	msg := fmt.Sprintf("memory: evict record %d", id)
	if _, err := j.worktree.Commit(msg, &git.CommitOptions{Author: signature()}); err != nil {
		return fmt.Errorf("commit eviction: %w", err)
	}

	return nil
}

// LoadAll reads every persisted record, sorted by id. Corrupt files are
// skipped and counted rather than failing the load; the caller decides how
// loudly to complain.
func (j *Journal) LoadAll(ctx context.Context) ([]MemoryRecord, int, error) {
	dir := filepath.Join(j.rootPath, recordsDir)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read records directory: %w", err)
	}

	var records []MemoryRecord
	skipped := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			skipped++
			continue
		}

		var rec MemoryRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			skipped++
			continue
		}

		records = append(records, rec)
	}

	sort.Slice(records, func(i, k int) bool { return records[i].ID < records[k].ID })
	return records, skipped, nil
}

// Log returns the most recent journal commits, newest first.
func (j *Journal) Log(ctx context.Context, limit int) ([]JournalEntry, error) {
	iter, err := j.repo.Log(&git.LogOptions{})
	if err != nil {
		return nil, fmt.Errorf("journal log: %w", err)
	}
	defer iter.Close()

	var entries []JournalEntry
	err = iter.ForEach(func(c *object.Commit) error {
		if limit > 0 && len(entries) >= limit {
			return storer.ErrStop
		}
		entries = append(entries, JournalEntry{
			Hash:      c.Hash.String(),
			Message:   c.Message,
			Timestamp: c.Author.When,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// Diff renders a text diff of the memory snapshot between ref and HEAD.
func (j *Journal) Diff(ctx context.Context, ref string) (string, error) {
	oldHash, err := j.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", fmt.Errorf("resolve revision %q: %w", ref, err)
	}

	head, err := j.repo.Head()
	if err != nil {
		return "", fmt.Errorf("get HEAD: %w", err)
	}

	oldSnap, err := j.snapshotAt(*oldHash)
	if err != nil {
		return "", err
	}
	newSnap, err := j.snapshotAt(head.Hash())
	if err != nil {
		return "", err
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldSnap, newSnap, false)
	return dmp.DiffPrettyText(diffs), nil
}

// snapshotAt renders the records present in a commit as one line per record.
func (j *Journal) snapshotAt(hash plumbing.Hash) (string, error) {
	commit, err := j.repo.CommitObject(hash)
	if err != nil {
		return "", fmt.Errorf("get commit: %w", err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return "", fmt.Errorf("get tree: %w", err)
	}

	var lines []string
	err = tree.Files().ForEach(func(f *object.File) error {
		if !strings.HasPrefix(f.Name, recordsDir+"/") {
			return nil
		}

		contents, err := f.Contents()
		if err != nil {
			return nil
		}

		var rec MemoryRecord
		if err := json.Unmarshal([]byte(contents), &rec); err != nil {
			return nil
		}

		lines = append(lines, fmt.Sprintf("%08d [%s] %s -> %s", rec.ID, rec.Kind, rec.Input, rec.Output))
		return nil
	})
	if err != nil {
		return "", err
	}

	sort.Strings(lines)
	return strings.Join(lines, "\n") + "\n", nil
}
