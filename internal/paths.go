package internal

import (
	"os"
	"path/filepath"
)

// DataDir anchors everything the assistant persists: config, the memory
// journal, the knowledge base and its vector index, and cached models.
type DataDir struct {
	Root string
}

func (d DataDir) ConfigPath() string {
	return filepath.Join(d.Root, "config.yaml")
}

func (d DataDir) JournalPath() string {
	return filepath.Join(d.Root, "journal")
}

func (d DataDir) KnowledgePath() string {
	return filepath.Join(d.Root, "knowledge")
}

func (d DataDir) VectorsPath() string {
	return filepath.Join(d.Root, "vectors")
}

func (d DataDir) ModelsPath() string {
	return filepath.Join(d.Root, "models")
}

// ResolveDataDir picks the data directory: explicit flag first, then the
// AURA_DATA_DIR environment variable, then ~/.aura.
func ResolveDataDir(explicit string) DataDir {
	if explicit != "" {
		return DataDir{Root: explicit}
	}
	if env := os.Getenv("AURA_DATA_DIR"); env != "" {
		return DataDir{Root: env}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return DataDir{Root: ".aura"}
	}
	return DataDir{Root: filepath.Join(home, ".aura")}
}

// Ensure creates the directory tree the assistant expects.
func (d DataDir) Ensure() error {
	for _, dir := range []string{d.Root, d.KnowledgePath(), d.VectorsPath(), d.ModelsPath()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
