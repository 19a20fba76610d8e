package env

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/javanstorm/pyshell/internal/host"
)

// SnapshotEntry represents a single captured package set.
type SnapshotEntry struct {
	Name        string    `json:"name"`
	EnvName     string    `json:"env_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	Packages    int       `json:"packages"`
	Size        int64     `json:"size"`     // Uncompressed freeze output in bytes
	Checksum    string    `json:"checksum"` // BLAKE2b-256 of compressed file
}

// SnapshotData holds all snapshots for an environment.
type SnapshotData struct {
	Snapshots []SnapshotEntry `json:"snapshots"`
}

// SnapshotManager captures and restores venv package sets as
// compressed pip freeze output.
type SnapshotManager struct {
	baseDir string // ~/.pyshell
	runner  host.CommandRunner
}

// NewSnapshotManager creates a new snapshot manager.
func NewSnapshotManager(baseDir string, runner host.CommandRunner) *SnapshotManager {
	if runner == nil {
		runner = host.NewExecRunner()
	}
	return &SnapshotManager{baseDir: baseDir, runner: runner}
}

// snapshotsDir returns the snapshots directory for an environment.
func (m *SnapshotManager) snapshotsDir(envName string) string {
	return filepath.Join(m.baseDir, "data", envName, "snapshots")
}

// snapshotsFile returns the snapshots metadata file path.
func (m *SnapshotManager) snapshotsFile(envName string) string {
	return filepath.Join(m.baseDir, "data", envName, "snapshots.json")
}

// snapshotPath returns the path to a specific snapshot file.
func (m *SnapshotManager) snapshotPath(envName, snapName string) string {
	return filepath.Join(m.snapshotsDir(envName), snapName+".txt.gz")
}

// Load reads the snapshot metadata from disk.
func (m *SnapshotManager) Load(envName string) (*SnapshotData, error) {
	data, err := os.ReadFile(m.snapshotsFile(envName))
	if err != nil {
		if os.IsNotExist(err) {
			return &SnapshotData{Snapshots: []SnapshotEntry{}}, nil
		}
		return nil, fmt.Errorf("read snapshots: %w", err)
	}

	var snapshots SnapshotData
	if err := json.Unmarshal(data, &snapshots); err != nil {
		return nil, fmt.Errorf("parse snapshots: %w", err)
	}

	return &snapshots, nil
}

// Save writes the snapshot metadata to disk atomically.
func (m *SnapshotManager) Save(envName string, data *SnapshotData) error {
	dataDir := filepath.Join(m.baseDir, "data", envName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshots: %w", err)
	}

	finalPath := m.snapshotsFile(envName)
	tmpPath := finalPath + ".tmp"

	if err := os.WriteFile(tmpPath, jsonData, 0644); err != nil {
		return fmt.Errorf("write snapshots temp: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename snapshots: %w", err)
	}

	return nil
}

// Create captures the venv's installed packages as a new snapshot.
func (m *SnapshotManager) Create(ctx context.Context, venv Venv, envName, snapName, description string) error {
	// Clean up any previous partial operations
	m.CleanupPartial(envName)

	if !venv.Exists() {
		return ErrNotSetup
	}

	// Load existing snapshots
	data, err := m.Load(envName)
	if err != nil {
		return err
	}

	// Check for duplicate name
	for _, snap := range data.Snapshots {
		if snap.Name == snapName {
			return fmt.Errorf("snapshot '%s' already exists", snapName)
		}
	}

	freeze, err := host.RunChecked(ctx, m.runner, venv.Python(), "-m", "pip", "freeze")
	if err != nil {
		return fmt.Errorf("freeze packages: %w", err)
	}

	if err := os.MkdirAll(m.snapshotsDir(envName), 0755); err != nil {
		return fmt.Errorf("create snapshots dir: %w", err)
	}

	// Compress to a temp file, then rename into place
	snapPath := m.snapshotPath(envName, snapName)
	tmpPath := snapPath + ".tmp"
	dstFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer dstFile.Close()

	gzWriter := gzip.NewWriter(dstFile)
	if _, err := gzWriter.Write(freeze); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := gzWriter.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize compression: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close snapshot file: %w", err)
	}

	if err := os.Rename(tmpPath, snapPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("finalize snapshot: %w", err)
	}

	checksum, err := hashFile(snapPath)
	if err != nil {
		os.Remove(snapPath)
		return fmt.Errorf("compute checksum: %w", err)
	}

	entry := SnapshotEntry{
		Name:        snapName,
		EnvName:     envName,
		Description: description,
		CreatedAt:   time.Now(),
		Packages:    countFreezeLines(freeze),
		Size:        int64(len(freeze)),
		Checksum:    checksum,
	}

	data.Snapshots = append(data.Snapshots, entry)

	if err := m.Save(envName, data); err != nil {
		os.Remove(snapPath)
		return err
	}

	return nil
}

// List returns all snapshots for an environment.
func (m *SnapshotManager) List(envName string) ([]SnapshotEntry, error) {
	data, err := m.Load(envName)
	if err != nil {
		return nil, err
	}
	return data.Snapshots, nil
}

// Get returns a specific snapshot.
func (m *SnapshotManager) Get(envName, snapName string) (*SnapshotEntry, error) {
	data, err := m.Load(envName)
	if err != nil {
		return nil, err
	}

	for _, snap := range data.Snapshots {
		if snap.Name == snapName {
			return &snap, nil
		}
	}

	return nil, fmt.Errorf("snapshot '%s' not found", snapName)
}

// Restore installs a snapshot's package set into the venv. The
// checksum is verified first to detect corruption.
func (m *SnapshotManager) Restore(ctx context.Context, venv Venv, envName, snapName string) error {
	// Clean up any previous partial operations
	m.CleanupPartial(envName)

	snap, err := m.Get(envName, snapName)
	if err != nil {
		return err
	}

	if !venv.Exists() {
		return ErrNotSetup
	}

	snapPath := m.snapshotPath(envName, snapName)

	if snap.Checksum != "" {
		checksum, err := hashFile(snapPath)
		if err != nil {
			return fmt.Errorf("verify checksum: %w", err)
		}
		if checksum != snap.Checksum {
			return fmt.Errorf("snapshot corrupted: checksum mismatch")
		}
	}

	srcFile, err := os.Open(snapPath)
	if err != nil {
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer srcFile.Close()

	gzReader, err := gzip.NewReader(srcFile)
	if err != nil {
		return fmt.Errorf("open gzip: %w", err)
	}
	defer gzReader.Close()

	// Decompress to a requirements file pip can read
	tmpPath := filepath.Join(m.baseDir, "data", envName, snapName+".restoring")
	dstFile, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create restore file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, gzReader); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("decompress snapshot: %w", err)
	}
	if err := dstFile.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close restore file: %w", err)
	}
	defer os.Remove(tmpPath)

	if err := m.runner.Stream(ctx, venv.Python(), "-m", "pip", "install", "-r", tmpPath); err != nil {
		return fmt.Errorf("install snapshot packages: %w", err)
	}

	return nil
}

// Delete removes a snapshot.
func (m *SnapshotManager) Delete(envName, snapName string) error {
	data, err := m.Load(envName)
	if err != nil {
		return err
	}

	found := false
	remaining := make([]SnapshotEntry, 0, len(data.Snapshots))
	for _, snap := range data.Snapshots {
		if snap.Name == snapName {
			found = true
		} else {
			remaining = append(remaining, snap)
		}
	}

	if !found {
		return fmt.Errorf("snapshot '%s' not found", snapName)
	}

	snapPath := m.snapshotPath(envName, snapName)
	if err := os.Remove(snapPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot file: %w", err)
	}

	data.Snapshots = remaining
	return m.Save(envName, data)
}

// FileSize returns the compressed size of a snapshot file.
func (m *SnapshotManager) FileSize(envName, snapName string) (int64, error) {
	info, err := os.Stat(m.snapshotPath(envName, snapName))
	if err != nil {
		return 0, fmt.Errorf("stat snapshot: %w", err)
	}
	return info.Size(), nil
}

// Verify checks a snapshot's integrity against its recorded checksum.
func (m *SnapshotManager) Verify(envName, snapName string) error {
	snap, err := m.Get(envName, snapName)
	if err != nil {
		return err
	}

	if snap.Checksum == "" {
		return fmt.Errorf("snapshot has no checksum")
	}

	checksum, err := hashFile(m.snapshotPath(envName, snapName))
	if err != nil {
		return fmt.Errorf("compute checksum: %w", err)
	}

	if checksum != snap.Checksum {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", snap.Checksum, checksum)
	}

	return nil
}

// CleanupPartial removes leftovers from interrupted operations.
func (m *SnapshotManager) CleanupPartial(envName string) error {
	tmpFiles, _ := filepath.Glob(filepath.Join(m.snapshotsDir(envName), "*.tmp"))
	for _, f := range tmpFiles {
		os.Remove(f)
	}

	dataDir := filepath.Join(m.baseDir, "data", envName)
	restoringFiles, _ := filepath.Glob(filepath.Join(dataDir, "*.restoring"))
	for _, f := range restoringFiles {
		os.Remove(f)
	}

	os.Remove(m.snapshotsFile(envName) + ".tmp")

	return nil
}

// HasPartialFiles reports leftover temp files from interrupted
// operations.
func (m *SnapshotManager) HasPartialFiles(envName string) bool {
	tmpFiles, _ := filepath.Glob(filepath.Join(m.snapshotsDir(envName), "*.tmp"))
	if len(tmpFiles) > 0 {
		return true
	}

	dataDir := filepath.Join(m.baseDir, "data", envName)
	restoringFiles, _ := filepath.Glob(filepath.Join(dataDir, "*.restoring"))
	if len(restoringFiles) > 0 {
		return true
	}

	if _, err := os.Stat(m.snapshotsFile(envName) + ".tmp"); err == nil {
		return true
	}

	return false
}

// countFreezeLines counts package lines in pip freeze output.
func countFreezeLines(out []byte) int {
	n := 0
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
