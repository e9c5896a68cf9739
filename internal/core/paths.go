package core

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type Paths struct {
	DataDir     string
	ConfigFile  string
	LogFile     string
	HistoryFile string
}

var defaultPaths *Paths

func ensureDefaultPaths() {
	if defaultPaths == nil {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			panic(err)
		}

		dataDir := filepath.Join(homeDir, ".local", "share", "scamcheck")
		configDir := filepath.Join(homeDir, ".config", "scamcheck")
		defaultPaths = &Paths{
			DataDir:     dataDir,
			ConfigFile:  filepath.Join(configDir, "config.yaml"),
			LogFile:     filepath.Join(dataDir, "scamcheck.zst"),
			HistoryFile: filepath.Join(dataDir, "history.db"),
		}

		err = os.MkdirAll(defaultPaths.DataDir, 0755)
		if err != nil {
			panic(err)
		}
	}
}

func ConfigFile() string {
	ensureDefaultPaths()
	return defaultPaths.ConfigFile
}

func LogFile() string {
	ensureDefaultPaths()
	return defaultPaths.LogFile
}

func HistoryFile() string {
	ensureDefaultPaths()
	return defaultPaths.HistoryFile
}

// maxLogFileSize is the size at which the active log is archived.
const maxLogFileSize = 5 << 20

// isArchivedLog matches scamcheck.<anything>.zst, never the active log.
func isArchivedLog(name string) bool {
	return strings.HasPrefix(name, "scamcheck.") && strings.HasSuffix(name, ".zst") && name != "scamcheck.zst"
}

func CleanLogFiles() error {
	ensureDefaultPaths()

	entries, err := os.ReadDir(defaultPaths.DataDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if strings.HasPrefix(name, "scamcheck.") && strings.HasSuffix(name, ".zst") {
			filePath := filepath.Join(defaultPaths.DataDir, name)
			if err := os.Remove(filePath); err != nil {
				return err
			}
		}
	}

	return nil
}

// ArchiveLogFile moves the active log aside once it grows past
// maxLogFileSize, then prunes old archives.
func ArchiveLogFile() error {
	ensureDefaultPaths()

	info, err := os.Stat(defaultPaths.LogFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.Size() < maxLogFileSize {
		return nil
	}

	archived := filepath.Join(defaultPaths.DataDir, fmt.Sprintf("scamcheck.%d.zst", time.Now().UnixNano()))
	if err := os.Rename(defaultPaths.LogFile, archived); err != nil {
		return err
	}

	return RotateLogFiles()
}

// RotateLogFiles removes old archived log files to prevent unbounded growth.
// Keeps the most recent 10 archives (based on modification time).
func RotateLogFiles() error {
	ensureDefaultPaths()

	entries, err := os.ReadDir(defaultPaths.DataDir)
	if err != nil {
		return err
	}

	var logFiles []logFileInfo
	for _, entry := range entries {
		if entry.IsDir() || !isArchivedLog(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		logFiles = append(logFiles, logFileInfo{
			name:    entry.Name(),
			path:    filepath.Join(defaultPaths.DataDir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	const maxLogFiles = 10
	if len(logFiles) <= maxLogFiles {
		return nil
	}

	// Sort by modification time, newest first
	sort.Slice(logFiles, func(i, j int) bool {
		return logFiles[i].modTime.After(logFiles[j].modTime)
	})

	for i := maxLogFiles; i < len(logFiles); i++ {
		if err := os.Remove(logFiles[i].path); err != nil {
			return err
		}
	}

	return nil
}

type logFileInfo struct {
	name    string
	path    string
	modTime time.Time
}
