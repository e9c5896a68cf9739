package history

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type HistoryManager struct {
	db *gorm.DB
}

// HistoryEntry is one settled check.
type HistoryEntry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Message    string
	Variant    string `gorm:"index"`
	Label      string `gorm:"index"`
	Confidence sql.NullFloat64
	Error      string
	SessionID  string `gorm:"index"`
}

// Failed reports whether the check ended in an error instead of a verdict.
func (e HistoryEntry) Failed() bool {
	return e.Error != ""
}

func NewHistoryManager(dbFilePath string) (*HistoryManager, error) {
	// - busy_timeout(5000): tolerate a second client writing the same file
	// - synchronous(1): NORMAL mode for durability/performance balance
	// - temp_store(2): MEMORY
	connectionString := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=synchronous(1)&_pragma=temp_store(2)", dbFilePath)

	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening database")
		return nil, err
	}

	if err := db.AutoMigrate(&HistoryEntry{}); err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// SQLite serializes writes anyway, so multiple connections add overhead
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &HistoryManager{
		db: db,
	}, nil
}

// Close closes the database connection. This should be called when the
// HistoryManager is no longer needed, especially in tests to allow cleanup
// of temporary database files on Windows.
func (historyManager *HistoryManager) Close() error {
	sqlDB, err := historyManager.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (historyManager *HistoryManager) AddEntry(entry *HistoryEntry) error {
	result := historyManager.db.Create(entry)
	return result.Error
}

// GetRecentEntries returns up to limit entries, newest first.
func (historyManager *HistoryManager) GetRecentEntries(limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	result := historyManager.db.Order("created_at desc").Order("id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}
	return entries, nil
}

// GetEntriesSince returns all entries created after the given time, oldest first
func (historyManager *HistoryManager) GetEntriesSince(since time.Time) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	result := historyManager.db.Where("created_at >= ?", since).
		Order("created_at asc").
		Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

func (historyManager *HistoryManager) DeleteEntry(id uint) error {
	result := historyManager.db.Delete(&HistoryEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no history entry found with id %d", id)
	}

	return nil
}

func (historyManager *HistoryManager) ResetHistory() error {
	result := historyManager.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&HistoryEntry{})
	return result.Error
}

func (historyManager *HistoryManager) GetTotalCount() (int64, error) {
	var count int64
	result := historyManager.db.Model(&HistoryEntry{}).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	return count, nil
}
