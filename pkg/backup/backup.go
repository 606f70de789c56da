package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"HerShield/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Config struct {
	Dir string
	// Keep is the number of snapshots retained per database; <=0 keeps 7.
	Keep int
	// Offsite, when set, receives a copy of every snapshot. Pruning only
	// applies to the local directory.
	Offsite Uploader
}

// Uploader copies a finished snapshot somewhere off the host.
type Uploader interface {
	UploadFile(ctx context.Context, file string) (string, error)
}

// Backup snapshots SQLite databases with VACUUM INTO, which is consistent
// while the database is open. Other drivers are expected to be backed up by
// their own tooling and are skipped.
type Backup struct {
	cfg     Config
	targets map[string]*gorm.DB
}

func New(cfg Config) *Backup {
	if cfg.Keep <= 0 {
		cfg.Keep = 7
	}
	return &Backup{cfg: cfg, targets: make(map[string]*gorm.DB)}
}

// Register adds a database under name (used as the file prefix). Non-sqlite
// connections are ignored.
func (b *Backup) Register(name string, db *gorm.DB) {
	if db == nil || db.Dialector.Name() != "sqlite" {
		logger.Info("backup skipped for non-sqlite database", zap.String("name", name))
		return
	}
	b.targets[name] = db
}

// Run is the cron entry point.
func (b *Backup) Run(ctx context.Context) {
	for name := range b.targets {
		dst, err := b.Execute(ctx, name)
		if err != nil {
			logger.Warn("backup failed", zap.String("name", name), zap.Error(err))
			continue
		}
		logger.Info("backup completed", zap.String("name", name), zap.String("file", dst))
		if b.cfg.Offsite == nil {
			continue
		}
		key, err := b.cfg.Offsite.UploadFile(ctx, dst)
		if err != nil {
			logger.Warn("backup upload failed", zap.String("name", name), zap.Error(err))
			continue
		}
		logger.Info("backup uploaded", zap.String("name", name), zap.String("key", key))
	}
}

// Execute writes one snapshot of name and prunes old ones.
func (b *Backup) Execute(ctx context.Context, name string) (string, error) {
	db, ok := b.targets[name]
	if !ok {
		return "", fmt.Errorf("backup: unknown database %q", name)
	}
	if err := os.MkdirAll(b.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	dst := filepath.Join(b.cfg.Dir, fmt.Sprintf("%s_%s.db", name, time.Now().Format("20060102_150405.000000000")))
	if err := db.WithContext(ctx).Exec("VACUUM INTO ?", dst).Error; err != nil {
		return "", fmt.Errorf("vacuum into %s: %w", dst, err)
	}
	if err := b.prune(name); err != nil {
		logger.Warn("backup prune failed", zap.String("name", name), zap.Error(err))
	}
	return dst, nil
}

func (b *Backup) prune(name string) error {
	matches, err := filepath.Glob(filepath.Join(b.cfg.Dir, name+"_*.db"))
	if err != nil {
		return err
	}
	if len(matches) <= b.cfg.Keep {
		return nil
	}
	// timestamped names sort chronologically
	sort.Strings(matches)
	for _, old := range matches[:len(matches)-b.cfg.Keep] {
		if !strings.HasPrefix(filepath.Base(old), name+"_") {
			continue
		}
		if err := os.Remove(old); err != nil {
			return err
		}
	}
	return nil
}
