package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type row struct {
	ID   uint
	Name string
}

func TestExecuteWritesSnapshotAndPrunes(t *testing.T) {
	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "users.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}))
	require.NoError(t, db.Create(&row{Name: "asha"}).Error)

	b := New(Config{Dir: filepath.Join(dir, "backups"), Keep: 2})
	b.Register("users", db)

	var last string
	for i := 0; i < 3; i++ {
		last, err = b.Execute(context.Background(), "users")
		require.NoError(t, err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "backups", "users_*.db"))
	require.NoError(t, err)
	assert.Len(t, files, 2)

	snap, err := gorm.Open(sqlite.Open(last), &gorm.Config{})
	require.NoError(t, err)
	var got row
	require.NoError(t, snap.First(&got).Error)
	assert.Equal(t, "asha", got.Name)
}

func TestExecuteUnknown(t *testing.T) {
	b := New(Config{Dir: t.TempDir()})
	_, err := b.Execute(context.Background(), "missing")
	assert.Error(t, err)
	_, statErr := os.Stat(b.cfg.Dir)
	assert.NoError(t, statErr)
}

type fakeUploader struct {
	files []string
	err   error
}

func (f *fakeUploader) UploadFile(_ context.Context, file string) (string, error) {
	f.files = append(f.files, file)
	return filepath.Base(file), f.err
}

func TestRunUploadsSnapshots(t *testing.T) {
	dir := t.TempDir()
	db, err := gorm.Open(sqlite.Open(filepath.Join(dir, "alerts.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&row{}))

	up := &fakeUploader{}
	b := New(Config{Dir: filepath.Join(dir, "backups"), Offsite: up})
	b.Register("alerts", db)
	b.Run(context.Background())

	require.Len(t, up.files, 1)
	_, statErr := os.Stat(up.files[0])
	assert.NoError(t, statErr)

	// a failing upload keeps the local snapshot
	up.err = errors.New("bucket unreachable")
	b.Run(context.Background())
	files, err := filepath.Glob(filepath.Join(dir, "backups", "alerts_*.db"))
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
