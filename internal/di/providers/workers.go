package providers

import (
	"context"
	"path/filepath"

	"github.com/samber/do/v2"

	"github.com/echomapapp/echomap-server/internal/backup"
	"github.com/echomapapp/echomap-server/internal/config"
	"github.com/echomapapp/echomap-server/internal/logger"
)

// BackupWorkerHandle wraps the backup scheduler with its cancel for
// lifecycle management.
type BackupWorkerHandle struct {
	*backup.Service
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *BackupWorkerHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideBackupWorker provides the periodic database backup worker.
func ProvideBackupWorker(i do.Injector) (*BackupWorkerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	svc := backup.NewService(storeHandle.Store, filepath.Join(cfg.Data.BasePath, "backups"), log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)

	log.Info("Backup worker started")

	return &BackupWorkerHandle{Service: svc, cancel: cancel}, nil
}
