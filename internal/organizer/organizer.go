package organizer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"filearr/internal/config"
	"filearr/internal/fileutil"
	"filearr/internal/logging"
)

// Permissions is applied to the destination directory and file after a move.
// A negative UID or GID leaves that id unchanged; a zero mode is skipped.
type Permissions struct {
	UID      int
	GID      int
	DirMode  os.FileMode
	FileMode os.FileMode
}

// PermissionsFromConfig reads the permissions section of cfg.
func PermissionsFromConfig(cfg *config.Config) Permissions {
	if cfg == nil {
		return Permissions{UID: -1, GID: -1}
	}
	return Permissions{
		UID:      cfg.Permissions.UID,
		GID:      cfg.Permissions.GID,
		DirMode:  cfg.DirMode(),
		FileMode: cfg.FileMode(),
	}
}

// Mover relocates files into destination folders.
type Mover struct {
	perms  Permissions
	logger *slog.Logger
}

// NewMover constructs a Mover.
func NewMover(perms Permissions, logger *slog.Logger) *Mover {
	return &Mover{perms: perms, logger: logging.NewComponentLogger(logger, "organizer")}
}

// Move relocates src to dest and reports success. The cause of a failure is
// logged and the source is left untouched.
func (m *Mover) Move(src, dest string) bool {
	return m.Relocate(src, dest) == nil
}

// Relocate is Move with the failure returned to the caller.
func (m *Mover) Relocate(src, dest string) error {
	logger := m.logger.With(
		logging.String(logging.FieldSource, src),
		logging.String(logging.FieldDestination, dest),
	)
	dir := filepath.Dir(dest)
	dirMode := m.perms.DirMode
	if dirMode == 0 {
		dirMode = 0o755
	}
	if err := os.MkdirAll(dir, dirMode); err != nil {
		err = fmt.Errorf("create destination directory: %w", err)
		logMoveFailure(logger, err)
		return err
	}
	if err := fileutil.MoveFile(src, dest); err != nil {
		err = fmt.Errorf("move file: %w", err)
		logMoveFailure(logger, err)
		return err
	}
	m.applyPermissions(logger, dir, dest)
	logger.Info("file moved", logging.String(logging.FieldEventType, "file_moved"))
	return nil
}

func (m *Mover) applyPermissions(logger *slog.Logger, dir, file string) {
	for _, target := range []struct {
		path string
		mode os.FileMode
	}{
		{dir, m.perms.DirMode},
		{file, m.perms.FileMode},
	} {
		if err := applyOwnership(target.path, m.perms.UID, m.perms.GID); err != nil {
			logging.WarnWithContext(logger, "unable to change ownership", "permissions_failed",
				logging.String(logging.FieldPath, target.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "run as root or set permissions.uid/gid to -1"),
				logging.String(logging.FieldImpact, "file kept its current owner"),
			)
		}
		if target.mode == 0 {
			continue
		}
		if err := os.Chmod(target.path, target.mode); err != nil {
			logging.WarnWithContext(logger, "unable to change mode", "permissions_failed",
				logging.String(logging.FieldPath, target.path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "file kept its current mode"),
			)
		}
	}
}

var unavailableErrors = []error{
	syscall.ENOTCONN,
	syscall.EHOSTDOWN,
	syscall.EHOSTUNREACH,
	syscall.ETIMEDOUT,
	syscall.EIO,
	syscall.ESTALE,
}

// IsUnavailable reports whether err indicates the destination filesystem is
// unreachable, as with a dropped network mount.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range unavailableErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func logMoveFailure(logger *slog.Logger, err error) {
	hint := "check destination permissions and free space"
	switch {
	case errors.Is(err, fileutil.ErrDestinationExists):
		hint = "remove or rename the existing destination file"
	case IsUnavailable(err):
		hint = "check that the library mount is reachable"
	}
	logging.ErrorWithContext(logger, "file move failed", "move_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, hint),
		logging.String(logging.FieldImpact, "source left in place; the next rescan retries it"),
	)
}
