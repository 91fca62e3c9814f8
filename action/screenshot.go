package action

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BaSui01/browserflow/credential"
	"github.com/BaSui01/browserflow/driver"
)

// Screenshot captures the current page to a file. If the target file already
// exists, a timestamped backup copy is attempted first; backup failures are
// carried in the result message but never fail the action.
type Screenshot struct {
	ActionName string
	FilePath   string
}

var _ Leaf = (*Screenshot)(nil)

// NewScreenshot creates a screenshot action.
func NewScreenshot(name, filePath string) *Screenshot {
	return &Screenshot{ActionName: coerceName(name, TypeScreenshot), FilePath: filePath}
}

func (a *Screenshot) Type() string { return TypeScreenshot }
func (a *Screenshot) Name() string { return coerceName(a.ActionName, TypeScreenshot) }

func (a *Screenshot) Validate() error {
	if a.FilePath == "" {
		return newValidationError(a.Name(), "file_path", "must not be empty")
	}
	return nil
}

func (a *Screenshot) Execute(ctx context.Context, drv driver.Driver, creds credential.Source) *Result {
	backupNote := ""
	if backup, err := backupExisting(a.FilePath); err != nil {
		backupNote = fmt.Sprintf(" (backup of previous file failed: %v)", err)
	} else if backup != "" {
		backupNote = fmt.Sprintf(" (previous file backed up to %s)", filepath.Base(backup))
	}

	if err := drv.TakeScreenshot(ctx, a.FilePath); err != nil {
		return Failuref("screenshot to %s failed: %v", a.FilePath, err)
	}
	return Successf("screenshot saved to %s%s", a.FilePath, backupNote)
}

// backupExisting copies path to a timestamped sibling when it exists. Returns
// the backup path, or "" when there was nothing to back up.
func backupExisting(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", nil // nothing to back up
	}

	ext := filepath.Ext(path)
	base := path[:len(path)-len(ext)]
	backup := fmt.Sprintf("%s.%s%s", base, time.Now().Format("20060102-150405"), ext)

	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(backup)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return backup, nil
}

func (a *Screenshot) ToRecord() Record {
	return Record{"type": TypeScreenshot, "name": a.Name(), "file_path": a.FilePath}
}

func (a *Screenshot) NestedActions() []Action { return nil }

func screenshotFromRecord(rec Record) (Action, error) {
	return NewScreenshot(rec.String("name"), rec.String("file_path")), nil
}
