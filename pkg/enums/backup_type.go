package enums

import "fmt"

// BackupType distinguishes export snapshots from restore runs.
type BackupType string

const (
	BackupTypeExport BackupType = "EXPORT"
	BackupTypeImport BackupType = "IMPORT"
)

// IsValid checks whether the backup type matches the canonical enum.
func (b BackupType) IsValid() bool {
	return b == BackupTypeExport || b == BackupTypeImport
}

// ParseBackupType converts raw strings into BackupType.
func ParseBackupType(value string) (BackupType, error) {
	switch BackupType(value) {
	case BackupTypeExport:
		return BackupTypeExport, nil
	case BackupTypeImport:
		return BackupTypeImport, nil
	}
	return "", fmt.Errorf("invalid backup type %q", value)
}
