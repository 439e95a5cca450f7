package enums

import "fmt"

// AuditAction tags the state-changing operation recorded by an audit row.
type AuditAction string

const (
	AuditMessageCreated       AuditAction = "MESSAGE_CREATED"
	AuditMessageRead          AuditAction = "MESSAGE_READ"
	AuditMessageEdited        AuditAction = "MESSAGE_EDITED"
	AuditMessageDeleted       AuditAction = "MESSAGE_DELETED"
	AuditMessagePinned        AuditAction = "MESSAGE_PINNED"
	AuditMessageUnpinned      AuditAction = "MESSAGE_UNPINNED"
	AuditUserCreated          AuditAction = "USER_CREATED"
	AuditUserUpdated          AuditAction = "USER_UPDATED"
	AuditUserDeactivated      AuditAction = "USER_DEACTIVATED"
	AuditUserActivated        AuditAction = "USER_ACTIVATED"
	AuditPasswordReset        AuditAction = "PASSWORD_RESET"
	AuditPasswordChanged      AuditAction = "PASSWORD_CHANGED"
	AuditLoginSuccess         AuditAction = "LOGIN_SUCCESS"
	AuditLoginFailed          AuditAction = "LOGIN_FAILED"
	AuditBackupExported       AuditAction = "BACKUP_EXPORTED"
	AuditBackupImported       AuditAction = "BACKUP_IMPORTED"
	AuditAttachmentUploaded   AuditAction = "ATTACHMENT_UPLOADED"
	AuditAttachmentDownloaded AuditAction = "ATTACHMENT_DOWNLOADED"
)

var validAuditActions = []AuditAction{
	AuditMessageCreated,
	AuditMessageRead,
	AuditMessageEdited,
	AuditMessageDeleted,
	AuditMessagePinned,
	AuditMessageUnpinned,
	AuditUserCreated,
	AuditUserUpdated,
	AuditUserDeactivated,
	AuditUserActivated,
	AuditPasswordReset,
	AuditPasswordChanged,
	AuditLoginSuccess,
	AuditLoginFailed,
	AuditBackupExported,
	AuditBackupImported,
	AuditAttachmentUploaded,
	AuditAttachmentDownloaded,
}

// IsValid checks whether the action matches the canonical enum.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw strings into AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}

// EntityType names the kind of entity an audit row refers to.
type EntityType string

const (
	EntityMessage    EntityType = "MESSAGE"
	EntityUser       EntityType = "USER"
	EntitySystem     EntityType = "SYSTEM"
	EntityBackup     EntityType = "BACKUP"
	EntityAttachment EntityType = "ATTACHMENT"
)

var validEntityTypes = []EntityType{
	EntityMessage,
	EntityUser,
	EntitySystem,
	EntityBackup,
	EntityAttachment,
}

// IsValid checks whether the entity type matches the canonical enum.
func (e EntityType) IsValid() bool {
	for _, candidate := range validEntityTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseEntityType converts raw strings into EntityType.
func ParseEntityType(value string) (EntityType, error) {
	for _, candidate := range validEntityTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid entity type %q", value)
}
