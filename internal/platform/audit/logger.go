package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	apiContext "spaces/internal/api/context"
	"spaces/internal/platform/repositories"
)

const (
	ActionSpaceCreated       = "space.created"
	ActionSpaceNameSet       = "space.name_set"
	ActionSpaceDescSet       = "space.description_set"
	ActionSpaceColorSet      = "space.color_set"
	ActionSpaceTypeSet       = "space.type_set"
	ActionStatusAdded        = "space_status.added"
	ActionStatusEdited       = "space_status.edited"
	ActionProfileCreated     = "profile.created"
	ActionProfileUpdated     = "profile.updated"
	ActionAvatarUploadIssued = "profile.avatar_upload_issued"
)

type AuditLog struct {
	ID             string                 `json:"id"`
	OrganizationID string                 `json:"organizationId"`
	UserID         string                 `json:"userId"`
	Action         string                 `json:"action"`
	ResourceType   string                 `json:"resourceType"`
	ResourceID     string                 `json:"resourceId"`
	Metadata       map[string]interface{} `json:"metadata"`
	IPAddress      string                 `json:"ipAddress"`
	UserAgent      string                 `json:"userAgent"`
	CreatedAt      int64                  `json:"createdAt"`
}

type Logger struct {
	db      *sql.DB
	members *repositories.OrgMemberRepository
	wg      sync.WaitGroup
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db, members: repositories.NewOrgMemberRepository(db)}
}

// Log records an action asynchronously. Organization and user come from the
// request context. A user-scoped action, such as a profile change, is
// recorded once in every organization the user is an active member of, and
// dropped when there is none.
func (l *Logger) Log(ctx context.Context, action, resourceType, resourceID string, metadata map[string]interface{}) {
	var orgID, userID string

	if claims, ok := apiContext.ClaimsFrom(ctx); ok {
		userID = claims.UserID
	}
	if org, ok := apiContext.OrgFrom(ctx); ok {
		orgID = org.OrgID
	}

	client := apiContext.ClientFrom(ctx)

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		metaJSON = []byte("{}")
	}

	entry := &AuditLog{
		ID:             "audit_" + uuid.New().String(),
		OrganizationID: orgID,
		UserID:         userID,
		Action:         action,
		ResourceType:   resourceType,
		ResourceID:     resourceID,
		Metadata:       metadata,
		IPAddress:      client.IP,
		UserAgent:      client.UserAgent,
		CreatedAt:      time.Now().Unix(),
	}

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		orgIDs := []string{entry.OrganizationID}
		if entry.OrganizationID == "" {
			var err error
			orgIDs, err = l.userOrgs(ctx, entry.UserID)
			if err != nil {
				log.Error().Err(err).Str("action", entry.Action).Msg("failed to resolve audit organizations")
				return
			}
			if len(orgIDs) == 0 {
				log.Debug().Str("action", entry.Action).Str("user_id", entry.UserID).Msg("no organization to audit against")
				return
			}
		}

		for i, orgID := range orgIDs {
			id := entry.ID
			if i > 0 {
				id = "audit_" + uuid.New().String()
			}
			_, err := l.db.ExecContext(ctx, `
				INSERT INTO audit_logs (id, organization_id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, id, orgID, entry.UserID, entry.Action, entry.ResourceType, entry.ResourceID, string(metaJSON), entry.IPAddress, entry.UserAgent, entry.CreatedAt)
			if err != nil {
				log.Error().Err(err).Str("action", entry.Action).Str("resource_id", entry.ResourceID).Msg("failed to write audit log")
			}
		}
	}()
}

func (l *Logger) userOrgs(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}
	return l.members.ActiveOrgIDs(ctx, userID)
}

// Wait blocks until every pending write has finished.
func (l *Logger) Wait() {
	l.wg.Wait()
}

func (l *Logger) List(ctx context.Context, orgID string, limit int) ([]*AuditLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := l.db.QueryContext(ctx, `
		SELECT id, organization_id, user_id, action, resource_type, resource_id, metadata, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE organization_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []*AuditLog{}
	for rows.Next() {
		entry := &AuditLog{}
		var meta sql.NullString
		if err := rows.Scan(&entry.ID, &entry.OrganizationID, &entry.UserID, &entry.Action, &entry.ResourceType, &entry.ResourceID, &meta, &entry.IPAddress, &entry.UserAgent, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &entry.Metadata); err != nil {
				log.Warn().Err(err).Str("id", entry.ID).Msg("unreadable audit metadata")
			}
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}
