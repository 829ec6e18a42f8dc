package postgres

import (
	"context"

	"change-aggregator/internal/core/domain"
)

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	db DBTX
}

// NewAuditRepo creates a PostgreSQL-backed audit repository.
func NewAuditRepo(db DBTX) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO audit_logs (id, actor_role, actor_id, action, resource_type, resource_id, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		log.ID, log.ActorRole, log.ActorID, log.Action, log.ResourceType,
		log.ResourceID, log.Details, log.IPAddress, log.CreatedAt,
	)
	if err != nil {
		return wrapErr("insert audit log", err)
	}
	return nil
}

func (r *AuditRepo) List(ctx context.Context, limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, actor_role, actor_id, action, resource_type, resource_id, details, ip_address, created_at
		 FROM audit_logs ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, wrapErr("list audit logs", err)
	}
	defer rows.Close()

	logs := []domain.AuditLog{}
	for rows.Next() {
		var l domain.AuditLog
		if err := rows.Scan(&l.ID, &l.ActorRole, &l.ActorID, &l.Action, &l.ResourceType,
			&l.ResourceID, &l.Details, &l.IPAddress, &l.CreatedAt); err != nil {
			return nil, wrapErr("scan audit log", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("iterate audit logs", err)
	}
	return logs, nil
}
