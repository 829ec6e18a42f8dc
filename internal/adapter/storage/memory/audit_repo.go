package memory

import (
	"context"

	"change-aggregator/internal/core/domain"
)

type auditRepo struct{ v *view }

func (r *auditRepo) Create(_ context.Context, log *domain.AuditLog) error {
	return r.v.write(func(st *state) error {
		st.audit = append(st.audit, *log)
		return nil
	})
}

func (r *auditRepo) List(_ context.Context, limit int) ([]domain.AuditLog, error) {
	out := []domain.AuditLog{}
	r.v.read(func(st *state) {
		for i := len(st.audit) - 1; i >= 0; i-- {
			out = append(out, st.audit[i])
			if limit > 0 && len(out) == limit {
				return
			}
		}
	})
	return out, nil
}
