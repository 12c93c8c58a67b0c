package catalog

import (
	"fmt"
	"time"

	"yantra/internal/logging"
	"yantra/internal/store"

	"go.uber.org/zap"
)

// Summary reports how a Seed run disposed of each curated template.
type Summary struct {
	Added   int
	Skipped int
}

// Seed is idempotent: templates already present (by id) are left untouched,
// and everything new is inserted in a single transaction (§4.8). It is safe
// to run on every process start.
func Seed(st *store.Store) (Summary, error) {
	log := logging.L()
	summary := Summary{}

	err := st.WithTransaction(func(sess *store.Session) error {
		for _, d := range curated {
			exists, err := sess.TemplateExists(d.id)
			if err != nil {
				return fmt.Errorf("check template %q: %w", d.id, err)
			}
			if exists {
				summary.Skipped++
				continue
			}

			t := d.toTemplate()
			t.CreatedAt = time.Now().UTC()
			if err := sess.CreateTemplate(&t); err != nil {
				return fmt.Errorf("insert template %q: %w", d.id, err)
			}
			summary.Added++
		}
		return nil
	})
	if err != nil {
		return summary, err
	}

	log.Info("catalog seeded", zap.Int("added", summary.Added), zap.Int("skipped", summary.Skipped))
	return summary, nil
}
