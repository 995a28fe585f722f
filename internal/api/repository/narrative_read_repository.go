package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang-narrative-engine/internal/entity"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ListParams narrows and orders a narrative listing.
type ListParams struct {
	Offset          int
	Limit           int
	Sentiment       string
	OrderByVelocity bool
}

// NarrativeRow is one listing row: the narrative plus its item count and the
// latest long-period velocity.
type NarrativeRow struct {
	ID             uint
	Title          string
	Summary        string
	Sentiment      string
	SharedEntities datatypes.JSON
	KeyTerms       pq.StringArray `gorm:"type:text[]"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
	ItemCount      int
	LatestVelocity float64
}

// NarrativeReadRepository defines the read-only queries behind the API.
type NarrativeReadRepository interface {
	List(ctx context.Context, params ListParams) ([]NarrativeRow, int64, error)
	GetByID(ctx context.Context, id uint) (*entity.Narrative, error)
	LinkedItems(ctx context.Context, narrativeID uint) ([]entity.ContentItem, error)
	LatestMetrics(ctx context.Context, narrativeID uint) ([]entity.NarrativeMetric, error)
}

// NewNarrativeReadRepository creates a new instance of NarrativeReadRepository.
func NewNarrativeReadRepository(db *gorm.DB) NarrativeReadRepository {
	return &narrativeReadRepository{db: db}
}

type narrativeReadRepository struct {
	db *gorm.DB
}

func (r *narrativeReadRepository) List(ctx context.Context, params ListParams) ([]NarrativeRow, int64, error) {
	var (
		qBuilder strings.Builder
		qParams  []interface{}
	)

	qBuilder.WriteString(`
	SELECT
		n.id,
		n.title,
		n.summary,
		n.sentiment,
		n.shared_entities,
		n.key_terms,
		n.created_at,
		n.updated_at,
		COALESCE(lc.item_count, 0) AS item_count,
		COALESCE(lm.velocity, 0) AS latest_velocity
	FROM narratives AS n
	LEFT JOIN (
		SELECT narrative_id, COUNT(*) AS item_count
		FROM narrative_links
		GROUP BY narrative_id
	) AS lc ON lc.narrative_id = n.id
	LEFT JOIN (
		SELECT DISTINCT ON (narrative_id) narrative_id, velocity
		FROM narrative_metrics
		WHERE period = ?
		ORDER BY narrative_id, calculated_at DESC
	) AS lm ON lm.narrative_id = n.id
`)
	qParams = append(qParams, string(entity.MetricPeriodLong))

	if params.Sentiment != "" {
		qBuilder.WriteString(" WHERE n.sentiment = ?")
		qParams = append(qParams, params.Sentiment)
	}

	if params.OrderByVelocity {
		qBuilder.WriteString(" ORDER BY latest_velocity DESC, n.updated_at DESC")
	} else {
		qBuilder.WriteString(" ORDER BY n.updated_at DESC")
	}
	qBuilder.WriteString(" LIMIT ? OFFSET ?")
	qParams = append(qParams, params.Limit, params.Offset)

	var rows []NarrativeRow
	if err := r.db.WithContext(ctx).Raw(qBuilder.String(), qParams...).Scan(&rows).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list narratives: %w", err)
	}

	countQuery := r.db.WithContext(ctx).Model(&entity.Narrative{})
	if params.Sentiment != "" {
		countQuery = countQuery.Where("sentiment = ?", params.Sentiment)
	}
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count narratives: %w", err)
	}

	return rows, total, nil
}

func (r *narrativeReadRepository) GetByID(ctx context.Context, id uint) (*entity.Narrative, error) {
	var narrative entity.Narrative
	err := r.db.WithContext(ctx).Preload("Links").First(&narrative, id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &narrative, nil
}

func (r *narrativeReadRepository) LinkedItems(ctx context.Context, narrativeID uint) ([]entity.ContentItem, error) {
	var items []entity.ContentItem
	err := r.db.WithContext(ctx).
		Joins("JOIN narrative_links nl ON nl.content_item_id = content_items.id").
		Where("nl.narrative_id = ?", narrativeID).
		Order("content_items.published_at DESC").
		Find(&items).Error
	return items, err
}

// LatestMetrics returns the most recent snapshot per period.
func (r *narrativeReadRepository) LatestMetrics(ctx context.Context, narrativeID uint) ([]entity.NarrativeMetric, error) {
	var metrics []entity.NarrativeMetric
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT ON (period) *
		FROM narrative_metrics
		WHERE narrative_id = ?
		ORDER BY period, calculated_at DESC
	`, narrativeID).Scan(&metrics).Error
	return metrics, err
}
