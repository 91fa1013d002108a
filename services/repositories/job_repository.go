package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lac-hong-legacy/devscope/dto"
	"github.com/lac-hong-legacy/devscope/model"
)

// JobRepository handles persistence of analysis job records
type JobRepository struct {
	BaseRepository
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// CreateJob assigns a v7 id when the record has none.
func (r *JobRepository) CreateJob(ctx context.Context, job *model.AnalysisJob) (*model.AnalysisJob, error) {
	if job.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		job.ID = id.String()
	}
	if err := r.WithContext(ctx).Create(job).Error; err != nil {
		return nil, err
	}
	return job, nil
}

func (r *JobRepository) GetJob(ctx context.Context, id string) (*model.AnalysisJob, error) {
	var job model.AnalysisJob
	if err := r.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *JobRepository) UpdateJob(ctx context.Context, job *model.AnalysisJob) error {
	return r.WithContext(ctx).Save(job).Error
}

// ListInFlight returns pending and analyzing jobs, oldest first.
func (r *JobRepository) ListInFlight(ctx context.Context) ([]model.AnalysisJob, error) {
	var jobs []model.AnalysisJob
	err := r.WithContext(ctx).
		Where("status IN ?", []string{string(dto.StatusPending), string(dto.StatusAnalyzing)}).
		Order("created_at ASC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// DeleteOlderThan removes jobs created before cutoff and reports how many
// rows went away.
func (r *JobRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&model.AnalysisJob{})
	return res.RowsAffected, res.Error
}
