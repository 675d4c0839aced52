package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"quizstorm/internal/model"
)

// GameReportRepo archives summaries of finished sessions. Live rooms are
// never persisted; only their final outcome is.
type GameReportRepo interface {
	Create(ctx context.Context, report *model.GameReport) error
	GetByCode(ctx context.Context, code string) ([]model.GameReport, error)
}

type gameReportRepo struct {
	collection *mongo.Collection
}

// NewGameReportRepo creates a report repository backed by the given database.
func NewGameReportRepo(db *mongo.Database) GameReportRepo {
	return &gameReportRepo{
		collection: db.Collection("game_reports"),
	}
}

func (r *gameReportRepo) Create(ctx context.Context, report *model.GameReport) error {
	_, err := r.collection.InsertOne(ctx, report)
	return err
}

func (r *gameReportRepo) GetByCode(ctx context.Context, code string) ([]model.GameReport, error) {
	cursor, err := r.collection.Find(ctx, map[string]interface{}{"code": code})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reports []model.GameReport
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}
