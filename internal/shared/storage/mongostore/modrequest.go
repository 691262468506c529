package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"role-admin/internal/shared/model"
	"role-admin/internal/shared/storage"
)

// ============================================================================
// ModeratorRequestStore
// ============================================================================

func (s *Store) CreateModeratorRequest(ctx context.Context, req *model.ModeratorRequest) error {
	// 重复 pending 申请由 (user_id, status=pending) 部分唯一索引拦截
	return insertOne(ctx, s.col(ColModeratorRequests), req)
}

func (s *Store) GetModeratorRequest(ctx context.Context, id string) (*model.ModeratorRequest, error) {
	return findOne[model.ModeratorRequest](ctx, s.col(ColModeratorRequests), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListModeratorRequests(ctx context.Context, f storage.RequestFilter) ([]*model.ModeratorRequest, int64, error) {
	filter := bson.D{}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.UserIDs != nil {
		in := bson.A{}
		for _, id := range f.UserIDs {
			in = append(in, id)
		}
		filter = append(filter, bson.E{Key: "user_id", Value: bson.D{{Key: "$in", Value: in}}})
	}

	total, err := s.col(ColModeratorRequests).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	sort := bson.D{{Key: "applied_at", Value: -1}, {Key: "_id", Value: -1}}
	reqs, err := findMany[model.ModeratorRequest](ctx, s.col(ColModeratorRequests), filter, pageOpts(f.Page, f.Limit, sort))
	if err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

// ReviewModeratorRequest 条件更新：filter 同时匹配 _id 和 status=pending，
// 终态写入与 pending 检查在单次 UpdateOne 中完成，无 check-then-act 竞态。
func (s *Store) ReviewModeratorRequest(ctx context.Context, id string, status model.RequestStatus, reviewerID string, comments *string, reviewedAt time.Time) error {
	set := bson.D{
		{Key: "status", Value: status},
		{Key: "reviewed_by", Value: reviewerID},
		{Key: "reviewed_at", Value: reviewedAt},
		{Key: "review_comments", Value: comments},
	}
	filter := bson.D{
		{Key: "_id", Value: id},
		{Key: "status", Value: model.RequestStatusPending},
	}
	res, err := s.col(ColModeratorRequests).UpdateOne(ctx, filter, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		// 区分"不存在"与"已处理"
		existing, err := s.GetModeratorRequest(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return storage.ErrNotFound
		}
		return storage.ErrConflict
	}
	return nil
}
