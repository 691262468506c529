package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"role-admin/internal/shared/model"
	"role-admin/internal/shared/storage"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) UpdateUserProfile(ctx context.Context, id string, name, email *string) error {
	update := bson.D{{Key: "updated_at", Value: time.Now()}}
	if name != nil {
		update = append(update, bson.E{Key: "name", Value: *name})
	}
	if email != nil {
		update = append(update, bson.E{Key: "email", Value: *email})
	}
	return updateFields(ctx, s.col(ColUsers), id, update)
}

func (s *Store) UpdateUserRole(ctx context.Context, id, roleID string) error {
	return updateFields(ctx, s.col(ColUsers), id, bson.D{
		{Key: "role_id", Value: roleID},
		{Key: "updated_at", Value: time.Now()},
	})
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColUsers), id)
}

func (s *Store) ListUsers(ctx context.Context, f storage.UserFilter) ([]*model.User, int64, error) {
	filter := bson.D{}
	if f.RoleID != "" {
		filter = append(filter, bson.E{Key: "role_id", Value: f.RoleID})
	}
	if f.Search != "" {
		re := bson.Regex{Pattern: escapeRegex(f.Search), Options: "i"}
		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "name", Value: re}},
			bson.D{{Key: "email", Value: re}},
		}})
	}

	total, err := s.col(ColUsers).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapError(err)
	}

	sort := bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	users, err := findMany[model.User](ctx, s.col(ColUsers), filter, pageOpts(f.Page, f.Limit, sort))
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (s *Store) SearchUserIDs(ctx context.Context, search string) ([]string, error) {
	re := bson.Regex{Pattern: escapeRegex(search), Options: "i"}
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "name", Value: re}},
		bson.D{{Key: "email", Value: re}},
	}}}

	users, err := findMany[model.User](ctx, s.col(ColUsers), filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}
