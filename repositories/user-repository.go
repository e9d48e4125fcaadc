package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"yoosprint/models"
)

type UserRepo struct {
	docRepo[models.User]
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{docRepo[models.User]{coll: db.Collection(UsersCollection)}}
}

func (r *UserRepo) Insert(ctx context.Context, u *models.User) error {
	return r.insert(ctx, u)
}

func (r *UserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findByID(ctx, id)
}

func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (r *UserRepo) Find(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = f.Role
	}
	if f.Department != "" {
		q["department"] = f.Department
	}
	return r.find(ctx, q)
}

func (r *UserRepo) Replace(ctx context.Context, u *models.User) error {
	return r.replace(ctx, u.ID, u)
}

func (r *UserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	return r.delete(ctx, id)
}

// ClearExpiredCodes unsets verification codes whose window has closed.
// codeSentAt is kept so a late verify still reports expiry.
func (r *UserRepo) ClearExpiredCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"verificationExpiry": bson.M{"$lte": now}},
		bson.M{"$unset": bson.M{"verificationCode": "", "verificationExpiry": "", "codeAttempts": ""}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired codes: %w", err)
	}
	return res.ModifiedCount, nil
}
