// Package user manages staff accounts: listing, profile reads, updates and
// deactivation. Account creation lives in the auth service.
package user

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/internal/service/audit"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
	"github.com/bridgesphysio/bridges_backend/pkg/util/password"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Profile is the user shape exposed over the API.
type Profile struct {
	ID               string     `json:"id"`
	Name             string     `json:"name,omitempty"`
	Username         string     `json:"username"`
	Email            string     `json:"email,omitempty"`
	Role             string     `json:"role"`
	EmployeeID       int64      `json:"employeeID,omitempty"`
	Administrator    bool       `json:"administrator"`
	Active           bool       `json:"active"`
	Locked           bool       `json:"locked"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLoginAt      *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt,omitempty"`
}

// Provider is the reduced shape used by scheduling dropdowns.
type Provider struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Username   string `json:"username"`
	EmployeeID int64  `json:"employeeID"`
}

type UpdateRequest struct {
	Name     *string
	Email    *string
	Role     *string
	Active   *bool
	Password *string
	Unlock   bool
}

type ListRequest struct {
	Role            string
	IncludeInactive bool
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Profile, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*Profile, error)
	Providers(ctx context.Context) ([]Provider, error)
	Update(ctx context.Context, actorID primitive.ObjectID, actorRole string, id primitive.ObjectID, req UpdateRequest) (*Profile, error)
	Deactivate(ctx context.Context, actorID primitive.ObjectID, actorRole string, id primitive.ObjectID) error
	ByEmployeeID(ctx context.Context, employeeID int64) (*model.User, error)
}

type userService struct {
	col        *mongo.Collection
	auditor    audit.Service
	bcryptCost int
}

func New(db *mongo.Database, auditor audit.Service, bcryptCost int) Service {
	return &userService{
		col:        db.Collection(model.ColUsers),
		auditor:    auditor,
		bcryptCost: bcryptCost,
	}
}

func (s *userService) List(ctx context.Context, req ListRequest) ([]Profile, error) {
	filter := bson.M{}
	if req.Role != "" {
		filter["role"] = req.Role
	}
	if !req.IncludeInactive {
		filter["active"] = true
	}

	cur, err := s.col.Find(ctx, filter, options.Find().SetSort(bson.M{"username": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []model.User
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make([]Profile, 0, len(rows))
	for i := range rows {
		out = append(out, toProfile(&rows[i]))
	}
	return out, nil
}

func (s *userService) GetByID(ctx context.Context, id primitive.ObjectID) (*Profile, error) {
	var u model.User
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	p := toProfile(&u)
	return &p, nil
}

func (s *userService) Providers(ctx context.Context) ([]Provider, error) {
	cur, err := s.col.Find(ctx,
		bson.M{"role": string(authorize.RoleTherapist), "active": true},
		options.Find().SetSort(bson.M{"name": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rows []model.User
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make([]Provider, 0, len(rows))
	for _, u := range rows {
		out = append(out, Provider{
			ID:         u.ID.Hex(),
			Name:       u.Name,
			Username:   u.Username,
			EmployeeID: u.EmployeeID,
		})
	}
	return out, nil
}

func (s *userService) Update(ctx context.Context, actorID primitive.ObjectID, actorRole string, id primitive.ObjectID, req UpdateRequest) (*Profile, error) {
	var u model.User
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, ErrNotFound
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	unset := bson.M{}

	if req.Name != nil {
		set["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		set["email"] = strings.ToLower(strings.TrimSpace(*req.Email))
	}
	if req.Role != nil {
		if !authorize.ValidRole(*req.Role) {
			return nil, ErrValidation
		}
		if u.Administrator && *req.Role != string(authorize.RoleAdmin) {
			if err := s.guardLastAdmin(ctx, id); err != nil {
				return nil, err
			}
		}
		set["role"] = *req.Role
		set["administrator"] = *req.Role == string(authorize.RoleAdmin)
	}
	if req.Active != nil {
		if !*req.Active && u.Administrator {
			if err := s.guardLastAdmin(ctx, id); err != nil {
				return nil, err
			}
		}
		set["active"] = *req.Active
	}
	if req.Password != nil {
		// Re-hash only on an explicit password change.
		hashed, err := password.HashWithCost(*req.Password, s.bcryptCost)
		if err != nil {
			return nil, err
		}
		set["password"] = hashed
	}
	if req.Unlock {
		unset["lockedAt"] = ""
		unset["failedLoginAttempts"] = ""
		set["active"] = true
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	_, err := s.col.UpdateByID(ctx, id, update)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}

	s.auditor.Record(ctx, "user.update", true, audit.Entry{
		Actor: &actorID, ActorRole: actorRole, User: &id, UserRole: u.Role,
	})
	return s.GetByID(ctx, id)
}

// Deactivate disables the account and revokes nothing else: outstanding
// refresh tokens die at the active=true check during refresh.
func (s *userService) Deactivate(ctx context.Context, actorID primitive.ObjectID, actorRole string, id primitive.ObjectID) error {
	var u model.User
	if err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return ErrNotFound
	}
	if u.Administrator {
		if err := s.guardLastAdmin(ctx, id); err != nil {
			return err
		}
	}

	_, err := s.col.UpdateByID(ctx, id, bson.M{
		"$set": bson.M{"active": false, "updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return err
	}

	s.auditor.Record(ctx, "user.delete", true, audit.Entry{
		Actor: &actorID, ActorRole: actorRole, User: &id, UserRole: u.Role,
	})
	return nil
}

func (s *userService) ByEmployeeID(ctx context.Context, employeeID int64) (*model.User, error) {
	var u model.User
	err := s.col.FindOne(ctx, bson.M{"employeeID": employeeID, "active": true}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *userService) guardLastAdmin(ctx context.Context, exclude primitive.ObjectID) error {
	n, err := s.col.CountDocuments(ctx, bson.M{
		"administrator": true,
		"active":        true,
		"_id":           bson.M{"$ne": exclude},
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrLastAdmin
	}
	return nil
}

func toProfile(u *model.User) Profile {
	p := Profile{
		ID:               u.ID.Hex(),
		Name:             u.Name,
		Username:         u.Username,
		Role:             u.Role,
		EmployeeID:       u.EmployeeID,
		Administrator:    u.Administrator,
		Active:           u.Active,
		Locked:           u.Locked(),
		TwoFactorEnabled: u.TwoFactorEnabled,
		LastLoginAt:      u.LastLoginAt,
		CreatedAt:        u.CreatedAt,
	}
	if u.Email != nil {
		p.Email = *u.Email
	}
	return p
}
