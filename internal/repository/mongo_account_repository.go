package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/noah-isme/olympiad-admin-api/internal/models"
	"github.com/noah-isme/olympiad-admin-api/pkg/database"
)

// MongoStudentRepository persists student accounts in the document store.
type MongoStudentRepository struct {
	coll *mongo.Collection
}

// NewMongoStudentRepository constructs a MongoStudentRepository.
func NewMongoStudentRepository(db *mongo.Database) *MongoStudentRepository {
	return &MongoStudentRepository{coll: db.Collection(database.StudentsCollection)}
}

// ExistsByEmail reports whether a student already uses the email.
func (r *MongoStudentRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return emailTaken(ctx, r.coll, email)
}

// Create inserts a new student document.
func (r *MongoStudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, student); err != nil {
		return classifyMongo(err, "insert student")
	}
	return nil
}

// List returns students ordered by creation time, optionally narrowed by school.
func (r *MongoStudentRepository) List(ctx context.Context, filter models.AccountFilter) ([]models.Student, error) {
	query := bson.M{}
	if school := strings.TrimSpace(filter.SchoolName); school != "" {
		query["schoolName"] = bson.M{"$regex": "^" + regexp.QuoteMeta(school) + "$", "$options": "i"}
	}
	cur, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find students: %w", err)
	}
	students := []models.Student{}
	if err := cur.All(ctx, &students); err != nil {
		return nil, fmt.Errorf("decode students: %w", err)
	}
	return students, nil
}

// FilterOptions returns the distinct school names and user types on record.
func (r *MongoStudentRepository) FilterOptions(ctx context.Context) (*models.StudentFilterOptions, error) {
	schools, err := distinctStrings(ctx, r.coll, "schoolName")
	if err != nil {
		return nil, err
	}
	types, err := distinctStrings(ctx, r.coll, "userType")
	if err != nil {
		return nil, err
	}
	return &models.StudentFilterOptions{Schools: schools, UserTypes: types}, nil
}

// MongoSalesUserRepository persists sales agents in the document store.
type MongoSalesUserRepository struct {
	coll *mongo.Collection
}

// NewMongoSalesUserRepository constructs a MongoSalesUserRepository.
func NewMongoSalesUserRepository(db *mongo.Database) *MongoSalesUserRepository {
	return &MongoSalesUserRepository{coll: db.Collection(database.SalesUsersCollection)}
}

// ExistsByEmail reports whether a sales agent already uses the email.
func (r *MongoSalesUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return emailTaken(ctx, r.coll, email)
}

// Create inserts a new sales agent document.
func (r *MongoSalesUserRepository) Create(ctx context.Context, user *models.SalesUser) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, user); err != nil {
		return classifyMongo(err, "insert sales user")
	}
	return nil
}

// List returns every sales agent ordered by creation time.
func (r *MongoSalesUserRepository) List(ctx context.Context, _ models.AccountFilter) ([]models.SalesUser, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find sales users: %w", err)
	}
	users := []models.SalesUser{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode sales users: %w", err)
	}
	return users, nil
}

// MongoAuditRepository stores audit entries alongside the document-store accounts.
type MongoAuditRepository struct {
	coll *mongo.Collection
}

// NewMongoAuditRepository constructs a MongoAuditRepository.
func NewMongoAuditRepository(db *mongo.Database) *MongoAuditRepository {
	return &MongoAuditRepository{coll: db.Collection(database.AuditLogsCollection)}
}

// Create stores an audit log entry.
func (r *MongoAuditRepository) Create(ctx context.Context, log *models.AuditLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	doc := bson.M{
		"_id":        log.ID,
		"userId":     log.UserID,
		"action":     log.Action,
		"resource":   log.Resource,
		"resourceId": log.ResourceID,
		"newValues":  string(log.NewValues),
		"ipAddress":  log.IPAddress,
		"userAgent":  log.UserAgent,
		"createdAt":  log.CreatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}

func emailTaken(ctx context.Context, coll *mongo.Collection, email string) (bool, error) {
	err := coll.FindOne(ctx, bson.M{"email": email}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("check %s email: %w", coll.Name(), err)
	}
	return true, nil
}

func distinctStrings(ctx context.Context, coll *mongo.Collection, field string) ([]string, error) {
	raw, err := coll.Distinct(ctx, field, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct %s: %w", field, err)
	}
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	sort.Strings(values)
	return values, nil
}
