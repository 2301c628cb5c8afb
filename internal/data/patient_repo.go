package data

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nurser/dutyboard/internal/domain/model"
)

const patientsCollection = "patients"

// PatientRepo provides database operations for patients.
type PatientRepo struct {
	collection   *mongo.Collection
	timeProvider TimeProvider
}

// NewPatientRepo creates a new PatientRepo with real time provider.
func NewPatientRepo(db *mongo.Database) *PatientRepo {
	r := &PatientRepo{
		collection:   db.Collection(patientsCollection),
		timeProvider: &RealTimeProvider{},
	}
	r.ensureIndexes()
	return r
}

// NewPatientRepoWithTimeProvider creates a new PatientRepo with a custom time provider (useful for tests).
func NewPatientRepoWithTimeProvider(db *mongo.Database, tp TimeProvider) *PatientRepo {
	r := &PatientRepo{
		collection:   db.Collection(patientsCollection),
		timeProvider: tp,
	}
	r.ensureIndexes()
	return r
}

func (r *PatientRepo) ensureIndexes() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "medical_record_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "room_number", Value: 1}},
		},
	})
}

// Create admits a new patient.
func (r *PatientRepo) Create(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	if req == nil {
		return nil, errors.New("create patient request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := r.timeProvider.Now().UTC()
	patient := model.Patient{
		ID:                  primitive.NewObjectID().Hex(),
		FirstName:           strings.TrimSpace(req.FirstName),
		LastName:            strings.TrimSpace(req.LastName),
		DateOfBirth:         req.DateOfBirth.UTC(),
		Gender:              req.Gender,
		MedicalRecordNumber: strings.TrimSpace(req.MedicalRecordNumber),
		RoomNumber:          strings.TrimSpace(req.RoomNumber),
		AdmissionDate:       req.AdmissionDate.UTC(),
		PrimaryDiagnosis:    strings.TrimSpace(req.PrimaryDiagnosis),
		SecondaryDiagnoses:  req.SecondaryDiagnoses,
		Allergies:           req.Allergies,
		Medications:         req.Medications,
		SpecialNeeds:        req.SpecialNeeds,
		Status:              req.Status,
		Active:              true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if _, err := r.collection.InsertOne(ctx, patient); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrMedicalRecordNumberExists
		}
		return nil, fmt.Errorf("create patient: %w", err)
	}
	return &patient, nil
}

// GetByID retrieves a patient by id.
func (r *PatientRepo) GetByID(ctx context.Context, id string) (*model.Patient, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrPatientNotFound
	}

	var patient model.Patient
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return &patient, nil
}

// GetByMedicalRecordNumber retrieves a patient by MRN.
func (r *PatientRepo) GetByMedicalRecordNumber(ctx context.Context, mrn string) (*model.Patient, error) {
	var patient model.Patient
	err := r.collection.FindOne(ctx, bson.M{"medical_record_number": mrn}).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient by mrn: %w", err)
	}
	return &patient, nil
}

// List retrieves patients ordered by admission date descending with paging
// and optional filters.
func (r *PatientRepo) List(ctx context.Context, opts *model.PatientsListOptions) ([]model.Patient, error) {
	if opts == nil {
		opts = &model.PatientsListOptions{}
	}

	filter := r.listFilter(opts)
	findOpts := options.Find().
		SetSort(bson.D{{Key: "admission_date", Value: -1}}).
		SetSkip(int64(opts.Offset))
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer cursor.Close(ctx)

	patients := []model.Patient{}
	if err := cursor.All(ctx, &patients); err != nil {
		return nil, fmt.Errorf("decode patients: %w", err)
	}
	return patients, nil
}

// Count returns the number of patients matching the filters in opts.
func (r *PatientRepo) Count(ctx context.Context, opts *model.PatientsListOptions) (int64, error) {
	if opts == nil {
		opts = &model.PatientsListOptions{}
	}
	count, err := r.collection.CountDocuments(ctx, r.listFilter(opts))
	if err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return count, nil
}

func (r *PatientRepo) listFilter(opts *model.PatientsListOptions) bson.M {
	filter := bson.M{}
	if opts.Active != nil {
		filter["active"] = *opts.Active
	}
	if opts.Room != nil {
		filter["room_number"] = *opts.Room
	}
	return filter
}

// Update applies field updates and returns the updated patient.
func (r *PatientRepo) Update(ctx context.Context, id string, req *model.UpdatePatientRequest) (*model.Patient, error) {
	if req == nil {
		return nil, errors.New("update patient request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	set := bson.M{"updated_at": r.timeProvider.Now().UTC()}
	if req.FirstName != nil {
		set["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		set["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.RoomNumber != nil {
		set["room_number"] = strings.TrimSpace(*req.RoomNumber)
	}
	if req.PrimaryDiagnosis != nil {
		set["primary_diagnosis"] = strings.TrimSpace(*req.PrimaryDiagnosis)
	}
	if req.Status != nil {
		set["status"] = *req.Status
	}

	var patient model.Patient
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("update patient: %w", err)
	}
	return &patient, nil
}

// Discharge records the discharge date and marks the patient inactive.
// Discharging an already-discharged patient is a no-op that returns the
// stored record unchanged.
func (r *PatientRepo) Discharge(ctx context.Context, id string, dischargeDate time.Time) (*model.Patient, error) {
	if dischargeDate.IsZero() {
		dischargeDate = r.timeProvider.Now()
	}

	var patient model.Patient
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "active": true},
		bson.M{"$set": bson.M{
			"discharge_date": dischargeDate.UTC(),
			"status":         model.PatientStatusDischarged,
			"active":         false,
			"updated_at":     r.timeProvider.Now().UTC(),
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&patient)
	if err == nil {
		return &patient, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("discharge patient: %w", err)
	}
	return r.GetByID(ctx, id)
}

// AddMedication appends one medication to the patient's medication list.
func (r *PatientRepo) AddMedication(ctx context.Context, id string, med model.Medication) (*model.Patient, error) {
	if err := med.Validate(); err != nil {
		return nil, err
	}

	var patient model.Patient
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"medications": med},
			"$set":  bson.M{"updated_at": r.timeProvider.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&patient)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("add medication: %w", err)
	}
	return &patient, nil
}
