package services

import (
	"approachlog/internal/backup"
	"approachlog/internal/models"
	"approachlog/internal/providers"
	"approachlog/internal/structures"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gookit/validate"
)

var (
	// ErrNotFound is returned by mutations aimed at a record or person that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid wraps validation failures of records and people.
	ErrInvalid = errors.New("invalid input")
	// ErrRestoreFailed means no usable backup could be read.
	ErrRestoreFailed = errors.New("backup could not be read")
)

// RecordStore is the persistence the service runs on.
type RecordStore interface {
	Put(ctx context.Context, record *models.ApproachRecord) error
	GetAll(ctx context.Context) ([]models.ApproachRecord, error)
	GetByID(ctx context.Context, id string) (*models.ApproachRecord, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, records []models.ApproachRecord) error
	Count(ctx context.Context) (int, error)
}

type ApproachServiceInterface interface {
	Create(ctx context.Context, draft *models.ApproachRecord) (*models.ApproachRecord, error)
	Save(ctx context.Context, record *models.ApproachRecord) (*models.ApproachRecord, error)
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]models.ApproachRecord, error)
	FindByID(ctx context.Context, id string) (*models.ApproachRecord, error)
	Count(ctx context.Context) (int, error)
	Search(ctx context.Context, query string, filters Filters) ([]models.ApproachRecord, error)
	People(ctx context.Context, query string) ([]models.PersonEntry, error)
	Related(ctx context.Context, personID, excludeRecordID string) ([]models.ApproachRecord, error)
	Profile(ctx context.Context, personID string) (*Profile, error)
	UpdatePerson(ctx context.Context, personID string, edit models.PersonEntry) (int, error)
	AddPhoto(ctx context.Context, recordID, personID, url string) (*models.ApproachRecord, error)
	SetProfilePhoto(ctx context.Context, recordID, personID string, index int) (*models.ApproachRecord, error)
	RemovePhoto(ctx context.Context, recordID, personID string, index int) (*models.ApproachRecord, error)
	ExportNow(ctx context.Context) (bool, error)
	ExportTo(ctx context.Context, gateway *backup.Gateway) (bool, error)
	RestoreFromBackup(ctx context.Context) (int, error)
	RestoreFrom(ctx context.Context, gateway *backup.Gateway) (int, error)
}

type ApproachService struct {
	store     RecordStore
	targets   *backup.Targets
	ids       providers.IDProviderInterface
	logger    providers.Logger
	maxPhotos int
	now       func() time.Time
}

func NewApproachService(conf *structures.Config, store RecordStore, targets *backup.Targets, ids providers.IDProviderInterface, logger providers.Logger) ApproachServiceInterface {
	return &ApproachService{
		store:     store,
		targets:   targets,
		ids:       ids,
		logger:    logger,
		maxPhotos: conf.Photos.MaxPerPerson,
		now:       time.Now,
	}
}

// Create stores a new record built from draft. The record always gets a
// fresh id; people without an id get one too, so re-approached people keep
// theirs. An empty date becomes the current time.
func (s *ApproachService) Create(ctx context.Context, draft *models.ApproachRecord) (*models.ApproachRecord, error) {
	if draft == nil {
		return nil, fmt.Errorf("%w: empty record", ErrInvalid)
	}
	record := draft.Clone()
	record.ID = s.ids.NewID()
	if record.Date == "" {
		record.Date = s.now().UTC().Format(time.RFC3339)
	}
	for i := range record.People {
		if record.People[i].ID == "" {
			record.People[i].ID = s.ids.NewID()
		}
	}
	return record, s.persist(ctx, record)
}

// Save upserts record, re-deriving its mirror fields. The date of an already
// stored record is fixed at creation and survives the save.
func (s *ApproachService) Save(ctx context.Context, record *models.ApproachRecord) (*models.ApproachRecord, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: empty record", ErrInvalid)
	}
	saved := record.Clone()
	if saved.ID != "" {
		existing, err := s.store.GetByID(ctx, saved.ID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.Date != saved.Date {
			s.logger.Debugf(providers.TypeStore, "Keeping stored date of approach %s", saved.ID)
			saved.Date = existing.Date
		}
	}
	return saved, s.persist(ctx, saved)
}

func (s *ApproachService) persist(ctx context.Context, record *models.ApproachRecord) error {
	record.SyncMirror()
	if err := validateRecord(record); err != nil {
		return err
	}
	return s.store.Put(ctx, record)
}

func validateRecord(record *models.ApproachRecord) error {
	v := validate.Struct(record)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", ErrInvalid, v.Errors.Error())
	}
	for i := range record.People {
		if err := validatePerson(&record.People[i]); err != nil {
			return fmt.Errorf("%w (person %d)", err, i)
		}
	}
	return nil
}

func validatePerson(person *models.PersonEntry) error {
	v := validate.Struct(person)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", ErrInvalid, v.Errors.Error())
	}
	return nil
}

func (s *ApproachService) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

func (s *ApproachService) ListAll(ctx context.Context) ([]models.ApproachRecord, error) {
	return s.store.GetAll(ctx)
}

func (s *ApproachService) FindByID(ctx context.Context, id string) (*models.ApproachRecord, error) {
	return s.store.GetByID(ctx, id)
}

func (s *ApproachService) Count(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// Search applies the free-text query and the structured filters together.
func (s *ApproachService) Search(ctx context.Context, query string, filters Filters) ([]models.ApproachRecord, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return Search(records, func(r *models.ApproachRecord) bool {
		return MatchText(query)(r) && filters.Match(r)
	}), nil
}

func (s *ApproachService) People(ctx context.Context, query string) ([]models.PersonEntry, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return FindUniquePeople(records, query), nil
}

func (s *ApproachService) Related(ctx context.Context, personID, excludeRecordID string) ([]models.ApproachRecord, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return RelatedTo(records, personID, excludeRecordID), nil
}

func (s *ApproachService) Profile(ctx context.Context, personID string) (*Profile, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	profile := PersonProfile(records, personID)
	if profile == nil {
		return nil, fmt.Errorf("person %s: %w", personID, ErrNotFound)
	}
	return profile, nil
}

// UpdatePerson merges the identity fields of edit into the person with personID
// in every record embedding it and returns how many records were rewritten. It
// stops at the first failed write; records already rewritten stay rewritten.
func (s *ApproachService) UpdatePerson(ctx context.Context, personID string, edit models.PersonEntry) (int, error) {
	edit.ID = personID
	if err := validatePerson(&edit); err != nil {
		return 0, err
	}

	records, err := s.store.GetAll(ctx)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range records {
		idx := records[i].PersonIndex(personID)
		if idx < 0 {
			continue
		}
		record := records[i].Clone()
		record.People[idx].MergeIdentity(edit)
		if err := s.persist(ctx, record); err != nil {
			return updated, err
		}
		updated++
	}
	if updated == 0 {
		return 0, fmt.Errorf("person %s: %w", personID, ErrNotFound)
	}
	s.logger.Infof(providers.TypeStore, "Person %s updated in %d records", personID, updated)
	return updated, nil
}

func (s *ApproachService) AddPhoto(ctx context.Context, recordID, personID, url string) (*models.ApproachRecord, error) {
	return s.editPerson(ctx, recordID, personID, func(p *models.PersonEntry) error {
		return p.AddPhoto(url, s.maxPhotos)
	})
}

func (s *ApproachService) SetProfilePhoto(ctx context.Context, recordID, personID string, index int) (*models.ApproachRecord, error) {
	return s.editPerson(ctx, recordID, personID, func(p *models.PersonEntry) error {
		return p.SetProfilePhoto(index)
	})
}

func (s *ApproachService) RemovePhoto(ctx context.Context, recordID, personID string, index int) (*models.ApproachRecord, error) {
	return s.editPerson(ctx, recordID, personID, func(p *models.PersonEntry) error {
		return p.RemovePhoto(index)
	})
}

// editPerson applies fn to a copy of one person of one record and stores the
// result. The stored record is untouched when fn or the write fails.
func (s *ApproachService) editPerson(ctx context.Context, recordID, personID string, fn func(p *models.PersonEntry) error) (*models.ApproachRecord, error) {
	current, err := s.store.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("record %s: %w", recordID, ErrNotFound)
	}

	record := current.Clone()
	idx := record.PersonIndex(personID)
	if idx < 0 {
		return nil, fmt.Errorf("person %s in record %s: %w", personID, recordID, ErrNotFound)
	}
	if err := fn(&record.People[idx]); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

// ExportNow writes the full record set to every configured backup target and
// reports whether the primary target was written.
func (s *ApproachService) ExportNow(ctx context.Context) (bool, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return false, err
	}
	ok := s.targets.Primary.ExportSnapshot(ctx, records)
	for _, mirror := range s.targets.Mirrors {
		mirror.ExportSnapshot(ctx, records)
	}
	return ok, nil
}

func (s *ApproachService) ExportTo(ctx context.Context, gateway *backup.Gateway) (bool, error) {
	records, err := s.store.GetAll(ctx)
	if err != nil {
		return false, err
	}
	return gateway.ExportSnapshot(ctx, records), nil
}

func (s *ApproachService) RestoreFromBackup(ctx context.Context) (int, error) {
	return s.RestoreFrom(ctx, s.targets.Primary)
}

// RestoreFrom replaces the store contents with the snapshot read through
// gateway. Records are stored verbatim.
func (s *ApproachService) RestoreFrom(ctx context.Context, gateway *backup.Gateway) (int, error) {
	records := gateway.ImportSnapshot(ctx)
	if records == nil {
		return 0, ErrRestoreFailed
	}
	if err := s.store.ReplaceAll(ctx, records); err != nil {
		return 0, err
	}
	s.logger.Infof(providers.TypeBackup, "Restored %d records from %s", len(records), gateway.Name())
	return len(records), nil
}
