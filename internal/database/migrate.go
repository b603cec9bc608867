package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/localnerve/aris-backend/internal/models"
	"gorm.io/gorm"
)

// Migration is one ordered, recorded schema step
type Migration struct {
	ID          string
	Destructive bool
	Up          func(tx *gorm.DB) error
	Down        func(tx *gorm.DB) error
}

// Migration ids
const (
	StatusEnum        = "0001_document_status_enum"
	BaseSchema        = "0002_base_schema"
	TimezoneDeletedAt = "0003_timezone_aware_deleted_at"
	RetirePublication = "0004_retire_publication"
)

// ErrSchemaAhead is returned when the database carries migrations past the requested target
var ErrSchemaAhead = errors.New("schema is ahead of the requested revision")

var migrations = []Migration{
	{ID: StatusEnum, Up: createStatusEnum, Down: dropStatusEnum},
	{ID: BaseSchema, Up: createBaseSchema, Down: dropBaseSchema},
	{ID: TimezoneDeletedAt, Up: convertDeletedAt, Down: noop},
	{ID: RetirePublication, Destructive: true, Up: retirePublication, Down: restorePublication},
}

// Migrations returns the ordered migration steps
func Migrations() []Migration {
	out := make([]Migration, len(migrations))
	copy(out, migrations)
	return out
}

// TargetFor returns the last migration a schema revision requires
func TargetFor(rev models.SchemaRevision) string {
	if rev == models.RevisionDraftOnly {
		return RetirePublication
	}
	return TimezoneDeletedAt
}

func indexOf(id string) int {
	for i, m := range migrations {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// Applied returns the ids of the applied migrations in order
func Applied(db *gorm.DB) ([]string, error) {
	if err := db.AutoMigrate(&models.SchemaMigration{}); err != nil {
		return nil, fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	var rows []models.SchemaMigration
	if err := db.Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// Migrate applies every pending migration up to and including target.
// Each step runs in its own transaction together with its record.
func Migrate(db *gorm.DB, target string, log hclog.Logger) error {
	limit := indexOf(target)
	if limit < 0 {
		return fmt.Errorf("unknown migration target %q", target)
	}

	applied, err := Applied(db)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(applied))
	for _, id := range applied {
		if indexOf(id) > limit {
			return fmt.Errorf("%w: %s is applied, target is %s", ErrSchemaAhead, id, target)
		}
		done[id] = true
	}

	for _, m := range migrations[:limit+1] {
		if done[m.ID] {
			continue
		}

		if m.Destructive {
			log.Warn("applying destructive migration", "id", m.ID)
		} else {
			log.Info("applying migration", "id", m.ID)
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&models.SchemaMigration{
				ID:          m.ID,
				AppliedAt:   tx.NowFunc(),
				Destructive: m.Destructive,
			}).Error
		})
		if err != nil {
			return fmt.Errorf("migration %s failed: %w", m.ID, err)
		}
	}

	return nil
}

// Rollback reverts applied migrations, newest first, until target is the newest applied.
// An empty target reverts everything.
func Rollback(db *gorm.DB, target string, log hclog.Logger) error {
	limit := -1
	if target != "" {
		if limit = indexOf(target); limit < 0 {
			return fmt.Errorf("unknown migration target %q", target)
		}
	}

	applied, err := Applied(db)
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(applied))
	for _, id := range applied {
		done[id] = true
	}

	for i := len(migrations) - 1; i > limit; i-- {
		m := migrations[i]
		if !done[m.ID] {
			continue
		}

		log.Info("reverting migration", "id", m.ID)
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&models.SchemaMigration{ID: m.ID}).Error
		})
		if err != nil {
			return fmt.Errorf("rollback of %s failed: %w", m.ID, err)
		}
	}

	return nil
}

// Previous returns the id of the migration before the newest applied one, or ""
func Previous(db *gorm.DB) (string, error) {
	applied, err := Applied(db)
	if err != nil {
		return "", err
	}
	if len(applied) < 2 {
		return "", nil
	}
	return applied[len(applied)-2], nil
}

func noop(*gorm.DB) error { return nil }

func isPostgres(tx *gorm.DB) bool {
	return tx.Dialector.Name() == "postgres"
}

func enumLiteral(statuses []models.DocumentStatus) string {
	quoted := make([]string, 0, len(statuses))
	for _, s := range statuses {
		quoted = append(quoted, "'"+string(s)+"'")
	}
	return strings.Join(quoted, ", ")
}

func createStatusEnum(tx *gorm.DB) error {
	if !isPostgres(tx) {
		return nil
	}
	return tx.Exec(fmt.Sprintf(`DO $$ BEGIN
	CREATE TYPE %s AS ENUM (%s);
EXCEPTION WHEN duplicate_object THEN NULL;
END $$`, models.StatusEnumName, enumLiteral(models.AllStatuses))).Error
}

func dropStatusEnum(tx *gorm.DB) error {
	if !isPostgres(tx) {
		return nil
	}
	return tx.Exec("DROP TYPE IF EXISTS " + models.StatusEnumName).Error
}

func createBaseSchema(tx *gorm.DB) error {
	return tx.AutoMigrate(models.All()...)
}

func dropBaseSchema(tx *gorm.DB) error {
	return tx.Migrator().DropTable("document_tags", &models.FileAsset{}, &models.Tag{}, &models.Document{}, &models.User{})
}

// convertDeletedAt turns naive delete timestamps into timezone-aware ones, reading them as UTC
func convertDeletedAt(tx *gorm.DB) error {
	if !isPostgres(tx) {
		return nil
	}

	var naive []struct {
		TableName string
	}
	if err := tx.Raw(`SELECT table_name FROM information_schema.columns
WHERE table_schema = current_schema() AND column_name = 'deleted_at'
AND data_type = 'timestamp without time zone'`).Scan(&naive).Error; err != nil {
		return err
	}

	for _, col := range naive {
		if err := tx.Exec(fmt.Sprintf(
			`ALTER TABLE %q ALTER COLUMN deleted_at TYPE timestamptz USING deleted_at AT TIME ZONE 'UTC'`,
			col.TableName)).Error; err != nil {
			return err
		}
	}
	return nil
}

// publicationIndexes are the unique indexes on the publication columns
var publicationIndexes = []string{"DOI", "PublicUUID", "PermalinkSlug"}

// documentIndexes are the plain indexes that must survive a table rebuild
var documentIndexes = []string{"Status", "OwnerID", "DeletedAt"}

// retirePublication removes every non-DRAFT document with its tags and assets, narrows
// the status enumeration to DRAFT and drops the publication columns. Removed rows are gone for good.
func retirePublication(tx *gorm.DB) error {
	retired := tx.Unscoped().Model(&models.Document{}).Select("id").Where("status <> ?", models.StatusDraft)

	if err := tx.Exec("DELETE FROM document_tags WHERE document_id IN (?)", retired).Error; err != nil {
		return err
	}
	if err := tx.Unscoped().Where("document_id IN (?)", retired).Delete(&models.FileAsset{}).Error; err != nil {
		return err
	}
	if err := tx.Unscoped().Where("status <> ?", models.StatusDraft).Delete(&models.Document{}).Error; err != nil {
		return err
	}

	if isPostgres(tx) {
		if err := replaceStatusEnum(tx, []models.DocumentStatus{models.StatusDraft}); err != nil {
			return err
		}
	}

	m := tx.Migrator()
	for _, index := range publicationIndexes {
		if m.HasIndex(&models.Document{}, index) {
			if err := m.DropIndex(&models.Document{}, index); err != nil {
				return err
			}
		}
	}
	for _, column := range models.PublicationColumns {
		if m.HasColumn(&models.Document{}, column) {
			if err := m.DropColumn(&models.Document{}, column); err != nil {
				return err
			}
		}
	}

	return ensureIndexes(tx, documentIndexes)
}

// restorePublication re-adds the publication columns and the full enumeration.
// Documents removed on the way up are not restored.
func restorePublication(tx *gorm.DB) error {
	if isPostgres(tx) {
		if err := replaceStatusEnum(tx, models.AllStatuses); err != nil {
			return err
		}
	}

	m := tx.Migrator()
	for _, field := range []string{"DOI", "PublishedAt", "PublicUUID", "PermalinkSlug"} {
		if !m.HasColumn(&models.Document{}, field) {
			if err := m.AddColumn(&models.Document{}, field); err != nil {
				return err
			}
		}
	}

	return ensureIndexes(tx, append(append([]string{}, publicationIndexes...), documentIndexes...))
}

func ensureIndexes(tx *gorm.DB, fields []string) error {
	m := tx.Migrator()
	for _, field := range fields {
		if !m.HasIndex(&models.Document{}, field) {
			if err := m.CreateIndex(&models.Document{}, field); err != nil {
				return err
			}
		}
	}
	return nil
}

// replaceStatusEnum swaps the postgres status type for one carrying exactly statuses
func replaceStatusEnum(tx *gorm.DB, statuses []models.DocumentStatus) error {
	name := models.StatusEnumName
	steps := []string{
		"ALTER TABLE documents ALTER COLUMN status DROP DEFAULT",
		fmt.Sprintf("ALTER TYPE %s RENAME TO %s_old", name, name),
		fmt.Sprintf("CREATE TYPE %s AS ENUM (%s)", name, enumLiteral(statuses)),
		fmt.Sprintf("ALTER TABLE documents ALTER COLUMN status TYPE %s USING status::text::%s", name, name),
		fmt.Sprintf("ALTER TABLE documents ALTER COLUMN status SET DEFAULT '%s'", models.StatusDraft),
		fmt.Sprintf("DROP TYPE %s_old", name),
	}
	for _, step := range steps {
		if err := tx.Exec(step).Error; err != nil {
			return err
		}
	}
	return nil
}
