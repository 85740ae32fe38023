package models

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"gorm.io/gen"
	"gorm.io/gorm"
)

/*
Model generation usage:

	GENERATE_MODELS=true go run .

migrates the schema, prints a column mismatch report (columns present in the
database that no model field maps to) and writes type-safe query helpers to
./generated.
*/

// All lists every persisted model in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Invitation{},
		&Project{},
		&NotionPage{},
		&CacheEntry{},
	}
}

// Migrate creates or updates the tables for every model.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

func GenerateModels(db *gorm.DB, outPath string) error {
	if err := Migrate(db); err != nil {
		return err
	}

	report, err := ColumnMismatchReport(db)
	if err != nil {
		return err
	}
	tables := make([]string, 0, len(report))
	for table := range report {
		tables = append(tables, table)
	}
	sort.Strings(tables)
	for _, table := range tables {
		if len(report[table]) == 0 {
			log.Info().Str("table", table).Msg("All columns are accounted for in the model")
			continue
		}
		log.Warn().Str("table", table).Strs("columns", report[table]).Msg("Columns not accounted for in model")
	}

	g := gen.NewGenerator(gen.Config{
		OutPath:           outPath,
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(db)
	g.ApplyBasic(All()...)
	g.Execute()

	log.Info().Str("outPath", outPath).Msg("Model generation complete")
	return nil
}

// ColumnMismatchReport maps each table to the database columns no model field covers.
func ColumnMismatchReport(db *gorm.DB) (map[string][]string, error) {
	report := make(map[string][]string)
	for _, model := range All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return nil, fmt.Errorf("parse model %T: %w", model, err)
		}

		columnTypes, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return nil, fmt.Errorf("read columns of %s: %w", stmt.Schema.Table, err)
		}
		dbColumns := make([]string, 0, len(columnTypes))
		for _, ct := range columnTypes {
			dbColumns = append(dbColumns, ct.Name())
		}

		report[stmt.Schema.Table] = findColumnMismatches(dbColumns, stmt.Schema.DBNames)
	}
	return report, nil
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool, len(modelFields))
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}

	return mismatches
}
